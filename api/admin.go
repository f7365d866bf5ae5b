package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *BookingHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/stats", h.stats)
}

func (h *BookingHandler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
