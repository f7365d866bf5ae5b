package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
