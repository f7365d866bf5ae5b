package api

import (
	"net/http"

	"github.com/Domenick1991/skybook/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type searchQuery struct {
	Origin        string `form:"origin"`
	Destination   string `form:"destination"`
	DepartureDate string `form:"departure_date"`
	SortBy        string `form:"sort_by"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

// Register mounts the catalog. Reads are public, writes need admin.
func (h *FlightHandler) Register(router *gin.RouterGroup, authn, admin gin.HandlerFunc) {
	router.GET("", h.search)
	router.GET("/:id", h.get)
	router.POST("", authn, admin, h.create)
	router.PUT("/:id", authn, admin, h.update)
	router.DELETE("/:id", authn, admin, h.delete)
}

func (h *FlightHandler) search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "page and limit must be numbers")
		return
	}
	res, err := h.service.Search(c.Request.Context(), flights.SearchInput{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		SortBy:        q.SortBy,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight": flight})
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.FlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	flight, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Flight created successfully", "flight": flight})
}

func (h *FlightHandler) update(c *gin.Context) {
	var req flights.FlightUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	flight, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Flight updated successfully", "flight": flight})
}

func (h *FlightHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Flight deleted successfully"})
}
