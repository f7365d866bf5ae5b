package api

import (
	"net/http"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/service/users"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service users.UserUseCase
}

type roleRequest struct {
	Role domain.Role `json:"role"`
}

func NewUserHandler(service users.UserUseCase) *UserHandler {
	return &UserHandler{service: service}
}

// Register expects authn to be applied to the whole group.
func (h *UserHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("", admin, h.list)
	router.GET("/profile", h.profile)
	router.PUT("/profile", h.updateProfile)
	router.DELETE("/:id", admin, h.delete)
	router.PATCH("/:id/role", admin, h.updateRole)
}

func (h *UserHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h *UserHandler) profile(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) updateProfile(c *gin.Context) {
	var req users.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *UserHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *UserHandler) updateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, err := h.service.UpdateRole(c.Request.Context(), actor(c), c.Param("id"), req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": user})
}
