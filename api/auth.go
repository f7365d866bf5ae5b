package api

import (
	"net/http"

	"github.com/Domenick1991/skybook/internal/middleware"
	"github.com/Domenick1991/skybook/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service auth.AuthUseCase
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(service auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(router *gin.RouterGroup, authn gin.HandlerFunc, limiter gin.HandlerFunc) {
	router.POST("/register", limiter, h.register)
	router.POST("/login", limiter, h.login)
	router.GET("/me", authn, h.me)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) me(c *gin.Context) {
	if user := middleware.UserFrom(c); user != nil {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}
	user, err := h.service.Me(c.Request.Context(), actor(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
