package api

import (
	"github.com/Domenick1991/skybook/internal/middleware"
	"github.com/Domenick1991/skybook/internal/service/auth"
	"github.com/Domenick1991/skybook/internal/service/booking"
	"github.com/Domenick1991/skybook/internal/service/flights"
	"github.com/Domenick1991/skybook/internal/service/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Logger    *zap.Logger
	ClientURL string
	Auth      auth.AuthUseCase
	Flights   flights.FlightUseCase
	Bookings  booking.BookingUseCase
	Users     users.UserUseCase
	// RateLimit guards the auth endpoints. Nil disables limiting.
	RateLimit gin.HandlerFunc
}

// NewRouter builds the /api surface.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.RequestLogger(deps.Logger))
	if deps.ClientURL != "" {
		r.Use(middleware.CORS(deps.ClientURL))
	}

	limiter := deps.RateLimit
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	authn := middleware.Authenticate(deps.Auth)
	admin := middleware.RequireAdmin()

	api := r.Group("/api")
	api.GET("/health", health)

	NewAuthHandler(deps.Auth).Register(api.Group("/auth"), authn, limiter)
	NewFlightHandler(deps.Flights).Register(api.Group("/flights"), authn, admin)

	bookings := NewBookingHandler(deps.Bookings)
	bookings.Register(api.Group("/bookings", authn), admin)
	bookings.RegisterAdmin(api.Group("/admin", authn, admin))

	NewUserHandler(deps.Users).Register(api.Group("/users", authn), admin)

	return r
}
