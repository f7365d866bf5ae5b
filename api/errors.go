package api

import (
	"net/http"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to its HTTP status. Conflicts answer 400
// for compatibility with existing clients.
func statusFor(err error) int {
	switch domain.Kind(err) {
	case domain.ErrValidation, domain.ErrConflict:
		return http.StatusBadRequest
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"error": message}. Internal errors are recorded
// on the context for the request logger and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": domain.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// actor returns the authenticated caller. Routes using it are mounted
// behind Authenticate.
func actor(c *gin.Context) domain.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
