package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type routerFixture struct {
	router   *gin.Engine
	auth     *MockAuthUseCase
	flights  *MockFlightUseCase
	bookings *MockBookingUseCase
	users    *MockUserUseCase
	limited  int
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &routerFixture{
		auth:     &MockAuthUseCase{},
		flights:  &MockFlightUseCase{},
		bookings: &MockBookingUseCase{},
		users:    &MockUserUseCase{},
	}
	f.auth.On("ResolveToken", mock.Anything, "owner-token").Return(&domain.User{ID: "u1", Role: domain.RoleUser}, nil)
	f.auth.On("ResolveToken", mock.Anything, "other-token").Return(&domain.User{ID: "u2", Role: domain.RoleUser}, nil)
	f.auth.On("ResolveToken", mock.Anything, "admin-token").Return(&domain.User{ID: "a1", Role: domain.RoleAdmin}, nil)
	f.auth.On("ResolveToken", mock.Anything, "expired").Return(nil, domain.ErrInvalidToken)

	f.router = NewRouter(RouterDeps{
		Logger:    zap.NewNop(),
		ClientURL: "http://localhost:5173",
		Auth:      f.auth,
		Flights:   f.flights,
		Bookings:  f.bookings,
		Users:     f.users,
		RateLimit: func(c *gin.Context) {
			f.limited++
			c.Next()
		},
	})
	return f
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do("GET", "/api/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Server is running", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRouter_Unauthenticated(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do("GET", "/api/bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authorization header missing or invalid"}`, w.Body.String())

	w = f.do("GET", "/api/bookings", "expired", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())

	f.bookings.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything)
}

func TestRouter_BookingDetailOwnership(t *testing.T) {
	f := newRouterFixture(t)
	owner := domain.Actor{UserID: "u1", Role: domain.RoleUser}
	other := domain.Actor{UserID: "u2", Role: domain.RoleUser}
	admin := domain.Actor{UserID: "a1", Role: domain.RoleAdmin}
	b := &domain.Booking{ID: "b1", UserID: "u1", Status: domain.BookingStatusConfirmed}

	f.bookings.On("GetBooking", mock.Anything, owner, "b1").Return(b, nil)
	f.bookings.On("GetBooking", mock.Anything, admin, "b1").Return(b, nil)
	f.bookings.On("GetBooking", mock.Anything, other, "b1").Return(nil, domain.ErrAccessDenied)

	assert.Equal(t, http.StatusOK, f.do("GET", "/api/bookings/b1", "owner-token", "").Code)
	assert.Equal(t, http.StatusOK, f.do("GET", "/api/bookings/b1", "admin-token", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do("GET", "/api/bookings/b1", "other-token", "").Code)

	f.bookings.AssertExpectations(t)
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	f := newRouterFixture(t)

	cases := []struct {
		method, path, body string
	}{
		{"POST", "/api/flights", `{"flight_number":"ZZ1"}`},
		{"PUT", "/api/flights/f1", `{"price":1}`},
		{"DELETE", "/api/flights/f1", ""},
		{"PATCH", "/api/bookings/b1/status", `{"status":"pending"}`},
		{"GET", "/api/users", ""},
		{"DELETE", "/api/users/u2", ""},
		{"PATCH", "/api/users/u2/role", `{"role":"admin"}`},
		{"GET", "/api/admin/stats", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := f.do(tc.method, tc.path, "owner-token", tc.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Admin access required"}`, w.Body.String())
		})
	}

	f.flights.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.bookings.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
}

func TestRouter_AdminCanDeleteFlight(t *testing.T) {
	f := newRouterFixture(t)
	f.flights.On("Delete", mock.Anything, "f1").Return(nil)

	w := f.do("DELETE", "/api/flights/f1", "admin-token", "")

	assert.Equal(t, http.StatusOK, w.Code)
	f.flights.AssertExpectations(t)
}

func TestRouter_PublicCatalog(t *testing.T) {
	f := newRouterFixture(t)
	f.flights.On("GetByID", mock.Anything, "f1").Return(&domain.Flight{ID: "f1"}, nil)

	w := f.do("GET", "/api/flights/f1", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimitOnAuthOnly(t *testing.T) {
	f := newRouterFixture(t)
	f.auth.On("Login", mock.Anything, "jane@example.com", "secret1").Return(nil, domain.ErrInvalidCredentials)
	f.flights.On("GetByID", mock.Anything, "f1").Return(&domain.Flight{ID: "f1"}, nil)

	f.do("POST", "/api/auth/login", "", `{"email":"jane@example.com","password":"secret1"}`)
	f.do("GET", "/api/flights/f1", "", "")

	assert.Equal(t, 1, f.limited)
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest("OPTIONS", "/api/bookings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
