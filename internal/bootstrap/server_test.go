package bootstrap

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/skybook/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServers(t *testing.T, swaggerOff bool) *Servers {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Address: "127.0.0.1:0", SwaggerOff: swaggerOff},
		GRPC: config.GRPCConfig{Address: lis.Addr().String()},
	}
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	s, err := newServers(cfg, api)
	require.NoError(t, err)
	go func() { _ = s.grpcServer.Serve(lis) }()
	t.Cleanup(func() {
		s.grpcServer.Stop()
		_ = s.healthConn.Close()
	})
	return s
}

func serve(s *Servers, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestServers_Healthz(t *testing.T) {
	s := newTestServers(t, false)

	w := serve(s, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SERVING")
}

func TestServers_HealthzAfterShutdown(t *testing.T) {
	s := newTestServers(t, false)
	s.health.Shutdown()

	w := serve(s, "/healthz")

	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestServers_APIFallthrough(t *testing.T) {
	s := newTestServers(t, false)

	assert.Equal(t, http.StatusTeapot, serve(s, "/api/health").Code)
}

func TestServers_Swagger(t *testing.T) {
	s := newTestServers(t, false)

	w := serve(s, "/swagger/doc.json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SkyBook API")

	off := newTestServers(t, true)
	assert.Equal(t, http.StatusTeapot, serve(off, "/swagger/doc.json").Code)
}
