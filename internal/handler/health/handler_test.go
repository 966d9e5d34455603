package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	down := NewHandler(pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	w := serve(down, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "DOWN")

	w = serve(down, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code, "liveness ignores the database")

	up := NewHandler(pingerFunc(func(context.Context) error { return nil }))
	assert.Equal(t, http.StatusOK, serve(up, "/health/ready").Code)

	assert.Equal(t, http.StatusOK, serve(NewHandler(nil), "/health/ready").Code)
}
