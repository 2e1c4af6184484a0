package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker(t *testing.T) {
	hc := NewHealthChecker(nil)

	healthy := true
	hc.AddDependency("database", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("connection refused")
	})

	call := func(h http.HandlerFunc) int {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(hc.LiveHandler()))
	assert.Equal(t, http.StatusOK, call(hc.ReadyHandler()))

	healthy = false
	assert.Equal(t, http.StatusOK, call(hc.LiveHandler()), "依赖故障不影响存活检查")
	assert.Equal(t, http.StatusServiceUnavailable, call(hc.ReadyHandler()))
}
