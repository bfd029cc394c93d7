package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eaglesec/eagle-access/internal/config"
)

func TestServerRoutes_Health(t *testing.T) {
	s := NewServer(&config.Config{}, "127.0.0.1", 8080, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from health endpoint, got %d", rec.Code)
	}
}

func TestServerRoutes_UnknownPath(t *testing.T) {
	s := NewServer(&config.Config{}, "127.0.0.1", 8080, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/nothing", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown route, got %d", rec.Code)
	}
}
