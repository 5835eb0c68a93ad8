package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "cli-123_abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Body.String() != "cli-123_abc" || w.Header().Get(RequestIDHeader) != "cli-123_abc" {
		t.Fatalf("expected caller id to be kept, got body=%q header=%q", w.Body.String(), w.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "bad id\nInjected: yes")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Body.String(); got == "" || strings.ContainsAny(got, " \n") {
		t.Fatalf("expected a minted id, got %q", got)
	}
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Internal server error") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}
