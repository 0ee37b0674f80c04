package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

var wantSecurityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Referrer-Policy":           "no-referrer",
	"Cache-Control":             "no-store",
}

func newSecuredEcho() *echo.Echo {
	e := echo.New()
	e.Use(SecurityHeaders())
	api := e.Group("/api/v1")
	api.POST("/phone/preview", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"display": "+57 300 123 4567"})
	})
	api.GET("/portal/me", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	})
	return e
}

func TestSecurityHeaders_PortalResponses(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"phone preview", http.MethodPost, "/api/v1/phone/preview", http.StatusOK},
		{"unauthenticated profile", http.MethodGet, "/api/v1/portal/me", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}
	e := newSecuredEcho()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(`{"country":"CO","national":"3001234567"}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			for header, want := range wantSecurityHeaders {
				if got := rec.Header().Get(header); got != want {
					t.Errorf("header %s: got %q, want %q", header, got, want)
				}
			}
		})
	}
}

func TestSecurityHeaders_PreviewIsNeverCached(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/phone/preview", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	newSecuredEcho().ServeHTTP(rec, req)

	if got := rec.Header().Values("Cache-Control"); len(got) != 1 || got[0] != "no-store" {
		t.Errorf("expected a single Cache-Control: no-store, got %v", got)
	}
	if !strings.Contains(rec.Body.String(), "+57 300 123 4567") {
		t.Errorf("handler body missing: %s", rec.Body.String())
	}
}

func TestSecurityHeaders_PropagatesHandlerError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/surgeries/x", nil), httptest.NewRecorder())

	err := SecurityHeaders()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "surgery record: not found")
	})(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 echo.HTTPError, got %v", err)
	}
	if c.Response().Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected headers to be set before the handler runs")
	}
}
