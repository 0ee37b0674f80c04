package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1M", 1 << 20},
		{"10MB", 10 << 20},
		{"64K", 64 << 10},
		{"512kb", 512 << 10},
		{"1G", 1 << 30},
		{"1024", 1024},
		{"", 1 << 20},
		{"invalid", 1 << 20},
		{"-5K", 1 << 20},
	}
	for _, tt := range tests {
		if got := parseLimit(tt.input); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestBodyLimit_AllowsSmallBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/portal/login", strings.NewReader(`{"username":"ana"}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	err := BodyLimit("1K")(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		got = string(b)
		return err
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"username":"ana"}` {
		t.Errorf("body not passed through: %q", got)
	}
}

func TestBodyLimit_RejectsByContentLength(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 2048)))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := BodyLimit("1K")(func(c echo.Context) error {
		called = true
		return nil
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %v", err)
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestBodyLimit_RejectsWhileReading(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 2048)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := BodyLimit("1K")(func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 while reading, got %v", err)
	}
}
