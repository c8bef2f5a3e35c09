package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func newLimitedRouter(counter Counter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r.GET("/ping", RateLimit(counter, limit, time.Minute, "test", logger), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	r := newLimitedRouter(NewMemoryCounter(), 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rw := httptest.NewRecorder()
		r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rw.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", codes[2])
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := newLimitedRouter(failingCounter{}, 1)

	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200 when counter fails, got %d", rw.Code)
	}
}

func TestMemoryCounterResetsWindow(t *testing.T) {
	m := NewMemoryCounter()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		n, _ := m.Incr(context.Background(), "k", time.Minute)
		if n != int64(i) {
			t.Fatalf("Incr #%d = %d", i, n)
		}
	}
	now = now.Add(time.Minute)
	if n, _ := m.Incr(context.Background(), "k", time.Minute); n != 1 {
		t.Fatalf("expected counter reset after window, got %d", n)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)
	if got := rw.Header().Get(RequestIDHeader); got != "abc123" {
		t.Fatalf("response header = %q, want abc123", got)
	}
	if rw.Body.String() != "abc123" {
		t.Fatalf("context request id = %q", rw.Body.String())
	}

	rw = httptest.NewRecorder()
	r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rw.Header().Get(RequestIDHeader)) != 32 {
		t.Fatalf("expected generated 32 char id, got %q", rw.Header().Get(RequestIDHeader))
	}
}

func TestMemoryCounterDropsExpiredWindows(t *testing.T) {
	m := NewMemoryCounter()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		if _, err := m.Incr(context.Background(), fmt.Sprintf("client-%d", i), time.Minute); err != nil {
			t.Fatalf("Incr: %v", err)
		}
	}
	if len(m.windows) != 1000 {
		t.Fatalf("windows = %d, want 1000", len(m.windows))
	}

	now = now.Add(time.Hour)
	if _, err := m.Incr(context.Background(), "late-client", time.Minute); err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if len(m.windows) != 1 {
		t.Fatalf("windows retained after expiry: %d, want 1", len(m.windows))
	}
}

func TestMemoryCounterKeepsLiveWindowsOnSweep(t *testing.T) {
	m := NewMemoryCounter()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, _ = m.Incr(context.Background(), "old", time.Minute)
	now = now.Add(50 * time.Second)
	_, _ = m.Incr(context.Background(), "fresh", time.Minute)
	now = now.Add(20 * time.Second)

	// the sweep now drops "old" but keeps "fresh" and its count
	n, _ := m.Incr(context.Background(), "fresh", time.Minute)
	if n != 2 {
		t.Fatalf("fresh count = %d, want 2", n)
	}
	if _, ok := m.windows["old"]; ok {
		t.Fatal("expired window kept")
	}
}

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	tests := []struct {
		name string
		id   string
	}{
		{name: "too long", id: strings.Repeat("a", maxRequestIDLen+1)},
		{name: "spaces", id: "abc def"},
		{name: "control characters", id: "abc\x1b[31m"},
		{name: "non ascii", id: "idé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.id)
			rw := httptest.NewRecorder()
			r.ServeHTTP(rw, req)

			got := rw.Header().Get(RequestIDHeader)
			if got == tt.id || len(got) != 32 {
				t.Fatalf("expected a generated id, got %q", got)
			}
			if rw.Body.String() != got {
				t.Fatalf("context id %q differs from header %q", rw.Body.String(), got)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-01:abc.def_9")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)
	if got := rw.Header().Get(RequestIDHeader); got != "trace-01:abc.def_9" {
		t.Fatalf("valid id replaced: %q", got)
	}
}
