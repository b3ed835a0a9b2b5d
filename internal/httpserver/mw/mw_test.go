package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestActor(t *testing.T) {
	var got domain.Actor
	h := Actor(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = domain.ActorFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/challenges", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/challenges", nil)
	req.Header.Set(HeaderUserKey, " alice ")
	req.Header.Set(HeaderUserName, "Alice A.")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got.Key != "alice" || got.DisplayName != "Alice A." {
		t.Errorf("actor = %+v", got)
	}
}

func TestRateLimitPerActor(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := Actor(logger.Nop())(RateLimit(RateLimitConfig{
		Burst:        2,
		RefillPerMin: 60,
		now:          func() time.Time { return now },
	})(okHandler()))

	do := func(method, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/feedback", nil)
		req.Header.Set(HeaderUserKey, user)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if c := do(http.MethodPost, "alice").Code; c != http.StatusOK {
		t.Fatalf("first post = %d", c)
	}
	if c := do(http.MethodPost, "alice").Code; c != http.StatusOK {
		t.Fatalf("second post = %d", c)
	}
	rec := do(http.MethodPost, "alice")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third post = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}

	if c := do(http.MethodGet, "alice").Code; c != http.StatusOK {
		t.Errorf("reads are not limited, got %d", c)
	}
	if c := do(http.MethodPost, "bob").Code; c != http.StatusOK {
		t.Errorf("other actors have their own bucket, got %d", c)
	}

	now = now.Add(time.Second)
	if c := do(http.MethodPost, "alice").Code; c != http.StatusOK {
		t.Errorf("after refill = %d, want 200", c)
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"herald.example.com", "*.internal.lan"}, logger.Nop())(okHandler())

	tests := []struct {
		host string
		want int
	}{
		{"herald.example.com", http.StatusOK},
		{"HERALD.example.com:8443", http.StatusOK},
		{"api.internal.lan", http.StatusOK},
		{"internal.lan", http.StatusForbidden},
		{"evil.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/challenges", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}

	open := EnforceHost(nil, logger.Nop())(okHandler())
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("empty list should pass through, got %d", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.5"}, true, logger.Nop())(okHandler())

	tests := []struct {
		remote, xff string
		want        int
	}{
		{"10.1.2.3:5555", "", http.StatusOK},
		{"192.168.1.5:80", "", http.StatusOK},
		{"8.8.8.8:80", "", http.StatusForbidden},
		{"127.0.0.1:80", "10.9.9.9, 127.0.0.1", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/reload", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s (xff %q): status = %d, want %d", tt.remote, tt.xff, rec.Code, tt.want)
		}
	}
}

func TestLogRecordsStatus(t *testing.T) {
	h := Log(logger.Nop())(Actor(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set(HeaderUserKey, "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
