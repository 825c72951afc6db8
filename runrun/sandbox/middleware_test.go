package sandbox

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"runrun-importer/runrun"
	"runrun-importer/runrun/infra"
)

func TestRateLimit_AllowsThenRejectsSameKey(t *testing.T) {
	clock := newTestClock()
	stats := infra.NewMemoryStatsStore()

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, "ok")
	})
	h := RateLimit(RateLimitOptions{
		Store: NewKeyStore(1, time.Minute, WithNow(clock.Now)),
		Stats: stats,
	})(next)

	r1 := httptest.NewRequest(http.MethodPost, "http://example/api/v1.0/tasks", nil)
	r1.Header.Set("App-Key", "app")
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("RateLimit-Limit"); got != "1" {
		t.Fatalf("expected RateLimit-Limit 1, got %q", got)
	}

	r2 := httptest.NewRequest(http.MethodPost, "http://example/api/v1.0/tasks", nil)
	r2.Header.Set("App-Key", "app")
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}

	reset, err := runrun.ParseResetTime(w2.Header().Get("RateLimit-Reset"))
	if err != nil {
		t.Fatalf("reset header should be parseable by the client: %v", err)
	}
	if want := clock.Now().Add(time.Minute); !reset.Equal(want) {
		t.Fatalf("expected reset %v, got %v", want, reset)
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
	if got := stats.Requests(); got.OK != 1 || got.RateLimited != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestRateLimit_KeyByAppKeyThenRemoteAddr(t *testing.T) {
	h := RateLimit(RateLimitOptions{
		Store: NewKeyStore(1, time.Minute, WithNow(newTestClock().Now)),
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := func(appKey, remote string) int {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = remote
		if appKey != "" {
			r.Header.Set("App-Key", appKey)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	if c := codes("a", "10.0.0.1:1"); c != http.StatusOK {
		t.Fatalf("expected key a to pass, got %d", c)
	}
	if c := codes("b", "10.0.0.1:1"); c != http.StatusOK {
		t.Fatalf("expected key b to pass, got %d", c)
	}
	if c := codes("", "10.0.0.2:1"); c != http.StatusOK {
		t.Fatalf("expected anonymous ip to pass, got %d", c)
	}
	if c := codes("", "10.0.0.2:9"); c != http.StatusTooManyRequests {
		t.Fatalf("expected same ip to be limited, got %d", c)
	}
}

func TestDefaultKeyFunc(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "192.168.0.9:5555"
	if got := DefaultKeyFunc(r); got != "192.168.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
	r.Header.Set("App-Key", " key ")
	if got := DefaultKeyFunc(r); got != "key" {
		t.Fatalf("expected app key, got %q", got)
	}
	r.Header.Del("App-Key")
	r.RemoteAddr = ""
	if got := DefaultKeyFunc(r); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestRateLimit_StatsUseRouteTemplate(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	h := RateLimit(RateLimitOptions{
		Store: NewKeyStore(10, time.Minute, WithNow(newTestClock().Now)),
		Stats: stats,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, path := range []string{"/api/v1.0/boards/10/fields", "/api/v1.0/boards/11/fields"} {
		r := httptest.NewRequest(http.MethodGet, "http://example"+path+"?category=custom", nil)
		r.Header.Set("App-Key", "app")
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	byEndpoint := stats.ByEndpoint()
	if len(byEndpoint) != 1 {
		t.Fatalf("expected one route, got %v", byEndpoint)
	}
	if got := byEndpoint["GET boards/:id/fields"]; got.OK != 2 {
		t.Fatalf("expected 2 ok on boards/:id/fields, got %+v", got)
	}
}
