package sandbox

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"runrun-importer/runrun"
	"runrun-importer/runrun/domain"
)

type KeyFunc func(r *http.Request) string

// RateLimitOptions configura o middleware de rate limit.
type RateLimitOptions struct {
	Store *KeyStore
	Stats domain.StatsStore
	KeyFn KeyFunc
}

// DefaultKeyFunc limita por App-Key; sem o cabeçalho, pelo IP de origem.
func DefaultKeyFunc(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("App-Key")); v != "" {
		return v
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// RateLimit rejeita com 429 quando a chave estoura o limite, informando em
// RateLimit-Reset (ISO-8601, UTC) quando a próxima requisição será aceita.
func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Store == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, reset := opts.Store.Admit(opts.KeyFn(r))
			w.Header().Set("RateLimit-Limit", strconv.Itoa(opts.Store.Burst()))

			outcome, status := domain.OutcomeOK, 0
			if !allowed {
				outcome, status = domain.OutcomeRateLimited, http.StatusTooManyRequests
			}
			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Kind:     domain.StatsRequest,
					Outcome:  outcome,
					Method:   r.Method,
					Endpoint: runrun.RouteOf(strings.TrimPrefix(r.URL.Path, BasePath)),
					Status:   status,
					At:       time.Now(),
				})
			}
			if !allowed {
				w.Header().Set("RateLimit-Reset", reset.UTC().Format(time.RFC3339))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
