package sandbox

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyStore mantém um token-bucket (x/time/rate) por chave, com limpeza das
// chaves inativas.
type KeyStore struct {
	mu           sync.Mutex
	entries      map[string]*keyEntry
	limit        rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type keyEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type KeyStoreOption func(*KeyStore)

func WithIdleTTL(d time.Duration) KeyStoreOption {
	return func(s *KeyStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) KeyStoreOption {
	return func(s *KeyStore) { s.cleanupEvery = d }
}

// WithNow troca o relógio (testes).
func WithNow(now func() time.Time) KeyStoreOption {
	return func(s *KeyStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewKeyStore libera até max requisições por window para cada chave.
func NewKeyStore(max int, window time.Duration, opts ...KeyStoreOption) *KeyStore {
	if max <= 0 {
		max = 1
	}
	s := &KeyStore{
		entries:      make(map[string]*keyEntry),
		limit:        rate.Every(window / time.Duration(max)),
		burst:        max,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	if window <= 0 {
		s.limit = rate.Inf
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KeyStore) Burst() int { return s.burst }

func (s *KeyStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(s.limit, s.burst)
	s.entries[key] = &keyEntry{lim: lim, lastSeen: now}
	return lim
}

// Admit consome um token da chave. Quando não há token, devolve false e o
// instante em que a próxima requisição passa, arredondado para cima ao segundo.
func (s *KeyStore) Admit(key string) (bool, time.Time) {
	now := s.now()
	lim := s.get(key, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, ceilSecond(now)
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return true, time.Time{}
	}
	r.CancelAt(now)
	return false, ceilSecond(now.Add(delay))
}

func ceilSecond(t time.Time) time.Time {
	if tr := t.Truncate(time.Second); !tr.Equal(t) {
		return tr.Add(time.Second)
	}
	return t
}

func (s *KeyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *KeyStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor limpa chaves inativas periodicamente até o ctx ser cancelado.
func (s *KeyStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
