package infra

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minWait evita busy-loop quando o cálculo dá zero ou negativo.
const minWait = 10 * time.Millisecond

// SlidingWindow admite no máximo `max` requisições em qualquer intervalo de
// `window`, contando os instantes das admissões anteriores.
//
// Usa a leitura monotônica de time.Now, então ajustes do relógio de parede não
// afetam a janela. Verificar+registrar acontece sob o mesmo lock.
type SlidingWindow struct {
	mu     sync.Mutex
	stamps []time.Time
	max    int
	window time.Duration

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
	logSom rate.Sometimes
}

type SlidingWindowOption func(*SlidingWindow)

// WithClock troca a fonte de tempo (testes).
func WithClock(now func() time.Time) SlidingWindowOption {
	return func(s *SlidingWindow) { s.now = now }
}

// WithSleeper troca a espera bloqueante (testes).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) SlidingWindowOption {
	return func(s *SlidingWindow) { s.sleep = sleep }
}

func WithLogger(l *slog.Logger) SlidingWindowOption {
	return func(s *SlidingWindow) { s.logger = l }
}

func NewSlidingWindow(max int, window time.Duration, opts ...SlidingWindowOption) *SlidingWindow {
	s := &SlidingWindow{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  SleepContext,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		logSom: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.max <= 0 {
		s.max = 1
	}
	return s
}

func (s *SlidingWindow) Max() int { return s.max }
func (s *SlidingWindow) Window() time.Duration { return s.window }

// Len devolve quantas admissões ainda estão dentro da janela.
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict(s.now())
	return len(s.stamps)
}

// Wait implementa domain.Limiter.
func (s *SlidingWindow) Wait(ctx context.Context) error {
	for {
		wait, ok := s.tryAdmit()
		if ok {
			return nil
		}
		s.logSom.Do(func() {
			s.logger.Debug("rate window full, waiting", "wait", wait, "max", s.max, "window", s.window)
		})
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *SlidingWindow) tryAdmit() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)
	if len(s.stamps) < s.max {
		s.stamps = append(s.stamps, now)
		return 0, true
	}

	wait := s.window - now.Sub(s.stamps[0])
	if wait < minWait {
		wait = minWait
	}
	return wait, false
}

func (s *SlidingWindow) evict(now time.Time) {
	i := 0
	for i < len(s.stamps) && now.Sub(s.stamps[i]) >= s.window {
		i++
	}
	if i > 0 {
		s.stamps = append(s.stamps[:0], s.stamps[i:]...)
	}
}

// SleepContext dorme por d ou até o ctx encerrar.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
