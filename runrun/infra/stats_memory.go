package infra

import (
	"context"
	"sync"

	"runrun-importer/runrun/domain"
)

type Counters struct {
	OK          int64
	RateLimited int64
	Errors      int64
}

func (c *Counters) add(outcome string) {
	switch outcome {
	case domain.OutcomeOK:
		c.OK++
	case domain.OutcomeRateLimited:
		c.RateLimited++
	default:
		c.Errors++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e para o resumo ao final da execução.
type MemoryStatsStore struct {
	mu         sync.Mutex
	requests   Counters
	rows       Counters
	byEndpoint map[string]Counters
	byBoard    map[int64]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		byEndpoint: make(map[string]Counters),
		byBoard:    make(map[int64]Counters),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case domain.StatsRequest:
		s.requests.add(ev.Outcome)
		route := ev.Method + " " + ev.Endpoint
		c := s.byEndpoint[route]
		c.add(ev.Outcome)
		s.byEndpoint[route] = c
	case domain.StatsRow:
		s.rows.add(ev.Outcome)
		if ev.BoardID != 0 {
			c := s.byBoard[ev.BoardID]
			c.add(ev.Outcome)
			s.byBoard[ev.BoardID] = c
		}
	}
	return nil
}

func (s *MemoryStatsStore) Requests() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *MemoryStatsStore) Rows() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

func (s *MemoryStatsStore) ByEndpoint() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byEndpoint))
	for k, v := range s.byEndpoint {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByBoard() map[int64]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]Counters, len(s.byBoard))
	for k, v := range s.byBoard {
		out[k] = v
	}
	return out
}

// MultiStats repassa o evento para vários stores; devolve o primeiro erro.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
