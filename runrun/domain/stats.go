package domain

import (
	"context"
	"time"
)

type StatsKind string

const (
	StatsRequest StatsKind = "request"
	StatsRow     StatsKind = "row"
)

// Resultados possíveis de um evento.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// StatsEvent representa uma tentativa de requisição ou o resultado de uma linha.
//
// Observação: cuidado com cardinalidade. Endpoint deve ser o template
// (ex.: "boards/fields"), não a URL com ids.
type StatsEvent struct {
	RunID   string
	Kind    StatsKind
	Outcome string

	Method   string
	Endpoint string
	Status   int

	BoardID int64
	Row     int

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas da importação.
//
// Implementações podem armazenar em Redis, memória, etc.
// Quem chama trata erro como best-effort (não derruba a importação).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
