package domain

// Camada de domínio do rate limit do cliente.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "context"

// Limiter decide quando é seguro emitir mais uma requisição.
//
// Wait bloqueia até haver espaço na janela (ou até o ctx encerrar) e já
// contabiliza a requisição admitida. A implementação pode ser janela deslizante,
// token-bucket, etc. (*rate.Limiter de golang.org/x/time/rate satisfaz o contrato).
type Limiter interface {
	Wait(ctx context.Context) error
}
