package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimitExhausted indica 429 persistente após todas as tentativas.
var ErrRateLimitExhausted = errors.New("rate limit exhausted")

// ValidationError é uma falha local de entrada: colunas obrigatórias ausentes,
// opção inexistente em campo de escolha ou cabeçalho de reset ilegível.
// Aborta só a linha (ou o campo) afetada.
type ValidationError struct {
	Field     string
	Missing   []string
	Token     string
	Available []string
	Reason    string
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("missing or empty required columns: [%s]", strings.Join(e.Missing, " "))
	case e.Token != "":
		return fmt.Sprintf("value %q for field %q is not a valid option; available options: [%s]",
			e.Token, e.Field, strings.Join(e.Available, " "))
	case e.Field != "":
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	default:
		return "validation error: " + e.Reason
	}
}

// APIError é uma resposta não-2xx (e não-429) da API.
type APIError struct {
	Status   int
	Method   string
	Endpoint string
	// Body vem truncado em 1000 caracteres.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d) on %s %s: %s", e.Status, e.Method, e.Endpoint, e.Body)
}
