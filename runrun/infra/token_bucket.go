package infra

import (
	"time"

	"golang.org/x/time/rate"
)

// NewTokenBucket cria um limiter token-bucket (x/time/rate) equivalente em média
// a `max` requisições por `window`, com rajada inicial de até `max`.
//
// Diferente da janela deslizante, reabastece continuamente: após a rajada,
// libera uma requisição a cada window/max.
// *rate.Limiter já satisfaz domain.Limiter (Wait(ctx) error).
func NewTokenBucket(max int, window time.Duration) *rate.Limiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		return rate.NewLimiter(rate.Inf, max)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(max)), max)
}
