package runrun

import (
	"net/http"
	"strings"
	"time"

	"runrun-importer/runrun/domain"
)

// Grafias aceitas do cabeçalho de reset, na ordem de consulta.
var resetHeaderNames = []string{"ratelimit-reset", "RateLimit-Reset"}

// resetHeaderValue procura primeiro pela chave exata e depois sem diferenciar
// maiúsculas (net/http canoniza para "Ratelimit-Reset").
func resetHeaderValue(h http.Header) (string, bool) {
	for _, name := range resetHeaderNames {
		if v, ok := h[name]; ok && len(v) > 0 {
			return v[0], true
		}
	}
	for _, name := range resetHeaderNames {
		for k, v := range h {
			if strings.EqualFold(k, name) && len(v) > 0 {
				return v[0], true
			}
		}
	}
	return "", false
}

var (
	resetOffsetLayouts = []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04-07:00",
		"2006-01-02T15:04:05.999999999-0700",
		"2006-01-02 15:04:05.999999999-0700",
	}
	resetNaiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		time.DateOnly,
	}
)

// ParseResetTime interpreta o valor ISO-8601 do cabeçalho ratelimit-reset.
//
// "Z" final é tratado como +00:00; sem fuso, assume UTC. O resultado é em UTC.
// Valor vazio ou ilegível é *domain.ValidationError.
func ParseResetTime(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, &domain.ValidationError{Field: "ratelimit-reset", Reason: "empty header value"}
	}
	if strings.HasSuffix(v, "Z") || strings.HasSuffix(v, "z") {
		v = v[:len(v)-1] + "+00:00"
	}

	for _, layout := range resetOffsetLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range resetNaiveLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &domain.ValidationError{Field: "ratelimit-reset", Reason: "not an ISO-8601 timestamp: " + value}
}

func resetTimeFromHeader(h http.Header) (time.Time, error) {
	v, ok := resetHeaderValue(h)
	if !ok {
		return time.Time{}, &domain.ValidationError{Field: "ratelimit-reset", Reason: "header missing on 429 response"}
	}
	return ParseResetTime(v)
}
