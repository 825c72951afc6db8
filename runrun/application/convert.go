package application

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// isBlank cobre nil, NaN (célula vazia em planilha numérica) e string só com espaços.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		return strings.TrimSpace(x) == ""
	case time.Time:
		return x.IsZero()
	}
	return false
}

func toString(v any) (string, bool) {
	if isBlank(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return formatTimestamp(x), true
	case interface{ String() string }:
		return x.String(), true
	}
	return "", false
}

// toInt segue a conversão de planilha: float é truncado, string precisa ser inteira.
func toInt(v any) (int64, bool) {
	if isBlank(v) {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case float64:
		// fora da faixa de int64 a conversão não é definida.
		if !(x >= math.MinInt64 && x < math.MaxInt64) {
			return 0, false
		}
		return int64(x), true
	case float32:
		return toInt(float64(x))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	if isBlank(v) {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Layouts aceitos quando uma data chega como texto (CSV).
var (
	offsetLayouts = []string{
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// parseTimestamp reconhece datas ISO-8601 em texto; sem fuso, assume UTC.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// formatTimestamp usa microssegundos com seis dígitos quando há fração.
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02T15:04:05-07:00")
}

// toDate normaliza datas: meia-noite vira YYYY-MM-DD, demais instantes viram
// ISO-8601 em UTC com offset explícito. Texto não temporal passa aparado.
func toDate(v any) (string, bool) {
	if isBlank(v) {
		return "", false
	}
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case string:
		s := strings.TrimSpace(x)
		parsed, ok := parseTimestamp(s)
		if !ok {
			return s, s != ""
		}
		t = parsed
	default:
		s, ok := toString(v)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	if isMidnight(t) {
		return t.Format(time.DateOnly), true
	}
	return formatTimestamp(t), true
}
