package application

import (
	"io"
	"log/slog"
	"strings"

	"runrun-importer/runrun/domain"
)

// Formatter converte o valor bruto de uma célula no valor aceito pela API,
// de acordo com a definição do campo.
//
// Não faz I/O além do log de aviso para campos de escolha sem opções.
type Formatter struct {
	Logger *slog.Logger
}

func (f Formatter) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}

// Format devolve (nil, nil) quando o campo deve ser omitido do payload.
// Retorna *domain.ValidationError quando um token não corresponde a nenhuma opção.
func (f Formatter) Format(value any, def domain.FieldDefinition) (any, error) {
	if isBlank(value) {
		return nil, nil
	}

	switch {
	case def.FieldType.IsText():
		s, ok := toString(value)
		if !ok {
			return nil, nil
		}
		return s, nil
	case def.FieldType == domain.FieldNumberInteger:
		n, ok := toInt(value)
		if !ok {
			return nil, nil
		}
		return n, nil
	case def.FieldType == domain.FieldNumberDecimal:
		x, ok := toFloat(value)
		if !ok {
			return nil, nil
		}
		return x, nil
	case def.FieldType == domain.FieldDate:
		s, ok := toDate(value)
		if !ok {
			return nil, nil
		}
		return s, nil
	case def.FieldType.IsChoice():
		return f.formatChoice(value, def)
	}

	// tipo desconhecido: repassa como veio.
	return value, nil
}

func (f Formatter) formatChoice(value any, def domain.FieldDefinition) (any, error) {
	if len(def.Options) == 0 {
		f.logger().Warn("choice field has no configured options, skipping", "field", def.ID)
		return nil, nil
	}

	raw, ok := toString(value)
	if !ok {
		return nil, nil
	}

	var refs []domain.OptionRef
	for _, token := range splitTokens(raw) {
		opt, found := def.Match(token)
		if !found {
			return nil, &domain.ValidationError{
				Field:     string(def.ID),
				Token:     token,
				Available: def.Labels(),
			}
		}
		refs = append(refs, domain.OptionRef{ID: opt.ID})
	}

	if len(refs) == 0 {
		return nil, nil
	}
	if def.FieldType == domain.FieldSingleOption {
		return refs[0], nil
	}
	return refs, nil
}

// splitTokens quebra por vírgula ou ponto e vírgula, descartando tokens vazios.
func splitTokens(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
