package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldType é o tipo de um campo customizado, como devolvido pela API.
type FieldType string

const (
	FieldTextShort       FieldType = "text_short"
	FieldTextLong        FieldType = "text_long"
	FieldShortText       FieldType = "short_text"
	FieldEmail           FieldType = "email"
	FieldNumeric         FieldType = "numeric"
	FieldNumberInteger   FieldType = "number_integer"
	FieldNumberDecimal   FieldType = "number_decimal"
	FieldDate            FieldType = "date"
	FieldSingleOption    FieldType = "single_option"
	FieldMultipleOptions FieldType = "multiple_options"
)

// IsChoice indica campos cujos valores vêm de uma lista de opções do servidor.
func (t FieldType) IsChoice() bool {
	return t == FieldSingleOption || t == FieldMultipleOptions
}

// IsText cobre os tipos enviados como string sem transformação.
func (t FieldType) IsText() bool {
	switch t {
	case FieldTextShort, FieldTextLong, FieldShortText, FieldEmail, FieldNumeric:
		return true
	}
	return false
}

// ID aceita tanto string quanto número no JSON (a API mistura os dois).
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Option é um valor selecionável de um campo de escolha.
type Option struct {
	ID    ID     `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// OptionRef é como uma opção escolhida vai no payload: {"id": ...}.
type OptionRef struct {
	ID ID `json:"id" yaml:"id"`
}

// FieldDefinition descreve um campo customizado de um board.
// Depois de entrar no cache não é mais alterado.
type FieldDefinition struct {
	ID        ID        `json:"id" yaml:"id"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	FieldType FieldType `json:"field_type" yaml:"field_type"`
	Options   []Option  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Labels devolve os rótulos das opções, na ordem do servidor.
func (d FieldDefinition) Labels() []string {
	out := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		out = append(out, o.Label)
	}
	return out
}

// Match resolve um token contra as opções: id exato primeiro, depois rótulo
// sem diferenciar maiúsculas.
func (d FieldDefinition) Match(token string) (Option, bool) {
	for _, o := range d.Options {
		if string(o.ID) == token {
			return o, true
		}
	}
	for _, o := range d.Options {
		if strings.EqualFold(o.Label, token) {
			return o, true
		}
	}
	return Option{}, false
}

// BoardFieldSchema mapeia o id do campo (ex.: "custom_42") para sua definição,
// no escopo de um board.
type BoardFieldSchema map[string]FieldDefinition
