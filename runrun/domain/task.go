package domain

import "time"

// Row é uma linha da planilha: nome da coluna -> valor bruto.
//
// Valores esperados: string, int, int64, float64, time.Time ou nil.
type Row struct {
	// Line é a linha na planilha (cabeçalho = 1, primeira linha de dados = 2).
	Line   int
	Values map[string]any
}

func (r Row) Get(col string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[col]
}

// Defaults são valores de fallback da execução. Somente leitura após o startup.
type Defaults struct {
	Description string
	TypeID      *int64
	ProjectID   *int64
}

type Assignment struct {
	AssigneeID string `json:"assignee_id" yaml:"assignee_id"`
}

// TaskDraft é o payload de criação de tarefa.
//
// Campos vazios são omitidos: nenhuma chave é enviada como null ou "".
type TaskDraft struct {
	BoardID      int64          `json:"board_id"`
	Title        string         `json:"title"`
	TypeID       *int64         `json:"type_id,omitempty"`
	ProjectID    *int64         `json:"project_id,omitempty"`
	Description  string         `json:"description,omitempty"`
	DesiredDate  string         `json:"desired_date,omitempty"`
	Assignments  []Assignment   `json:"assignments,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// CreatedTask é o que interessa da resposta de POST tasks.
type CreatedTask struct {
	ID ID
}

// Document é a resposta de POST documents: id e campos do formulário
// pré-assinado do object storage.
type Document struct {
	ID     ID                `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Summary acumula o resultado de uma importação.
type Summary struct {
	OK       int
	Fail     int
	Failures []RowFailure
	Elapsed  time.Duration
}

type RowFailure struct {
	Line int
	Err  error
}
