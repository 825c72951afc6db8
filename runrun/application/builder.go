package application

import (
	"sort"
	"strings"

	"runrun-importer/runrun/domain"
)

// Colunas padrão da planilha.
const (
	ColTitle       = "title"
	ColBoardID     = "board_id"
	ColDescription = "description"
	ColDesiredDate = "desired_date"
	ColProjectID   = "project_id"
	ColTypeID      = "type_id"
	ColAssigneeID  = "assignee_id"

	DefaultCustomPrefix = "custom_"
)

// Builder monta o TaskDraft de uma linha.
type Builder struct {
	Formatter    Formatter
	CustomPrefix string
}

// Build valida as colunas obrigatórias (acumulando todas as ausentes),
// aplica os defaults e formata os campos customizados conhecidos pelo schema.
func (b Builder) Build(row domain.Row, defaults domain.Defaults, schema domain.BoardFieldSchema) (domain.TaskDraft, error) {
	title, hasTitle := toString(row.Get(ColTitle))
	boardID, hasBoard := toInt(row.Get(ColBoardID))
	if boardID == 0 {
		hasBoard = false
	}

	var missing []string
	if !hasTitle {
		missing = append(missing, ColTitle)
	}
	if !hasBoard {
		missing = append(missing, ColBoardID)
	}
	if len(missing) > 0 {
		return domain.TaskDraft{}, &domain.ValidationError{Missing: missing}
	}

	draft := domain.TaskDraft{
		BoardID:     boardID,
		Title:       title,
		Description: defaults.Description,
		TypeID:      defaults.TypeID,
		ProjectID:   defaults.ProjectID,
	}
	if s, ok := toString(row.Get(ColDescription)); ok {
		draft.Description = s
	}
	if n, ok := toInt(row.Get(ColTypeID)); ok {
		draft.TypeID = &n
	}
	if n, ok := toInt(row.Get(ColProjectID)); ok {
		draft.ProjectID = &n
	}
	if s, ok := toDate(row.Get(ColDesiredDate)); ok {
		draft.DesiredDate = s
	}
	if s, ok := toString(row.Get(ColAssigneeID)); ok {
		draft.Assignments = []domain.Assignment{{AssigneeID: s}}
	}

	custom, err := b.customFields(row, schema)
	if err != nil {
		return domain.TaskDraft{}, err
	}
	if len(custom) > 0 {
		draft.CustomFields = custom
	}
	return draft, nil
}

func (b Builder) customFields(row domain.Row, schema domain.BoardFieldSchema) (map[string]any, error) {
	prefix := b.CustomPrefix
	if prefix == "" {
		prefix = DefaultCustomPrefix
	}

	cols := make([]string, 0, len(row.Values))
	for col := range row.Values {
		if strings.HasPrefix(col, prefix) {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)

	out := make(map[string]any)
	for _, col := range cols {
		value := row.Values[col]
		if isBlank(value) {
			continue
		}
		def, ok := schema[col]
		if !ok {
			continue
		}
		formatted, err := b.Formatter.Format(value, def)
		if err != nil {
			return nil, err
		}
		if formatted != nil {
			out[col] = formatted
		}
	}
	return out, nil
}
