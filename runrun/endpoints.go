package runrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"runrun-importer/runrun/domain"
)

// CreateTask envia POST tasks com {"task": draft}.
// O id pode vir na raiz ou em task.id, conforme a conta.
func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.CreatedTask, error) {
	raw, err := c.Do(ctx, http.MethodPost, "tasks", map[string]any{"task": draft})
	if err != nil {
		return domain.CreatedTask{}, err
	}

	var resp struct {
		ID   domain.ID `json:"id"`
		Task struct {
			ID domain.ID `json:"id"`
		} `json:"task"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.CreatedTask{}, fmt.Errorf("decode create task response: %w", err)
	}
	id := resp.ID
	if id == "" {
		id = resp.Task.ID
	}
	return domain.CreatedTask{ID: id}, nil
}

// BoardCustomFields implementa application.SchemaSource (sem opções).
func (c *Client) BoardCustomFields(ctx context.Context, boardID int64) ([]domain.FieldDefinition, error) {
	raw, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("boards/%d/fields?category=custom", boardID), nil)
	if err != nil {
		return nil, err
	}
	var defs []domain.FieldDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("decode fields of board %d: %w", boardID, err)
	}
	return defs, nil
}

// FieldOptions implementa application.SchemaSource.
func (c *Client) FieldOptions(ctx context.Context, fieldID string) ([]domain.Option, error) {
	raw, err := c.Do(ctx, http.MethodGet, "fields/"+url.PathEscape(fieldID)+"/options", nil)
	if err != nil {
		return nil, err
	}
	var opts []domain.Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode options of field %s: %w", fieldID, err)
	}
	return opts, nil
}

// CreateDocument registra um anexo na tarefa e devolve os campos do formulário
// pré-assinado para o upload no object storage.
func (c *Client) CreateDocument(ctx context.Context, taskID, fileName string, size int64) (domain.Document, error) {
	payload := map[string]any{
		"document": map[string]any{
			"data_file_name":    fileName,
			"data_file_size":    size,
			"warning_duplicate": false,
		},
	}
	raw, err := c.Do(ctx, http.MethodPost, "documents?task_id="+url.QueryEscape(taskID), payload)
	if err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode document response: %w", err)
	}
	if doc.ID == "" {
		return domain.Document{}, errors.New("create document: response without id")
	}
	return doc, nil
}

func (c *Client) MarkDocumentUploaded(ctx context.Context, documentID string) error {
	_, err := c.Do(ctx, http.MethodPost, "documents/"+url.PathEscape(documentID)+"/mark_as_uploaded", nil)
	return err
}
