package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"runrun-importer/runrun/domain"
)

// SchemaSource busca definições de campos customizados no servidor.
type SchemaSource interface {
	BoardCustomFields(ctx context.Context, boardID int64) ([]domain.FieldDefinition, error)
	FieldOptions(ctx context.Context, fieldID string) ([]domain.Option, error)
}

// SchemaCache memoiza o schema de campos customizados por board.
//
// A entrada é criada na primeira linha que usa o board e nunca é invalidada
// durante a execução. Erros de busca não são cacheados: um schema vazio faria
// todos os campos customizados do board serem ignorados em silêncio.
type SchemaCache struct {
	Source SchemaSource
	Logger *slog.Logger

	mu     sync.Mutex
	boards map[int64]domain.BoardFieldSchema
}

func NewSchemaCache(src SchemaSource, logger *slog.Logger) *SchemaCache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SchemaCache{
		Source: src,
		Logger: logger,
		boards: make(map[int64]domain.BoardFieldSchema),
	}
}

// Cached informa se o board já foi resolvido, sem acessar a rede.
func (c *SchemaCache) Cached(boardID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.boards[boardID]
	return ok
}

// Resolve devolve o schema do board, buscando-o na primeira vez.
//
// O lock fica preso durante a busca: chamadas concorrentes para o mesmo board
// esperam a primeira em vez de repetir as requisições.
func (c *SchemaCache) Resolve(ctx context.Context, boardID int64) (domain.BoardFieldSchema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.boards == nil {
		c.boards = make(map[int64]domain.BoardFieldSchema)
	}
	if schema, ok := c.boards[boardID]; ok {
		return schema, nil
	}

	schema, err := c.fetch(ctx, boardID)
	if err != nil {
		return nil, err
	}
	c.boards[boardID] = schema
	c.Logger.Info("custom field definitions cached", "board_id", boardID, "fields", len(schema))
	return schema, nil
}

func (c *SchemaCache) fetch(ctx context.Context, boardID int64) (domain.BoardFieldSchema, error) {
	c.Logger.Info("fetching custom field definitions", "board_id", boardID)

	defs, err := c.Source.BoardCustomFields(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("fetch custom fields of board %d: %w", boardID, err)
	}

	schema := make(domain.BoardFieldSchema, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			continue
		}
		if def.FieldType.IsChoice() {
			c.Logger.Debug("fetching field options", "board_id", boardID, "field", def.ID)
			opts, err := c.Source.FieldOptions(ctx, string(def.ID))
			if err != nil {
				return nil, fmt.Errorf("fetch options of field %s: %w", def.ID, err)
			}
			def.Options = opts
		}
		schema[string(def.ID)] = def
	}
	return schema, nil
}
