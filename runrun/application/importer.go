package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"runrun-importer/runrun/domain"
)

// RowSource entrega linhas em ordem; io.EOF marca o fim.
type RowSource interface {
	Next() (domain.Row, error)
}

type TaskCreator interface {
	CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.CreatedTask, error)
}

// DryRunSink recebe o payload no lugar da chamada à API.
type DryRunSink func(line int, draft domain.TaskDraft) error

// EmptySchemaSource é usado em dry-run sem credenciais: nenhum board tem
// campos customizados, então colunas custom_* são ignoradas.
type EmptySchemaSource struct{}

func (EmptySchemaSource) BoardCustomFields(context.Context, int64) ([]domain.FieldDefinition, error) {
	return nil, nil
}

func (EmptySchemaSource) FieldOptions(context.Context, string) ([]domain.Option, error) {
	return nil, nil
}

// Importer leva as linhas, uma a uma, por resolução de schema, montagem do
// payload e envio. Falha de uma linha é contada e a importação segue.
type Importer struct {
	Schemas  *SchemaCache
	Builder  Builder
	Defaults domain.Defaults
	Creator  TaskCreator
	// DryRun, quando definido, substitui o envio.
	DryRun DryRunSink

	Stats  domain.StatsStore
	RunID  string
	Logger *slog.Logger
}

// Run processa todas as linhas. Só retorna erro se a fonte falhar ou o ctx
// for cancelado; erros de linha vão para o Summary.
func (imp *Importer) Run(ctx context.Context, rows RowSource) (domain.Summary, error) {
	if imp.Logger == nil {
		imp.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if imp.DryRun == nil && imp.Creator == nil {
		return domain.Summary{}, errors.New("importer: Creator is required unless DryRun is set")
	}

	started := time.Now()
	var sum domain.Summary
	for {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(started)
			return sum, err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sum.Elapsed = time.Since(started)
			return sum, fmt.Errorf("read row: %w", err)
		}

		boardID, taskID, err := imp.processRow(ctx, row)
		if err != nil {
			// cancelamento durante a linha não é falha da linha.
			if ctxErr := ctx.Err(); ctxErr != nil {
				sum.Elapsed = time.Since(started)
				return sum, ctxErr
			}
			sum.Fail++
			sum.Failures = append(sum.Failures, domain.RowFailure{Line: row.Line, Err: err})
			imp.Logger.Error("row failed", "row", row.Line, "error", err)
			imp.record(ctx, row.Line, boardID, domain.OutcomeError)
			continue
		}

		sum.OK++
		if imp.DryRun == nil {
			imp.Logger.Info("task created", "row", row.Line, "task_id", taskID)
		}
		imp.record(ctx, row.Line, boardID, domain.OutcomeOK)
	}

	sum.Elapsed = time.Since(started)
	return sum, nil
}

func (imp *Importer) processRow(ctx context.Context, row domain.Row) (int64, domain.ID, error) {
	boardID, ok := toInt(row.Get(ColBoardID))
	if !ok || boardID == 0 {
		return 0, "", &domain.ValidationError{Field: ColBoardID, Reason: "missing or invalid"}
	}

	schema, err := imp.Schemas.Resolve(ctx, boardID)
	if err != nil {
		return boardID, "", err
	}

	draft, err := imp.Builder.Build(row, imp.Defaults, schema)
	if err != nil {
		return boardID, "", err
	}

	if imp.DryRun != nil {
		return boardID, "", imp.DryRun(row.Line, draft)
	}

	created, err := imp.Creator.CreateTask(ctx, draft)
	if err != nil {
		return boardID, "", err
	}
	return boardID, created.ID, nil
}

func (imp *Importer) record(ctx context.Context, line int, boardID int64, outcome string) {
	if imp.Stats == nil {
		return
	}
	err := imp.Stats.Record(ctx, domain.StatsEvent{
		RunID:   imp.RunID,
		Kind:    domain.StatsRow,
		Outcome: outcome,
		BoardID: boardID,
		Row:     line,
		At:      time.Now(),
	})
	if err != nil {
		imp.Logger.Warn("stats record failed", "error", err)
	}
}
