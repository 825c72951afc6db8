package main

import (
	"encoding/json"
	"fmt"
	"io"

	"runrun-importer/runrun/application"
	"runrun-importer/runrun/domain"

	"gopkg.in/yaml.v3"
)

type dryRunEntry struct {
	Row     int                         `json:"row"`
	Payload map[string]domain.TaskDraft `json:"payload"`
}

// payloadPrinter imprime o que seria enviado em POST tasks.
func payloadPrinter(w io.Writer, format string) (application.DryRunSink, error) {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return func(line int, draft domain.TaskDraft) error {
			return enc.Encode(dryRunEntry{Row: line, Payload: map[string]domain.TaskDraft{"task": draft}})
		}, nil
	case "yaml":
		return func(line int, draft domain.TaskDraft) error {
			doc, err := toYAMLValue(dryRunEntry{Row: line, Payload: map[string]domain.TaskDraft{"task": draft}})
			if err != nil {
				return err
			}
			out, err := yaml.Marshal([]any{doc})
			if err != nil {
				return err
			}
			_, err = w.Write(out)
			return err
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json|yaml)", format)
	}
}

// toYAMLValue passa pelo JSON para herdar os nomes e o omitempty das tags json.
func toYAMLValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeSchemaYAML(w io.Writer, boardID int64, schema domain.BoardFieldSchema) error {
	doc := map[string]any{
		"board_id": boardID,
		"fields":   schema,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
