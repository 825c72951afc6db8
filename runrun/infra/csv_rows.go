package infra

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"runrun-importer/runrun/domain"
)

// CSVRows lê uma planilha exportada em CSV. A primeira linha é o cabeçalho;
// cada linha seguinte vira um domain.Row com valores string.
//
// Células vazias viram "" (o builder trata como ausentes). Row.Line é a linha
// física do arquivo, então linhas em branco puladas continuam contando.
type CSVRows struct {
	r      *csv.Reader
	header []string
}

// NewCSVRows lê o cabeçalho imediatamente. comma == 0 usa ','.
func NewCSVRows(r io.Reader, comma rune) (*CSVRows, error) {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: empty input, header row expected")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}
	return &CSVRows{r: cr, header: header}, nil
}

func (c *CSVRows) Header() []string { return c.header }

// Next implementa application.RowSource.
func (c *CSVRows) Next() (domain.Row, error) {
	for {
		rec, err := c.r.Read()
		if err != nil {
			return domain.Row{}, err
		}
		if blankRecord(rec) {
			continue
		}

		values := make(map[string]any, len(c.header))
		for i, col := range c.header {
			if col == "" {
				continue
			}
			if i < len(rec) {
				values[col] = rec[i]
			} else {
				values[col] = ""
			}
		}
		line, _ := c.r.FieldPos(0)
		return domain.Row{Line: line, Values: values}, nil
	}
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
