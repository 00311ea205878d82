package ml

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a CSV file kept as text, for display.
type Table struct {
	Columns []string
	Records [][]string
}

// ReadTableFile reads up to limit records from a CSV file. A limit of 0 reads everything.
func ReadTableFile(path string, limit int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return ReadTable(f, limit)
}

// ReadTable reads a headed CSV stream without converting cells. Short rows
// are padded with empty cells.
func ReadTable(r io.Reader, limit int) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	for limit <= 0 || len(t.Records) < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.Records)+1, err)
		}
		row := make([]string, len(t.Columns))
		copy(row, record)
		t.Records = append(t.Records, row)
	}
	return t, nil
}

// Maps returns each record keyed by column name.
func (t *Table) Maps() []map[string]string {
	out := make([]map[string]string, len(t.Records))
	for i, rec := range t.Records {
		m := make(map[string]string, len(t.Columns))
		for j, col := range t.Columns {
			m[col] = rec[j]
		}
		out[i] = m
	}
	return out
}

// NumericSeries returns every column whose non-empty cells all parse as
// numbers. Empty cells become 0.
func (t *Table) NumericSeries() map[string][]float64 {
	out := make(map[string][]float64)
	for j, col := range t.Columns {
		values := make([]float64, len(t.Records))
		numeric := true
		for i, rec := range t.Records {
			s := strings.TrimSpace(rec[j])
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				numeric = false
				break
			}
			values[i] = v
		}
		if numeric {
			out[col] = values
		}
	}
	return out
}

// Column returns the raw values of a column, or nil if it does not exist.
func (t *Table) Column(name string) []string {
	for j, col := range t.Columns {
		if col != name {
			continue
		}
		out := make([]string, len(t.Records))
		for i, rec := range t.Records {
			out[i] = rec[j]
		}
		return out
	}
	return nil
}
