package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrDataShape is returned when a dataset cannot supply the model's columns.
var ErrDataShape = errors.New("dataset shape error")

// Row maps column name to value. Absent or non-numeric cells are NaN.
type Row map[string]float64

// Dataset is an ordered table of numeric rows.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the dataset declares the column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names in required that the dataset lacks.
func (d *Dataset) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if !d.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// SetColumn adds the column if needed and fills it row by row.
func (d *Dataset) SetColumn(name string, fn func(Row) float64) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
	for _, row := range d.Rows {
		row[name] = fn(row)
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Matrix extracts the feature matrix and label vector. Rows with a NaN in any
// requested cell are skipped.
func (d *Dataset) Matrix(features []string, label string) ([][]float64, []float64, error) {
	if missing := d.MissingColumns(append(append([]string{}, features...), label)); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: missing columns %s", ErrDataShape, strings.Join(missing, ", "))
	}

	X := make([][]float64, 0, len(d.Rows))
	y := make([]float64, 0, len(d.Rows))
	for _, row := range d.Rows {
		target, ok := row[label]
		if !ok || math.IsNaN(target) {
			continue
		}
		x := make([]float64, len(features))
		complete := true
		for i, name := range features {
			v, ok := row[name]
			if !ok || math.IsNaN(v) {
				complete = false
				break
			}
			x[i] = v
		}
		if !complete {
			continue
		}
		X = append(X, x)
		y = append(y, target)
	}

	if len(X) == 0 {
		return nil, nil, fmt.Errorf("%w: no complete rows", ErrDataShape)
	}
	return X, y, nil
}

// ReadCSVFile loads a dataset from a CSV file with a header row.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses a headed CSV stream. Empty and non-numeric cells become NaN.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	ds := &Dataset{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", ds.Len()+1, err)
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = math.NaN()
			if i < len(record) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err == nil {
					row[name] = v
				}
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// WriteCSV writes the dataset with a header row. NaN cells are left empty.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.Columns); err != nil {
		return err
	}
	record := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for i, name := range d.Columns {
			v, ok := row[name]
			if !ok || math.IsNaN(v) {
				record[i] = ""
				continue
			}
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
