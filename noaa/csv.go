package noaa

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"climatefarm/models"
)

// Aliases copies NOAA element columns to the feature names the trainer
// understands. The source column is kept.
var Aliases = []struct{ From, To string }{
	{"PRCP", models.Rain24h},
	{"TAVG", models.AirTemp},
	{"EVAP", models.Evapotranspiration},
}

// Columns returns the CSV header for records: DATE and STATION first, the
// remaining keys sorted, then any alias columns.
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}

	var cols []string
	for _, k := range []string{"DATE", "STATION"} {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	for _, a := range Aliases {
		if seen[a.From] && !seen[a.To] {
			rest = append(rest, a.To)
		}
	}
	return append(cols, rest...)
}

// WriteCSV writes records as a headed CSV table and returns the row count.
func WriteCSV(w io.Writer, records []Record) (int, error) {
	cols := Columns(records)
	alias := make(map[string]string, len(Aliases))
	for _, a := range Aliases {
		alias[a.To] = a.From
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return 0, err
	}
	row := make([]string, len(cols))
	for i, rec := range records {
		for j, col := range cols {
			v, ok := rec[col]
			if !ok {
				if from, isAlias := alias[col]; isAlias {
					v = rec[from]
				}
			}
			row[j] = cell(v)
		}
		if err := writer.Write(row); err != nil {
			return i, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return len(records), writer.Error()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Filename is the data directory name used for a fetched station range.
func Filename(station, start, end string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			}
			return '_'
		}, s)
	}
	return fmt.Sprintf("noaa_%s_%s_%s.csv", clean(station), clean(start), clean(end))
}
