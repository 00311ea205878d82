package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"climatefarm/models"
)

// BuildReading normalizes arbitrary decoded JSON into a complete reading.
// Keys that are missing or hold values that cannot be read as a finite number
// keep their default from models.DefaultReading. Unknown keys are ignored.
func BuildReading(data map[string]any) models.Reading {
	values := models.DefaultReading.Values()
	for _, name := range models.FeatureNames {
		raw, ok := data[name]
		if !ok {
			continue
		}
		if v, ok := toFloat(raw); ok {
			values[name] = v
		}
	}
	return models.ReadingFromValues(values)
}

func toFloat(raw any) (float64, bool) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case bool:
		if x {
			v = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
