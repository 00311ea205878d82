package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climatefarm/models"
)

func TestBuildReading_Defaults(t *testing.T) {
	r := BuildReading(map[string]any{})
	assert.Equal(t, models.DefaultReading, r)
	assert.Len(t, r.Vector(), len(models.FeatureNames))
}

func TestBuildReading_PartialInputKeepsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  models.Reading
	}{
		{
			name:  "only soil moisture",
			input: map[string]any{"soil_moisture": 0.35},
			want: models.Reading{
				SoilMoisture: 0.35, SoilTemp: 20, AirTemp: 25,
				Humidity: 60, Rain24h: 0, Evapotranspiration: 3,
			},
		},
		{
			name:  "numeric strings are parsed",
			input: map[string]any{"humidity": " 72.5 ", "rain_24h": "4"},
			want: models.Reading{
				SoilMoisture: 0.2, SoilTemp: 20, AirTemp: 25,
				Humidity: 72.5, Rain24h: 4, Evapotranspiration: 3,
			},
		},
		{
			name:  "invalid values fall back",
			input: map[string]any{"air_temp": "hot", "soil_temp": nil, "humidity": []any{1}, "evapotranspiration": "NaN"},
			want:  models.DefaultReading,
		},
		{
			name:  "extra keys ignored",
			input: map[string]any{"station": "USW00094728", "soil_temp": 18},
			want: models.Reading{
				SoilMoisture: 0.2, SoilTemp: 18, AirTemp: 25,
				Humidity: 60, Rain24h: 0, Evapotranspiration: 3,
			},
		},
		{
			name:  "booleans count as one and zero",
			input: map[string]any{"rain_24h": true, "soil_moisture": false},
			want: models.Reading{
				SoilMoisture: 0, SoilTemp: 20, AirTemp: 25,
				Humidity: 60, Rain24h: 1, Evapotranspiration: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildReading(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got.Vector(), 6)
		})
	}
}

func TestBuildReading_FromDecodedJSON(t *testing.T) {
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"soil_moisture":0.1,"evapotranspiration":6}`), &data))

	r := BuildReading(data)
	assert.Equal(t, []float64{0.1, 20, 25, 60, 0, 6}, r.Vector())
}

func TestReadingVectorOrder(t *testing.T) {
	r := models.Reading{SoilMoisture: 1, SoilTemp: 2, AirTemp: 3, Humidity: 4, Rain24h: 5, Evapotranspiration: 6}
	values := r.Values()
	for i, name := range models.FeatureNames {
		assert.Equal(t, r.Vector()[i], values[name], name)
	}
	assert.Equal(t, r, models.ReadingFromValues(values))
}
