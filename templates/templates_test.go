package templates

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllViewsParse(t *testing.T) {
	tmpl, err := Load()
	require.NoError(t, err)

	for _, name := range []string{"index.html", "predict_ui.html", "irrigation_schedule.html", "header", "footer"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestIndex_RendersFallbackState(t *testing.T) {
	tmpl := Must()

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "index.html", map[string]any{
		"Title":        "Irrigation dashboard",
		"ModelPresent": false,
		"DataFiles":    []string{"noaa.csv"},
		"Sample":       map[string]float64{"soil_moisture": 0.2},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Irrigation dashboard</title>")
	assert.Contains(t, out, "fallback")
	assert.Contains(t, out, `<option value="noaa.csv">noaa.csv</option>`)
	assert.Contains(t, out, `{"soil_moisture":0.2}`)
}
