package noaa

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_MissingToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second, nil).FetchDailySummaries(context.Background(), "USW00094728", "2024-01-01", "2024-01-31")
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.False(t, called)
}

func TestFetch_SendsQueryAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", r.Header.Get("token"))
		assert.Equal(t, DailySummaries, q.Get("dataset"))
		assert.Equal(t, "USW00094728", q.Get("stations"))
		assert.Equal(t, "2024-01-01", q.Get("startDate"))
		assert.Equal(t, "2024-01-02", q.Get("endDate"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "false", q.Get("includeAttributes"))
		assert.Equal(t, "false", q.Get("includeStationName"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"DATE":"2024-01-01","STATION":"USW00094728","PRCP":"0.5"},{"DATE":"2024-01-02","STATION":"USW00094728","PRCP":"0"}]`))
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL, "secret", time.Second, nil).FetchDailySummaries(context.Background(), "USW00094728", "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0.5", records[0]["PRCP"])
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad station", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "secret", time.Second, nil).FetchDailySummaries(context.Background(), "nope", "2024-01-01", "2024-01-02")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Contains(t, err.Error(), "bad station")
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, "secret", time.Second, nil).FetchDailySummaries(context.Background(), "s", "2024-01-01", "2024-01-02")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch NOAA data")
}

func TestWriteCSV_ColumnLayoutAndAliases(t *testing.T) {
	records := []Record{
		{"STATION": "S1", "TMAX": "30", "DATE": "2024-01-01", "PRCP": " 1.2 ", "TAVG": 21.5},
		{"STATION": "S1", "DATE": "2024-01-02", "PRCP": "0"},
	}

	var buf bytes.Buffer
	n, err := WriteCSV(&buf, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "DATE,STATION,PRCP,TAVG,TMAX,rain_24h,air_temp", lines[0])
	assert.Equal(t, "2024-01-01,S1,1.2,21.5,30,1.2,21.5", lines[1])
	assert.Equal(t, "2024-01-02,S1,0,,,0,", lines[2])
}

func TestColumns_KeepsExistingFeatureColumn(t *testing.T) {
	cols := Columns([]Record{{"PRCP": "1", "rain_24h": "2"}})
	assert.Equal(t, []string{"PRCP", "rain_24h"}, cols)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "noaa_GHCND_USW00094728_2024-01-01_2024-01-31.csv", Filename("GHCND:USW00094728", "2024-01-01", "2024-01-31"))
	assert.Equal(t, "noaa____x_a_b.csv", Filename("../x", "a", "b"))
}
