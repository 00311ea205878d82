package controllers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climatefarm/noaa"
)

func multipartBody(t *testing.T, filename, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestUploadNOAA_SavesCSV(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "../My Station.csv", csvOf("DATE,PRCP", "2024-01-01,0.5"))
	w := env.do(http.MethodPost, "/upload_noaa", ct, body, "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	_, err := os.Stat(filepath.Join(env.dataDir, "My_Station.csv"))
	assert.NoError(t, err)
}

func TestUploadNOAA_IgnoresOtherFiles(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "notes.txt", "hello")
	w := env.do(http.MethodPost, "/upload_noaa", ct, body, "")
	assert.Equal(t, http.StatusFound, w.Code)

	w = env.do(http.MethodPost, "/upload_noaa", "", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)

	entries, err := os.ReadDir(env.dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchNOAA_WritesFile(t *testing.T) {
	env := newTestEnv(t)
	env.weather.records = []noaa.Record{
		{"DATE": "2024-01-01", "STATION": "USW1", "PRCP": "0.5"},
		{"DATE": "2024-01-02", "STATION": "USW1", "PRCP": "0"},
	}

	w := env.postJSON("/fetch_noaa", map[string]string{"station": "USW1", "start": "2024-01-01", "end": "2024-01-02"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[map[string]any](t, w)
	assert.Equal(t, float64(2), resp["rows"])
	assert.Equal(t, "noaa_USW1_2024-01-01_2024-01-02.csv", resp["filename"])

	content, err := os.ReadFile(filepath.Join(env.dataDir, "noaa_USW1_2024-01-01_2024-01-02.csv"))
	require.NoError(t, err)
	assert.Equal(t, csvOf("DATE,STATION,PRCP,rain_24h", "2024-01-01,USW1,0.5,0.5", "2024-01-02,USW1,0,0"), string(content))
}

func TestFetchNOAA_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/fetch_noaa", map[string]string{"station": "USW1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.weather.calls)

	env.weather.err = noaa.ErrMissingToken
	w = env.postJSON("/fetch_noaa", map[string]string{"station": "USW1", "start": "a", "end": "b"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	env.weather.err = errors.New("connection refused")
	w = env.postJSON("/fetch_noaa", map[string]string{"station": "USW1", "start": "a", "end": "b"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestDataPreview(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/data_preview", "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.writeData(t, "b.csv", csvOf("DATE,STATION,PRCP", "2024-01-01,USW1,0.5", "2024-01-02,USW1,"))
	env.writeData(t, "a.csv", csvOf("x", "1"))

	w = env.do(http.MethodGet, "/data_preview?filename=b.csv", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"filename": "b.csv",
		"columns": ["DATE", "STATION", "PRCP"],
		"preview": [
			{"DATE": "2024-01-01", "STATION": "USW1", "PRCP": 0.5},
			{"DATE": "2024-01-02", "STATION": "USW1", "PRCP": null}
		]
	}`, w.Body.String())

	w = env.do(http.MethodGet, "/data_preview", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a.csv", decode[map[string]any](t, w)["filename"])

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/data_preview?filename=missing.csv", "", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/data_preview?filename=../x.csv", "", nil, "").Code)
}

func TestDataNumeric(t *testing.T) {
	env := newTestEnv(t)
	env.writeData(t, "noaa.csv", csvOf("DATE,STATION,PRCP,TMAX", "2024-01-01,USW1,0.5,30", "2024-01-02,USW1,,31"))
	env.writeData(t, "plain.csv", csvOf("soil_moisture", "0.2", "0.3"))

	w := env.do(http.MethodGet, "/data_numeric?filename=noaa.csv", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"x":["2024-01-01","2024-01-02"],"series":{"PRCP":[0.5,0],"TMAX":[30,31]}}`, w.Body.String())

	w = env.do(http.MethodGet, "/data_numeric?filename=plain.csv", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"x":[0,1],"series":{"soil_moisture":[0.2,0.3]}}`, w.Body.String())
}

func TestDeleteData_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.writeData(t, "old.csv", csvOf("x", "1"))
	userToken := env.login(t, "ana")
	adminToken := env.login(t, "root")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodDelete, "/data/old.csv", "", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/data/old.csv", "", nil, userToken).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/data/old.csv", "", nil, adminToken).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/data/old.csv", "", nil, adminToken).Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "My_Station.csv", sanitizeFilename("../My Station.csv"))
	assert.Equal(t, "data.csv", sanitizeFilename(`C:\uploads\data.csv`))
	assert.Equal(t, "hidden.csv", sanitizeFilename("..hidden.csv"))
	assert.Equal(t, "nave.csv", sanitizeFilename("naïve.csv"))
}

func TestDataNumeric_EmptyFileWithoutDate(t *testing.T) {
	env := newTestEnv(t)
	env.writeData(t, "empty.csv", csvOf("soil_moisture"))

	w := env.do(http.MethodGet, "/data_numeric?filename=empty.csv", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"x":[],"series":{"soil_moisture":[]}}`, w.Body.String())
}
