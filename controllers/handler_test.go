package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"climatefarm/config"
	"climatefarm/ml"
	"climatefarm/noaa"
	"climatefarm/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeWeather struct {
	records []noaa.Record
	err     error
	calls   int
}

func (f *fakeWeather) FetchDailySummaries(_ context.Context, station, start, end string) ([]noaa.Record, error) {
	f.calls++
	return f.records, f.err
}

type testEnv struct {
	handler *Handler
	router  *gin.Engine
	store   *ml.ModelStore
	repo    *repository.MemoryRepository
	weather *fakeWeather
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := &config.Config{
		DataDir:       filepath.Join(dir, "data"),
		ModelPath:     filepath.Join(dir, "model", "irrigation_model.json"),
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		AdminUsers:    []string{"root"},
		TrainTrees:    3,
		SyntheticRows: 120,
		SyntheticSeed: 42,
	}
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0755))

	store := ml.NewModelStore(cfg.ModelPath, logger)
	repo := repository.NewMemoryRepository()
	weather := &fakeWeather{}
	h := NewHandler(Deps{
		Config:    cfg,
		Store:     store,
		Predictor: ml.NewPredictor(store),
		Trainer:   ml.NewTrainer(cfg.TrainerConfig(), store, logger),
		Repo:      repo,
		Weather:   weather,
		Logger:    logger,
	})

	r := gin.New()
	h.RegisterRoutes(r)
	return &testEnv{handler: h, router: r, store: store, repo: repo, weather: weather, dataDir: cfg.DataDir}
}

func (e *testEnv) do(method, path, contentType string, body []byte, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(path string, body any) *httptest.ResponseRecorder {
	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return e.do(http.MethodPost, path, "application/json", b, "")
}

func (e *testEnv) writeData(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.dataDir, name), []byte(content), 0644))
}

// login registers username and returns a bearer token for it.
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "email": username + "@example.com", "password": "pw-" + username}
	w := e.postJSON("/signup", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.postJSON("/login", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func csvOf(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
