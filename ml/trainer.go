package ml

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"climatefarm/metrics"
	"climatefarm/models"
)

// TrainerConfig controls where training data comes from and how the forest is fitted.
type TrainerConfig struct {
	DataDir            string
	Forest             ForestConfig
	SyntheticRows      int
	SyntheticSeed      int64
	ValidationFraction float64
	SplitSeed          int64
}

// DefaultTrainerConfig returns the standard 80/20 split and 100-tree forest.
func DefaultTrainerConfig(dataDir string) TrainerConfig {
	return TrainerConfig{
		DataDir:            dataDir,
		Forest:             DefaultForestConfig(),
		SyntheticRows:      DefaultSyntheticRows,
		SyntheticSeed:      DefaultSyntheticSeed,
		ValidationFraction: 0.2,
		SplitSeed:          1,
	}
}

// TrainReport summarizes a successful run.
type TrainReport struct {
	ModelID        string
	Source         string
	Strategy       string
	Rows           int
	TrainRows      int
	ValidationRows int
	RMSE           float64
	Duration       time.Duration
}

// Trainer fits a forest and stores it. Runs are serialized.
type Trainer struct {
	cfg    TrainerConfig
	store  *ModelStore
	logger *slog.Logger
	mu     sync.Mutex
}

// NewTrainer creates a trainer writing artifacts to store.
func NewTrainer(cfg TrainerConfig, store *ModelStore, logger *slog.Logger) *Trainer {
	if cfg.SyntheticRows <= 0 {
		cfg.SyntheticRows = DefaultSyntheticRows
	}
	if cfg.ValidationFraction <= 0 || cfg.ValidationFraction >= 1 {
		cfg.ValidationFraction = 0.2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, store: store, logger: logger}
}

// Train builds a model from filename inside the data directory, or from
// synthetic data when filename is empty or does not exist.
func (t *Trainer) Train(ctx context.Context, filename string) (*TrainReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	report, err := t.train(ctx, filename)
	elapsed := time.Since(start)
	metrics.TrainingDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues(strategyLabel(report), models.RunFailed).Inc()
		t.logger.Error("training failed", "filename", filename, "error", err)
		return nil, err
	}
	report.Duration = elapsed
	metrics.TrainingRunsTotal.WithLabelValues(report.Strategy, models.RunSucceeded).Inc()
	metrics.ValidationRMSE.Set(report.RMSE)
	t.logger.Info("training finished",
		"model_id", report.ModelID,
		"source", report.Source,
		"strategy", report.Strategy,
		"rows", report.Rows,
		"rmse", report.RMSE,
		"duration", elapsed,
	)
	return report, nil
}

// train returns a partial report alongside errors so the strategy can still be counted.
func (t *Trainer) train(ctx context.Context, filename string) (*TrainReport, error) {
	report := &TrainReport{}

	ds, err := t.loadDataset(filename)
	if err != nil {
		return report, err
	}
	if ds != nil {
		report.Source = filename
	}

	ds, report.Strategy = DeriveTarget(ds, func() *Dataset {
		return GenerateSynthetic(t.cfg.SyntheticRows, t.cfg.SyntheticSeed)
	})
	if report.Strategy == models.StrategySynthetic {
		report.Source = ""
	}

	X, y, err := ds.Matrix(models.FeatureNames, models.VolumeLabel)
	if err != nil {
		return report, err
	}
	if len(X) < 2 {
		return report, fmt.Errorf("%w: need at least 2 usable rows, have %d", ErrDataShape, len(X))
	}
	report.Rows = len(X)

	trainIdx, testIdx := TrainTestSplit(len(X), t.cfg.ValidationFraction, t.cfg.SplitSeed)
	trainX, trainY := subset(X, y, trainIdx)
	testX, testY := subset(X, y, testIdx)
	report.TrainRows, report.ValidationRows = len(trainX), len(testX)

	forest, err := FitForest(ctx, trainX, trainY, t.cfg.Forest)
	if err != nil {
		return report, fmt.Errorf("failed to fit forest: %w", err)
	}

	predicted := make([]float64, len(testX))
	for i, row := range testX {
		if predicted[i], err = forest.Predict(row); err != nil {
			return report, err
		}
	}
	report.RMSE = RMSE(predicted, testY)

	artifact := &Artifact{
		ID:        uuid.NewString(),
		Features:  append([]string{}, models.FeatureNames...),
		TrainedAt: time.Now().UTC(),
		Source:    report.Source,
		Strategy:  report.Strategy,
		Rows:      report.Rows,
		RMSE:      report.RMSE,
		Forest:    forest,
	}
	if err := t.store.Save(artifact); err != nil {
		return report, err
	}
	report.ModelID = artifact.ID
	return report, nil
}

// loadDataset returns nil without error when there is nothing to load.
func (t *Trainer) loadDataset(filename string) (*Dataset, error) {
	if filename == "" {
		return nil, nil
	}
	path, err := DataPath(t.cfg.DataDir, filename)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		t.logger.Warn("training file not found, using synthetic data", "filename", filename)
		return nil, nil
	}
	return ReadCSVFile(path)
}

func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	sx := make([][]float64, len(idx))
	sy := make([]float64, len(idx))
	for i, j := range idx {
		sx[i], sy[i] = X[j], y[j]
	}
	return sx, sy
}

func strategyLabel(r *TrainReport) string {
	if r == nil || r.Strategy == "" {
		return "unknown"
	}
	return r.Strategy
}
