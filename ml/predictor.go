package ml

import (
	"errors"
	"fmt"
	"time"

	"climatefarm/metrics"
	"climatefarm/models"
	"climatefarm/utils"
)

// Predictor answers with the trained model when one is stored and with the
// fallback formula otherwise.
type Predictor struct {
	store *ModelStore
	now   func() time.Time
}

// NewPredictor creates a predictor reading artifacts from store.
func NewPredictor(store *ModelStore) *Predictor {
	return &Predictor{store: store, now: time.Now}
}

// Predict estimates irrigation for one reading.
func (p *Predictor) Predict(r models.Reading) (models.PredictionResult, error) {
	now := p.now()

	artifact, err := p.store.Load()
	if errors.Is(err, ErrNoModel) {
		metrics.PredictionsTotal.WithLabelValues(models.ModelFallback).Inc()
		return utils.FallbackEstimate(r, now), nil
	}
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("failed to load model: %w", err)
	}

	volume, err := artifact.Predict(r)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("failed to predict: %w", err)
	}

	metrics.PredictionsTotal.WithLabelValues(models.ModelTrained).Inc()
	return models.PredictionResult{
		Model:        models.ModelTrained,
		VolumeLPerM2: volume,
		Schedule:     utils.TrainedSchedule(volume, now),
	}, nil
}
