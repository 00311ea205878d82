package ml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climatefarm/models"
	"climatefarm/utils"
)

func TestPredictor_FallbackWithoutModel(t *testing.T) {
	_, store, _ := newTestTrainer(t)
	now := time.Date(2024, 7, 1, 6, 30, 0, 0, time.UTC)
	p := NewPredictor(store)
	p.now = func() time.Time { return now }

	r := models.Reading{SoilMoisture: 0.2, SoilTemp: 20, AirTemp: 25, Humidity: 60, Evapotranspiration: 3}
	got, err := p.Predict(r)
	require.NoError(t, err)

	assert.Equal(t, utils.FallbackEstimate(r, now), got)
	assert.Equal(t, models.ModelFallback, got.Model)
	assert.Equal(t, 4.8, got.VolumeLPerM2)
	assert.Equal(t, 19, got.Schedule.DurationMin)
}

func TestPredictor_UsesTrainedModel(t *testing.T) {
	trainer, store, _ := newTestTrainer(t)
	_, err := trainer.Train(context.Background(), "")
	require.NoError(t, err)

	p := NewPredictor(store)
	got, err := p.Predict(models.DefaultReading)
	require.NoError(t, err)

	assert.Equal(t, models.ModelTrained, got.Model)
	assert.GreaterOrEqual(t, got.Schedule.DurationMin, 5)
	assert.Equal(t, utils.TrainedSchedule(got.VolumeLPerM2, time.Time{}).DurationMin, got.Schedule.DurationMin)
}

func TestPredictor_PropagatesPredictError(t *testing.T) {
	_, store, _ := newTestTrainer(t)
	require.NoError(t, store.Save(testArtifact(t, "ok", 1)))
	artifact, err := store.Load()
	require.NoError(t, err)
	artifact.Forest.NFeatures = 3

	_, err = NewPredictor(store).Predict(models.DefaultReading)
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}
