package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		X = append(X, []float64{float64(i), float64(i % 3)})
		if i < 10 {
			y = append(y, 0)
		} else {
			y = append(y, 10)
		}
	}
	return X, y
}

func smallForest() ForestConfig {
	cfg := DefaultForestConfig()
	cfg.Trees = 8
	return cfg
}

func TestFitForest_LearnsStep(t *testing.T) {
	X, y := stepData()

	forest, err := FitForest(context.Background(), X, y, smallForest())
	require.NoError(t, err)
	require.Len(t, forest.Trees, 8)
	require.NoError(t, forest.Validate())

	low, err := forest.Predict([]float64{2, 2})
	require.NoError(t, err)
	high, err := forest.Predict([]float64{17, 2})
	require.NoError(t, err)

	assert.Less(t, low, 5.0)
	assert.Greater(t, high, 5.0)
}

func TestFitForest_IndependentOfWorkers(t *testing.T) {
	X, y := stepData()

	serial := smallForest()
	serial.Workers = 1
	parallel := smallForest()
	parallel.Workers = 4

	a, err := FitForest(context.Background(), X, y, serial)
	require.NoError(t, err)
	b, err := FitForest(context.Background(), X, y, parallel)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFitForest_ConstantTargetIsSingleLeaf(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{7, 7, 7, 7}

	forest, err := FitForest(context.Background(), X, y, smallForest())
	require.NoError(t, err)
	for _, tree := range forest.Trees {
		assert.Len(t, tree.Value, 1)
		assert.Equal(t, -1, tree.Feature[0])
	}

	got, err := forest.Predict([]float64{100})
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestFitForest_RejectsBadInput(t *testing.T) {
	_, err := FitForest(context.Background(), nil, nil, smallForest())
	assert.Error(t, err)

	_, err = FitForest(context.Background(), [][]float64{{1, 2}, {3}}, []float64{1, 2}, smallForest())
	assert.Error(t, err)

	cfg := smallForest()
	cfg.Trees = 0
	_, err = FitForest(context.Background(), [][]float64{{1}}, []float64{1}, cfg)
	assert.Error(t, err)
}

func TestFitForest_Cancelled(t *testing.T) {
	X, y := stepData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FitForest(ctx, X, y, smallForest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForestPredict_FeatureMismatch(t *testing.T) {
	X, y := stepData()
	forest, err := FitForest(context.Background(), X, y, smallForest())
	require.NoError(t, err)

	_, err = forest.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestRMSE(t *testing.T) {
	assert.InDelta(t, 0.0, RMSE([]float64{1, 2}, []float64{1, 2}), 1e-12)
	assert.InDelta(t, 2.0, RMSE([]float64{0, 0}, []float64{2, -2}), 1e-12)
	assert.True(t, RMSE(nil, nil) != RMSE(nil, nil), "empty input yields NaN")
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 1)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d repeated", i)
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := TrainTestSplit(10, 0.2, 1)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, test = TrainTestSplit(7, 0.2, 1)
	assert.Len(t, test, 2, "holdout size rounds up")
}
