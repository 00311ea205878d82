package ml

import (
	"math"
	"math/rand"
)

// RMSE is the root mean squared error between predictions and targets.
func RMSE(predicted, actual []float64) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return math.NaN()
	}
	sum := 0.0
	for i := range predicted {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(predicted)))
}

// TrainTestSplit shuffles row indices with the given seed and holds out
// ceil(testFraction*n) of them for validation.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest > n {
		nTest = n
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}
