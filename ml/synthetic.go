package ml

import (
	"math"
	"math/rand"

	"climatefarm/models"
	"climatefarm/utils"
)

const (
	DefaultSyntheticRows = 1500
	DefaultSyntheticSeed = 42
)

// DerivedVolume is the irrigation label used for derived and synthetic
// training data. It is not the fallback formula: the offset is 3, not 5, and
// recent rain reduces the volume.
func DerivedVolume(soilMoisture, evapotranspiration, rain24h float64) float64 {
	return utils.MoistureDeficit(soilMoisture)*(evapotranspiration+3)*2 - rain24h*0.3
}

// GenerateSynthetic draws n labeled rows from independent feature
// distributions. The same seed always yields the same rows.
func GenerateSynthetic(n int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	uniform := func(lo, hi float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = lo + (hi-lo)*rng.Float64()
		}
		return out
	}
	exponential := func(mean float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = rng.ExpFloat64() * mean
		}
		return out
	}

	// Columns are drawn one after another so each stays reproducible on its own.
	soilMoisture := uniform(0.05, 0.6)
	soilTemp := uniform(5, 35)
	airTemp := uniform(5, 40)
	humidity := uniform(20, 95)
	rain := exponential(1.5)
	et := uniform(0.5, 7.0)

	ds := &Dataset{
		Columns: append(append([]string{}, models.FeatureNames...), models.VolumeLabel),
		Rows:    make([]Row, n),
	}
	for i := 0; i < n; i++ {
		ds.Rows[i] = Row{
			models.SoilMoisture:       soilMoisture[i],
			models.SoilTemp:           soilTemp[i],
			models.AirTemp:            airTemp[i],
			models.Humidity:           humidity[i],
			models.Rain24h:            rain[i],
			models.Evapotranspiration: et[i],
			models.VolumeLabel:        math.Max(0, DerivedVolume(soilMoisture[i], et[i], rain[i])),
		}
	}
	return ds
}
