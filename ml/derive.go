package ml

import (
	"climatefarm/models"
)

// RequiredColumns are the columns a dataset needs to be used as-is.
var RequiredColumns = append(append([]string{}, models.FeatureNames...), models.VolumeLabel)

// SyntheticSource produces the replacement dataset when derivation is impossible.
type SyntheticSource func() *Dataset

// DeriveTarget makes sure the dataset carries a label, using the weakest
// strategy still available:
//
//  1. every required column present: the dataset is used unchanged;
//  2. soil_moisture and evapotranspiration present: the label is computed per
//     row with DerivedVolume, a missing rain_24h column counting as 0;
//  3. otherwise the dataset is discarded for a synthetic one.
//
// Strategy 2 only guarantees a label; other feature columns may still be
// missing, which the trainer reports as a shape error.
func DeriveTarget(ds *Dataset, synthetic SyntheticSource) (*Dataset, string) {
	if ds == nil {
		return synthetic(), models.StrategySynthetic
	}
	if len(ds.MissingColumns(RequiredColumns)) == 0 {
		return ds, models.StrategyProvided
	}
	if !ds.HasColumn(models.SoilMoisture) || !ds.HasColumn(models.Evapotranspiration) {
		return synthetic(), models.StrategySynthetic
	}

	hasRain := ds.HasColumn(models.Rain24h)
	ds.SetColumn(models.VolumeLabel, func(row Row) float64 {
		rain := 0.0
		if hasRain {
			rain = row[models.Rain24h]
		}
		return DerivedVolume(row[models.SoilMoisture], row[models.Evapotranspiration], rain)
	})
	return ds, models.StrategyDerived
}
