package models

// Feature names in the order the regression model consumes them.
const (
	SoilMoisture       = "soil_moisture"
	SoilTemp           = "soil_temp"
	AirTemp            = "air_temp"
	Humidity           = "humidity"
	Rain24h            = "rain_24h"
	Evapotranspiration = "evapotranspiration"

	// VolumeLabel is the training target column.
	VolumeLabel = "volume_l_per_m2"
)

// FeatureNames is the model input contract. Position i of a feature vector
// holds the value named FeatureNames[i].
var FeatureNames = []string{
	SoilMoisture,
	SoilTemp,
	AirTemp,
	Humidity,
	Rain24h,
	Evapotranspiration,
}

// Reading is one set of climate and soil measurements.
type Reading struct {
	SoilMoisture       float64 `json:"soil_moisture"`      // volumetric fraction 0-1
	SoilTemp           float64 `json:"soil_temp"`          // Celsius
	AirTemp            float64 `json:"air_temp"`           // Celsius
	Humidity           float64 `json:"humidity"`           // percent
	Rain24h            float64 `json:"rain_24h"`           // mm over the last day
	Evapotranspiration float64 `json:"evapotranspiration"` // mm/day
}

// DefaultReading holds the values substituted for missing or invalid input.
var DefaultReading = Reading{
	SoilMoisture:       0.2,
	SoilTemp:           20,
	AirTemp:            25,
	Humidity:           60,
	Rain24h:            0,
	Evapotranspiration: 3,
}

// Vector returns the reading in FeatureNames order.
func (r Reading) Vector() []float64 {
	return []float64{
		r.SoilMoisture,
		r.SoilTemp,
		r.AirTemp,
		r.Humidity,
		r.Rain24h,
		r.Evapotranspiration,
	}
}

// Values returns the reading keyed by feature name.
func (r Reading) Values() map[string]float64 {
	v := r.Vector()
	out := make(map[string]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// ReadingFromValues is the inverse of Values. Missing names take the zero value.
func ReadingFromValues(values map[string]float64) Reading {
	return Reading{
		SoilMoisture:       values[SoilMoisture],
		SoilTemp:           values[SoilTemp],
		AirTemp:            values[AirTemp],
		Humidity:           values[Humidity],
		Rain24h:            values[Rain24h],
		Evapotranspiration: values[Evapotranspiration],
	}
}
