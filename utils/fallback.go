package utils

import (
	"math"
	"time"

	"climatefarm/models"
)

// ScheduleTimeLayout is the layout of Schedule.Start, without the trailing Z.
const ScheduleTimeLayout = "2006-01-02T15:04:05.000000"

// FormatScheduleStart renders t in UTC as ISO-8601 with a literal Z suffix.
func FormatScheduleStart(t time.Time) string {
	return t.UTC().Format(ScheduleTimeLayout) + "Z"
}

// MoistureDeficit is how far the soil is below the 0.5 target fraction.
func MoistureDeficit(soilMoisture float64) float64 {
	return math.Max(0, 0.5-soilMoisture)
}

// FallbackEstimate computes the irrigation volume without a trained model.
func FallbackEstimate(r models.Reading, now time.Time) models.PredictionResult {
	deficit := MoistureDeficit(r.SoilMoisture)
	volume := RoundTo(deficit*(r.Evapotranspiration+5)*2, 2)
	return models.PredictionResult{
		Model:        models.ModelFallback,
		VolumeLPerM2: volume,
		Schedule: models.Schedule{
			Start:       FormatScheduleStart(now),
			DurationMin: int(math.Floor(30*deficit + 10)),
		},
	}
}

// TrainedSchedule derives the watering duration from a model prediction.
func TrainedSchedule(prediction float64, now time.Time) models.Schedule {
	return models.Schedule{
		Start:       FormatScheduleStart(now),
		DurationMin: int(math.Max(5, math.Floor(prediction*6))),
	}
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
