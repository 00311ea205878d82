package models

// Model tags reported with every prediction.
const (
	ModelFallback = "fallback"
	ModelTrained  = "trained"
)

// Schedule is when and for how long to irrigate.
type Schedule struct {
	Start       string `json:"start"` // ISO-8601 UTC with trailing Z
	DurationMin int    `json:"duration_min"`
}

// PredictionResult is the response of the prediction service.
type PredictionResult struct {
	Model        string   `json:"model"`
	VolumeLPerM2 float64  `json:"volume_l_per_m2"`
	Schedule     Schedule `json:"schedule"`
}
