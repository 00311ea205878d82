package models

import "time"

// Training data strategies, weakest last.
const (
	StrategyProvided  = "provided"
	StrategyDerived   = "derived"
	StrategySynthetic = "synthetic"
)

// Training run outcomes.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// TrainModelRequest is the body of POST /train. Filename is optional.
type TrainModelRequest struct {
	Filename string `json:"filename" form:"filename"`
}

// TrainModelResponse reports a finished training run.
type TrainModelResponse struct {
	Status   string  `json:"status"`
	ModelID  string  `json:"model_id"`
	RMSE     float64 `json:"rmse"`
	Rows     int     `json:"rows"`
	Strategy string  `json:"strategy"`
}

// TrainingRun records one invocation of the trainer.
type TrainingRun struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ModelID         string    `json:"model_id"`
	Source          string    `json:"source"`
	Strategy        string    `json:"strategy"`
	Rows            int       `json:"rows"`
	RMSE            float64   `json:"rmse"`
	DurationSeconds float64   `json:"duration_seconds"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
