package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_predictions_total",
		Help: "Predictions served, by model kind.",
	}, []string{"model"})

	TrainingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_training_runs_total",
		Help: "Training runs, by target strategy and outcome.",
	}, []string{"strategy", "status"})

	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "irrigation_training_duration_seconds",
		Help:    "Wall time of training runs.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	ValidationRMSE = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irrigation_validation_rmse",
		Help: "Validation RMSE of the most recently trained model.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_http_requests_total",
		Help: "HTTP requests, by method, route and status code.",
	}, []string{"method", "route", "status"})

	SensorReadingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_sensor_readings_total",
		Help: "Sensor readings ingested, by source and abnormal flag.",
	}, []string{"source", "abnormal"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
