package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"climatefarm/config"
	"climatefarm/metrics"
	"climatefarm/middlewares"
	"climatefarm/ml"
	"climatefarm/models"
	"climatefarm/noaa"
	"climatefarm/repository"
	"climatefarm/templates"
)

// WeatherFetcher downloads historical station data.
type WeatherFetcher interface {
	FetchDailySummaries(ctx context.Context, station, start, end string) ([]noaa.Record, error)
}

// BrokerStatus reports the state of the MQTT connection.
type BrokerStatus interface {
	IsConnected() bool
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Config    *config.Config
	Store     *ml.ModelStore
	Predictor *ml.Predictor
	Trainer   *ml.Trainer
	Repo      repository.Repository
	Hub       *Hub
	Weather   WeatherFetcher
	Broker    BrokerStatus // nil when MQTT is disabled
	Logger    *slog.Logger
}

// Handler serves the dashboard, prediction and training endpoints.
type Handler struct {
	cfg       *config.Config
	store     *ml.ModelStore
	predictor *ml.Predictor
	trainer   *ml.Trainer
	repo      repository.Repository
	hub       *Hub
	weather   WeatherFetcher
	broker    BrokerStatus
	jwtSecret []byte
	logger    *slog.Logger
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hub := d.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Handler{
		cfg:       d.Config,
		store:     d.Store,
		predictor: d.Predictor,
		trainer:   d.Trainer,
		repo:      d.Repo,
		hub:       hub,
		weather:   d.Weather,
		broker:    d.Broker,
		jwtSecret: []byte(d.Config.JWTSecret),
		logger:    logger,
	}
}

// Hub returns the realtime event hub.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(templates.Must())

	// Dashboard
	r.GET("/", h.Index)
	r.GET("/healthz", h.Healthz)
	r.GET("/predict-ui", h.PredictUI)
	r.GET("/irrigation_schedule", h.IrrigationSchedule)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws", h.HandleWebSocket)

	// Model
	r.POST("/predict", h.Predict)
	r.POST("/train", h.TrainModel)
	r.GET("/model/status", h.GetModelStatus)

	// Data
	r.POST("/upload_noaa", h.UploadNOAA)
	r.POST("/fetch_noaa", h.FetchNOAA)
	r.GET("/data_preview", h.DataPreview)
	r.GET("/data_numeric", h.DataNumeric)
	r.POST("/simulate", h.Simulate)

	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)

	// Protected routes using auth middleware
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(h.jwtSecret))
	auth.GET("/history", h.GetHistory)
	auth.GET("/download-csv", h.DownloadCSV)
	auth.GET("/training-runs", h.ListTrainingRuns)

	admin := auth.Group("/")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	admin.DELETE("/data/:filename", h.DeleteData)
}

// bindOptional binds a JSON or form body. A missing body leaves obj untouched.
func bindOptional(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
