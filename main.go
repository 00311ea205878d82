package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"climatefarm/config"
	"climatefarm/controllers"
	"climatefarm/middlewares"
	"climatefarm/ml"
	"climatefarm/models"
	"climatefarm/mqtt"
	"climatefarm/noaa"
	"climatefarm/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := config.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repo, err := openRepository(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		cfg.JWTSecret = hex.EncodeToString(secret)
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	var (
		broker  *mqtt.Client
		status  controllers.BrokerStatus
	)
	if cfg.MQTTBroker != "" {
		broker, err = mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger)
		if err != nil {
			return err
		}
		defer broker.Close()
		status = broker
	}

	store := ml.NewModelStore(cfg.ModelPath, logger)
	hub := controllers.NewHub(logger)
	h := controllers.NewHandler(controllers.Deps{
		Config:    cfg,
		Store:     store,
		Predictor: ml.NewPredictor(store),
		Trainer:   ml.NewTrainer(cfg.TrainerConfig(), store, logger),
		Repo:      repo,
		Hub:       hub,
		Weather:   noaa.NewClient(cfg.NOAABaseURL, cfg.NOAAToken, cfg.NOAATimeout, logger),
		Broker:    status,
		Logger:    logger,
	})

	if broker != nil {
		if err := subscribeReadings(ctx, cfg, broker, h, logger); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "model_present", store.Exists())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepository(cfg *config.Config, logger *slog.Logger) (repository.Repository, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, keeping users and readings in memory")
		return repository.NewMemoryRepository(), nil
	}
	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return repository.NewGormRepository(db), nil
}

func subscribeReadings(ctx context.Context, cfg *config.Config, client *mqtt.Client, h *controllers.Handler, logger *slog.Logger) error {
	publisher := mqtt.NewPublisher(client.Native(), cfg.MQTTTopicSchedule, logger)
	handle := func(ctx context.Context, deviceID string, r models.Reading) (models.PredictionResult, error) {
		return h.IngestReading(ctx, deviceID, "mqtt", r)
	}
	return mqtt.NewSubscriber(client.Native(), cfg.MQTTTopicReadings, handle, publisher, logger).Subscribe(ctx)
}
