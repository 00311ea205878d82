// Command train fits the irrigation model offline, the same way POST /train does.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"climatefarm/config"
	"climatefarm/ml"
)

func main() {
	filename := flag.String("file", "", "CSV file inside DATA_DIR; synthetic data when empty")
	flag.Parse()

	cfg := config.Load()
	logger := config.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := ml.NewModelStore(cfg.ModelPath, logger)
	report, err := ml.NewTrainer(cfg.TrainerConfig(), store, logger).Train(ctx, *filename)
	if err != nil {
		os.Exit(1)
	}
	logger.Info("model saved", "path", store.Path(), "model_id", report.ModelID, "rmse", report.RMSE)
}
