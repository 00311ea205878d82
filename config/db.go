package config

import (
	"fmt"
	"log/slog"

	"climatefarm/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the postgres connection and migrates the schema.
func ConnectDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := MigrateModels(db); err != nil {
		return nil, err
	}
	slog.Info("database connected")
	return db, nil
}

// MigrateModels creates or updates the tables for all persisted models.
func MigrateModels(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.SensorReading{}, &models.TrainingRun{}); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}
