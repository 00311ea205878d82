package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"climatefarm/ml"
)

type Config struct {
	// HTTP
	Port        string
	CORSOrigins []string

	// Storage
	DataDir     string
	ModelPath   string
	DatabaseURL string

	// Auth
	JWTSecret  string
	JWTTTL     time.Duration
	AdminUsers []string // usernames granted the admin role at signup

	// NOAA
	NOAAToken   string
	NOAABaseURL string
	NOAATimeout time.Duration

	// MQTT, disabled when the broker is empty
	MQTTBroker        string
	MQTTClientID      string
	MQTTUsername      string
	MQTTPassword      string
	MQTTTopicReadings string
	MQTTTopicSchedule string

	// Training
	TrainTrees    int
	TrainWorkers  int
	SyntheticRows int
	SyntheticSeed int64

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),

		DataDir:     getEnv("DATA_DIR", "data"),
		ModelPath:   getEnv("MODEL_PATH", "model/irrigation_model.json"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTTTL:     getEnvDuration("JWT_TTL", 72*time.Hour),
		AdminUsers: getEnvList("ADMIN_USERS", nil),

		NOAAToken:   getEnv("NOAA_TOKEN", ""),
		NOAABaseURL: getEnv("NOAA_BASE_URL", "https://www.ncei.noaa.gov/access/services/data/v1"),
		NOAATimeout: getEnvDuration("NOAA_TIMEOUT", 30*time.Second),

		MQTTBroker:        getEnv("MQTT_BROKER", ""),
		MQTTClientID:      getEnv("MQTT_CLIENT_ID", "climatefarm"),
		MQTTUsername:      getEnv("MQTT_USERNAME", ""),
		MQTTPassword:      getEnv("MQTT_PASSWORD", ""),
		MQTTTopicReadings: getEnv("MQTT_TOPIC_READINGS", "sensor/+/reading"),
		MQTTTopicSchedule: getEnv("MQTT_TOPIC_SCHEDULE", "irrigation/{device_id}/schedule"),

		TrainTrees:    getEnvInt("TRAIN_TREES", 100),
		TrainWorkers:  getEnvInt("TRAIN_WORKERS", 0),
		SyntheticRows: getEnvInt("SYNTHETIC_ROWS", 1500),
		SyntheticSeed: int64(getEnvInt("SYNTHETIC_SEED", 42)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// TrainerConfig applies the training settings to the ml defaults.
func (c *Config) TrainerConfig() ml.TrainerConfig {
	tc := ml.DefaultTrainerConfig(c.DataDir)
	tc.Forest.Trees = c.TrainTrees
	tc.Forest.Workers = c.TrainWorkers
	tc.SyntheticRows = c.SyntheticRows
	tc.SyntheticSeed = c.SyntheticSeed
	return tc
}

// IsAdmin reports whether username is listed in ADMIN_USERS.
func (c *Config) IsAdmin(username string) bool {
	for _, u := range c.AdminUsers {
		if u == username {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("failed to parse env as int, using default", "key", key, "error", err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("failed to parse env as duration, using default", "key", key, "error", err)
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
