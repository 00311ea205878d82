package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"climatefarm/models"
)

// publishClient is the part of paho.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher sends irrigation schedules back to devices.
type Publisher struct {
	client  publishClient
	pattern string // e.g. "irrigation/{device_id}/schedule"
	logger  *slog.Logger
}

func NewPublisher(client publishClient, pattern string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, pattern: pattern, logger: logger}
}

// PublishSchedule publishes a prediction result to the device's schedule topic.
func (p *Publisher) PublishSchedule(deviceID string, result models.PredictionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	topic := formatTopic(p.pattern, deviceID)
	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish schedule: %w", token.Error())
	}

	p.logger.Debug("published schedule", "device_id", deviceID, "topic", topic, "model", result.Model)
	return nil
}

// formatTopic replaces the {device_id} placeholder.
func formatTopic(pattern, deviceID string) string {
	return strings.ReplaceAll(pattern, "{device_id}", deviceID)
}
