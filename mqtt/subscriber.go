package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"climatefarm/models"
	"climatefarm/utils"
)

// queueSize bounds the readings waiting for the worker. Deliveries beyond it
// are dropped so the paho callback never blocks.
const queueSize = 64

// ReadingHandler turns one device reading into a prediction.
type ReadingHandler func(ctx context.Context, deviceID string, r models.Reading) (models.PredictionResult, error)

// subscribeClient is the part of paho.Client the subscriber needs.
type subscribeClient interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

type delivery struct {
	deviceID string
	reading  models.Reading
}

// Subscriber consumes device readings and answers each with an irrigation schedule.
type Subscriber struct {
	client      subscribeClient
	topic       string
	deviceLevel int
	handle      ReadingHandler
	publisher   *Publisher
	queue       chan delivery
	logger      *slog.Logger
}

// NewSubscriber wires a reading topic pattern such as "sensor/+/reading" to handle.
// The device id is read from the level holding the "+" wildcard.
// Results are published through publisher when it is not nil.
func NewSubscriber(client subscribeClient, topic string, handle ReadingHandler, publisher *Publisher, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		client:      client,
		topic:       topic,
		deviceLevel: wildcardLevel(topic),
		handle:      handle,
		publisher:   publisher,
		queue:       make(chan delivery, queueSize),
		logger:      logger,
	}
}

// Subscribe registers the reading topic at QoS 1 and starts the worker that
// predicts and publishes. Both stop when ctx is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context) error {
	go s.run(ctx)

	token := s.client.Subscribe(s.topic, 1, func(_ paho.Client, msg paho.Message) {
		s.enqueue(ctx, msg)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	s.logger.Info("subscribed to readings", "topic", s.topic)

	go func() {
		<-ctx.Done()
		if t := s.client.Unsubscribe(s.topic); t.Wait() && t.Error() != nil {
			s.logger.Warn("mqtt unsubscribe failed", "topic", s.topic, "error", t.Error())
		}
	}()
	return nil
}

// enqueue runs on the paho delivery goroutine and must not block.
func (s *Subscriber) enqueue(ctx context.Context, msg paho.Message) {
	if ctx.Err() != nil {
		return
	}
	d, ok := s.decode(msg)
	if !ok {
		return
	}
	select {
	case s.queue <- d:
	default:
		s.logger.Warn("reading queue full, dropping message", "device_id", d.deviceID)
	}
}

func (s *Subscriber) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.queue:
			s.process(ctx, d)
		}
	}
}

func (s *Subscriber) decode(msg paho.Message) (delivery, bool) {
	deviceID := extractDeviceID(msg.Topic(), s.deviceLevel)
	if deviceID == "" {
		s.logger.Warn("could not extract device id", "topic", msg.Topic())
		return delivery{}, false
	}

	var data map[string]any
	if err := json.Unmarshal(msg.Payload(), &data); err != nil || len(data) == 0 {
		s.logger.Warn("invalid reading payload", "device_id", deviceID, "error", err)
		return delivery{}, false
	}
	return delivery{deviceID: deviceID, reading: utils.BuildReading(data)}, true
}

func (s *Subscriber) process(ctx context.Context, d delivery) {
	result, err := s.handle(ctx, d.deviceID, d.reading)
	if err != nil {
		s.logger.Error("failed to handle reading", "device_id", d.deviceID, "error", err)
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSchedule(d.deviceID, result); err != nil {
			s.logger.Error("failed to publish schedule", "device_id", d.deviceID, "error", err)
		}
	}
}

// wildcardLevel returns the index of the first "+" level in a topic filter,
// or 1 when the filter has none.
func wildcardLevel(topic string) int {
	for i, level := range strings.Split(topic, "/") {
		if level == "+" {
			return i
		}
	}
	return 1
}

// extractDeviceID returns the given topic level.
// Example: ("sensor/field-7/reading", 1) -> "field-7"
func extractDeviceID(topic string, level int) string {
	parts := strings.Split(topic, "/")
	if level < len(parts) {
		return parts[level]
	}
	return ""
}
