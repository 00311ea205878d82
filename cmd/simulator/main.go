// Command simulator sends random field readings to the service, over HTTP
// or, when -broker is set, over MQTT.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"climatefarm/config"
	"climatefarm/models"
)

type sender interface {
	Send(deviceID string, payload []byte) (string, error)
}

type httpSender struct {
	url    string
	client *http.Client
}

func (s *httpSender) Send(_ string, payload []byte) (string, error) {
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

type mqttSender struct {
	client paho.Client
	topic  string
}

func (s *mqttSender) Send(deviceID string, payload []byte) (string, error) {
	topic := strings.Replace(s.topic, "+", deviceID, 1)
	token := s.client.Publish(topic, 1, false, payload)
	token.Wait()
	return topic, token.Error()
}

func randomReading(rng *rand.Rand) map[string]float64 {
	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
	return map[string]float64{
		models.SoilMoisture:       uniform(0.1, 0.6),
		models.SoilTemp:           uniform(10, 30),
		models.AirTemp:            uniform(10, 35),
		models.Humidity:           uniform(30, 90),
		models.Rain24h:            uniform(0, 20),
		models.Evapotranspiration: uniform(1, 6),
	}
}

func main() {
	target := flag.String("target", "http://localhost:8080/simulate", "simulate endpoint")
	broker := flag.String("broker", "", "MQTT broker URL; HTTP is used when empty")
	topic := flag.String("topic", "sensor/+/reading", "MQTT reading topic, + is replaced by the device id")
	device := flag.String("device", "", "device id; random when empty")
	count := flag.Int("count", 5, "number of readings to send")
	delay := flag.Duration("delay", time.Second, "pause between readings")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger := config.InitLogger("info", "text")

	if *device == "" {
		*device = "sim-" + uuid.NewString()[:8]
	}

	var s sender
	if *broker != "" {
		opts := paho.NewClientOptions().AddBroker(*broker).SetClientID(*device)
		client := paho.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Error("failed to connect to MQTT broker", "broker", *broker, "error", token.Error())
			os.Exit(1)
		}
		defer client.Disconnect(250)
		s = &mqttSender{client: client, topic: *topic}
	} else {
		s = &httpSender{url: *target, client: &http.Client{Timeout: 10 * time.Second}}
	}

	rng := rand.New(rand.NewSource(*seed))
	failures := 0
	for i := 0; i < *count; i++ {
		reading := randomReading(rng)
		payload := map[string]any{"device_id": *device}
		for k, v := range reading {
			payload[k] = v
		}
		body, _ := json.Marshal(payload)

		resp, err := s.Send(*device, body)
		if err != nil {
			failures++
			logger.Error("send failed", "device_id", *device, "error", err)
		} else {
			logger.Info("reading sent", slog.Int("n", i+1), slog.String("device_id", *device), slog.String("response", resp))
		}
		if i < *count-1 {
			time.Sleep(*delay)
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}
