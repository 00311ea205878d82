package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"climatefarm/metrics"
	"climatefarm/models"
	"climatefarm/utils"
)

const maxBodyBytes = 1 << 20

const serviceName = "Climate Aware Cloud AI"

// readJSONObject decodes the request body as a JSON object. It returns nil
// when the body is absent, empty, not an object, or an empty object.
func readJSONObject(c *gin.Context) map[string]any {
	if c.Request.Body == nil {
		return nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || len(data) == 0 {
		return nil
	}
	return data
}

// Predict estimates the irrigation volume and schedule for one reading.
func (h *Handler) Predict(c *gin.Context) {
	data := readJSONObject(c)
	if data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No input data provided"})
		return
	}

	result, err := h.predictor.Predict(utils.BuildReading(data))
	if err != nil {
		h.logger.Error("prediction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Simulate ingests a reading posted by a device or the simulator. The body
// is a reading with an optional device_id.
func (h *Handler) Simulate(c *gin.Context) {
	data := readJSONObject(c)
	if data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No input data provided"})
		return
	}

	deviceID, _ := data["device_id"].(string)
	if deviceID == "" {
		deviceID = "simulator"
	}

	reading := utils.BuildReading(data)
	result, err := h.IngestReading(c.Request.Context(), deviceID, "http", reading)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id":  deviceID,
		"abnormal":   utils.CheckAbnormality(reading),
		"prediction": result,
	})
}

// IngestReading predicts for a device reading, stores it and notifies
// dashboards. source labels the transport in metrics.
func (h *Handler) IngestReading(ctx context.Context, deviceID, source string, r models.Reading) (models.PredictionResult, error) {
	abnormalType := utils.GetAbnormalType(r)
	abnormal := abnormalType != ""
	metrics.SensorReadingsTotal.WithLabelValues(source, strconv.FormatBool(abnormal)).Inc()

	result, err := h.predictor.Predict(r)
	if err != nil {
		h.logger.Error("prediction failed", "device_id", deviceID, "error", err)
		return models.PredictionResult{}, err
	}

	record := models.NewSensorReading(deviceID, r, time.Now().UTC())
	record.IsAbnormal = abnormal
	record.PredictedVolume = result.VolumeLPerM2
	record.PredictionModel = result.Model
	if err := h.repo.SaveReading(ctx, &record); err != nil {
		h.logger.Error("failed to store reading", "device_id", deviceID, "error", err)
		return models.PredictionResult{}, fmt.Errorf("failed to store reading: %w", err)
	}

	h.hub.Broadcast(EventPrediction, PredictionEvent{
		DeviceID: deviceID,
		Reading:  r,
		Result:   result,
		Abnormal: abnormal,
	})
	if abnormal {
		h.logger.Warn("abnormal reading", "device_id", deviceID, "field", abnormalType)
		h.hub.Broadcast(EventAbnormal, gin.H{
			"message":   "Abnormal data detected!",
			"device_id": deviceID,
			"type":      abnormalType,
			"data":      record,
		})
	}
	return result, nil
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   serviceName,
		"status":    "ok",
		"timestamp": utils.FormatScheduleStart(time.Now()),
		"mqtt":      h.brokerState(),
	})
}

func (h *Handler) brokerState() string {
	switch {
	case h.broker == nil:
		return "disabled"
	case h.broker.IsConnected():
		return "connected"
	default:
		return "disconnected"
	}
}

type formField struct {
	Name    string
	Default float64
}

func (h *Handler) PredictUI(c *gin.Context) {
	defaults := models.DefaultReading.Values()
	fields := make([]formField, len(models.FeatureNames))
	for i, name := range models.FeatureNames {
		fields[i] = formField{Name: name, Default: defaults[name]}
	}
	c.HTML(http.StatusOK, "predict_ui.html", gin.H{
		"Title":  "Predict irrigation",
		"Fields": fields,
	})
}

func (h *Handler) IrrigationSchedule(c *gin.Context) {
	c.HTML(http.StatusOK, "irrigation_schedule.html", gin.H{
		"Title": "Irrigation schedule",
	})
}
