package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"climatefarm/models"
	"climatefarm/repository"
)

const timestampLayout = "2006-01-02 15:04:05"

func readingFilter(c *gin.Context, defaultLimit int) repository.ReadingFilter {
	abnormal, _ := strconv.ParseBool(c.Query("abnormal"))
	return repository.ReadingFilter{
		DeviceID:     c.Query("device_id"),
		AbnormalOnly: abnormal,
		Limit:        queryInt(c, "limit", defaultLimit),
	}
}

// GetHistory returns stored sensor readings, newest first.
func (h *Handler) GetHistory(c *gin.Context) {
	records, err := h.repo.ListReadings(c.Request.Context(), readingFilter(c, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sensor data"})
		return
	}
	if records == nil {
		records = []models.SensorReading{}
	}
	c.JSON(http.StatusOK, records)
}

// DownloadCSV sends stored readings as a CSV file whose feature columns can
// be uploaded again as training data.
func (h *Handler) DownloadCSV(c *gin.Context) {
	records, err := h.repo.ListReadings(c.Request.Context(), readingFilter(c, 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sensor data"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=sensor_data.csv")
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := append([]string{"timestamp", "device_id"}, models.FeatureNames...)
	writer.Write(append(header, "is_abnormal"))
	for _, record := range records {
		row := []string{record.Timestamp.Format(timestampLayout), record.DeviceID}
		for _, v := range record.Reading().Vector() {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		writer.Write(append(row, strconv.FormatBool(record.IsAbnormal)))
	}
}
