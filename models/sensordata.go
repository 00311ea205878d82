package models

import "time"

// SensorReading is a reading received from a field device.
type SensorReading struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	DeviceID           string    `json:"device_id" gorm:"index"`
	Timestamp          time.Time `json:"timestamp" gorm:"index"`
	SoilMoisture       float64   `json:"soil_moisture"`
	SoilTemp           float64   `json:"soil_temp"`
	AirTemp            float64   `json:"air_temp"`
	Humidity           float64   `json:"humidity"`
	Rain24h            float64   `json:"rain_24h"`
	Evapotranspiration float64   `json:"evapotranspiration"`
	IsAbnormal         bool      `json:"is_abnormal"`
	PredictedVolume    float64   `json:"predicted_volume"`
	PredictionModel    string    `json:"prediction_model"`
}

// Reading returns the measurement part of the record.
func (s SensorReading) Reading() Reading {
	return Reading{
		SoilMoisture:       s.SoilMoisture,
		SoilTemp:           s.SoilTemp,
		AirTemp:            s.AirTemp,
		Humidity:           s.Humidity,
		Rain24h:            s.Rain24h,
		Evapotranspiration: s.Evapotranspiration,
	}
}

// NewSensorReading stamps a reading with its device and time.
func NewSensorReading(deviceID string, r Reading, at time.Time) SensorReading {
	return SensorReading{
		DeviceID:           deviceID,
		Timestamp:          at,
		SoilMoisture:       r.SoilMoisture,
		SoilTemp:           r.SoilTemp,
		AirTemp:            r.AirTemp,
		Humidity:           r.Humidity,
		Rain24h:            r.Rain24h,
		Evapotranspiration: r.Evapotranspiration,
	}
}
