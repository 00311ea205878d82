package utils

import "climatefarm/models"

// CheckAbnormality determines whether a reading is outside plausible sensor ranges.
func CheckAbnormality(r models.Reading) bool {
	return GetAbnormalType(r) != ""
}

// GetAbnormalType returns the name of the first out-of-range field, or "" if none is.
func GetAbnormalType(r models.Reading) string {
	if r.SoilMoisture < 0 || r.SoilMoisture > 1 {
		return models.SoilMoisture
	}
	if r.SoilTemp < -20 || r.SoilTemp > 60 {
		return models.SoilTemp
	}
	if r.AirTemp < -40 || r.AirTemp > 60 {
		return models.AirTemp
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return models.Humidity
	}
	if r.Rain24h < 0 {
		return models.Rain24h
	}
	if r.Evapotranspiration < 0 || r.Evapotranspiration > 20 {
		return models.Evapotranspiration
	}
	return ""
}
