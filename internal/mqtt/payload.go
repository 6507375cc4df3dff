package mqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// WindPayload is published on Wind/tele/SENSOR.
type WindPayload struct {
	Alarm      bool    `json:"alarm"`
	AlarmTimer *string `json:"alarmTimer"` // alarm start, null when no alarm
	Level      int     `json:"level"`
	Timestamp  string  `json:"timestamp"`
}

// SunPayload is published on Sonne/tele/SENSOR.
type SunPayload struct {
	Level     int    `json:"level"`
	Timestamp string `json:"timestamp"`
}

// RainPayload is published on Regen/tele/SENSOR.
type RainPayload struct {
	Level float64 `json:"level"`
}

// ClimatePayload is published on Wohnzimmer/tele/SENSOR.
type ClimatePayload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatWind creates the wind telemetry payload.
// A zero alarmStart is encoded as null.
func FormatWind(level int, alarm bool, alarmStart, now time.Time) ([]byte, error) {
	p := WindPayload{
		Alarm:     alarm,
		Level:     level,
		Timestamp: formatTime(now),
	}
	if !alarmStart.IsZero() {
		s := formatTime(alarmStart)
		p.AlarmTimer = &s
	}
	return json.Marshal(p)
}

// ParseWind decodes a wind telemetry payload.
func ParseWind(payload []byte) (WindPayload, error) {
	var p WindPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return WindPayload{}, fmt.Errorf("parse wind payload: %w", err)
	}
	return p, nil
}

// FormatSun creates the sun telemetry payload.
func FormatSun(level int, now time.Time) ([]byte, error) {
	return json.Marshal(SunPayload{Level: level, Timestamp: formatTime(now)})
}

// FormatRain creates the rain telemetry payload.
func FormatRain(level float64) ([]byte, error) {
	return json.Marshal(RainPayload{Level: round(level, 2)})
}

// FormatClimate creates the thermometer payload with one decimal place.
func FormatClimate(temperature, humidity float64) ([]byte, error) {
	return json.Marshal(ClimatePayload{
		Temperature: round(temperature, 1),
		Humidity:    round(humidity, 1),
	})
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
