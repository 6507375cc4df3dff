package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Outputs       OutputsJSON  `json:"outputs"`
	Run           *RunJSON     `json:"run,omitempty"`
	Wind          WindJSON     `json:"wind"`
	Rain          RainJSON     `json:"rain"`
	Sun           SunJSON      `json:"sun"`
	Climate       *ClimateJSON `json:"climate,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// OutputsJSON reports the relay outputs.
type OutputsJSON struct {
	Up   bool `json:"up"`
	Down bool `json:"down"`
}

// RunJSON describes the latest run.
type RunJSON struct {
	ID      uint64 `json:"id"`
	Command string `json:"command"`
	State   string `json:"state"`
	Aborted bool   `json:"aborted"`
	Start   string `json:"start"`
}

// WindJSON reports the wind estimator.
type WindJSON struct {
	Level      int     `json:"level"`
	Hertz      float64 `json:"hertz"`
	Alarm      bool    `json:"alarm"`
	AlarmStart *string `json:"alarm_start"`
}

// RainJSON reports the rain counter.
type RainJSON struct {
	Level float64 `json:"level"`
}

// SunJSON reports the light sensor.
type SunJSON struct {
	Level int     `json:"level"`
	Raw   float64 `json:"raw"`
}

// ClimateJSON reports the thermometer.
type ClimateJSON struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   string  `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker   string `json:"broker"`
	HTTPAddr string `json:"http_addr"`
	Chip     string `json:"chip"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Outputs: OutputsJSON{Up: snap.Up, Down: snap.Down},
		Wind: WindJSON{
			Level: snap.Wind.Level,
			Hertz: snap.Wind.Hertz,
			Alarm: snap.Wind.Alarm,
		},
		Rain:          RainJSON{Level: math.Round(snap.RainLevel*100) / 100},
		Sun:           SunJSON{Level: snap.SunLevel, Raw: math.Round(snap.SunRaw)},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     formatTime(snap.StartTime),
		Timestamp:     formatTime(snap.Now),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Broker:   snap.Config.Broker,
			HTTPAddr: snap.Config.HTTPAddr,
			Chip:     snap.Config.Chip,
		},
	}

	if !snap.Wind.AlarmStart.IsZero() {
		s := formatTime(snap.Wind.AlarmStart)
		inner.Wind.AlarmStart = &s
	}
	if snap.HasRun {
		inner.Run = &RunJSON{
			ID:      snap.Run.ID,
			Command: string(snap.Run.Command),
			State:   snap.Run.State.String(),
			Aborted: snap.Run.Aborted,
			Start:   formatTime(snap.Run.Start),
		}
	}
	if snap.Climate.Valid {
		inner.Climate = &ClimateJSON{
			Temperature: snap.Climate.Temperature,
			Humidity:    snap.Climate.Humidity,
			Timestamp:   formatTime(snap.Climate.At),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
