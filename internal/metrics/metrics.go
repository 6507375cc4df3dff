// Package metrics holds the prometheus collectors of the daemon.
// All methods are safe on a nil *Metrics so components can run without them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jalousie"

// Run outcomes.
const (
	OutcomeFinished = "finished"
	OutcomeAborted  = "aborted"
	OutcomeFailed   = "failed"
)

// Metrics groups every collector.
type Metrics struct {
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	rejected       *prometheus.CounterVec
	edges          *prometheus.CounterVec
	edgesDropped   prometheus.Counter
	windLevel      prometheus.Gauge
	windHertz      prometheus.Gauge
	windAlarm      prometheus.Gauge
	rain           prometheus.Gauge
	sunLevel       prometheus.Gauge
	sunRaw         prometheus.Gauge
	temperature    prometheus.Gauge
	humidity       prometheus.Gauge
	sensorFailures *prometheus.CounterVec
	mqttConnected  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Action runs by command and outcome.",
		}, []string{"command", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of action runs.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 3, 5, 10, 30, 70},
		}, []string{"command"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_rejected_total",
			Help:      "Commands not started, by reason.",
		}, []string{"reason"}),
		edges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_total",
			Help:      "Input edges by line and filter result.",
		}, []string{"line", "result"}),
		edgesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_dropped_total",
			Help:      "Edges lost because the event queue was full.",
		}),
		windLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wind_level",
			Help:      "Discretized wind level 0-11.",
		}),
		windHertz: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wind_hertz",
			Help:      "Anemometer pulse frequency.",
		}),
		windAlarm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wind_alarm",
			Help:      "1 while the wind alarm is active.",
		}),
		rain: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rain_level",
			Help:      "Accumulated rain gauge total.",
		}),
		sunLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sun_level",
			Help:      "Discretized light level.",
		}),
		sunRaw: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sun_raw",
			Help:      "Last raw light sensor reading.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Room temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Room relative humidity.",
		}),
		sensorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_failures_total",
			Help:      "Failed sensor reads by sensor.",
		}, []string{"sensor"}),
		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 while connected to the broker.",
		}),
	}

	reg.MustRegister(
		m.runs, m.runDuration, m.rejected, m.edges, m.edgesDropped,
		m.windLevel, m.windHertz, m.windAlarm, m.rain, m.sunLevel, m.sunRaw,
		m.temperature, m.humidity, m.sensorFailures, m.mqttConnected,
	)
	return m
}

// RunFinished counts a run and observes its duration.
func (m *Metrics) RunFinished(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(command, outcome).Inc()
	m.runDuration.WithLabelValues(command).Observe(d.Seconds())
}

// CommandRejected counts a command that never started.
func (m *Metrics) CommandRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// Edge counts an input edge with its filter result.
func (m *Metrics) Edge(line, result string) {
	if m == nil {
		return
	}
	m.edges.WithLabelValues(line, result).Inc()
}

// EdgeDropped counts an edge lost on a full queue.
func (m *Metrics) EdgeDropped() {
	if m == nil {
		return
	}
	m.edgesDropped.Inc()
}

// Wind records the latest wind state.
func (m *Metrics) Wind(level int, hertz float64, alarm bool) {
	if m == nil {
		return
	}
	m.windLevel.Set(float64(level))
	m.windHertz.Set(hertz)
	m.windAlarm.Set(boolFloat(alarm))
}

// Rain records the rain total.
func (m *Metrics) Rain(level float64) {
	if m == nil {
		return
	}
	m.rain.Set(level)
}

// Sun records the latest light level and raw reading.
func (m *Metrics) Sun(level int, raw float64) {
	if m == nil {
		return
	}
	m.sunLevel.Set(float64(level))
	m.sunRaw.Set(raw)
}

// Climate records a thermometer reading.
func (m *Metrics) Climate(temperature, humidity float64) {
	if m == nil {
		return
	}
	m.temperature.Set(temperature)
	m.humidity.Set(humidity)
}

// SensorFailure counts a failed sensor read.
func (m *Metrics) SensorFailure(sensor string) {
	if m == nil {
		return
	}
	m.sensorFailures.WithLabelValues(sensor).Inc()
}

// MQTTConnected records the broker connection state.
func (m *Metrics) MQTTConnected(connected bool) {
	if m == nil {
		return
	}
	m.mqttConnected.Set(boolFloat(connected))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
