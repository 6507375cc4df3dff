package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunFinished("JALOUSIE_STOP", OutcomeFinished, 140*time.Millisecond)
	m.RunFinished("JALOUSIE_STOP", OutcomeFinished, 140*time.Millisecond)
	m.RunFinished("JALOUSIE_ALL_UP", OutcomeAborted, time.Second)
	m.CommandRejected("wind_alarm")
	m.Edge("WIND", "accepted")
	m.EdgeDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("JALOUSIE_STOP", OutcomeFinished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("JALOUSIE_ALL_UP", OutcomeAborted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("wind_alarm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.edges.WithLabelValues("WIND", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.edgesDropped))
}

func TestGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Wind(7, 25.3, true)
	m.Rain(1.32)
	m.Sun(4, 3000)
	m.Climate(21.4, 48.2)
	m.MQTTConnected(true)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.windLevel))
	assert.Equal(t, 25.3, testutil.ToFloat64(m.windHertz))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.windAlarm))
	assert.Equal(t, 1.32, testutil.ToFloat64(m.rain))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sunLevel))
	assert.Equal(t, 21.4, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mqttConnected))

	m.Wind(0, 0, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.windAlarm))
}

func TestRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SensorFailure("thermometer")

	n, err := testutil.GatherAndCount(reg, "jalousie_sensor_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunFinished("x", OutcomeFailed, 0)
		m.CommandRejected("x")
		m.Edge("x", "y")
		m.EdgeDropped()
		m.Wind(1, 1, true)
		m.Rain(1)
		m.Sun(1, 1)
		m.Climate(1, 1)
		m.SensorFailure("x")
		m.MQTTConnected(true)
	})
}
