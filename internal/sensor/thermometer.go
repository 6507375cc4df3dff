package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/jalousie-io/internal/metrics"
	"github.com/sweeney/jalousie-io/internal/mqtt"
	"github.com/sweeney/jalousie-io/internal/status"
)

// ErrReadTimeout is returned when the climate sensor does not answer in time.
var ErrReadTimeout = errors.New("sensor read timeout")

// ClimateReader reads temperature in °C and relative humidity in %.
type ClimateReader interface {
	ReadClimate(ctx context.Context) (temperature, humidity float64, err error)
}

// IIOReader reads a DHT22 through the Linux IIO dht11 driver. Values are
// reported in milli units; checksum failures surface as read errors.
type IIOReader struct {
	Dir string
}

// ReadClimate reads both channels. The kernel read can block for the
// length of a sensor transaction, so it runs until ctx is done.
func (r IIOReader) ReadClimate(ctx context.Context) (float64, float64, error) {
	type result struct {
		t, h float64
		err  error
	}
	done := make(chan result, 1)
	go func() {
		t, err := readMilli(filepath.Join(r.Dir, "in_temp_input"))
		if err != nil {
			done <- result{err: err}
			return
		}
		h, err := readMilli(filepath.Join(r.Dir, "in_humidityrelative_input"))
		done <- result{t: t, h: h, err: err}
	}()

	select {
	case res := <-done:
		return res.t, res.h, res.err
	case <-ctx.Done():
		return 0, 0, ErrReadTimeout
	}
}

func readMilli(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v / 1000, nil
}

// ThermometerConfig tunes a Thermometer.
type ThermometerConfig struct {
	Timeout time.Duration
	// FailureStreak is the number of consecutive failures tolerated
	// silently. Later failures are logged.
	FailureStreak int
}

// Thermometer polls the room climate sensor and publishes
// Wohnzimmer/tele/SENSOR. It is safe to run in its own goroutine.
type Thermometer struct {
	reader  ClimateReader
	cfg     ThermometerConfig
	pub     Publisher
	tracker *status.Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger

	failures int
	last     *status.Climate
}

// NewThermometer creates the adapter.
func NewThermometer(reader ClimateReader, cfg ThermometerConfig, pub Publisher, tracker *status.Tracker, m *metrics.Metrics, logger *slog.Logger) *Thermometer {
	return &Thermometer{
		reader:  reader,
		cfg:     cfg,
		pub:     pub,
		tracker: tracker,
		metrics: m,
		logger:  logger.With("component", "thermometer"),
	}
}

// Poll takes one reading. Failures are counted and only logged once the
// streak exceeds the configured limit; they are never returned.
func (t *Thermometer) Poll(ctx context.Context, now time.Time) {
	rctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	temp, hum, err := t.reader.ReadClimate(rctx)
	if err != nil {
		t.failures++
		t.metrics.SensorFailure("thermometer")
		if t.failures > t.cfg.FailureStreak {
			t.logger.Info("failed to read climate sensor", "failures", t.failures, "error", err)
		}
		return
	}
	t.failures = 0

	c := status.Climate{
		Valid:       true,
		Temperature: math.Round(temp*10) / 10,
		Humidity:    math.Round(hum*10) / 10,
		At:          now,
	}
	if t.last == nil ||
		math.Abs(t.last.Temperature-c.Temperature) >= 1 ||
		math.Abs(t.last.Humidity-c.Humidity) >= 1 {
		t.logger.Debug("climate", "temperature", c.Temperature, "humidity", c.Humidity)
		t.last = &c
	}

	t.tracker.SetClimate(c)
	t.metrics.Climate(c.Temperature, c.Humidity)

	payload, err := mqtt.FormatClimate(c.Temperature, c.Humidity)
	if err != nil {
		t.logger.Error("format payload", "error", err)
		return
	}
	if err := t.pub.Publish(mqtt.TopicClimate, payload, true); err != nil {
		t.logger.Warn("publish failed", "topic", mqtt.TopicClimate, "error", err)
	}
}

// Failures returns the current streak of failed reads.
func (t *Thermometer) Failures() int { return t.failures }

// Run polls immediately and then every interval until ctx is done.
func (t *Thermometer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.Poll(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			t.Poll(ctx, now)
		}
	}
}
