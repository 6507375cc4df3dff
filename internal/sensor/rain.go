package sensor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/jalousie-io/internal/logic"
	"github.com/sweeney/jalousie-io/internal/metrics"
	"github.com/sweeney/jalousie-io/internal/mqtt"
	"github.com/sweeney/jalousie-io/internal/status"
)

// storeSection is the status store key holding the rain counter.
const storeSection = "rain"

// Rain counts tipping bucket pulses, persists the total and publishes
// Regen/tele/SENSOR.
type Rain struct {
	gauge   *logic.RainGauge
	store   *status.Store
	pub     Publisher
	tracker *status.Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRain creates the adapter and restores the counter from store.
func NewRain(cfg logic.RainConfig, store *status.Store, pub Publisher, tracker *status.Tracker, m *metrics.Metrics, logger *slog.Logger) (*Rain, error) {
	var saved status.RainSection
	if err := store.Decode(storeSection, &saved); err != nil {
		return nil, fmt.Errorf("restore rain level: %w", err)
	}

	r := &Rain{
		gauge:   logic.NewRainGauge(cfg, saved.Level),
		store:   store,
		pub:     pub,
		tracker: tracker,
		metrics: m,
		logger:  logger.With("component", "rain"),
	}
	tracker.SetRain(saved.Level)
	m.Rain(saved.Level)
	r.logger.Info("rain level restored", "level", saved.Level)
	return r, nil
}

// HandleEdge processes one raw edge of the rain line.
func (r *Rain) HandleEdge(level logic.Level, at time.Time) {
	tip, rej, anomaly := r.gauge.OnEdge(level, at)
	if anomaly != logic.AnomalyNone {
		r.logger.Warn("missing edge", "anomaly", string(anomaly))
	}
	if rej == logic.RejectEdge {
		return
	}

	r.metrics.Edge(string(logic.LineRain), edgeResult(rej))
	if rej != logic.Accepted {
		r.logger.Debug("suppressing rain phantom", "reason", string(rej))
		return
	}

	r.logger.Info("rain tip", "level", tip.Level,
		"duration", tip.Duration.Round(time.Millisecond), "since_last", tip.SinceLast.Round(time.Second))

	r.tracker.SetRain(tip.Level)
	r.metrics.Rain(tip.Level)

	if err := r.store.Save(map[string]any{storeSection: map[string]any{"level": tip.Level}}); err != nil {
		r.logger.Error("failed to persist rain level", "error", err)
	}

	payload, err := mqtt.FormatRain(tip.Level)
	if err != nil {
		r.logger.Error("format payload", "error", err)
		return
	}
	if err := r.pub.Publish(mqtt.TopicRain, payload, true); err != nil {
		r.logger.Warn("publish failed", "topic", mqtt.TopicRain, "error", err)
	}
}

// Level returns the accumulated rain total.
func (r *Rain) Level() float64 { return r.gauge.Level() }
