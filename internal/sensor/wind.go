package sensor

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/jalousie-io/internal/logic"
	"github.com/sweeney/jalousie-io/internal/metrics"
	"github.com/sweeney/jalousie-io/internal/mqtt"
	"github.com/sweeney/jalousie-io/internal/status"
)

// Wind measures the anemometer, keeps the wind alarm and publishes
// Wind/tele/SENSOR.
type Wind struct {
	est       *logic.WindEstimator
	interlock Interlock
	pub       Publisher
	tracker   *status.Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	threshold int
}

// NewWind creates the adapter.
func NewWind(cfg logic.WindConfig, interlock Interlock, pub Publisher, tracker *status.Tracker, m *metrics.Metrics, logger *slog.Logger) *Wind {
	return &Wind{
		est:       logic.NewWindEstimator(cfg),
		interlock: interlock,
		pub:       pub,
		tracker:   tracker,
		metrics:   m,
		logger:    logger.With("component", "wind"),
		threshold: cfg.Threshold,
	}
}

// HandleEdge processes one raw anemometer edge. Only falling edges count.
func (w *Wind) HandleEdge(ctx context.Context, level logic.Level, at time.Time) {
	if level != logic.Low {
		return
	}

	reading, rej := w.est.OnFallingEdge(at)
	w.metrics.Edge(string(logic.LineWind), edgeResult(rej))
	if rej != logic.Accepted {
		return
	}

	w.record()

	if reading.AlarmRaised {
		_, start := w.est.Alarm()
		w.logger.Warn("wind alarm raised", "level", reading.Level, "threshold", w.threshold,
			"hertz", reading.Hertz, "since", start.Format(time.RFC3339))
		w.interlock.HandleWindAlarm(ctx, true)
	}

	if reading.Level > 1 {
		w.publish(at)
	}
}

// Tick runs the periodic evaluation and publishes the current state,
// calm included, so a stale retained alarm on the broker is overwritten.
func (w *Wind) Tick(ctx context.Context, now time.Time) {
	snap := w.est.Tick(now)

	if snap.LevelChanged {
		w.logger.Debug("wind level", "level", snap.Level)
	}
	if snap.AlarmCleared {
		w.logger.Info("wind alarm cleared", "level", snap.Level, "threshold", w.threshold)
		w.interlock.HandleWindAlarm(ctx, false)
	}

	w.record()
	w.publish(now)
}

// Level returns the current wind level.
func (w *Wind) Level() int { return w.est.Level() }

// Alarm reports whether the wind alarm is active.
func (w *Wind) Alarm() bool {
	alarm, _ := w.est.Alarm()
	return alarm
}

func (w *Wind) record() {
	alarm, start := w.est.Alarm()
	w.tracker.SetWind(status.Wind{
		Level:      w.est.Level(),
		Hertz:      w.est.Hertz(),
		Alarm:      alarm,
		AlarmStart: start,
	})
	w.metrics.Wind(w.est.Level(), w.est.Hertz(), alarm)
}

func (w *Wind) publish(now time.Time) {
	alarm, start := w.est.Alarm()
	payload, err := mqtt.FormatWind(w.est.Level(), alarm, start, now)
	if err != nil {
		w.logger.Error("format payload", "error", err)
		return
	}
	if err := w.pub.Publish(mqtt.TopicWind, payload, true); err != nil {
		w.logger.Warn("publish failed", "topic", mqtt.TopicWind, "error", err)
	}
}
