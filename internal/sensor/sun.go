package sensor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/jalousie-io/internal/adc"
	"github.com/sweeney/jalousie-io/internal/logic"
	"github.com/sweeney/jalousie-io/internal/metrics"
	"github.com/sweeney/jalousie-io/internal/mqtt"
	"github.com/sweeney/jalousie-io/internal/status"
)

// Sun samples the light sensor on the ADC and publishes Sonne/tele/SENSOR.
type Sun struct {
	reader  adc.Reader
	channel int
	est     *logic.SunEstimator
	pub     Publisher
	tracker *status.Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSun creates the adapter reading channel of reader.
func NewSun(reader adc.Reader, channel int, window time.Duration, samples int, pub Publisher, tracker *status.Tracker, m *metrics.Metrics, logger *slog.Logger) *Sun {
	return &Sun{
		reader:  reader,
		channel: channel,
		est:     logic.NewSunEstimator(window, samples),
		pub:     pub,
		tracker: tracker,
		metrics: m,
		logger:  logger.With("component", "sun"),
	}
}

// Sample takes one reading and publishes the windowed level.
func (s *Sun) Sample(now time.Time) error {
	raw, err := s.reader.Read(s.channel)
	if err != nil {
		s.metrics.SensorFailure("sun")
		return fmt.Errorf("sun: %w", err)
	}

	r := s.est.Add(float64(raw), now)
	if r.Changed {
		s.logger.Debug("sun level", "level", r.Level, "average", r.Average)
	}

	s.tracker.SetSun(r.Level, r.Average)
	s.metrics.Sun(r.Level, r.Raw)

	payload, err := mqtt.FormatSun(r.Level, now)
	if err != nil {
		return fmt.Errorf("sun: %w", err)
	}
	if err := s.pub.Publish(mqtt.TopicSun, payload, true); err != nil {
		s.logger.Warn("publish failed", "topic", mqtt.TopicSun, "error", err)
	}
	return nil
}
