package logic

import "time"

// SunReading is the result of one light sample.
type SunReading struct {
	Raw     float64
	Average float64
	Level   int
	Changed bool // level differs from the previous reading
}

// SunEstimator averages polled light readings over a short window.
type SunEstimator struct {
	window    *sampleWindow
	lastLevel int
	seen      bool
}

// NewSunEstimator keeps at most samples readings no older than maxAge.
func NewSunEstimator(maxAge time.Duration, samples int) *SunEstimator {
	return &SunEstimator{window: newSampleWindow(maxAge, samples)}
}

// Add records a raw reading taken at now and returns the windowed level.
func (s *SunEstimator) Add(raw float64, now time.Time) SunReading {
	s.window.push(now, raw)
	s.window.evict(now)

	avg := s.window.mean()
	level := SunLevel(avg)

	changed := !s.seen || level != s.lastLevel
	s.seen = true
	s.lastLevel = level

	return SunReading{Raw: raw, Average: avg, Level: level, Changed: changed}
}
