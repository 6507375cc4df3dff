package logic

import "time"

// RainConfig tunes a RainGauge.
type RainConfig struct {
	Quantum     float64       // amount added per accepted tip
	MinPulse    time.Duration // shorter low pulses are contact chatter
	MinInterval time.Duration // the bucket cannot tip faster than this
}

// RainAnomaly describes a missing edge the gauge recovered from.
type RainAnomaly string

const (
	AnomalyNone           RainAnomaly = ""
	AnomalyLowPending     RainAnomaly = "falling edge while low-start pending"
	AnomalyLowStartMissed RainAnomaly = "rising edge without low-start"
)

// RainTip is the result of one rising edge on the rain line.
type RainTip struct {
	Duration  time.Duration // length of the low pulse
	SinceLast time.Duration // since the previous accepted tip, zero on the first
	Level     float64       // accumulated total after this tip
}

// RainGauge counts tipping bucket pulses. Each tip is a low pulse: the line
// falls when the bucket starts to tip and rises when it settles.
type RainGauge struct {
	cfg      RainConfig
	level    float64
	lowStart time.Time
	lastTip  time.Time
}

// NewRainGauge creates a gauge starting from a restored total.
func NewRainGauge(cfg RainConfig, level float64) *RainGauge {
	return &RainGauge{cfg: cfg, level: level}
}

// OnEdge processes a raw edge on the rain line at now. A non-empty anomaly
// is returned for missing-edge states; the gauge substitutes now and
// carries on. A tip is returned only for accepted rising edges.
func (g *RainGauge) OnEdge(level Level, now time.Time) (*RainTip, Rejection, RainAnomaly) {
	if level == Low {
		anomaly := AnomalyNone
		if !g.lowStart.IsZero() {
			anomaly = AnomalyLowPending
		}
		g.lowStart = now
		return nil, RejectEdge, anomaly
	}

	anomaly := AnomalyNone
	if g.lowStart.IsZero() {
		anomaly = AnomalyLowStartMissed
		g.lowStart = now
	}
	duration := now.Sub(g.lowStart)
	g.lowStart = time.Time{}

	if duration < g.cfg.MinPulse {
		return nil, RejectChatter, anomaly
	}

	var sinceLast time.Duration
	if !g.lastTip.IsZero() {
		sinceLast = now.Sub(g.lastTip)
		if sinceLast < g.cfg.MinInterval {
			return nil, RejectSpacing, anomaly
		}
	}

	g.lastTip = now
	g.level += g.cfg.Quantum

	return &RainTip{Duration: duration, SinceLast: sinceLast, Level: g.level}, Accepted, anomaly
}

// Level returns the accumulated rain total.
func (g *RainGauge) Level() float64 { return g.level }
