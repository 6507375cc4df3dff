package logic

import "time"

// WindConfig tunes a WindEstimator.
type WindConfig struct {
	Threshold  int           // level that raises the alarm
	ResetDelay time.Duration // quiet period before the alarm clears
	Window     time.Duration // age cutoff of the edge window
	Capacity   int           // maximum edges kept
	PhantomGap time.Duration // edges closer than this are noise
	StopGap    time.Duration // gaps longer than this are not a rate sample
}

// WindReading is the result of one accepted falling edge.
type WindReading struct {
	Hertz float64
	Level int
	// AlarmRaised is set when this edge moved the alarm from off to on.
	AlarmRaised bool
}

// WindSnapshot is the periodic state published by the wind adapter.
type WindSnapshot struct {
	Level      int
	Alarm      bool
	AlarmStart time.Time // zero when no alarm is pending
	// LevelChanged is set when Level differs from the previous tick.
	LevelChanged bool
	// AlarmCleared is set when this tick ended the alarm.
	AlarmCleared bool
}

// WindEstimator derives the wind level from anemometer falling edges and
// keeps the wind alarm state.
type WindEstimator struct {
	cfg      WindConfig
	window   *sampleWindow
	lastEdge time.Time

	level     int
	hertz     float64
	lastLevel int
	ticked    bool

	alarm      bool
	alarmStart time.Time
}

// NewWindEstimator creates an estimator with an empty window and no alarm.
func NewWindEstimator(cfg WindConfig) *WindEstimator {
	return &WindEstimator{
		cfg:    cfg,
		window: newSampleWindow(cfg.Window, cfg.Capacity),
	}
}

// OnFallingEdge records one anemometer rotation pulse at now.
// Rising edges are not counted; callers filter them.
func (w *WindEstimator) OnFallingEdge(now time.Time) (*WindReading, Rejection) {
	if w.lastEdge.IsZero() {
		w.lastEdge = now
		return nil, RejectFirst
	}

	gap := now.Sub(w.lastEdge)
	w.lastEdge = now

	if gap < w.cfg.PhantomGap {
		return nil, RejectPhantom
	}

	w.window.push(now, 1)
	w.window.evict(now)

	if gap > w.cfg.StopGap {
		return nil, RejectStopped
	}
	if w.window.len() < 2 {
		return nil, RejectFirst
	}

	span := w.window.newest().Sub(w.window.oldest()).Seconds()
	if span <= 0 {
		return nil, RejectPhantom
	}

	w.hertz = round1(float64(w.window.len()-1) / span)
	w.level = WindLevel(w.hertz)

	reading := &WindReading{Hertz: w.hertz, Level: w.level}

	if w.level >= w.cfg.Threshold && w.window.len() > 3 {
		if !w.alarm {
			reading.AlarmRaised = true
		}
		w.alarm = true
		if w.alarmStart.IsZero() {
			w.alarmStart = now
		}
	}

	return reading, Accepted
}

// Tick runs the slow periodic evaluation. It evicts stale edges, drops the
// level to zero once the window is empty and clears the alarm after the
// level stayed below the threshold for the reset delay since alarm start.
// Before the first pulse it reports a calm level 0.
func (w *WindEstimator) Tick(now time.Time) (snap WindSnapshot) {
	w.window.evict(now)
	if w.window.len() == 0 {
		w.level = 0
		w.hertz = 0
	}

	snap.LevelChanged = !w.ticked || w.level != w.lastLevel
	w.lastLevel = w.level
	w.ticked = true

	if w.alarm && w.level < w.cfg.Threshold && now.Sub(w.alarmStart) >= w.cfg.ResetDelay {
		w.alarm = false
		w.alarmStart = time.Time{}
		snap.AlarmCleared = true
	}

	snap.Level = w.level
	snap.Alarm = w.alarm
	snap.AlarmStart = w.alarmStart
	return snap
}

// Level returns the most recent discretized wind level.
func (w *WindEstimator) Level() int { return w.level }

// Hertz returns the most recent rotation frequency.
func (w *WindEstimator) Hertz() float64 { return w.hertz }

// Alarm reports whether the wind alarm is active and when it started.
func (w *WindEstimator) Alarm() (bool, time.Time) { return w.alarm, w.alarmStart }

// WindowSize returns the number of edges currently in the window.
func (w *WindEstimator) WindowSize() int { return w.window.len() }
