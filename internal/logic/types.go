// Package logic contains the pure signal conditioning for the jalousie inputs.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters, and every type here is
// owned by exactly one caller; none of them are safe for concurrent use.
package logic

import "time"

// Level is the electrical level of a digital line.
// All inputs use pull-ups, so Low is the active state.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == Low {
		return "LOW"
	}
	return "HIGH"
}

// Line identifies a physical input line.
type Line string

const (
	LineButtonUp   Line = "BUTTON_UP"
	LineButtonDown Line = "BUTTON_DOWN"
	LineWind       Line = "WIND"
	LineRain       Line = "RAIN"
)

// Rejection names the reason an edge did not produce an event.
// The empty Rejection means the edge was accepted.
type Rejection string

const (
	Accepted       Rejection = ""
	RejectDebounce Rejection = "debounce" // too close to the previous edge
	RejectPhantom  Rejection = "phantom"  // level equals recorded state, or impossible rate
	RejectFirst    Rejection = "first"    // no previous edge to measure against
	RejectStopped  Rejection = "stopped"  // gap too long to be a rate sample
	RejectEdge     Rejection = "edge"     // edge direction not counted on this line
	RejectChatter  Rejection = "chatter"  // contact pulse too short
	RejectSpacing  Rejection = "spacing"  // faster than the mechanism allows
)

// WindowState is the per-line record kept by a PulseFilter.
type WindowState struct {
	// Level is the last accepted logical level.
	Level Level
	// LastEdge is the time of the last raw edge, accepted or not.
	LastEdge time.Time
	// LastAccepted is the time of the last edge that produced an event.
	LastAccepted time.Time
}

// PulseEvent is a debounced level change on one line.
type PulseEvent struct {
	Line      Line
	Level     Level
	Time      time.Time
	SinceLast time.Duration // since the previous raw edge on this line
	// StopGesture marks a release that followed its press within the
	// stop-gesture band. Used for diagnostics only.
	StopGesture bool
}

// sample is one timestamped value in a SampleWindow.
type sample struct {
	at    time.Time
	value float64
}

// sampleWindow is a time-ordered queue bounded by age and optionally by count.
// Entries are appended in non-decreasing time order.
type sampleWindow struct {
	maxAge   time.Duration
	capacity int // 0 = unbounded
	entries  []sample
}

func newSampleWindow(maxAge time.Duration, capacity int) *sampleWindow {
	return &sampleWindow{maxAge: maxAge, capacity: capacity}
}

// push appends a sample, dropping the oldest entry when at capacity.
func (w *sampleWindow) push(at time.Time, value float64) {
	if w.capacity > 0 && len(w.entries) >= w.capacity {
		w.entries = append(w.entries[:0], w.entries[1:]...)
	}
	w.entries = append(w.entries, sample{at: at, value: value})
}

// evict removes entries older than maxAge relative to now.
func (w *sampleWindow) evict(now time.Time) {
	n := 0
	for n < len(w.entries) && now.Sub(w.entries[n].at) > w.maxAge {
		n++
	}
	if n > 0 {
		w.entries = append(w.entries[:0], w.entries[n:]...)
	}
}

func (w *sampleWindow) len() int { return len(w.entries) }

func (w *sampleWindow) oldest() time.Time { return w.entries[0].at }

func (w *sampleWindow) newest() time.Time { return w.entries[len(w.entries)-1].at }

func (w *sampleWindow) mean() float64 {
	if len(w.entries) == 0 {
		return 0
	}
	var sum float64
	for _, s := range w.entries {
		sum += s.value
	}
	return sum / float64(len(w.entries))
}
