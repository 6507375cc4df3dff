package logic

import "time"

// PulseFilterConfig tunes a PulseFilter.
type PulseFilterConfig struct {
	// Debounce discards edges closer than this to the previous raw edge.
	Debounce time.Duration
	// StopGestureMin and StopGestureMax bound the press duration that tags a
	// release as a stop gesture (exclusive on both ends). Zero disables tagging.
	StopGestureMin time.Duration
	StopGestureMax time.Duration
}

// PulseFilter turns raw level interrupts on one line into clean events.
// Each physical line gets its own filter.
type PulseFilter struct {
	line  Line
	cfg   PulseFilterConfig
	state WindowState
}

// NewPulseFilter creates a filter for line with the given resting level.
func NewPulseFilter(line Line, initial Level, cfg PulseFilterConfig) *PulseFilter {
	return &PulseFilter{
		line:  line,
		cfg:   cfg,
		state: WindowState{Level: initial},
	}
}

// Line returns the line this filter tracks.
func (f *PulseFilter) Line() Line { return f.line }

// State returns a copy of the per-line record.
func (f *PulseFilter) State() WindowState { return f.state }

// OnEdge processes a raw edge reporting level at now.
// It returns the event and Accepted, or nil and the reason for rejection.
func (f *PulseFilter) OnEdge(level Level, now time.Time) (*PulseEvent, Rejection) {
	var sinceLast time.Duration
	if !f.state.LastEdge.IsZero() {
		sinceLast = now.Sub(f.state.LastEdge)
	}
	first := f.state.LastEdge.IsZero()

	// Every edge restarts the debounce window, bounce included.
	f.state.LastEdge = now

	if !first && sinceLast < f.cfg.Debounce {
		return nil, RejectDebounce
	}

	if level == f.state.Level {
		return nil, RejectPhantom
	}

	ev := &PulseEvent{
		Line:      f.line,
		Level:     level,
		Time:      now,
		SinceLast: sinceLast,
	}

	if level == High && !f.state.LastAccepted.IsZero() && f.cfg.StopGestureMax > 0 {
		held := now.Sub(f.state.LastAccepted)
		ev.StopGesture = held > f.cfg.StopGestureMin && held < f.cfg.StopGestureMax
	}

	f.state.Level = level
	f.state.LastAccepted = now
	return ev, Accepted
}
