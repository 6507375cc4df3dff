package logic

import (
	"testing"
	"time"
)

func windConfig() WindConfig {
	return WindConfig{
		Threshold:  6,
		ResetDelay: 30 * time.Minute,
		Window:     2 * time.Second,
		Capacity:   50,
		PhantomGap: 10 * time.Millisecond,
		StopGap:    time.Second,
	}
}

// feed sends falling edges every period from start for duration and returns
// the time of the last edge and the last accepted reading.
func feed(w *WindEstimator, start time.Time, period, duration time.Duration) (time.Time, *WindReading) {
	var last *WindReading
	at := start
	for elapsed := time.Duration(0); elapsed <= duration; elapsed += period {
		at = start.Add(elapsed)
		if r, _ := w.OnFallingEdge(at); r != nil {
			last = r
		}
	}
	return at, last
}

func TestWindLevelTable(t *testing.T) {
	tests := []struct {
		hz   float64
		want int
	}{
		{0, 0},
		{2.0, 0},
		{2.1, 1},
		{5.78, 1},
		{9.56, 2},
		{10, 3},
		{13.34, 3},
		{20.9, 5},
		{24.68, 6},
		{25, 7},
		{39.8, 10},
		{39.9, 11},
		{120, 11},
	}
	for _, tt := range tests {
		if got := WindLevel(tt.hz); got != tt.want {
			t.Errorf("WindLevel(%v) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}

func TestWindFirstEdgeOnlyRecords(t *testing.T) {
	w := NewWindEstimator(windConfig())
	if r, rej := w.OnFallingEdge(t0); r != nil || rej != RejectFirst {
		t.Errorf("expected first edge to be recorded only, got %+v %q", r, rej)
	}
	if w.WindowSize() != 0 {
		t.Errorf("expected empty window, got %d", w.WindowSize())
	}
}

func TestWindPhantomEdge(t *testing.T) {
	w := NewWindEstimator(windConfig())
	w.OnFallingEdge(t0)
	w.OnFallingEdge(t0.Add(100 * time.Millisecond))

	if _, rej := w.OnFallingEdge(t0.Add(105 * time.Millisecond)); rej != RejectPhantom {
		t.Errorf("expected phantom rejection for 5ms gap, got %q", rej)
	}
	if w.WindowSize() != 1 {
		t.Errorf("phantom edge must not enter the window, size=%d", w.WindowSize())
	}
}

func TestWindStoppedGap(t *testing.T) {
	w := NewWindEstimator(windConfig())
	w.OnFallingEdge(t0)
	w.OnFallingEdge(t0.Add(100 * time.Millisecond))
	w.OnFallingEdge(t0.Add(200 * time.Millisecond))
	before := w.Level()

	r, rej := w.OnFallingEdge(t0.Add(1500 * time.Millisecond))
	if r != nil || rej != RejectStopped {
		t.Errorf("expected stopped rejection, got %+v %q", r, rej)
	}
	if w.Level() != before {
		t.Errorf("level must not change on a stopped gap: %d -> %d", before, w.Level())
	}
}

func TestWindTenHertz(t *testing.T) {
	w := NewWindEstimator(windConfig())

	last, r := feed(w, t0, 100*time.Millisecond, 3*time.Second)
	if r == nil {
		t.Fatal("expected a reading")
	}
	if r.Hertz != 10.0 {
		t.Errorf("expected 10.0 Hz, got %v", r.Hertz)
	}
	if r.Level != 3 {
		t.Errorf("expected level 3, got %d", r.Level)
	}
	// 2s window at 100ms: edges at t-2.0s .. t inclusive.
	if w.WindowSize() != 21 {
		t.Errorf("expected 21 edges in window, got %d", w.WindowSize())
	}
	if alarm, _ := w.Alarm(); alarm {
		t.Error("level 3 must not raise the alarm")
	}
	if !last.Equal(t0.Add(3 * time.Second)) {
		t.Errorf("unexpected last edge %v", last)
	}
}

func TestWindOldEntriesExcluded(t *testing.T) {
	w := NewWindEstimator(windConfig())

	// Fast gust at 25 Hz, then a steady 10 Hz wind for 3s.
	at, _ := feed(w, t0, 40*time.Millisecond, time.Second)
	_, r := feed(w, at.Add(100*time.Millisecond), 100*time.Millisecond, 3*time.Second)
	if r == nil || r.Level != 3 {
		t.Fatalf("expected gust to age out of the window and level 3, got %+v", r)
	}
}

func TestWindCapacityBound(t *testing.T) {
	w := NewWindEstimator(windConfig())
	feed(w, t0, 20*time.Millisecond, 1500*time.Millisecond)
	if w.WindowSize() != 50 {
		t.Errorf("expected window capped at 50, got %d", w.WindowSize())
	}
}

func TestWindAlarmRaiseHoldAndClear(t *testing.T) {
	w := NewWindEstimator(windConfig())

	// 25 Hz is level 7, above the threshold.
	gustEnd, r := feed(w, t0, 40*time.Millisecond, time.Second)
	if r == nil || r.Level < 6 {
		t.Fatalf("expected level >= 6, got %+v", r)
	}
	alarm, start := w.Alarm()
	if !alarm {
		t.Fatal("expected alarm raised")
	}
	// Raised once the window held more than 3 edges: the 4th sample in the
	// window is the 5th falling edge.
	if want := t0.Add(4 * 40 * time.Millisecond); !start.Equal(want) {
		t.Errorf("alarm start %v, want %v", start, want)
	}

	// A second gust does not move the alarm start.
	feed(w, gustEnd.Add(10*time.Minute), 40*time.Millisecond, time.Second)
	if _, again := w.Alarm(); !again.Equal(start) {
		t.Errorf("alarm start moved from %v to %v", start, again)
	}

	// Lull after the second gust: ticks during the cool-down keep the alarm.
	for m := 11; m < 30; m += 5 {
		snap := w.Tick(start.Add(time.Duration(m) * time.Minute))
		if snap.Level != 0 {
			t.Errorf("minute %d: expected level 0 with empty window, got %d", m, snap.Level)
		}
		if !snap.Alarm || snap.AlarmCleared {
			t.Errorf("minute %d: alarm must hold through the cool-down", m)
		}
	}

	cleared := 0
	for m := 30; m < 40; m++ {
		snap := w.Tick(start.Add(time.Duration(m) * time.Minute))
		if snap.AlarmCleared {
			cleared++
		}
		if snap.Alarm {
			t.Errorf("minute %d: alarm still set", m)
		}
		if !snap.AlarmStart.IsZero() {
			t.Errorf("minute %d: alarm start not reset", m)
		}
	}
	if cleared != 1 {
		t.Errorf("expected alarm cleared exactly once, got %d", cleared)
	}
}

func TestWindAlarmHeldWhileWindy(t *testing.T) {
	w := NewWindEstimator(windConfig())
	_, _ = feed(w, t0, 40*time.Millisecond, time.Second)
	_, start := w.Alarm()

	// Still gusting when the cool-down expires.
	at := start.Add(31 * time.Minute)
	feed(w, at.Add(-time.Second), 40*time.Millisecond, time.Second)
	snap := w.Tick(at)
	if !snap.Alarm || snap.AlarmCleared {
		t.Errorf("alarm must hold while level is above threshold: %+v", snap)
	}
}

func TestWindTickBeforeFirstPulse(t *testing.T) {
	w := NewWindEstimator(windConfig())
	snap := w.Tick(t0)
	if snap.Level != 0 || snap.Alarm || snap.AlarmCleared || !snap.AlarmStart.IsZero() {
		t.Errorf("expected calm snapshot, got %+v", snap)
	}
	if !snap.LevelChanged {
		t.Error("first tick should report the level")
	}
	if snap = w.Tick(t0.Add(15 * time.Second)); snap.LevelChanged {
		t.Errorf("second calm tick reported a change: %+v", snap)
	}
}

func TestWindTickLevelChanged(t *testing.T) {
	w := NewWindEstimator(windConfig())
	feed(w, t0, 100*time.Millisecond, time.Second)

	snap := w.Tick(t0.Add(time.Second))
	if !snap.LevelChanged || snap.Level != 3 {
		t.Errorf("first tick: %+v", snap)
	}
	snap = w.Tick(t0.Add(1500 * time.Millisecond))
	if snap.LevelChanged {
		t.Errorf("second tick at same level reported a change: %+v", snap)
	}
	snap = w.Tick(t0.Add(time.Minute))
	if !snap.LevelChanged || snap.Level != 0 {
		t.Errorf("expected drop to 0 reported: %+v", snap)
	}
}
