package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeOutputRecordsWrites(t *testing.T) {
	log := &WriteLog{}
	up := NewFakeOutput(NameUp, log)
	down := NewFakeOutput(NameDown, log)

	if err := up.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := down.Set(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := up.Set(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := log.Strings()
	want := []string{"UP ON", "DOWN OFF", "UP OFF"}
	if len(got) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if up.On() {
		t.Error("UP should be off")
	}
}

func TestFakeOutputError(t *testing.T) {
	out := NewFakeOutput(NameUp, nil)
	out.SetError = errors.New("simulated error")

	if err := out.Set(true); err == nil || err.Error() != "simulated error" {
		t.Errorf("expected simulated error, got %v", err)
	}
	if out.On() {
		t.Error("failed write must not change the level")
	}
	if len(out.Log().Writes()) != 0 {
		t.Error("failed write must not be recorded")
	}
}

func TestWriteLogReset(t *testing.T) {
	out := NewFakeOutput(NameDown, nil)
	out.Set(true)
	out.Log().Reset()
	if n := len(out.Log().Writes()); n != 0 {
		t.Errorf("expected empty log after reset, got %d", n)
	}
}

func TestFakeChipOutputs(t *testing.T) {
	c := NewFakeChip()

	up, err := c.Output(NameUp, 17)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Name() != NameUp {
		t.Errorf("expected name UP, got %s", up.Name())
	}
	if _, err := c.Output(NameDown, 17); !errors.Is(err, ErrHardwareInit) {
		t.Errorf("expected ErrHardwareInit for duplicate pin, got %v", err)
	}

	up.Set(true)
	if c.FakeOutputAt(17) == nil || !c.FakeOutputAt(17).On() {
		t.Error("expected output on pin 17 to be ON")
	}
	if got := c.Log.Strings(); len(got) != 1 || got[0] != "UP ON" {
		t.Errorf("unexpected chip log %v", got)
	}
}

func TestFakeChipOutputError(t *testing.T) {
	c := NewFakeChip()
	c.OutputError = errors.New("busy")
	if _, err := c.Output(NameUp, 17); !errors.Is(err, ErrHardwareInit) {
		t.Errorf("expected ErrHardwareInit, got %v", err)
	}
}

func TestFakeChipWatchAndTrigger(t *testing.T) {
	c := NewFakeChip()

	var got []Edge
	if err := c.Watch(25, 10*time.Millisecond, func(e Edge) { got = append(got, e) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Glitch(25) != 10*time.Millisecond {
		t.Errorf("expected glitch 10ms, got %v", c.Glitch(25))
	}

	if v, _ := c.Read(25); v != 1 {
		t.Errorf("input should rest high, got %d", v)
	}

	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := c.Trigger(25, 0, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Offset != 25 || got[0].Level != 0 || !got[0].Time.Equal(at) {
		t.Errorf("unexpected edges %+v", got)
	}
	if v, _ := c.Read(25); v != 0 {
		t.Errorf("expected level 0 after trigger, got %d", v)
	}

	if err := c.Trigger(7, 0, at); err == nil {
		t.Error("expected error triggering an unwatched pin")
	}
	if _, err := c.Read(7); err == nil {
		t.Error("expected error reading an unwatched pin")
	}
}

func TestFakeChipClose(t *testing.T) {
	c := NewFakeChip()
	c.Watch(25, 0, func(Edge) { t.Error("handler called after close") })

	if c.Closed() {
		t.Error("should not be closed initially")
	}
	if err := c.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !c.Closed() {
		t.Error("should be closed after Close()")
	}
	if err := c.Trigger(25, 0, time.Now()); err == nil {
		t.Error("expected no handler after close")
	}
}
