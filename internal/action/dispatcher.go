package action

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/jalousie-io/internal/gpio"
	"github.com/sweeney/jalousie-io/internal/metrics"
)

// Config wires a Dispatcher.
type Config struct {
	Up, Down gpio.Output
	Timings  Timings
	Logger   *slog.Logger
	Observer Observer         // optional
	Metrics  *metrics.Metrics // optional
}

// Dispatcher owns the outputs and serializes runs: a new command aborts the
// active run before its own first write. Commands are never queued.
type Dispatcher struct {
	up, down gpio.Output
	timings  Timings
	logger   *slog.Logger
	observer Observer
	metrics  *metrics.Metrics

	mu         sync.Mutex
	current    *Executor
	windAlarm  bool // interlock active
	windLocal  bool
	windRemote bool

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher with no active run.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		up:       cfg.Up,
		down:     cfg.Down,
		timings:  cfg.Timings,
		logger:   logger.With("component", "action"),
		observer: cfg.Observer,
		metrics:  cfg.Metrics,
	}
}

// Start runs cmd and blocks until it finishes or is superseded.
// A superseded run is not an error.
func (d *Dispatcher) Start(ctx context.Context, cmd Command) error {
	exec, err := d.prepare(ctx, cmd)
	if err != nil {
		return err
	}
	return d.finish(exec, exec.Execute())
}

// Dispatch starts cmd and returns once it is RUNNING. The run continues
// in its own goroutine; Wait blocks until all dispatched runs ended.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	exec, err := d.prepare(ctx, cmd)
	if err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.finish(exec, exec.Execute())
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			d.logger.Debug("run interrupted by shutdown", "command", string(cmd))
		default:
			d.logger.Error("run failed", "command", string(cmd), "error", err)
		}
	}()
	return nil
}

// Wait blocks until every dispatched run returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// HandleWindAlarm takes the alarm state of the local anemometer. Raising
// starts the up command, clearing switches the outputs off. Repeated states
// are ignored. A local clear also retires the last remote report.
func (d *Dispatcher) HandleWindAlarm(ctx context.Context, alarm bool) {
	d.mu.Lock()
	d.windLocal = alarm
	if !alarm {
		d.windRemote = false
	}
	alarm, changed := d.updateWindAlarm()
	d.mu.Unlock()

	if changed {
		d.windAlarmChanged(ctx, alarm)
	}
}

// HandleRemoteWindAlarm takes the alarm state reported on the broker. A
// remote clear cannot end an alarm the local anemometer still holds.
func (d *Dispatcher) HandleRemoteWindAlarm(ctx context.Context, alarm bool) {
	d.mu.Lock()
	if !alarm && d.windLocal {
		d.mu.Unlock()
		d.logger.Debug("remote wind clear ignored, local alarm active")
		return
	}
	d.windRemote = alarm
	alarm, changed := d.updateWindAlarm()
	d.mu.Unlock()

	if changed {
		d.windAlarmChanged(ctx, alarm)
	}
}

// updateWindAlarm recomputes the interlock from both sources. Callers hold mu.
func (d *Dispatcher) updateWindAlarm() (alarm, changed bool) {
	alarm = d.windLocal || d.windRemote
	if alarm == d.windAlarm {
		return alarm, false
	}
	d.windAlarm = alarm
	return alarm, true
}

func (d *Dispatcher) windAlarmChanged(ctx context.Context, alarm bool) {
	cmd := CommandOff
	if alarm {
		d.logger.Warn("wind alarm, raising jalousie")
		cmd = CommandUpOn
	} else {
		d.logger.Info("wind alarm cleared, switching off")
	}
	if err := d.Dispatch(ctx, cmd); err != nil {
		d.logger.Error("wind alarm command failed", "command", string(cmd), "error", err)
	}
}

// WindAlarm reports whether the wind interlock is active.
func (d *Dispatcher) WindAlarm() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windAlarm
}

// Current returns the most recent run, if any.
func (d *Dispatcher) Current() (RunInfo, bool) {
	d.mu.Lock()
	exec := d.current
	d.mu.Unlock()
	if exec == nil {
		return RunInfo{}, false
	}
	return exec.Info(), true
}

// Abort stops the active run, if any.
func (d *Dispatcher) Abort() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return false
	}
	return d.current.Abort()
}

// prepare applies the interlock, aborts the predecessor and marks the new
// run RUNNING, all under one lock so runs never overlap.
func (d *Dispatcher) prepare(ctx context.Context, cmd Command) (*Executor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.windAlarm && cmd != CommandUpOn {
		d.logger.Warn("skipping command for wind alarm", "command", string(cmd))
		d.metrics.CommandRejected("wind_alarm")
		return nil, ErrWindAlarm
	}

	// Unknown commands must not stop a moving jalousie.
	if _, err := Steps(cmd, d.timings); err != nil {
		d.logger.Error("unhandled command", "command", string(cmd))
		d.metrics.CommandRejected("unknown")
		return nil, err
	}

	if d.current != nil {
		d.current.Abort()
		d.current = nil
	}

	exec := NewExecutor(d.up, d.down, d.timings, d.logger, d.observer)
	if err := exec.Prepare(ctx, cmd); err != nil {
		return nil, err
	}
	d.current = exec
	return exec, nil
}

// finish records the outcome and swallows ErrAborted.
func (d *Dispatcher) finish(exec *Executor, err error) error {
	info := exec.Info()
	elapsed := time.Since(info.Start)

	switch {
	case err == nil:
		d.metrics.RunFinished(string(info.Command), metrics.OutcomeFinished, elapsed)
		return nil
	case errors.Is(err, ErrAborted):
		d.logger.Info("task aborted", "run", info.ID, "command", string(info.Command), "elapsed", elapsed.Round(time.Millisecond))
		d.metrics.RunFinished(string(info.Command), metrics.OutcomeAborted, elapsed)
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		d.metrics.RunFinished(string(info.Command), metrics.OutcomeAborted, elapsed)
		return err
	default:
		d.metrics.RunFinished(string(info.Command), metrics.OutcomeFailed, elapsed)
		return err
	}
}
