package action

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/jalousie-io/internal/gpio"
)

// State of one run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateAborted
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateAborted:
		return "ABORTED"
	case StateFinished:
		return "FINISHED"
	default:
		return "IDLE"
	}
}

// RunInfo describes one run for observers.
type RunInfo struct {
	ID      uint64
	Command Command
	Start   time.Time
	State   State
	// Aborted stays set after an aborted run reaches FINISHED.
	Aborted bool
}

// Observer is told about run transitions and output writes.
// Calls are made synchronously and must not call back into the dispatcher.
type Observer interface {
	RunChanged(RunInfo)
	OutputChanged(name string, on bool)
}

var lastRunID atomic.Uint64

var errNotPrepared = errors.New("executor not prepared")

// Executor runs one command against the two outputs. It is single use:
// Prepare marks the run RUNNING, Execute interprets its steps.
//
// Writes happen under mu. Delays release it, so Abort can force both
// outputs OFF at any time except in the middle of a write batch.
type Executor struct {
	up, down gpio.Output
	timings  Timings
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	info    RunInfo
	steps   []Step
	ctx     context.Context
	cancel  context.CancelFunc
	aborted bool
}

// NewExecutor creates an idle executor. observer may be nil.
func NewExecutor(up, down gpio.Output, timings Timings, logger *slog.Logger, observer Observer) *Executor {
	return &Executor{
		up:       up,
		down:     down,
		timings:  timings,
		logger:   logger,
		observer: observer,
	}
}

// Run prepares and executes cmd, blocking until it finishes.
func (e *Executor) Run(ctx context.Context, cmd Command) error {
	if err := e.Prepare(ctx, cmd); err != nil {
		return err
	}
	return e.Execute()
}

// Prepare looks up the step table and marks the run RUNNING.
// An unknown command leaves the executor idle.
func (e *Executor) Prepare(ctx context.Context, cmd Command) error {
	steps, err := Steps(cmd, e.timings)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.steps = steps
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.info = RunInfo{
		ID:      lastRunID.Add(1),
		Command: cmd,
		Start:   time.Now(),
		State:   StateRunning,
	}
	e.logger = e.logger.With("run", e.info.ID, "command", string(cmd))
	e.notifyRun()
	return nil
}

// Execute interprets the prepared steps. It returns ErrAborted when the run
// was superseded, or the context error when the parent context ended.
func (e *Executor) Execute() error {
	e.mu.Lock()
	if e.info.State == StateIdle {
		e.mu.Unlock()
		return errNotPrepared
	}
	defer e.cancel()

	if err := e.checkpoint(); err != nil {
		e.mu.Unlock()
		return err
	}

	for _, step := range e.steps {
		switch step.Kind {
		case StepLog:
			e.logger.Info(step.Note)
		case StepWrite:
			e.write(step.Pin, step.On)
		case StepDelay:
			e.mu.Unlock()
			e.sleep(step.Delay)
			e.mu.Lock()
			if err := e.checkpoint(); err != nil {
				e.mu.Unlock()
				return err
			}
		}
	}

	e.info.State = StateFinished
	e.notifyRun()
	e.mu.Unlock()
	return nil
}

// Abort forces both outputs OFF and flags the run. It only has an effect
// while the run is RUNNING and reports whether it did anything.
func (e *Executor) Abort() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.info.State != StateRunning {
		return false
	}

	e.write(PinUp, false)
	e.write(PinDown, false)
	e.info.State = StateAborted
	e.info.Aborted = true
	e.logger.Debug("flagging abort", "started", e.info.Start.Format(time.TimeOnly))
	e.notifyRun()
	e.cancel()
	return true
}

// Info returns a snapshot of the run.
func (e *Executor) Info() RunInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

// checkpoint ends the run if it was aborted or its context is done.
// Caller holds mu.
func (e *Executor) checkpoint() error {
	if e.info.State == StateAborted {
		e.info.State = StateFinished
		e.logger.Debug("cancelling", "started", e.info.Start.Format(time.TimeOnly))
		e.notifyRun()
		return ErrAborted
	}
	if err := e.ctx.Err(); err != nil {
		e.info.State = StateFinished
		e.notifyRun()
		return err
	}
	return nil
}

// sleep waits for d or until the run context ends.
func (e *Executor) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.ctx.Done():
	}
}

// write sets one output. Failures are logged and the sequence continues.
// Caller holds mu.
func (e *Executor) write(pin Pin, on bool) {
	out := e.up
	if pin == PinDown {
		out = e.down
	}
	if err := out.Set(on); err != nil {
		e.logger.Error("output write failed", "pin", out.Name(), "on", on, "error", err)
		return
	}
	if e.observer != nil {
		e.observer.OutputChanged(out.Name(), on)
	}
}

func (e *Executor) notifyRun() {
	if e.observer != nil {
		e.observer.RunChanged(e.info)
	}
}
