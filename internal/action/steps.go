// Package action drives the two jalousie relay outputs.
//
// Every command is a static list of steps interpreted by an Executor.
// The Dispatcher owns the outputs, keeps at most one run active and
// applies the wind interlock.
package action

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownCommand is returned for a command without a step table.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrAborted is returned by a run that was superseded during a delay.
	ErrAborted = errors.New("run aborted")

	// ErrWindAlarm is returned for commands suppressed by an active wind alarm.
	ErrWindAlarm = errors.New("suppressed by wind alarm")
)

// Command names a step table.
type Command string

const (
	CommandOff        Command = "JALOUSIE_OFF"
	CommandStop       Command = "JALOUSIE_STOP"
	CommandFullUp     Command = "JALOUSIE_FULL_UP"
	CommandFullDown   Command = "JALOUSIE_FULL_DOWN"
	CommandUpOn       Command = "JALOUSIE_UP_ON"
	CommandUpOff      Command = "JALOUSIE_UP_OFF"
	CommandDownOn     Command = "JALOUSIE_DOWN_ON"
	CommandDownOff    Command = "JALOUSIE_DOWN_OFF"
	CommandShadow     Command = "JALOUSIE_SHADOW"
	CommandTurn       Command = "JALOUSIE_TURN"
	CommandIndividual Command = "JALOUSIE_INDIVIDUAL"
	CommandAllUp      Command = "JALOUSIE_ALL_UP"
	CommandAllDown    Command = "JALOUSIE_ALL_DOWN"
)

// Commands returns every command with a step table, sorted by name.
func Commands() []Command {
	return []Command{
		CommandAllDown, CommandAllUp, CommandDownOff, CommandDownOn,
		CommandFullDown, CommandFullUp, CommandIndividual, CommandOff,
		CommandShadow, CommandStop, CommandTurn, CommandUpOff, CommandUpOn,
	}
}

// ParseCommand accepts "JALOUSIE_FULL_UP", "full_up" or "FULL_UP".
func ParseCommand(s string) (Command, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "JALOUSIE_") {
		name = "JALOUSIE_" + name
	}
	cmd := Command(name)
	for _, c := range Commands() {
		if c == cmd {
			return cmd, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Pin selects one of the two outputs.
type Pin int

const (
	PinUp Pin = iota
	PinDown
)

func (p Pin) String() string {
	if p == PinUp {
		return "UP"
	}
	return "DOWN"
}

// StepKind tags a Step.
type StepKind int

const (
	StepWrite StepKind = iota // set Pin to On, synchronously
	StepDelay                 // suspend, then check for abort
	StepLog                   // log Note
)

// Step is one unit of a command.
type Step struct {
	Kind  StepKind
	Pin   Pin
	On    bool
	Delay time.Duration
	Note  string
}

func (s Step) String() string {
	switch s.Kind {
	case StepWrite:
		if s.On {
			return s.Pin.String() + " ON"
		}
		return s.Pin.String() + " OFF"
	case StepDelay:
		return s.Delay.String()
	default:
		return s.Note
	}
}

// Write returns a pin write step.
func Write(pin Pin, on bool) Step { return Step{Kind: StepWrite, Pin: pin, On: on} }

// Delay returns a delay step.
func Delay(d time.Duration) Step { return Step{Kind: StepDelay, Delay: d} }

// Log returns a log step.
func Log(note string) Step { return Step{Kind: StepLog, Note: note} }

// Timings holds the pulse durations of the step tables.
type Timings struct {
	Full       time.Duration
	Stop       time.Duration
	ShadowDown time.Duration
	ShadowTurn time.Duration
	Alarm      time.Duration
	Individual time.Duration
}

// DefaultTimings matches the installed motor controllers.
func DefaultTimings() Timings {
	return Timings{
		Full:       3 * time.Second,
		Stop:       140 * time.Millisecond,
		ShadowDown: 63 * time.Second,
		ShadowTurn: 1300 * time.Millisecond,
		Alarm:      5 * time.Second,
		Individual: 200 * time.Millisecond,
	}
}

// pulse switches pin on for d.
func pulse(pin Pin, d time.Duration) []Step {
	return []Step{Write(pin, true), Delay(d), Write(pin, false)}
}

// Steps returns the full step list for cmd, starting with both outputs OFF.
func Steps(cmd Command, t Timings) ([]Step, error) {
	var body []Step

	switch cmd {
	case CommandOff:
		body = []Step{Log("Off: UP OFF, DOWN OFF"), Write(PinUp, false), Write(PinDown, false)}
	case CommandStop:
		// Stop works on either output.
		body = append([]Step{Log("Stop: UP pulse")}, pulse(PinUp, t.Stop)...)
	case CommandFullUp:
		body = append([]Step{Log("Full up: UP pulse")}, pulse(PinUp, t.Full)...)
	case CommandFullDown:
		body = append([]Step{Log("Full down: DOWN pulse")}, pulse(PinDown, t.Full)...)
	case CommandUpOn:
		body = []Step{Log("Up on"), Write(PinUp, true)}
	case CommandUpOff:
		body = []Step{Log("Up off"), Write(PinUp, false)}
	case CommandDownOn:
		body = []Step{Log("Down on"), Write(PinDown, true)}
	case CommandDownOff:
		body = []Step{Log("Down off"), Write(PinDown, false)}
	case CommandShadow:
		body = append(body, Log("Shadow-1, down"))
		body = append(body, pulse(PinDown, t.Full)...)
		body = append(body, Delay(t.ShadowDown))
		body = append(body, Log("Shadow-2, turn"))
		body = append(body, pulse(PinUp, t.ShadowTurn)...)
		body = append(body, Log("Shadow-3, stop"))
		body = append(body, pulse(PinDown, t.Stop)...)
	case CommandTurn:
		body = append(body, Log("Turn-1, down"))
		body = append(body, pulse(PinDown, 2*t.ShadowTurn)...)
		body = append(body, Log("Turn-2, turn"))
		body = append(body, pulse(PinUp, t.ShadowTurn)...)
		body = append(body, Log("Turn-3, stop"))
		body = append(body, pulse(PinDown, t.Stop)...)
	case CommandIndividual:
		// Double click on DOWN moves automatic jalousies to their own shadow position.
		body = []Step{
			Log("Individual"),
			Write(PinDown, true), Delay(t.Individual),
			Write(PinDown, false), Delay(t.Individual),
			Write(PinDown, true), Delay(t.Individual),
			Write(PinDown, false),
		}
	case CommandAllUp:
		body = append([]Step{Log("All up: UP alarm pulse")}, pulse(PinUp, t.Alarm)...)
	case CommandAllDown:
		body = append([]Step{Log("All down: DOWN alarm pulse")}, pulse(PinDown, t.Alarm)...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}

	steps := make([]Step, 0, len(body)+2)
	steps = append(steps, Write(PinUp, false), Write(PinDown, false))
	return append(steps, body...), nil
}
