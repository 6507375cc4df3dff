package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/jalousie-io/internal/action"
	"github.com/sweeney/jalousie-io/internal/logic"
	"github.com/sweeney/jalousie-io/internal/metrics"
)

// Buttons turns the two wall buttons into UP/DOWN ON/OFF commands.
// Pressing pulls the line low and switches the output on, releasing
// switches it off.
type Buttons struct {
	up, down  *logic.PulseFilter
	commander Commander
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewButtons creates the adapter with both buttons released.
func NewButtons(cfg logic.PulseFilterConfig, commander Commander, m *metrics.Metrics, logger *slog.Logger) *Buttons {
	return &Buttons{
		up:        logic.NewPulseFilter(logic.LineButtonUp, logic.High, cfg),
		down:      logic.NewPulseFilter(logic.LineButtonDown, logic.High, cfg),
		commander: commander,
		metrics:   m,
		logger:    logger.With("component", "buttons"),
	}
}

// HandleEdge filters one raw edge and dispatches the resulting command.
// It returns the command started, or "" when the edge was filtered or the
// wind interlock refused it.
func (b *Buttons) HandleEdge(ctx context.Context, line logic.Line, level logic.Level, at time.Time) (action.Command, error) {
	var f *logic.PulseFilter
	switch line {
	case logic.LineButtonUp:
		f = b.up
	case logic.LineButtonDown:
		f = b.down
	default:
		return "", fmt.Errorf("buttons: unhandled line %s", line)
	}

	ev, rej := f.OnEdge(level, at)
	b.metrics.Edge(string(line), edgeResult(rej))
	if rej != logic.Accepted {
		b.logger.Debug("edge rejected", "line", string(line), "level", level.String(), "reason", string(rej))
		return "", nil
	}

	if ev.StopGesture {
		b.logger.Info("stop gesture", "line", string(line), "held", ev.SinceLast.Round(time.Millisecond))
	}

	cmd := buttonCommand(line, level)
	b.logger.Info("button", "command", string(cmd), "since_last", ev.SinceLast.Round(time.Millisecond))

	if err := b.commander.Dispatch(ctx, cmd); err != nil {
		if errors.Is(err, action.ErrWindAlarm) {
			return "", nil
		}
		return "", fmt.Errorf("buttons: %w", err)
	}
	return cmd, nil
}

func buttonCommand(line logic.Line, level logic.Level) action.Command {
	if line == logic.LineButtonUp {
		if level == logic.Low {
			return action.CommandUpOn
		}
		return action.CommandUpOff
	}
	if level == logic.Low {
		return action.CommandDownOn
	}
	return action.CommandDownOff
}
