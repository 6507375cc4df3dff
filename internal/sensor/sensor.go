// Package sensor connects the input lines and polled sensors to the
// dispatcher and to telemetry. Adapters are not safe for concurrent use;
// the daemon feeds every edge and tick from one event loop.
package sensor

import (
	"context"

	"github.com/sweeney/jalousie-io/internal/action"
	"github.com/sweeney/jalousie-io/internal/logic"
)

// Publisher sends telemetry. mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Commander starts commands. action.Dispatcher satisfies it.
type Commander interface {
	Dispatch(ctx context.Context, cmd action.Command) error
}

// Interlock receives wind alarm edges. action.Dispatcher satisfies it.
type Interlock interface {
	HandleWindAlarm(ctx context.Context, alarm bool)
}

// edgeResult is the metrics label for a filter outcome.
func edgeResult(r logic.Rejection) string {
	if r == logic.Accepted {
		return "accepted"
	}
	return string(r)
}
