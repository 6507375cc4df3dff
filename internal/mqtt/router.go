package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sweeney/jalousie-io/internal/action"
)

// Dispatcher is the part of action.Dispatcher the router drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd action.Command) error
	HandleRemoteWindAlarm(ctx context.Context, alarm bool)
}

// Router turns received messages into dispatcher calls.
type Router struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewRouter creates a router.
func NewRouter(d Dispatcher, logger *slog.Logger) *Router {
	return &Router{dispatcher: d, logger: logger.With("component", "router")}
}

// Handle processes one message. Errors are per message; the caller logs
// them and carries on.
func (r *Router) Handle(ctx context.Context, topic string, payload []byte) error {
	if cmd, ok := CommandForTopic(topic); ok {
		// Command payloads carry no parameters; a JSON body is only logged.
		var body map[string]any
		if len(payload) > 0 && json.Unmarshal(payload, &body) == nil && len(body) > 0 {
			r.logger.Info(topic, "payload", body)
		} else {
			r.logger.Info(topic)
		}
		if err := r.dispatcher.Dispatch(ctx, cmd); err != nil {
			return fmt.Errorf("%s: %w", topic, err)
		}
		return nil
	}

	switch topic {
	case TopicWind:
		msg, err := ParseWind(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", topic, err)
		}
		r.dispatcher.HandleRemoteWindAlarm(ctx, msg.Alarm)
		return nil
	case TopicJalousieSensor:
		return nil
	}

	// Other Wind/# topics carry no alarm.
	if MatchTopic(FilterWind, topic) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnhandledTopic, topic)
}
