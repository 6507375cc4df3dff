// Package mqtt connects the daemon to the broker: remote commands come in on
// Jalousie/cmnd/<name>, wind alarms on Wind/tele/SENSOR, and sensor
// telemetry goes out as retained JSON documents.
package mqtt

import "errors"

var (
	// ErrNotConnected is returned when the broker is unreachable and the
	// message could not be buffered.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrConnectionFailed wraps initial connection failures.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed wraps publish failures.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps subscribe failures.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnhandledTopic is returned by Router.Handle for topics it does not know.
	ErrUnhandledTopic = errors.New("mqtt: unhandled topic")
)

// Handler receives messages. It runs on the client's delivery goroutine
// and must not block.
type Handler func(topic string, payload []byte)

// Client publishes and subscribes.
type Client interface {
	// Publish sends payload. While disconnected the message is buffered.
	Publish(topic string, payload []byte, retained bool) error

	// Subscribe registers handler for a topic filter. Subscriptions are
	// restored after reconnects.
	Subscribe(topic string, handler Handler) error

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// Message is one received message.
type Message struct {
	Topic   string
	Payload []byte
}
