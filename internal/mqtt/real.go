package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	outboxSize        = 64
)

// Options configures a RealClient.
type Options struct {
	Broker   string
	ClientID string
	QoS      byte
	// Buffer is the number of messages kept while disconnected. Zero
	// disables buffering and Publish returns ErrNotConnected instead.
	Buffer int
	Logger *slog.Logger
	// OnConnectionChange, if set, is called after every connect and
	// connection loss.
	OnConnectionChange func(connected bool)
	// Async hands publishes to a sender goroutine so Publish never waits
	// on the broker. Delivery failures are logged, not returned.
	Async bool
}

// RealClient talks to an actual MQTT broker.
type RealClient struct {
	client paho.Client
	opts   Options
	logger *slog.Logger

	mu            sync.Mutex
	connected     bool
	subscriptions map[string]Handler
	buffer        *ringBuffer
	closed        bool

	outbox     chan bufferedMsg // nil unless Async
	senderDone chan struct{}
}

// Connect creates a client and waits for the first connection.
// Reconnects after that happen in the background.
func Connect(opts Options) (*RealClient, error) {
	c := newRealClient(opts)

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWriteTimeout(publishTimeout).
		SetOnConnectHandler(func(paho.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { c.handleDisconnect(err) })

	c.client = paho.NewClient(po)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %s: timeout after %v", ErrConnectionFailed, opts.Broker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, opts.Broker, err)
	}
	if opts.Async {
		go c.sendLoop()
	}
	return c, nil
}

func newRealClient(opts Options) *RealClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &RealClient{
		opts:          opts,
		logger:        logger.With("component", "mqtt"),
		subscriptions: make(map[string]Handler),
	}
	if opts.Buffer > 0 {
		c.buffer = newRingBuffer(opts.Buffer)
	}
	if opts.Async {
		c.outbox = make(chan bufferedMsg, outboxSize)
		c.senderDone = make(chan struct{})
	}
	return c
}

// sendLoop publishes queued messages in order until Close.
func (c *RealClient) sendLoop() {
	defer close(c.senderDone)
	for msg := range c.outbox {
		if err := c.send(msg); err != nil {
			c.logger.Warn("publish failed", "topic", msg.topic, "error", err)
		}
	}
}

// handleConnect restores subscriptions and replays buffered messages.
func (c *RealClient) handleConnect() {
	c.mu.Lock()
	c.connected = true
	subs := make(map[string]Handler, len(c.subscriptions))
	for topic, h := range c.subscriptions {
		subs[topic] = h
	}
	var pending []bufferedMsg
	if c.buffer != nil {
		pending = c.buffer.drainAll()
	}
	c.mu.Unlock()

	c.logger.Info("connected", "broker", c.opts.Broker, "buffered", len(pending))

	for topic, h := range subs {
		// Errors surface again on the next reconnect.
		c.client.Subscribe(topic, c.opts.QoS, c.wrap(h))
	}
	for _, msg := range pending {
		c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	}

	if c.opts.OnConnectionChange != nil {
		c.opts.OnConnectionChange(true)
	}
}

func (c *RealClient) handleDisconnect(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.logger.Warn("connection lost", "error", err)
	if c.opts.OnConnectionChange != nil {
		c.opts.OnConnectionChange(false)
	}
}

// wrap adapts a Handler to paho and recovers from handler panics.
func (c *RealClient) wrap(h Handler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		h(msg.Topic(), msg.Payload())
	}
}

// Publish sends payload, or buffers it while disconnected. With Async it
// only queues the message.
func (c *RealClient) Publish(topic string, payload []byte, retained bool) error {
	msg := bufferedMsg{topic: topic, payload: payload, qos: c.opts.QoS, retained: retained}
	connected := c.IsConnected()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if !connected {
		defer c.mu.Unlock()
		if c.buffer == nil {
			return ErrNotConnected
		}
		if c.buffer.push(msg) {
			c.logger.Warn("buffer full, dropping oldest", "capacity", c.opts.Buffer)
		}
		return nil
	}
	if c.outbox != nil {
		defer c.mu.Unlock()
		select {
		case c.outbox <- msg:
			return nil
		default:
			return fmt.Errorf("%w: %s: send queue full", ErrPublishFailed, topic)
		}
	}
	c.mu.Unlock()

	return c.send(msg)
}

// send publishes msg and waits for the broker to take it.
func (c *RealClient) send(msg bufferedMsg) error {
	token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout", ErrPublishFailed, msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, msg.topic, err)
	}
	return nil
}

// Subscribe registers handler and subscribes if connected.
func (c *RealClient) Subscribe(topic string, handler Handler) error {
	c.mu.Lock()
	c.subscriptions[topic] = handler
	c.mu.Unlock()

	if !c.IsConnected() {
		// Subscribed from handleConnect.
		return nil
	}

	token := c.client.Subscribe(topic, c.opts.QoS, c.wrap(handler))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout", ErrSubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.client.IsConnectionOpen()
}

// Close flushes queued publishes and disconnects from the broker.
func (c *RealClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.outbox != nil {
		close(c.outbox)
	}
	c.mu.Unlock()

	if c.outbox != nil {
		select {
		case <-c.senderDone:
		case <-time.After(publishTimeout):
			c.logger.Warn("queued publishes dropped on close")
		}
	}

	c.client.Disconnect(disconnectQuiesce)
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}
