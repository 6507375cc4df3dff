package mqtt

import "sync"

// Published is one message recorded by FakeClient.
type Published struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakeClient records published messages and lets tests deliver messages
// to subscribers.
type FakeClient struct {
	mu sync.Mutex

	// Messages contains every published message, in order.
	Messages []Published

	// Subscriptions maps topic filters to handlers.
	Subscriptions map[string]Handler

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeClient creates a connected FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Subscriptions: make(map[string]Handler),
		Connected:     true,
	}
}

// Publish records the message.
func (f *FakeClient) Publish(topic string, payload []byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, Published{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

// Subscribe records the handler.
func (f *FakeClient) Subscribe(topic string, handler Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Subscriptions[topic] = handler
	return nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Deliver hands a message to every matching subscriber and returns how
// many handlers ran.
func (f *FakeClient) Deliver(topic string, payload []byte) int {
	f.mu.Lock()
	var handlers []Handler
	for filter, h := range f.Subscriptions {
		if MatchTopic(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(topic, payload)
	}
	return len(handlers)
}

// PublishedOn returns a copy of the messages published on topic.
func (f *FakeClient) PublishedOn(topic string) []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Published
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the last message published on topic.
func (f *FakeClient) Last(topic string) (Published, bool) {
	msgs := f.PublishedOn(topic)
	if len(msgs) == 0 {
		return Published{}, false
	}
	return msgs[len(msgs)-1], true
}

// Reset clears recorded messages.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = nil
	f.PublishError = nil
}
