package mqtt

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/jalousie-io/internal/logging"
)

// stubPaho is a connected paho client. Publish blocks until release is
// closed, the way paho does when its outbound queue is stuck.
type stubPaho struct {
	paho.Client
	release chan struct{}
	err     error

	mu     sync.Mutex
	topics []string
}

func (s *stubPaho) IsConnectionOpen() bool { return true }

func (s *stubPaho) Disconnect(uint) {}

func (s *stubPaho) Publish(topic string, _ byte, _ bool, _ interface{}) paho.Token {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	s.topics = append(s.topics, topic)
	s.mu.Unlock()
	return &stubToken{err: s.err}
}

func (s *stubPaho) published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topics...)
}

type stubToken struct{ err error }

func (t *stubToken) Wait() bool { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }
func (t *stubToken) Error() error { return t.err }

func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func newStubClient(stub *stubPaho, async bool) *RealClient {
	c := newRealClient(Options{Broker: "tcp://stub:1883", Async: async, Logger: logging.NewNop()})
	c.client = stub
	c.connected = true
	if async {
		go c.sendLoop()
	}
	return c
}

func TestRealClientAsyncPublishDoesNotWait(t *testing.T) {
	stub := &stubPaho{release: make(chan struct{})}
	c := newStubClient(stub, true)

	done := make(chan error, 1)
	go func() {
		for _, topic := range []string{TopicWind, TopicRain, TopicWind} {
			if err := c.Publish(topic, []byte("{}"), true); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled broker")
	}

	close(stub.release)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	want := []string{TopicWind, TopicRain, TopicWind}
	if got := stub.published(); !reflect.DeepEqual(got, want) {
		t.Errorf("published: got %v, want %v", got, want)
	}
	if err := c.Publish(TopicWind, []byte("{}"), true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("publish after close: got %v", err)
	}
}

func TestRealClientAsyncQueueFull(t *testing.T) {
	stub := &stubPaho{release: make(chan struct{})}
	c := newStubClient(stub, true)
	defer func() {
		close(stub.release)
		c.Close()
	}()

	var full error
	for i := 0; i < outboxSize+2 && full == nil; i++ {
		full = c.Publish(TopicRain, []byte(fmt.Sprintf(`{"level":%d}`, i)), false)
	}
	if !errors.Is(full, ErrPublishFailed) {
		t.Errorf("expected ErrPublishFailed once the queue is full, got %v", full)
	}
}

func TestRealClientSyncPublishError(t *testing.T) {
	stub := &stubPaho{err: errors.New("broken pipe")}
	c := newStubClient(stub, false)

	err := c.Publish("Jalousie/cmnd/full_up", []byte("{}"), false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("expected ErrPublishFailed, got %v", err)
	}
	if got := stub.published(); len(got) != 1 {
		t.Errorf("published: %v", got)
	}
}
