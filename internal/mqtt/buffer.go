package mqtt

// bufferedMsg is a publish held back while the broker is unreachable.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer keeps the newest publishes while disconnected, oldest first.
// A retained message replaces a buffered retained message on the same topic.
// Not safe for concurrent use; the caller synchronizes.
type ringBuffer struct {
	buf      []bufferedMsg
	head     int // next write position
	count    int
	overflow bool // a message was dropped since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

// slot maps the i-th oldest message to its index in buf.
func (r *ringBuffer) slot(i int) int {
	n := len(r.buf)
	return (r.head - r.count + i + n) % n
}

// push stores msg. It returns true the first time a message is dropped
// after the last drain, so the caller logs overflow once.
func (r *ringBuffer) push(msg bufferedMsg) (firstDrop bool) {
	if msg.retained {
		for i := 0; i < r.count; i++ {
			if old := &r.buf[r.slot(i)]; old.retained && old.topic == msg.topic {
				*old = msg
				return false
			}
		}
	}

	if r.count == len(r.buf) {
		// head points at the oldest message
		firstDrop = !r.overflow
		r.overflow = true
	} else {
		r.count++
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
	return firstDrop
}

// drainAll empties the buffer and returns its messages oldest first.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.buf[r.slot(i)]
	}
	r.count, r.head, r.overflow = 0, 0, false
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
