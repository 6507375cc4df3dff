package mqtt

import (
	"reflect"
	"testing"
)

// payloads returns the drained payloads as strings.
func payloads(msgs []bufferedMsg) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, string(m.payload))
	}
	return out
}

func rain(p string) bufferedMsg {
	return bufferedMsg{topic: TopicRain, payload: []byte(p)}
}

func retained(topic, p string) bufferedMsg {
	return bufferedMsg{topic: topic, payload: []byte(p), retained: true}
}

func TestRingBuffer(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		push     []bufferedMsg
		want     []string
		drops    int
	}{
		{
			name:     "empty",
			capacity: 4,
		},
		{
			name:     "fifo order",
			capacity: 4,
			push:     []bufferedMsg{rain("a"), rain("b"), rain("c")},
			want:     []string{"a", "b", "c"},
		},
		{
			name:     "full without drop",
			capacity: 3,
			push:     []bufferedMsg{rain("a"), rain("b"), rain("c")},
			want:     []string{"a", "b", "c"},
		},
		{
			name:     "overflow keeps newest and reports once",
			capacity: 3,
			push:     []bufferedMsg{rain("a"), rain("b"), rain("c"), rain("d"), rain("e")},
			want:     []string{"c", "d", "e"},
			drops:    1,
		},
		{
			name:     "retained coalesced in place",
			capacity: 4,
			push: []bufferedMsg{
				retained(TopicWind, "w1"),
				rain("r"),
				retained(TopicWind, "w2"),
				retained(TopicSun, "s"),
				retained(TopicWind, "w3"),
			},
			want: []string{"w3", "r", "s"},
		},
		{
			name:     "non-retained never coalesced",
			capacity: 4,
			push:     []bufferedMsg{rain("1"), rain("2")},
			want:     []string{"1", "2"},
		},
		{
			name:     "retained does not replace non-retained",
			capacity: 4,
			push:     []bufferedMsg{rain("1"), retained(TopicRain, "2")},
			want:     []string{"1", "2"},
		},
		{
			name:     "coalescing avoids overflow",
			capacity: 2,
			push: []bufferedMsg{
				retained(TopicWind, "w1"),
				retained(TopicSun, "s1"),
				retained(TopicWind, "w2"),
				retained(TopicSun, "s2"),
			},
			want: []string{"w2", "s2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newRingBuffer(tt.capacity)
			drops := 0
			for _, m := range tt.push {
				if rb.push(m) {
					drops++
				}
			}
			if rb.len() != len(tt.want) {
				t.Errorf("len: got %d, want %d", rb.len(), len(tt.want))
			}
			if drops != tt.drops {
				t.Errorf("drops reported: got %d, want %d", drops, tt.drops)
			}
			if got := payloads(rb.drainAll()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("drained: got %v, want %v", got, tt.want)
			}
			if rb.len() != 0 || rb.drainAll() != nil {
				t.Error("buffer not empty after drain")
			}
		})
	}
}

func TestRingBufferWrapsAcrossCycles(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(rain("a"))
	rb.push(rain("b"))
	rb.drainAll()

	for _, p := range []string{"c", "d", "e", "f"} {
		rb.push(rain(p))
	}
	if got := payloads(rb.drainAll()); !reflect.DeepEqual(got, []string{"d", "e", "f"}) {
		t.Errorf("got %v", got)
	}
}

func TestRingBufferDropReportedAgainAfterDrain(t *testing.T) {
	rb := newRingBuffer(1)
	rb.push(rain("a"))
	if !rb.push(rain("b")) {
		t.Error("first drop not reported")
	}
	if rb.push(rain("c")) {
		t.Error("second drop reported")
	}
	rb.drainAll()
	rb.push(rain("d"))
	if !rb.push(rain("e")) {
		t.Error("drop after drain not reported")
	}
}

func TestRingBufferKeepsFields(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(bufferedMsg{topic: TopicClimate, payload: []byte(`{"temperature":21.4}`), qos: 1, retained: true})

	got := rb.drainAll()
	want := []bufferedMsg{{topic: TopicClimate, payload: []byte(`{"temperature":21.4}`), qos: 1, retained: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
