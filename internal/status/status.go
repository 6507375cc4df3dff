// Package status keeps the runtime view of the controller for the HTTP
// endpoint and the JSON document persisted between restarts.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/jalousie-io/internal/action"
	"github.com/sweeney/jalousie-io/internal/gpio"
)

// Config contains daemon configuration for display.
type Config struct {
	Broker   string
	HTTPAddr string
	Chip     string
}

// Wind is the last wind state seen by the wind adapter.
type Wind struct {
	Level      int
	Hertz      float64
	Alarm      bool
	AlarmStart time.Time
}

// Climate is the last thermometer reading.
type Climate struct {
	Valid       bool
	Temperature float64
	Humidity    float64
	At          time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Up, Down      bool
	Run           action.RunInfo
	HasRun        bool
	Wind          Wind
	RainLevel     float64
	SunLevel      int
	SunRaw        float64
	Climate       Climate
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex. It implements
// action.Observer.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

var _ action.Observer = (*Tracker)(nil)

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RunChanged records the latest run transition.
func (t *Tracker) RunChanged(info action.RunInfo) {
	t.mu.Lock()
	t.snap.Run = info
	t.snap.HasRun = true
	t.mu.Unlock()
}

// OutputChanged records an output write.
func (t *Tracker) OutputChanged(name string, on bool) {
	t.mu.Lock()
	switch name {
	case gpio.NameUp:
		t.snap.Up = on
	case gpio.NameDown:
		t.snap.Down = on
	}
	t.mu.Unlock()
}

// SetWind sets the wind state.
func (t *Tracker) SetWind(w Wind) {
	t.mu.Lock()
	t.snap.Wind = w
	t.mu.Unlock()
}

// SetRain sets the cumulative rain level.
func (t *Tracker) SetRain(level float64) {
	t.mu.Lock()
	t.snap.RainLevel = level
	t.mu.Unlock()
}

// SetSun sets the sun level and the averaged raw value behind it.
func (t *Tracker) SetSun(level int, raw float64) {
	t.mu.Lock()
	t.snap.SunLevel = level
	t.snap.SunRaw = raw
	t.mu.Unlock()
}

// SetClimate sets the thermometer reading.
func (t *Tracker) SetClimate(c Climate) {
	t.mu.Lock()
	t.snap.Climate = c
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
