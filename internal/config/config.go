// Package config loads the jalousie-io daemon configuration.
//
// Loading order is defaults, then the YAML file (if any), then JALOUSIE_*
// environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon looks for its config file when --config is not given.
const DefaultPath = "/etc/jalousie-io/config.yaml"

// Config is the root configuration structure.
type Config struct {
	MQTT        MQTTConfig        `yaml:"mqtt"`
	GPIO        GPIOConfig        `yaml:"gpio"`
	Action      ActionConfig      `yaml:"action"`
	Buttons     ButtonsConfig     `yaml:"buttons"`
	Wind        WindConfig        `yaml:"wind"`
	Rain        RainConfig        `yaml:"rain"`
	Sun         SunConfig         `yaml:"sun"`
	Thermometer ThermometerConfig `yaml:"thermometer"`
	Status      StatusConfig      `yaml:"status"`
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	QoS      int    `yaml:"qos"`
	Buffer   int    `yaml:"buffer"` // messages kept while disconnected
}

// GPIOConfig contains BCM line offsets on the gpio chip.
type GPIOConfig struct {
	Chip         string        `yaml:"chip"`
	JalousieUp   int           `yaml:"jalousie_up"`
	JalousieDown int           `yaml:"jalousie_down"`
	ButtonUp     int           `yaml:"button_up"`
	ButtonDown   int           `yaml:"button_down"`
	Wind         int           `yaml:"wind"`
	Rain         int           `yaml:"rain"`
	GlitchFilter time.Duration `yaml:"glitch_filter"`
}

// ActionConfig contains the pulse durations used by the command tables.
type ActionConfig struct {
	Full       time.Duration `yaml:"full"`
	Stop       time.Duration `yaml:"stop"`
	ShadowDown time.Duration `yaml:"shadow_down"`
	ShadowTurn time.Duration `yaml:"shadow_turn"`
	Alarm      time.Duration `yaml:"alarm"`
	Individual time.Duration `yaml:"individual"`
}

// ButtonsConfig contains the wall button debounce settings.
type ButtonsConfig struct {
	Debounce       time.Duration `yaml:"debounce"`
	StopGestureMin time.Duration `yaml:"stop_gesture_min"`
	StopGestureMax time.Duration `yaml:"stop_gesture_max"`
}

// WindConfig contains the anemometer settings.
type WindConfig struct {
	Threshold  int           `yaml:"threshold"`
	ResetDelay time.Duration `yaml:"reset_delay"`
	Tick       time.Duration `yaml:"tick"`
	Window     time.Duration `yaml:"window"`
	Capacity   int           `yaml:"capacity"`
	PhantomGap time.Duration `yaml:"phantom_gap"`
	StopGap    time.Duration `yaml:"stop_gap"`
}

// RainConfig contains the tipping bucket settings.
type RainConfig struct {
	Quantum     float64       `yaml:"quantum"`
	MinPulse    time.Duration `yaml:"min_pulse"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// SunConfig contains the light sensor settings.
type SunConfig struct {
	Enabled  bool          `yaml:"enabled"`
	SPIPort  string        `yaml:"spi_port"`
	Channel  int           `yaml:"channel"`
	Interval time.Duration `yaml:"interval"`
	Window   time.Duration `yaml:"window"`
	Samples  int           `yaml:"samples"`
}

// ThermometerConfig contains the room temperature sensor settings.
type ThermometerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Device        string        `yaml:"device"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	FailureStreak int           `yaml:"failure_streak"`
}

// StatusConfig contains the persisted status file location.
type StatusConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig contains the status server settings. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from path and applies environment overrides.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration of the installed hardware.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.6.7:1883",
			ClientID: "jalousie-io",
			QoS:      0,
			Buffer:   100,
		},
		GPIO: GPIOConfig{
			Chip:         "gpiochip0",
			JalousieUp:   17, // Pin11
			JalousieDown: 4,  // Pin7
			ButtonUp:     27, // Pin13
			ButtonDown:   22, // Pin15
			Wind:         25, // Pin22
			Rain:         7,  // Pin26
			GlitchFilter: 10 * time.Millisecond,
		},
		Action: ActionConfig{
			Full:       3 * time.Second,
			Stop:       140 * time.Millisecond,
			ShadowDown: 63 * time.Second,
			ShadowTurn: 1300 * time.Millisecond,
			Alarm:      5 * time.Second,
			Individual: 200 * time.Millisecond,
		},
		Buttons: ButtonsConfig{
			Debounce:       100 * time.Millisecond,
			StopGestureMin: 135 * time.Millisecond,
			StopGestureMax: 150 * time.Millisecond,
		},
		Wind: WindConfig{
			Threshold:  6,
			ResetDelay: 30 * time.Minute,
			Tick:       15 * time.Second,
			Window:     2 * time.Second,
			Capacity:   50,
			PhantomGap: 10 * time.Millisecond,
			StopGap:    time.Second,
		},
		Rain: RainConfig{
			Quantum:     0.44,
			MinPulse:    50 * time.Millisecond,
			MinInterval: time.Minute,
		},
		Sun: SunConfig{
			Enabled:  true,
			Channel:  0,
			Interval: 15 * time.Second,
			Window:   20 * time.Second,
			Samples:  5,
		},
		Thermometer: ThermometerConfig{
			Enabled:       false,
			Device:        "/sys/bus/iio/devices/iio:device0",
			Interval:      30 * time.Second,
			Timeout:       3 * time.Second,
			FailureStreak: 5,
		},
		Status: StatusConfig{
			Path: "/var/jalousie/status-io.json",
		},
		HTTP: HTTPConfig{
			Addr: ":9124",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies JALOUSIE_SECTION_KEY overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JALOUSIE_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("JALOUSIE_GPIO_CHIP"); v != "" {
		cfg.GPIO.Chip = v
	}
	if v := os.Getenv("JALOUSIE_STATUS_PATH"); v != "" {
		cfg.Status.Path = v
	}
	if v, ok := os.LookupEnv("JALOUSIE_HTTP_ADDR"); ok {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("JALOUSIE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.GPIO.Chip == "" {
		errs = append(errs, "gpio.chip is required")
	}
	if c.GPIO.JalousieUp == c.GPIO.JalousieDown {
		errs = append(errs, "gpio.jalousie_up and gpio.jalousie_down must differ")
	}
	pins := map[int]string{}
	for name, pin := range map[string]int{
		"jalousie_up":   c.GPIO.JalousieUp,
		"jalousie_down": c.GPIO.JalousieDown,
		"button_up":     c.GPIO.ButtonUp,
		"button_down":   c.GPIO.ButtonDown,
		"wind":          c.GPIO.Wind,
		"rain":          c.GPIO.Rain,
	} {
		if pin < 0 {
			errs = append(errs, fmt.Sprintf("gpio.%s must not be negative", name))
			continue
		}
		if other, dup := pins[pin]; dup {
			// Map iteration order is random, sort the pair for a stable message.
			a, b := other, name
			if a > b {
				a, b = b, a
			}
			errs = append(errs, fmt.Sprintf("gpio.%s and gpio.%s share line %d", a, b, pin))
		}
		pins[pin] = name
	}

	if c.Action.Full <= 0 || c.Action.Stop <= 0 || c.Action.Alarm <= 0 ||
		c.Action.ShadowDown < 0 || c.Action.ShadowTurn <= 0 || c.Action.Individual <= 0 {
		errs = append(errs, "action durations must be positive")
	}

	if c.Buttons.StopGestureMin > c.Buttons.StopGestureMax {
		errs = append(errs, "buttons.stop_gesture_min must not exceed stop_gesture_max")
	}

	if c.Wind.Threshold < 1 || c.Wind.Threshold > 11 {
		errs = append(errs, "wind.threshold must be between 1 and 11")
	}
	if c.Wind.Capacity < 2 {
		errs = append(errs, "wind.capacity must be at least 2")
	}
	if c.Wind.Window <= 0 || c.Wind.Tick <= 0 {
		errs = append(errs, "wind.window and wind.tick must be positive")
	}

	if c.Rain.Quantum <= 0 {
		errs = append(errs, "rain.quantum must be positive")
	}

	if c.Sun.Enabled {
		if c.Sun.Channel < 0 || c.Sun.Channel > 3 {
			errs = append(errs, "sun.channel must be between 0 and 3")
		}
		if c.Sun.Interval <= 0 || c.Sun.Samples < 1 {
			errs = append(errs, "sun.interval and sun.samples must be positive")
		}
	}

	if c.Thermometer.Enabled && c.Thermometer.Device == "" {
		errs = append(errs, "thermometer.device is required when enabled")
	}

	if c.Status.Path == "" {
		errs = append(errs, "status.path is required")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors: " + strings.Join(errs, "; "))
	}
	return nil
}
