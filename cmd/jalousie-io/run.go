package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/jalousie-io/internal/action"
	"github.com/sweeney/jalousie-io/internal/config"
	"github.com/sweeney/jalousie-io/internal/gpio"
	"github.com/sweeney/jalousie-io/internal/logging"
	"github.com/sweeney/jalousie-io/internal/logic"
	"github.com/sweeney/jalousie-io/internal/metrics"
	"github.com/sweeney/jalousie-io/internal/mqtt"
	"github.com/sweeney/jalousie-io/internal/sensor"
	"github.com/sweeney/jalousie-io/internal/status"
	"github.com/sweeney/jalousie-io/internal/web"
)

const (
	edgeQueue       = 256
	messageQueue    = 64
	shutdownTimeout = 5 * time.Second
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, opts)
		},
	}
}

func runCommand(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDaemon(ctx, cfg, logger)
}

// runDaemon wires hardware, broker and adapters and blocks until ctx is
// cancelled. Outputs are released, not switched off, on the way out.
func runDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	chip, err := openChip(cfg.GPIO.Chip)
	if err != nil {
		return err
	}
	defer func() {
		if err := chip.Close(); err != nil {
			logger.Error("close gpio", "error", err)
		}
	}()

	up, err := chip.Output(gpio.NameUp, cfg.GPIO.JalousieUp)
	if err != nil {
		return err
	}
	down, err := chip.Output(gpio.NameDown, cfg.GPIO.JalousieDown)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:   cfg.MQTT.Broker,
		HTTPAddr: cfg.HTTP.Addr,
		Chip:     cfg.GPIO.Chip,
	})

	store := status.NewStore(cfg.Status.Path, logger)
	if err := store.Load(); err != nil {
		logger.Error("failed to read status", "error", err)
	}

	dispatcher := action.NewDispatcher(action.Config{
		Up:       up,
		Down:     down,
		Timings:  timings(cfg.Action),
		Logger:   logger,
		Observer: tracker,
		Metrics:  m,
	})
	defer dispatcher.Wait()

	client, err := connectMQTT(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		QoS:      byte(cfg.MQTT.QoS),
		Buffer:   cfg.MQTT.Buffer,
		Logger:   logger,
		Async:    true,
		OnConnectionChange: func(connected bool) {
			tracker.SetMQTTConnected(connected)
			m.MQTTConnected(connected)
		},
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()
	tracker.SetMQTTConnected(client.IsConnected())
	m.MQTTConnected(client.IsConnected())

	l, err := newLoop(cfg, dispatcher, client, store, tracker, m, logger)
	if err != nil {
		return err
	}
	if l.sun != nil {
		defer l.sunReader.Close()
	}

	edges := make(chan gpio.Edge, edgeQueue)
	onEdge := func(e gpio.Edge) {
		select {
		case edges <- e:
		default:
			m.EdgeDropped()
		}
	}
	for _, offset := range l.offsets {
		if err := chip.Watch(offset, cfg.GPIO.GlitchFilter, onEdge); err != nil {
			return err
		}
	}

	msgs := make(chan mqtt.Message, messageQueue)
	onMessage := func(topic string, payload []byte) {
		select {
		case msgs <- mqtt.Message{Topic: topic, Payload: payload}:
		default:
			logger.Warn("message queue full, dropping", "topic", topic)
		}
	}
	for _, filter := range []string{mqtt.FilterJalousie, mqtt.FilterWind} {
		// Retried from the reconnect handler.
		if err := client.Subscribe(filter, onMessage); err != nil {
			logger.Error("subscribe failed", "filter", filter, "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Put the outputs in a defined state.
	if err := dispatcher.Dispatch(gctx, action.CommandOff); err != nil {
		logger.Error("startup command failed", "error", err)
	}

	windTicker := time.NewTicker(cfg.Wind.Tick)
	defer windTicker.Stop()

	var sunTick <-chan time.Time
	if l.sun != nil {
		t := time.NewTicker(cfg.Sun.Interval)
		defer t.Stop()
		sunTick = t.C
		l.sampleSun(time.Now())
	}

	g.Go(func() error {
		return l.run(gctx, edges, msgs, windTicker.C, sunTick)
	})

	if cfg.HTTP.Addr != "" {
		srv := web.New(gctx, web.Config{
			Addr:      cfg.HTTP.Addr,
			Tracker:   tracker,
			Commander: dispatcher,
			Gatherer:  reg,
			Logger:    logger,
		})
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	if cfg.Thermometer.Enabled {
		th := sensor.NewThermometer(
			sensor.IIOReader{Dir: cfg.Thermometer.Device},
			sensor.ThermometerConfig{Timeout: cfg.Thermometer.Timeout, FailureStreak: cfg.Thermometer.FailureStreak},
			client, tracker, m, logger,
		)
		g.Go(func() error {
			return th.Run(gctx, cfg.Thermometer.Interval)
		})
	}

	logger.Info("started",
		"broker", cfg.MQTT.Broker,
		"chip", cfg.GPIO.Chip,
		"wind_threshold", cfg.Wind.Threshold,
		"rain_level", l.rain.Level(),
	)

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// loop owns the adapters. Every edge, message and tick is handled on its
// goroutine.
type loop struct {
	buttons   *sensor.Buttons
	wind      *sensor.Wind
	rain      *sensor.Rain
	sun       *sensor.Sun // nil when the light sensor is disabled
	sunReader io.Closer
	router    *mqtt.Router

	lines   map[int]logic.Line
	offsets []int
	logger  *slog.Logger
}

func newLoop(cfg *config.Config, dispatcher *action.Dispatcher, pub sensor.Publisher, store *status.Store, tracker *status.Tracker, m *metrics.Metrics, logger *slog.Logger) (*loop, error) {
	rain, err := sensor.NewRain(logic.RainConfig{
		Quantum:     cfg.Rain.Quantum,
		MinPulse:    cfg.Rain.MinPulse,
		MinInterval: cfg.Rain.MinInterval,
	}, store, pub, tracker, m, logger)
	if err != nil {
		return nil, err
	}

	l := &loop{
		buttons: sensor.NewButtons(logic.PulseFilterConfig{
			Debounce:       cfg.Buttons.Debounce,
			StopGestureMin: cfg.Buttons.StopGestureMin,
			StopGestureMax: cfg.Buttons.StopGestureMax,
		}, dispatcher, m, logger),
		wind: sensor.NewWind(logic.WindConfig{
			Threshold:  cfg.Wind.Threshold,
			ResetDelay: cfg.Wind.ResetDelay,
			Window:     cfg.Wind.Window,
			Capacity:   cfg.Wind.Capacity,
			PhantomGap: cfg.Wind.PhantomGap,
			StopGap:    cfg.Wind.StopGap,
		}, dispatcher, pub, tracker, m, logger),
		rain:   rain,
		router: mqtt.NewRouter(dispatcher, logger),
		lines: map[int]logic.Line{
			cfg.GPIO.ButtonUp:   logic.LineButtonUp,
			cfg.GPIO.ButtonDown: logic.LineButtonDown,
			cfg.GPIO.Wind:       logic.LineWind,
			cfg.GPIO.Rain:       logic.LineRain,
		},
		offsets: []int{cfg.GPIO.ButtonUp, cfg.GPIO.ButtonDown, cfg.GPIO.Wind, cfg.GPIO.Rain},
		logger:  logger.With("component", "loop"),
	}

	if cfg.Sun.Enabled {
		reader, err := openADC(cfg.Sun.SPIPort)
		if err != nil {
			// The blind works without the light sensor.
			logger.Error("sun sensor disabled", "error", err)
		} else {
			l.sunReader = reader
			l.sun = sensor.NewSun(reader, cfg.Sun.Channel, cfg.Sun.Window, cfg.Sun.Samples, pub, tracker, m, logger)
		}
	}
	return l, nil
}

func (l *loop) run(ctx context.Context, edges <-chan gpio.Edge, msgs <-chan mqtt.Message, windTick, sunTick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case e := <-edges:
			l.handleEdge(ctx, e)

		case msg := <-msgs:
			l.handleMessage(ctx, msg)

		case now := <-windTick:
			l.wind.Tick(ctx, now)

		case now := <-sunTick:
			l.sampleSun(now)
		}
	}
}

func (l *loop) handleEdge(ctx context.Context, e gpio.Edge) {
	line, ok := l.lines[e.Offset]
	if !ok {
		l.logger.Error("edge on unknown pin", "offset", e.Offset)
		return
	}
	level := logic.Level(e.Level)

	switch line {
	case logic.LineButtonUp, logic.LineButtonDown:
		if _, err := l.buttons.HandleEdge(ctx, line, level, e.Time); err != nil {
			l.logger.Error("button command failed", "error", err)
		}
	case logic.LineWind:
		l.wind.HandleEdge(ctx, level, e.Time)
	case logic.LineRain:
		l.rain.HandleEdge(level, e.Time)
	}
}

func (l *loop) handleMessage(ctx context.Context, msg mqtt.Message) {
	err := l.router.Handle(ctx, msg.Topic, msg.Payload)
	switch {
	case err == nil, errors.Is(err, action.ErrWindAlarm):
	case errors.Is(err, mqtt.ErrUnhandledTopic):
		l.logger.Error("unhandled topic", "topic", msg.Topic)
	default:
		l.logger.Warn("message dropped", "topic", msg.Topic, "error", err)
	}
}

func (l *loop) sampleSun(now time.Time) {
	if err := l.sun.Sample(now); err != nil {
		l.logger.Warn("sun sample failed", "error", err)
	}
}

func timings(c config.ActionConfig) action.Timings {
	return action.Timings{
		Full:       c.Full,
		Stop:       c.Stop,
		ShadowDown: c.ShadowDown,
		ShadowTurn: c.ShadowTurn,
		Alarm:      c.Alarm,
		Individual: c.Individual,
	}
}
