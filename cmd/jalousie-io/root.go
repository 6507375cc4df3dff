package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/jalousie-io/internal/adc"
	"github.com/sweeney/jalousie-io/internal/config"
	"github.com/sweeney/jalousie-io/internal/gpio"
	"github.com/sweeney/jalousie-io/internal/mqtt"
)

// Hardware and broker constructors, replaced in tests.
var (
	openChip = func(name string) (gpio.Chip, error) {
		c, err := gpio.NewRealChip(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	connectMQTT = func(opts mqtt.Options) (mqtt.Client, error) {
		c, err := mqtt.Connect(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	openADC = func(port string) (adc.Reader, error) {
		r, err := adc.Open(port)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
)

type rootOptions struct {
	configPath string
}

// load reads the config file. Without --config the default path is used
// when it exists, otherwise built-in defaults.
func (o *rootOptions) load() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return config.Load(path)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "jalousie-io",
		Short: "Jalousie controller with wind interlock and weather telemetry",
		Long: `jalousie-io drives the UP/DOWN relays of a motorized blind from the wall
buttons and MQTT commands, raises the blind on wind alarm and publishes the
wind, rain, sun and room climate sensors. Without a subcommand it runs the daemon.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath+" if present)")

	root.AddCommand(
		newRunCmd(opts),
		newSendCmd(opts),
		newPrintStateCmd(opts),
	)
	return root
}
