package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sweeney/jalousie-io/internal/action"
	"github.com/sweeney/jalousie-io/internal/logging"
	"github.com/sweeney/jalousie-io/internal/mqtt"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <command>",
		Short: "Publish a command to a running daemon",
		Long: "Publishes an empty command message on Jalousie/cmnd/<name>.\n\nCommands: " +
			strings.Join(mqtt.CommandNames(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, opts, args[0])
		},
	}
}

func sendCommand(cmd *cobra.Command, opts *rootOptions, name string) error {
	command, err := action.ParseCommand(name)
	if err != nil {
		return err
	}
	topic := mqtt.TopicForCommand(command)

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	// A second connection with the daemon's client ID would kick it off the broker.
	client, err := connectMQTT(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID + "-send-" + uuid.NewString()[:8],
		QoS:      byte(cfg.MQTT.QoS),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	if err := client.Publish(topic, []byte("{}"), false); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", topic)
	return nil
}
