// Command jalousie-io drives the jalousie relays from the wall buttons, MQTT
// commands and the wind interlock, and publishes the weather sensors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sweeney/jalousie-io/internal/gpio"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "fatal: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps errors to process exit codes. Hardware init failures get
// their own code so the service manager can tell them apart.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, gpio.ErrHardwareInit):
		return 2
	default:
		return 1
	}
}
