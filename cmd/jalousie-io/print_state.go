package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/jalousie-io/internal/gpio"
	"github.com/sweeney/jalousie-io/internal/logic"
)

func newPrintStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print the current level of every input line and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			chip, err := openChip(cfg.GPIO.Chip)
			if err != nil {
				return err
			}
			defer chip.Close()

			inputs := []struct {
				name   logic.Line
				offset int
			}{
				{logic.LineButtonUp, cfg.GPIO.ButtonUp},
				{logic.LineButtonDown, cfg.GPIO.ButtonDown},
				{logic.LineWind, cfg.GPIO.Wind},
				{logic.LineRain, cfg.GPIO.Rain},
			}

			out := cmd.OutOrStdout()
			for _, in := range inputs {
				if err := chip.Watch(in.offset, 0, func(gpio.Edge) {}); err != nil {
					return err
				}
				v, err := chip.Read(in.offset)
				if err != nil {
					return fmt.Errorf("read %s: %w", in.name, err)
				}
				fmt.Fprintf(out, "%-12s pin %-3d %s\n", in.name, in.offset, logic.Level(v))
			}
			return nil
		},
	}
}
