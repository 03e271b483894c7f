package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/shiftbook/internal/cli"
	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/shift"
)

func shiftCmd(st *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "shift [time]",
		Short: "Show the business shift containing a moment",
		Long: `Print the shift window containing the given RFC3339 time, or now.
A shift starts at shift.cutover_hour local time, so anything sold before the
cutover belongs to the previous day's shift.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := st.cfg.ShiftCalculator()
			if err != nil {
				return err
			}

			at := time.Now()
			if len(args) == 1 {
				at, err = time.Parse(time.RFC3339, args[0])
				if err != nil {
					return common.NewUserError(fmt.Sprintf("invalid time %q: use RFC3339", args[0]), err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatWindow(calc.WindowFor(at)))
			return nil
		},
	}
}

func formatWindow(w shift.Window) string {
	return cli.RenderKeyValues([][2]string{
		{"Shift date", w.DateString()},
		{"Starts", w.Start.Format(time.RFC3339)},
		{"Ends", w.End.Format(time.RFC3339)},
	})
}
