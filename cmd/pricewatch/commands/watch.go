package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"pricewatch/lib/telemetry"

	"github.com/spf13/cobra"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(
		&watchInterval, "every", time.Hour*24,
		"time between wishlist passes",
	)
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Runs wishlist passes on an interval until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		service, err := newService()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		telemetry.InstrumentPerfStats(ctx)

		for {
			summary, err := service.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// a failed pass shouldn't kill the daemon, the next
				// interval retries
				slog.ErrorContext(ctx, "wishlist pass failed", "err", err)
			} else {
				renderSummary(summary)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(watchInterval):
			}
		}
	},
}
