package commands

import (
	"fmt"
	"os"

	"pricewatch/services/pricewatch"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Performs a single pass over the wishlist.",
	Run: func(cmd *cobra.Command, args []string) {
		service, err := newService()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		summary, err := service.Run(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		renderSummary(summary)
	},
}

func renderSummary(summary pricewatch.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Game", "Source", "Match", "Score", "Price", "New Low"})

	for _, outcome := range summary.Outcomes {
		newLow := ""
		if outcome.NewLow {
			newLow = "yes"
		}
		t.AppendRow(table.Row{
			outcome.Game,
			outcome.Source,
			outcome.Result.Title,
			outcome.Result.Score,
			outcome.Result.PriceText,
			newLow,
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d processed, %d skipped", summary.Processed, summary.Skipped),
	})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
