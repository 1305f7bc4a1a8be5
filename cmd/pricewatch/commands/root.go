package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"pricewatch/lib/configutil"
	configsqlite "pricewatch/lib/configutil/sqlite"
	"pricewatch/lib/restyutil"
	"pricewatch/lib/scrapers/psn"
	"pricewatch/lib/scrapers/steam"
	"pricewatch/lib/scrapers/storefront"
	"pricewatch/lib/sheets"
	"pricewatch/lib/sheets/sqlitestore"
	"pricewatch/services/pricewatch"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pricewatch",
	Short: "pricewatch tracks wishlist game prices across storefronts.",
}

var configFile string
var debugHttpDir string

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configFile, "config", "config.json5", "path to the config file",
	)
	rootCmd.PersistentFlags().StringVar(
		&debugHttpDir, "debug-http-dir", "",
		"dump raw storefront HTTP transactions to this directory",
	)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Database configsqlite.Struct `json:"database"`
	// Sheet is the worksheet holding the wishlist, "Wishlist" by
	// default.
	Sheet string `json:"sheet"`
	// ItemDelaySeconds throttles requests between wishlist items.
	ItemDelaySeconds int                    `json:"itemDelaySeconds"`
	Smtp             *pricewatch.SMTPConfig `json:"smtp"`
}

func newService() (pricewatch.Service, error) {
	config, err := configutil.ReadConfig[Config](configFile)
	if err != nil {
		return pricewatch.Service{}, fmt.Errorf("read config: %w", err)
	}

	db, err := config.Database.OpenDB(sqlitestore.Schema)
	if err != nil {
		return pricewatch.Service{}, fmt.Errorf("open database: %w", err)
	}

	var debugOutput restyutil.DumpOutput
	if debugHttpDir != "" {
		output, err := restyutil.NewFilesystemOutput(debugHttpDir)
		if err != nil {
			return pricewatch.Service{}, fmt.Errorf("create http dump dir: %w", err)
		}
		debugOutput = output
	}

	scrapers := []storefront.Storefront{
		steam.NewScraper(steam.Options{DebugOutput: debugOutput}),
		psn.NewScraper(psn.Options{DebugOutput: debugOutput}),
	}

	opts := pricewatch.Options{Sheet: config.Sheet}
	if config.ItemDelaySeconds > 0 {
		opts.ItemDelay = time.Duration(config.ItemDelaySeconds) * time.Second
	}
	if config.Smtp != nil {
		opts.Notifier = pricewatch.NewNotifier(*config.Smtp)
	}

	store := sheets.NewCache(sqlitestore.New(db), time.Minute, nil)
	return pricewatch.NewService(store, scrapers, opts), nil
}
