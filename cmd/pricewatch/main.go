package main

import (
	"context"

	"pricewatch/cmd/pricewatch/commands"
	"pricewatch/lib/serviceutil"
	"pricewatch/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "pricewatch")
	if err == nil {
		defer t.Shutdown(context.Background())
	}
	telemetry.InitSlog(false)

	commands.ExecuteContext(ctx)
}
