// Command ledger-init prepares the configured Google Sheets tab for use
// as a ledger: it writes the header row when the tab is still empty.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	gsheet "kakeibo/internal/ledger/google"
	applog "kakeibo/internal/log"
)

func main() {
	_ = godotenv.Load()

	appLogger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: applog.ComponentSheets,
	})
	applog.SetDefault(appLogger)
	logger := appLogger.Logger

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	if err := cli.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to write header row", "error", err)
		os.Exit(1)
	}

	logger.Info("Ledger sheet ready")
}
