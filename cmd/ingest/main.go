// Command ingest unpacks the EEA archive and writes the combined, cleaned
// dataset as parquet and CSV.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"berlin-airquality/internal/app"
	"berlin-airquality/internal/config"
	"berlin-airquality/internal/logging"
)

const appName = "ingest"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := app.RunIngest(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("ingest interrupted")
		} else {
			logger.Error("ingest failed", "err", err)
		}
		os.Exit(1)
	}

	logger.Info("ingest finished",
		"run_id", rep.RunID,
		"rows", rep.RowsAfter,
		"parquet", rep.ParquetPath,
		"csv", rep.CSVPath,
	)
}
