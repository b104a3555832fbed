package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iziplay/rodb/pkg/logging"
	"github.com/iziplay/rodb/pkg/pipeline"
)

func main() {
	logging.Setup(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := pipeline.ConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load pipeline config", "error", err)
		os.Exit(1)
	}
	if dataDir, ok := os.LookupEnv("RODB_DATA_DIR"); ok {
		cfg.Output = dataDir
	}

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		slog.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}
	if !report.Complete() {
		slog.Warn("Pipeline completed with degraded collections",
			"items", report.Items.Error,
			"mobs", report.Mobs.Error,
		)
	}
}
