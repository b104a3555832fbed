package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	routing "github.com/iziplay/rodb/pkg/api"
	"github.com/iziplay/rodb/pkg/live"
	"github.com/iziplay/rodb/pkg/logging"
	"github.com/iziplay/rodb/pkg/pipeline"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"gorm.io/plugin/opentelemetry/tracing"
)

const description = `Live data of the game server (status reports and rankings pushed by the
server) and the static database artifacts served under /data/.`

const defaultRebuildInterval = 24 * time.Hour

func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	exp, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName("rodb"),
			),
		),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
	return tp.Shutdown, nil
}

// rebuildInterval reads RODB_REBUILD_INTERVAL, 0 disables the rebuild loop
func rebuildInterval() time.Duration {
	value, ok := os.LookupEnv("RODB_REBUILD_INTERVAL")
	if !ok || value == "" {
		return defaultRebuildInterval
	}
	if value == "off" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid RODB_REBUILD_INTERVAL, using default", "value", value, "default", defaultRebuildInterval)
		return defaultRebuildInterval
	}
	return d
}

func rebuild(ctx context.Context, store *live.Store, cfg *pipeline.Config) {
	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		slog.Error("Rebuild failed", "error", err)
	}
	if report == nil {
		return
	}

	build := &live.Build{
		Date:     report.Started,
		Source:   filepath.Dir(cfg.Items.Dump),
		Output:   report.Output,
		Items:    report.Items.Records,
		Mobs:     report.Mobs.Records,
		Failed:   len(report.Failed),
		Complete: report.Complete(),
	}
	if err := store.RecordBuild(ctx, build); err != nil {
		slog.Error("Failed to record build", "error", err)
	}
}

func main() {
	ctx := context.Background()
	logging.Setup(os.Stdout)

	if _, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		shutdown, err := setupTracing(ctx)
		if err != nil {
			panic(err)
		}
		defer shutdown(ctx)
	}

	store, err := live.OpenFromEnv()
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	if err := store.Ping(ctx); err != nil {
		slog.Error("Database is not reachable", "error", err)
		os.Exit(1)
	}
	if err := store.DB.Use(tracing.NewPlugin()); err != nil {
		slog.Warn("Cannot enable database tracing", "error", err)
	}

	cfg, err := pipeline.ConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load pipeline config", "error", err)
		os.Exit(1)
	}
	if dataDir, ok := os.LookupEnv("RODB_DATA_DIR"); ok {
		cfg.Output = dataDir
	}

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Server"},
		AllowCredentials: false,
	}))

	addr := ":80"
	if port, hasPort := os.LookupEnv("API_PORT"); hasPort {
		addr = ":" + port
	}

	host := "http://localhost"
	if hostEnv, hasHost := os.LookupEnv("API_HOST"); hasHost {
		host = hostEnv
	} else {
		host += addr
	}

	config := huma.DefaultConfig("rodb API", "1.0.0")
	config.OpenAPI.Info.Description = description
	config.OpenAPI.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	config.DocsPath = "/"
	config.Servers = []*huma.Server{
		{URL: host},
	}
	api := humachi.New(router, config)

	routing.Setup(api, store)
	routing.ServeData(router, cfg.Output)

	server := &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(router, "api"),
	}

	go func() {
		slog.Info("Starting server", "addr", addr, "data", cfg.Output)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	go store.ComputeBoards(ctx, false)

	interval := rebuildInterval()
	if interval <= 0 {
		slog.Info("Artifact rebuild disabled")
		select {}
	}

	for {
		sleepDuration, err := store.NextBuild(ctx, interval)
		if err != nil {
			slog.Error("Failed to get last build", "error", err)
			os.Exit(1)
		}

		slog.Info("Next rebuild scheduled", "in", sleepDuration)
		time.Sleep(sleepDuration)

		rebuild(ctx, store, cfg)
	}
}
