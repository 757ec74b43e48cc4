package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/energy-data-aggregation/internal/api/http"
	"github.com/i474232898/energy-data-aggregation/internal/config"
	"github.com/i474232898/energy-data-aggregation/internal/geo"
	"github.com/i474232898/energy-data-aggregation/internal/ledger"
	"github.com/i474232898/energy-data-aggregation/internal/logging"
	"github.com/i474232898/energy-data-aggregation/internal/market"
	"github.com/i474232898/energy-data-aggregation/internal/market/entsoe"
	"github.com/i474232898/energy-data-aggregation/internal/scheduler"
	"github.com/i474232898/energy-data-aggregation/internal/store"
	"github.com/i474232898/energy-data-aggregation/internal/upstream"
	"github.com/i474232898/energy-data-aggregation/internal/weather"
	"github.com/i474232898/energy-data-aggregation/internal/weather/providers"
)

const serviceName = "energy-data-aggregation"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ledgerStore, err := store.Open(cfg.StoreBackend, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := ledgerStore.Close(); err != nil {
			log.Warn("closing store", zap.Error(err))
		}
	}()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	backoff := upstream.DefaultBackoff
	backoff.MaxRetries = cfg.UpstreamRetries

	tables, err := entsoe.LoadTables()
	if err != nil {
		return err
	}
	entsoeClient := entsoe.NewClient(
		upstream.New("entsoe", httpClient, backoff, log),
		cfg.EntsoeBaseURL, cfg.EntsoeAPIKey, tables, log,
	)
	if cfg.EntsoeAPIKey == "" {
		log.Warn("ENTSOE_API_KEY is not set; market prices will be unavailable")
	}

	ledgerSvc := ledger.NewService(ledgerStore, log, ledger.WithLocation(cfg.LedgerLocation))
	marketSvc := market.NewService(entsoeClient, log,
		market.WithCacheTTL(cfg.PriceCacheTTL),
		market.WithLocation(cfg.LedgerLocation),
	)
	weatherSvc := weather.NewService(
		providers.NewOpenMeteoProvider(upstream.New("openmeteo", httpClient, backoff, log), cfg.OpenMeteoBaseURL),
		providers.NewWeatherAPIProvider(upstream.New("weatherapi", httpClient, backoff, log), cfg.WeatherAPIURL, cfg.WeatherAPIKey),
		geo.NewResolver(cfg.GeocoderAPIKey, log),
		log,
	)

	// Scheduler that keeps day-ahead prices warm.
	sched := scheduler.New(cfg.PriceCountries, cfg.PriceRefresh, marketSvc, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler(log),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterSystemRoutes(app, serviceName, ledgerStore)
	httpapi.RegisterRoutes(app, httpapi.Services{
		Ledger:  ledgerSvc,
		Market:  marketSvc,
		Weather: weatherSvc,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	return nil
}
