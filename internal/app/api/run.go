package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	"github.com/fincast/balance-forecast/internal/clients/http/holidays"
	forecastmemory "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/memory"
	forecastobs "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/observability"
	forecastpostgres "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/persistence/postgres"
	forecastworkflows "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/workflows"
	foreapp "github.com/fincast/balance-forecast/internal/domains/forecast/application"
	foreports "github.com/fincast/balance-forecast/internal/domains/forecast/ports"
	"github.com/fincast/balance-forecast/internal/httpapi"
	platformobservability "github.com/fincast/balance-forecast/internal/platform/observability"
	platformpostgres "github.com/fincast/balance-forecast/internal/platform/postgres"
)

// Run boots the forecast HTTP API with observability, stores, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "forecast-api"
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	rules, settings, store := buildStores(db)
	if err := seedSettings(ctx, settings, cfg); err != nil {
		logger.Warn("failed to seed default settings", slog.String("error", err.Error()))
	}

	coreService := foreapp.NewService(rules, settings, buildHolidaySource(cfg, logger), store)
	service := forecastobs.New(
		coreService,
		forecastobs.WithLogger(logger),
		forecastobs.WithTracer(instruments.Tracer("internal.forecast.application")),
		forecastobs.WithMeter(instruments.Meter("internal.forecast.application")),
	)
	var workflows foreports.WorkflowOrchestrator = forecastworkflows.NewInlineRefreshWorkflows(service)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running projection refresh inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = forecastworkflows.NewTemporalRefreshWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	router := httpapi.NewRouter(httpapi.NewForecastAPI(service, workflows))
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("forecast API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("forecast API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildStores(db *gorm.DB) (foreports.RuleRepository, foreports.SettingsStore, foreports.ProjectionStore) {
	if db == nil {
		return forecastmemory.NewRuleRepository(), forecastmemory.NewSettingsStore(), forecastmemory.NewProjectionStore()
	}
	return forecastpostgres.NewRuleRepository(db), forecastpostgres.NewSettingsStore(db), forecastpostgres.NewProjectionStore(db)
}

// seedSettings writes the default run configuration on first boot so the
// projection endpoints work without manual setup.
func seedSettings(ctx context.Context, settings foreports.SettingsStore, cfg Config) error {
	_, err := settings.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, foreports.ErrSettingsNotFound) {
		return err
	}
	return settings.Put(ctx, foreports.Settings{
		HorizonDays:    cfg.DefaultHorizonDays,
		CurrentBalance: decimal.Zero,
	})
}

func buildHolidaySource(cfg Config, logger *slog.Logger) foreports.HolidaySource {
	if cfg.HolidayCountry == "" {
		if logger != nil {
			logger.Warn("HOLIDAY_COUNTRY not set, projections will only adjust for weekends")
		}
		return forecastmemory.NewHolidaySource()
	}
	source, err := holidays.NewClient(cfg.HolidayAPIBaseURL, cfg.HolidayCountry, nil)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to configure holiday client, projections will only adjust for weekends", slog.String("error", err.Error()))
		}
		return forecastmemory.NewHolidaySource()
	}
	return source
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
