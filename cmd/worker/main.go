package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	"github.com/fincast/balance-forecast/internal/clients/http/holidays"
	forecastmemory "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/memory"
	forecastobs "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/observability"
	forecastpostgres "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/persistence/postgres"
	foreapp "github.com/fincast/balance-forecast/internal/domains/forecast/application"
	foreports "github.com/fincast/balance-forecast/internal/domains/forecast/ports"
	projworkflows "github.com/fincast/balance-forecast/internal/durable/temporal/workflows/projection"
	platformobservability "github.com/fincast/balance-forecast/internal/platform/observability"
	platformpostgres "github.com/fincast/balance-forecast/internal/platform/postgres"
	foreactivities "github.com/fincast/balance-forecast/internal/platform/temporal/activities/projection"
)

func main() {
	ctx := context.Background()
	const serviceName = "forecast-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
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
	coreService := foreapp.NewService(rules, settings, buildHolidaySource(logger), store)
	service := forecastobs.New(
		coreService,
		forecastobs.WithLogger(logger),
		forecastobs.WithTracer(instruments.Tracer("internal.forecast.application")),
		forecastobs.WithMeter(instruments.Meter("internal.forecast.application")),
	)
	activities := foreactivities.NewActivities(service)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, projworkflows.RefreshTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(projworkflows.RefreshWorkflow, workflow.RegisterOptions{Name: projworkflows.RefreshWorkflowName})
	w.RegisterActivityWithOptions(activities.RunProjection, activity.RegisterOptions{Name: foreactivities.RunProjectionActivityName})

	logger.Info("worker listening", slog.String("taskQueue", projworkflows.RefreshTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildStores(db *gorm.DB) (foreports.RuleRepository, foreports.SettingsStore, foreports.ProjectionStore) {
	if db == nil {
		return forecastmemory.NewRuleRepository(), forecastmemory.NewSettingsStore(), forecastmemory.NewProjectionStore()
	}
	return forecastpostgres.NewRuleRepository(db), forecastpostgres.NewSettingsStore(db), forecastpostgres.NewProjectionStore(db)
}

func buildHolidaySource(logger *slog.Logger) foreports.HolidaySource {
	country := strings.TrimSpace(os.Getenv("HOLIDAY_COUNTRY"))
	if country == "" {
		logger.Warn("HOLIDAY_COUNTRY not set, projections will only adjust for weekends")
		return forecastmemory.NewHolidaySource()
	}
	source, err := holidays.NewClient(os.Getenv("HOLIDAY_API_BASE_URL"), country, &http.Client{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("failed to configure holiday client, projections will only adjust for weekends", slog.String("error", err.Error()))
		return forecastmemory.NewHolidaySource()
	}
	return source
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
