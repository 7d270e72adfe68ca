package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	foreapp "github.com/fincast/balance-forecast/internal/domains/forecast/application"
	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	foreports "github.com/fincast/balance-forecast/internal/domains/forecast/ports"

	"github.com/fincast/balance-forecast/internal/clients/http/holidays"
	forecastmemory "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/memory"
	forecastpostgres "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/persistence/postgres"
	platformpostgres "github.com/fincast/balance-forecast/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot refresh the stored projection")
	}

	service := foreapp.NewService(
		forecastpostgres.NewRuleRepository(db),
		forecastpostgres.NewSettingsStore(db),
		holidaySourceFromEnv(logger),
		forecastpostgres.NewProjectionStore(db),
	)
	result, err := service.RunProjection(ctx, foretypes.RunProjectionInput{})
	if err != nil {
		log.Fatalf("failed to refresh projection: %v", err)
	}
	log.Printf("projection refresh completed: run %s, %d days, %d rules skipped",
		result.Projection.RunID, len(result.Projection.Days), result.Summary.SkippedRules)
}

func holidaySourceFromEnv(logger *slog.Logger) foreports.HolidaySource {
	country := strings.TrimSpace(os.Getenv("HOLIDAY_COUNTRY"))
	if country == "" {
		logger.Warn("HOLIDAY_COUNTRY not set, refresh will only adjust for weekends")
		return forecastmemory.NewHolidaySource()
	}
	source, err := holidays.NewClient(os.Getenv("HOLIDAY_API_BASE_URL"), country, &http.Client{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("failed to configure holiday client, refresh will only adjust for weekends", slog.String("error", err.Error()))
		return forecastmemory.NewHolidaySource()
	}
	return source
}
