package projection

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	foreports "github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

const (
	// RunProjectionActivityName recomputes and stores the balance series.
	RunProjectionActivityName = "forecast.activities.RunProjection"
)

// Activities groups activities that operate on the forecast bounded context.
type Activities struct {
	service foreports.Service
}

// NewActivities wires the forecast service into the Temporal activities bundle.
func NewActivities(service foreports.Service) *Activities {
	return &Activities{service: service}
}

// RunProjection recomputes the series from current rules and settings and swaps
// the stored projection. The underlying store replaces days from the anchor
// forward inside one transaction, so a retried attempt observes either the old
// series or the new one, never a partial mix.
func (a *Activities) RunProjection(ctx context.Context, input foretypes.RunProjectionInput) (*foretypes.RunResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("projection run activity not initialized")
		return nil, errors.New("projection run activity not initialized")
	}
	logger.Info("RunProjection activity started", "horizonDays", input.HorizonDays)
	result, err := a.service.RunProjection(ctx, input)
	if err != nil {
		logger.Error("RunProjection activity failed", "error", err)
		return nil, err
	}
	if result != nil {
		logger.Info("RunProjection activity completed", "runId", result.Projection.RunID, "days", len(result.Projection.Days))
	} else {
		logger.Info("RunProjection activity completed")
	}
	return result, nil
}
