package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	foreactivities "github.com/fincast/balance-forecast/internal/platform/temporal/activities/projection"
)

// RunProjectionRefreshSequence executes the ordered set of activities needed to
// recompute the balance series and swap the stored projection.
func RunProjectionRefreshSequence(ctx workflow.Context, input foretypes.RunProjectionInput) (*foretypes.RunResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("projection refresh sequence started", "horizonDays", input.HorizonDays)
	runOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var result foretypes.RunResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, runOptions), foreactivities.RunProjectionActivityName, input).Get(ctx, &result)
	if err != nil {
		logger.Error("projection refresh sequence failed", "error", err)
		return nil, err
	}
	logger.Info("projection refresh sequence stored", "runId", result.Projection.RunID, "days", len(result.Projection.Days), "skippedRules", result.Summary.SkippedRules)
	return &result, nil
}
