package projection

import (
	"go.temporal.io/sdk/workflow"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/durable/temporal/sequences"
)

const (
	// RefreshWorkflowName is the public identifier for registering the workflow.
	RefreshWorkflowName = "forecast.workflows.Refresh"
	// RefreshTaskQueue is the queue consumed by the worker processing projection refreshes.
	RefreshTaskQueue = "PROJECTION_REFRESH"
)

// RefreshWorkflowInput captures the payload required to recompute the balance series.
type RefreshWorkflowInput struct {
	Command foretypes.RunProjectionInput
	TraceID string
}

// RefreshWorkflow orchestrates the activities needed to recompute and store a projection.
func RefreshWorkflow(ctx workflow.Context, input RefreshWorkflowInput) (*foretypes.RunResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("RefreshWorkflow started", withTraceID(input.TraceID, "horizonDays", input.Command.HorizonDays)...)
	result, err := sequences.RunProjectionRefreshSequence(ctx, input.Command)
	if err != nil {
		logger.Error("RefreshWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	if result != nil {
		logger.Info("RefreshWorkflow completed", withTraceID(input.TraceID, "runId", result.Projection.RunID, "days", len(result.Projection.Days))...)
	} else {
		logger.Info("RefreshWorkflow completed", withTraceID(input.TraceID)...)
	}
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
