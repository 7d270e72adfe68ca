package ports

import (
	"context"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
)

// WorkflowOrchestrator starts projection refreshes, durably when a workflow
// engine is available and inline otherwise.
type WorkflowOrchestrator interface {
	RefreshProjection(ctx context.Context, input types.RunProjectionInput) (*types.RunResult, error)
}
