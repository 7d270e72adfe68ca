package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
	projworkflows "github.com/fincast/balance-forecast/internal/durable/temporal/workflows/projection"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalRefreshWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineRefreshWorkflows)(nil)
)

// TemporalRefreshWorkflows starts projection refresh workflows on a Temporal cluster.
type TemporalRefreshWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalRefreshWorkflows wires a Temporal client into the orchestrator.
func NewTemporalRefreshWorkflows(c client.Client) *TemporalRefreshWorkflows {
	return &TemporalRefreshWorkflows{client: c, taskQueue: projworkflows.RefreshTaskQueue}
}

// RefreshProjection starts the Temporal workflow that recomputes the stored series.
func (o *TemporalRefreshWorkflows) RefreshProjection(ctx context.Context, input foretypes.RunProjectionInput) (*foretypes.RunResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal refresh workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildRefreshWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		projworkflows.RefreshWorkflow,
		projworkflows.RefreshWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var result foretypes.RunResult
			if err := existingRun.Get(ctx, &result); err != nil {
				return nil, err
			}
			return &result, nil
		}
		return nil, err
	}
	var result foretypes.RunResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InlineRefreshWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineRefreshWorkflows struct {
	service ports.Service
}

// NewInlineRefreshWorkflows wraps the forecast service for synchronous execution.
func NewInlineRefreshWorkflows(service ports.Service) *InlineRefreshWorkflows {
	return &InlineRefreshWorkflows{service: service}
}

// RefreshProjection delegates to the application service without durable orchestration.
func (o *InlineRefreshWorkflows) RefreshProjection(ctx context.Context, input foretypes.RunProjectionInput) (*foretypes.RunResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline refresh workflows not configured")
	}
	return o.service.RunProjection(ctx, input)
}

func buildRefreshWorkflowID(input foretypes.RunProjectionInput, traceComponent string) string {
	// One refresh per anchor day: reruns for the same day re-attach to the
	// running workflow instead of racing it.
	if !input.AnchorDate.IsZero() {
		return fmt.Sprintf("projection-refresh-%s", input.AnchorDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("projection-refresh-%s", traceComponent)
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
