package ports

import (
	"context"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
)

// Service defines the forecast use cases exposed to adapters (driving port).
type Service interface {
	CreateRule(ctx context.Context, input types.CreateRuleInput) (*types.StoredRule, error)
	UpdateRule(ctx context.Context, input types.UpdateRuleInput) (*types.StoredRule, error)
	DeleteRule(ctx context.Context, input types.RuleIdentifier) error
	GetRule(ctx context.Context, input types.RuleIdentifier) (*types.StoredRule, error)
	ListRules(ctx context.Context) ([]*types.StoredRule, error)

	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, settings Settings) (Settings, error)

	RunProjection(ctx context.Context, input types.RunProjectionInput) (*types.RunResult, error)
	LatestProjection(ctx context.Context) (*types.StoredProjection, error)
}
