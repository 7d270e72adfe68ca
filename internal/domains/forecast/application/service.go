package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

// Service orchestrates the forecast bounded context use cases.
type Service struct {
	rules    ports.RuleRepository
	settings ports.SettingsStore
	holidays ports.HolidaySource
	store    ports.ProjectionStore
	now      func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithClock overrides the wall clock, keeping runs reproducible in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the forecast service with its dependencies.
func NewService(rules ports.RuleRepository, settings ports.SettingsStore, holidays ports.HolidaySource, store ports.ProjectionStore, opts ...Option) *Service {
	s := &Service{
		rules:    rules,
		settings: settings,
		holidays: holidays,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateRule persists a new recurring rule aggregate.
func (s *Service) CreateRule(ctx context.Context, input types.CreateRuleInput) (*types.StoredRule, error) {
	rule, err := buildRuleFromMutation(input.RuleMutationInput)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.rules.Save(ctx, rule)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// UpdateRule applies a partial mutation to an existing rule.
func (s *Service) UpdateRule(ctx context.Context, input types.UpdateRuleInput) (*types.StoredRule, error) {
	stored, err := s.rules.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := applyPartialMutation(stored.Rule, input.RuleMutationInput); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.rules.Save(ctx, stored.Rule)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, input types.RuleIdentifier) error {
	if err := s.rules.Delete(ctx, input.ID); err != nil {
		return mapError(err)
	}
	return nil
}

// GetRule loads a single rule aggregate.
func (s *Service) GetRule(ctx context.Context, input types.RuleIdentifier) (*types.StoredRule, error) {
	stored, err := s.rules.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return stored, nil
}

// ListRules exposes all rules for projection runs and management views.
func (s *Service) ListRules(ctx context.Context) ([]*types.StoredRule, error) {
	result, err := s.rules.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// GetSettings loads the run configuration.
func (s *Service) GetSettings(ctx context.Context) (ports.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return ports.Settings{}, configError("load settings", err)
	}
	return settings, nil
}

// UpdateSettings stores a new run configuration.
func (s *Service) UpdateSettings(ctx context.Context, settings ports.Settings) (ports.Settings, error) {
	if settings.HorizonDays < 1 {
		return ports.Settings{}, configError("update settings", domain.ErrInvalidHorizon)
	}
	if err := s.settings.Put(ctx, settings); err != nil {
		return ports.Settings{}, configError("store settings", err)
	}
	return settings, nil
}

// RunProjection computes and atomically stores a fresh projection series.
//
// Missing settings or an unreachable rule source abort the run before the
// sink is touched. Holiday lookup failures degrade to an empty set and are
// flagged in the summary; per-rule data problems are counted, never fatal.
func (s *Service) RunProjection(ctx context.Context, input types.RunProjectionInput) (*types.RunResult, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, configError("load settings", err)
	}
	horizon := input.HorizonDays
	if horizon == 0 {
		horizon = settings.HorizonDays
	}
	if horizon < 1 {
		return nil, configError("resolve horizon", domain.ErrInvalidHorizon)
	}
	anchor := input.AnchorDate
	if anchor.IsZero() {
		anchor = s.now()
	}
	anchor = domain.Midnight(anchor)

	storedRules, err := s.rules.List(ctx)
	if err != nil {
		return nil, configError("load rules", err)
	}
	rules := make([]domain.RecurringRule, 0, len(storedRules))
	for _, stored := range storedRules {
		if stored == nil || stored.Rule == nil {
			continue
		}
		rules = append(rules, *stored.Rule.Clone())
	}

	holidays, holidayFallback := s.lookupHolidays(ctx, anchor, horizon)

	series, err := domain.BuildSeries(domain.SeriesInput{
		CurrentBalance: settings.StartingBalance(),
		Rules:          rules,
		Holidays:       holidays,
		HorizonDays:    horizon,
		AnchorDate:     anchor,
	})
	if err != nil {
		return nil, configError("build series", err)
	}
	series.Summary.HolidayFallback = holidayFallback

	projection := types.StoredProjection{
		RunID:      uuid.NewString(),
		AnchorDate: anchor,
		Days:       series.Days,
		ComputedAt: s.now().UTC(),
	}
	if err := s.store.Replace(ctx, projection); err != nil {
		return nil, err
	}
	return &types.RunResult{Projection: projection, Summary: series.Summary}, nil
}

// LatestProjection returns the most recently stored series.
func (s *Service) LatestProjection(ctx context.Context) (*types.StoredProjection, error) {
	return s.store.Latest(ctx)
}

func (s *Service) lookupHolidays(ctx context.Context, anchor time.Time, horizon int) (domain.HolidaySet, bool) {
	if s.holidays == nil {
		return nil, false
	}
	holidays, err := s.holidays.HolidaysBetween(ctx, anchor, anchor.AddDate(0, 0, horizon))
	if err != nil {
		// Weekend adjustment still applies; only holiday shifting degrades.
		return nil, true
	}
	return holidays, false
}

func buildRuleFromMutation(input types.RuleMutationInput) (*domain.RecurringRule, error) {
	name := ""
	if input.Name != nil {
		name = *input.Name
	}
	category := ""
	if input.Category != nil {
		category = *input.Category
	}
	frequency := domain.Frequency("")
	if input.Frequency != nil {
		parsed, err := domain.ParseFrequency(*input.Frequency)
		if err != nil {
			return nil, err
		}
		frequency = parsed
	}
	repeats := 1
	if input.RepeatsEvery != nil {
		repeats = *input.RepeatsEvery
	}
	start := time.Time{}
	if input.StartDate != nil {
		start = *input.StartDate
	}
	amount := decimal.Zero
	if input.Amount != nil {
		amount = *input.Amount
	}
	rule, err := domain.NewRecurringRule(input.ID, name, category, amount, frequency, repeats, start, input.EndDate)
	if err != nil {
		return nil, err
	}
	if input.Direction != nil {
		if err := rule.OverrideDirection(domain.AdjustDirection(*input.Direction)); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func applyPartialMutation(rule *domain.RecurringRule, input types.RuleMutationInput) error {
	if input.Name != nil {
		if err := rule.Rename(*input.Name); err != nil {
			return err
		}
	}
	if input.Category != nil {
		rule.Category = *input.Category
	}
	if input.Amount != nil {
		rule.Amount = *input.Amount
	}
	if input.Frequency != nil {
		parsed, err := domain.ParseFrequency(*input.Frequency)
		if err != nil {
			return err
		}
		rule.Frequency = parsed
	}
	if input.RepeatsEvery != nil {
		rule.RepeatsEvery = *input.RepeatsEvery
	}
	if input.StartDate != nil {
		rule.StartDate = domain.Midnight(*input.StartDate)
	}
	if input.ClearEndDate {
		rule.EndDate = nil
	} else if input.EndDate != nil {
		end := domain.Midnight(*input.EndDate)
		rule.EndDate = &end
	}
	if input.Direction != nil {
		if err := rule.OverrideDirection(domain.AdjustDirection(*input.Direction)); err != nil {
			return err
		}
	}
	return rule.Validate()
}
