package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

var _ ports.RuleRepository = (*RuleRepository)(nil)

// RuleRepository is an in-memory rule persistence adapter used by tests and
// as the DSN-less dev fallback.
type RuleRepository struct {
	mu     sync.RWMutex
	rules  map[int64]*types.StoredRule
	nextID int64
	now    func() time.Time
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: map[int64]*types.StoredRule{}, nextID: 1, now: time.Now}
}

// WithClock overrides the metadata clock for deterministic tests.
func (r *RuleRepository) WithClock(now func() time.Time) *RuleRepository {
	if now != nil {
		r.now = now
	}
	return r
}

func (r *RuleRepository) Save(_ context.Context, rule *domain.RecurringRule) (*types.StoredRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := rule.Clone()
	if clone.ID == 0 {
		clone.ID = r.nextID
		r.nextID++
	} else if clone.ID >= r.nextID {
		r.nextID = clone.ID + 1
	}
	now := r.now()
	createdAt := now
	if existing, ok := r.rules[clone.ID]; ok {
		createdAt = existing.Metadata.CreatedAt
	}
	stored := types.NewStoredRule(clone, createdAt, now)
	r.rules[clone.ID] = stored
	rule.ID = clone.ID
	return cloneStored(stored), nil
}

func (r *RuleRepository) GetByID(_ context.Context, id int64) (*types.StoredRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.rules[id]
	if !ok {
		return nil, ports.ErrRuleNotFound
	}
	return cloneStored(stored), nil
}

func (r *RuleRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return ports.ErrRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *RuleRepository) List(_ context.Context) ([]*types.StoredRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*types.StoredRule, 0, len(r.rules))
	for _, stored := range r.rules {
		result = append(result, cloneStored(stored))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Rule.ID < result[j].Rule.ID })
	return result, nil
}

func cloneStored(stored *types.StoredRule) *types.StoredRule {
	if stored == nil {
		return nil
	}
	return &types.StoredRule{Rule: stored.Rule.Clone(), Metadata: stored.Metadata}
}
