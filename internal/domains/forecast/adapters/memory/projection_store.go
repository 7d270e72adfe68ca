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

var _ ports.ProjectionStore = (*ProjectionStore)(nil)

// ProjectionStore keeps the stored series in memory, one record per date,
// mirroring the replace-from-date semantics of the Postgres adapter.
type ProjectionStore struct {
	mu     sync.RWMutex
	days   map[time.Time]domain.ProjectionDay
	runID  string
	anchor time.Time
	stamp  time.Time
}

func NewProjectionStore() *ProjectionStore {
	return &ProjectionStore{days: map[time.Time]domain.ProjectionDay{}}
}

func (s *ProjectionStore) Replace(_ context.Context, projection types.StoredProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := domain.Midnight(projection.AnchorDate)
	for date := range s.days {
		if !date.Before(from) {
			delete(s.days, date)
		}
	}
	for _, day := range projection.Days {
		s.days[domain.Midnight(day.Date)] = cloneDay(day)
	}
	s.runID = projection.RunID
	s.anchor = from
	s.stamp = projection.ComputedAt
	return nil
}

func (s *ProjectionStore) Latest(_ context.Context) (*types.StoredProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.days) == 0 {
		return nil, nil
	}
	dates := make([]time.Time, 0, len(s.days))
	for date := range s.days {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	days := make([]domain.ProjectionDay, 0, len(dates))
	for _, date := range dates {
		days = append(days, cloneDay(s.days[date]))
	}
	return &types.StoredProjection{
		RunID:      s.runID,
		AnchorDate: s.anchor,
		Days:       days,
		ComputedAt: s.stamp,
	}, nil
}

func cloneDay(day domain.ProjectionDay) domain.ProjectionDay {
	clone := day
	if len(day.Rules) > 0 {
		clone.Rules = append([]domain.RecurringRule(nil), day.Rules...)
	}
	return clone
}
