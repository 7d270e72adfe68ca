package memory

import (
	"context"
	"time"

	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

var _ ports.HolidaySource = (*HolidaySource)(nil)

// HolidaySource serves a fixed holiday table, for tests and for deployments
// without a holiday API configured.
type HolidaySource struct {
	set domain.HolidaySet
	err error
}

func NewHolidaySource(dates ...time.Time) *HolidaySource {
	return &HolidaySource{set: domain.NewHolidaySet(dates...)}
}

// NewFailingHolidaySource always errors, exercising the empty-set fallback.
func NewFailingHolidaySource(err error) *HolidaySource {
	return &HolidaySource{err: err}
}

func (h *HolidaySource) HolidaysBetween(_ context.Context, from, to time.Time) (domain.HolidaySet, error) {
	if h.err != nil {
		return nil, h.err
	}
	result := make(domain.HolidaySet)
	for key := range h.set {
		day, err := time.Parse("2006-01-02", key)
		if err != nil {
			continue
		}
		if day.Before(domain.Midnight(from)) || day.After(domain.Midnight(to)) {
			continue
		}
		result.Add(day)
	}
	return result, nil
}
