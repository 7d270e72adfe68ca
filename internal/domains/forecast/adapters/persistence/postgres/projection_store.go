package postgres

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

var _ ports.ProjectionStore = (*ProjectionStore)(nil)

// ProjectionStore persists projection runs in PostgreSQL, one row per
// horizon day.
type ProjectionStore struct {
	db *gorm.DB
}

// NewProjectionStore wires a PostgreSQL-backed projection sink.
func NewProjectionStore(db *gorm.DB) *ProjectionStore {
	store := &ProjectionStore{db: db}
	if db != nil {
		if err := db.AutoMigrate(&projectionDayRecord{}); err != nil {
			log.Printf("postgres projection store migration failed: %v", err)
		}
	}
	return store
}

type projectionDayRecord struct {
	Date       time.Time              `gorm:"primaryKey;column:date"`
	RunID      string                 `gorm:"column:run_id;type:varchar(64);index"`
	AnchorDate time.Time              `gorm:"column:anchor_date"`
	Balance    decimal.Decimal        `gorm:"column:balance;type:numeric(14,2)"`
	Rules      []domain.RecurringRule `gorm:"column:rules;serializer:json"`
	IsHighest  bool                   `gorm:"column:is_highest"`
	IsLowest   bool                   `gorm:"column:is_lowest"`
	ComputedAt time.Time              `gorm:"column:computed_at;index"`
	CreatedAt  time.Time              `gorm:"column:created_at"`
}

func (projectionDayRecord) TableName() string { return "projection_days" }

// Replace swaps every stored day from the run's anchor onward for the new
// series, inside a single transaction. The series was computed in full
// before this call, so a failure leaves the prior projection intact.
func (s *ProjectionStore) Replace(ctx context.Context, projection types.StoredProjection) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	from := domain.Midnight(projection.AnchorDate)
	records := make([]projectionDayRecord, 0, len(projection.Days))
	for _, day := range projection.Days {
		records = append(records, projectionDayRecord{
			Date:       domain.Midnight(day.Date),
			RunID:      projection.RunID,
			AnchorDate: from,
			Balance:    day.Balance,
			Rules:      day.Rules,
			IsHighest:  day.IsHighest,
			IsLowest:   day.IsLowest,
			ComputedAt: projection.ComputedAt,
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date >= ?", from).Delete(&projectionDayRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 100).Error
	})
}

// Latest returns the stored series ordered by date, or nil when no run has
// been persisted yet.
func (s *ProjectionStore) Latest(ctx context.Context) (*types.StoredProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []projectionDayRecord
	if err := s.db.WithContext(ctx).Order("date").Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	projection := &types.StoredProjection{Days: make([]domain.ProjectionDay, 0, len(records))}
	for _, rec := range records {
		projection.Days = append(projection.Days, domain.ProjectionDay{
			Date:      domain.Midnight(rec.Date),
			Balance:   rec.Balance,
			Rules:     rec.Rules,
			IsHighest: rec.IsHighest,
			IsLowest:  rec.IsLowest,
		})
		// The newest run owns the projection identity.
		if rec.ComputedAt.After(projection.ComputedAt) {
			projection.RunID = rec.RunID
			projection.AnchorDate = domain.Midnight(rec.AnchorDate)
			projection.ComputedAt = rec.ComputedAt
		}
	}
	return projection, nil
}

func (s *ProjectionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres projection store not configured")
	}
	return nil
}
