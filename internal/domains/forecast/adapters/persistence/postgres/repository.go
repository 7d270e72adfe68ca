package postgres

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

var _ ports.RuleRepository = (*RuleRepository)(nil)

// RuleRepository persists recurring rules in PostgreSQL using GORM-mapped
// columns.
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository wires a PostgreSQL-backed repository. The caller owns the
// DB lifecycle.
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	repo := &RuleRepository{db: db}
	if db != nil {
		if err := db.AutoMigrate(&ruleRecord{}); err != nil {
			log.Printf("postgres rule repository migration failed: %v", err)
		}
	}
	return repo
}

type ruleRecord struct {
	ID           int64           `gorm:"primaryKey;column:id;autoIncrement"`
	Name         string          `gorm:"column:name"`
	Category     string          `gorm:"column:category;index"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(14,2)"`
	Frequency    string          `gorm:"column:frequency;type:varchar(32)"`
	RepeatsEvery int             `gorm:"column:repeats_every"`
	StartDate    time.Time       `gorm:"column:start_date"`
	EndDate      *time.Time      `gorm:"column:end_date"`
	Direction    string          `gorm:"column:direction;type:varchar(16)"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (ruleRecord) TableName() string { return "recurring_rules" }

func newRuleRecord(rule *domain.RecurringRule) ruleRecord {
	rec := ruleRecord{
		ID:           rule.ID,
		Name:         rule.Name,
		Category:     rule.Category,
		Amount:       rule.Amount,
		Frequency:    string(rule.Frequency),
		RepeatsEvery: rule.RepeatsEvery,
		StartDate:    rule.StartDate,
		Direction:    string(rule.Direction),
	}
	if rule.EndDate != nil {
		end := *rule.EndDate
		rec.EndDate = &end
	}
	return rec
}

func (rec *ruleRecord) toStored() (*types.StoredRule, error) {
	frequency, err := domain.ParseFrequency(rec.Frequency)
	if err != nil {
		// Contaminated row: surface it as a rule the series builder will
		// skip rather than poisoning the whole listing.
		frequency = domain.Frequency(rec.Frequency)
	}
	rule := &domain.RecurringRule{
		ID:           rec.ID,
		Name:         rec.Name,
		Category:     rec.Category,
		Amount:       rec.Amount,
		Frequency:    frequency,
		RepeatsEvery: rec.RepeatsEvery,
		StartDate:    domain.Midnight(rec.StartDate),
		Direction:    domain.AdjustDirection(rec.Direction),
	}
	if rec.EndDate != nil {
		end := domain.Midnight(*rec.EndDate)
		rule.EndDate = &end
	}
	return types.NewStoredRule(rule, rec.CreatedAt, rec.UpdatedAt), nil
}

// Save inserts or updates a rule aggregate.
func (r *RuleRepository) Save(ctx context.Context, rule *domain.RecurringRule) (*types.StoredRule, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, errors.New("cannot save nil rule")
	}
	record := newRuleRecord(rule)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":          record.Name,
				"category":      record.Category,
				"amount":        record.Amount,
				"frequency":     record.Frequency,
				"repeats_every": record.RepeatsEvery,
				"start_date":    record.StartDate,
				"end_date":      record.EndDate,
				"direction":     record.Direction,
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	rule.ID = record.ID
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a rule by identifier.
func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*types.StoredRule, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record ruleRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrRuleNotFound
		}
		return nil, err
	}
	return record.toStored()
}

// Delete removes a rule by identifier.
func (r *RuleRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&ruleRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrRuleNotFound
	}
	return nil
}

// List returns every stored rule ordered by identifier.
func (r *RuleRepository) List(ctx context.Context) ([]*types.StoredRule, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []ruleRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	result := make([]*types.StoredRule, 0, len(records))
	for i := range records {
		stored, err := records[i].toStored()
		if err != nil {
			return nil, err
		}
		result = append(result, stored)
	}
	return result, nil
}

func (r *RuleRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres rule repository not configured")
	}
	return nil
}
