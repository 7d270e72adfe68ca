package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
)

// Run applies the schema for the forecast bounded context. Intended to
// replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&ruleRecord{},
		&projectionDayRecord{},
		&settingsRecord{},
	)
}

// Rule schema mirrors the forecast Postgres rule repository.
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

// Projection schema mirrors the forecast Postgres projection store.
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

// Settings schema mirrors the single-row forecast settings store.
type settingsRecord struct {
	ID              int64            `gorm:"primaryKey;column:id"`
	HorizonDays     int              `gorm:"column:horizon_days"`
	CurrentBalance  decimal.Decimal  `gorm:"column:current_balance;type:numeric(14,2)"`
	BalanceOverride *decimal.Decimal `gorm:"column:balance_override;type:numeric(14,2)"`
	CreatedAt       time.Time        `gorm:"column:created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at"`
}

func (settingsRecord) TableName() string { return "forecast_settings" }
