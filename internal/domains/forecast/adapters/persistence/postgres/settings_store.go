package postgres

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

// settingsRowID pins the configuration to a single row.
const settingsRowID = 1

// SettingsStore persists the forecast run configuration in PostgreSQL.
type SettingsStore struct {
	db *gorm.DB
}

// NewSettingsStore wires a PostgreSQL-backed settings store.
func NewSettingsStore(db *gorm.DB) *SettingsStore {
	store := &SettingsStore{db: db}
	if db != nil {
		if err := db.AutoMigrate(&settingsRecord{}); err != nil {
			log.Printf("postgres settings store migration failed: %v", err)
		}
	}
	return store
}

type settingsRecord struct {
	ID              int64            `gorm:"primaryKey;column:id"`
	HorizonDays     int              `gorm:"column:horizon_days"`
	CurrentBalance  decimal.Decimal  `gorm:"column:current_balance;type:numeric(14,2)"`
	BalanceOverride *decimal.Decimal `gorm:"column:balance_override;type:numeric(14,2)"`
	CreatedAt       time.Time        `gorm:"column:created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at"`
}

func (settingsRecord) TableName() string { return "forecast_settings" }

func (s *SettingsStore) Get(ctx context.Context) (ports.Settings, error) {
	if err := s.ensureDB(); err != nil {
		return ports.Settings{}, err
	}
	var record settingsRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", settingsRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Settings{}, ports.ErrSettingsNotFound
		}
		return ports.Settings{}, err
	}
	settings := ports.Settings{
		HorizonDays:    record.HorizonDays,
		CurrentBalance: record.CurrentBalance,
	}
	if record.BalanceOverride != nil {
		override := *record.BalanceOverride
		settings.BalanceOverride = &override
	}
	return settings, nil
}

func (s *SettingsStore) Put(ctx context.Context, settings ports.Settings) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := settingsRecord{
		ID:             settingsRowID,
		HorizonDays:    settings.HorizonDays,
		CurrentBalance: settings.CurrentBalance,
	}
	if settings.BalanceOverride != nil {
		override := *settings.BalanceOverride
		record.BalanceOverride = &override
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"horizon_days":     record.HorizonDays,
				"current_balance":  record.CurrentBalance,
				"balance_override": record.BalanceOverride,
				"updated_at":       gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
}

func (s *SettingsStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres settings store not configured")
	}
	return nil
}
