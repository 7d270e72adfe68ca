//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
	"github.com/fincast/balance-forecast/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("forecast_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// Run migrations
	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRuleRepository_SaveAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRuleRepository(db)
	ctx := context.Background()

	rule, err := domain.NewRecurringRule(0, "rent", "housing", decimal.NewFromInt(-1200), domain.FrequencyMonthly, 1, day(2024, time.January, 31), nil)
	require.NoError(t, err)

	stored, err := repo.Save(ctx, rule)
	require.NoError(t, err)
	assert.NotZero(t, stored.Rule.ID)
	assert.False(t, stored.Metadata.CreatedAt.IsZero())
	assert.False(t, stored.Metadata.UpdatedAt.IsZero())

	retrieved, err := repo.GetByID(ctx, stored.Rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "rent", retrieved.Rule.Name)
	assert.Equal(t, domain.FrequencyMonthly, retrieved.Rule.Frequency)
	assert.Equal(t, domain.DirectionForward, retrieved.Rule.Direction)
	assert.True(t, retrieved.Rule.Amount.Equal(decimal.NewFromInt(-1200)))
	assert.Equal(t, day(2024, time.January, 31), retrieved.Rule.StartDate)
}

func TestRuleRepository_SaveUpsertsExisting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRuleRepository(db)
	ctx := context.Background()

	rule, err := domain.NewRecurringRule(0, "gym", "other", decimal.NewFromInt(-40), domain.FrequencyWeekly, 1, day(2024, time.January, 3), nil)
	require.NoError(t, err)
	stored, err := repo.Save(ctx, rule)
	require.NoError(t, err)

	require.NoError(t, stored.Rule.Rename("gym membership"))
	stored.Rule.RepeatsEvery = 2
	updated, err := repo.Save(ctx, stored.Rule)
	require.NoError(t, err)

	assert.Equal(t, stored.Rule.ID, updated.Rule.ID)
	assert.Equal(t, "gym membership", updated.Rule.Name)
	assert.Equal(t, 2, updated.Rule.RepeatsEvery)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestRuleRepository_DeleteMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRuleRepository(db)
	err := repo.Delete(context.Background(), 12345)
	require.ErrorIs(t, err, ports.ErrRuleNotFound)
}

func TestProjectionStore_ReplaceAndLatest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store := NewProjectionStore(db)
	ctx := context.Background()

	rule, err := domain.NewRecurringRule(1, "paycheck", "paycheck", decimal.NewFromInt(2000), domain.FrequencyWeekly, 1, day(2024, time.January, 5), nil)
	require.NoError(t, err)

	anchor := day(2024, time.January, 1)
	first := types.StoredProjection{
		RunID:      uuid.NewString(),
		AnchorDate: anchor,
		ComputedAt: time.Now().UTC(),
		Days: []domain.ProjectionDay{
			{Date: anchor, Balance: decimal.NewFromInt(100)},
			{Date: anchor.AddDate(0, 0, 1), Balance: decimal.NewFromInt(100), IsLowest: true},
			{Date: anchor.AddDate(0, 0, 2), Balance: decimal.NewFromInt(2100), Rules: []domain.RecurringRule{*rule}, IsHighest: true},
		},
	}
	require.NoError(t, store.Replace(ctx, first))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Len(t, latest.Days, 3)
	assert.Equal(t, first.RunID, latest.RunID)
	assert.True(t, latest.Days[2].Balance.Equal(decimal.NewFromInt(2100)))
	require.Len(t, latest.Days[2].Rules, 1)
	assert.Equal(t, "paycheck", latest.Days[2].Rules[0].Name)
	assert.True(t, latest.Days[2].IsHighest)

	// A later run anchored one day in swaps everything from its anchor.
	second := types.StoredProjection{
		RunID:      uuid.NewString(),
		AnchorDate: anchor.AddDate(0, 0, 1),
		ComputedAt: time.Now().UTC().Add(time.Second),
		Days: []domain.ProjectionDay{
			{Date: anchor.AddDate(0, 0, 1), Balance: decimal.NewFromInt(50)},
			{Date: anchor.AddDate(0, 0, 2), Balance: decimal.NewFromInt(50)},
			{Date: anchor.AddDate(0, 0, 3), Balance: decimal.NewFromInt(75)},
		},
	}
	require.NoError(t, store.Replace(ctx, second))

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, latest.Days, 4)
	assert.Equal(t, second.RunID, latest.RunID)
	assert.True(t, latest.Days[0].Balance.Equal(decimal.NewFromInt(100)), "days before the new anchor survive")
	assert.True(t, latest.Days[1].Balance.Equal(decimal.NewFromInt(50)))
}

func TestSettingsStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store := NewSettingsStore(db)
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, ports.ErrSettingsNotFound)

	override := decimal.NewFromInt(500)
	require.NoError(t, store.Put(ctx, ports.Settings{
		HorizonDays:     45,
		CurrentBalance:  decimal.NewFromInt(1234),
		BalanceOverride: &override,
	}))

	settings, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, settings.HorizonDays)
	assert.True(t, settings.CurrentBalance.Equal(decimal.NewFromInt(1234)))
	require.NotNil(t, settings.BalanceOverride)
	assert.True(t, settings.StartingBalance().Equal(override))

	// Upsert replaces the single row, clearing the override.
	require.NoError(t, store.Put(ctx, ports.Settings{HorizonDays: 30, CurrentBalance: decimal.NewFromInt(900)}))
	settings, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, settings.HorizonDays)
	assert.Nil(t, settings.BalanceOverride)
	assert.True(t, settings.StartingBalance().Equal(decimal.NewFromInt(900)))
}
