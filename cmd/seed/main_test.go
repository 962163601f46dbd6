package main

import (
	"context"
	"testing"

	"github.com/inkthread/storefront/internal/infrastructure/persistence"
	"github.com/inkthread/storefront/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func TestDefaultCatalogIsValid(t *testing.T) {
	codes := make(map[string]bool)
	for _, seed := range defaultCatalog {
		g, err := seed.build()
		require.NoError(t, err, seed.StyleCode)
		assert.True(t, g.Active)
		assert.False(t, codes[seed.StyleCode], "duplicate style code %s", seed.StyleCode)
		codes[seed.StyleCode] = true
		for size := range seed.Upcharges {
			assert.True(t, g.HasSize(size), "%s upcharge for unknown size %s", seed.StyleCode, size)
		}
	}
}

func TestSeedGarments_SkipsExisting(t *testing.T) {
	repo := persistence.NewGormGarmentRepository(setupSeedDB(t))
	ctx := context.Background()

	created, err := seedGarments(ctx, repo, defaultCatalog[:2], zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = seedGarments(ctx, repo, defaultCatalog, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(defaultCatalog)-2, created)

	hoodie, err := repo.FindByStyleCode(ctx, "18500")
	require.NoError(t, err)
	assert.Equal(t, "Gildan", hoodie.Brand)
	assert.True(t, hoodie.SizeUpcharges["3XL"].Equal(decimal.RequireFromString("4.00")))
}

func TestSeedAdmin(t *testing.T) {
	repo := persistence.NewGormAdminUserRepository(setupSeedDB(t))
	ctx := context.Background()

	created, err := seedAdmin(ctx, repo, "Ops@Inkthread.test", "Ops", "correct-horse-battery-9")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = seedAdmin(ctx, repo, "ops@inkthread.test", "Ops", "another-password-7")
	require.NoError(t, err)
	assert.False(t, created)

	user, err := repo.FindByEmail(ctx, "ops@inkthread.test")
	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("correct-horse-battery-9"))

	_, err = seedAdmin(ctx, repo, "not-an-email", "Ops", "correct-horse-battery-9")
	assert.Error(t, err)
}
