package integration

import (
	"context"
	"testing"
	"time"

	campaignapp "github.com/inkthread/storefront/internal/application/campaign"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGarment(t *testing.T, repo *persistence.GormGarmentRepository, code string) *catalog.Garment {
	t.Helper()
	g, err := catalog.NewGarment("Tee "+code, "Bella", code, catalog.CategoryTShirt, decimal.RequireFromString("4.25"))
	require.NoError(t, err)
	require.NoError(t, g.SetColors([]catalog.Color{{Name: "Black", Hex: "#000000"}, {Name: "Heather", Hex: "#9a9a9a"}}))
	require.NoError(t, g.SetSizes([]catalog.Size{"S", "M", "L", "2XL"}))
	require.NoError(t, g.SetPrice(g.BasePrice, map[catalog.Size]decimal.Decimal{"2XL": decimal.RequireFromString("2.00")}))
	require.NoError(t, repo.Save(context.Background(), g))
	return g
}

func seedCampaign(t *testing.T, slug string, g *catalog.Garment) *campaign.Campaign {
	t.Helper()
	now := time.Now().UTC()
	cfg, err := campaign.NewGarmentConfig(g, decimal.RequireFromString("18"), []string{"Black"}, nil)
	require.NoError(t, err)
	c, err := campaign.NewCampaign(campaign.NewCampaignInput{
		Slug:           slug,
		Name:           "Team Shirts",
		OrganizerName:  "Coach Lee",
		OrganizerEmail: "coach@example.com",
		Deadline:       now.Add(48 * time.Hour),
		PaymentStyle:   campaign.PaymentStyleEveryonePays,
		Artwork:        []campaign.ArtworkPlacement{{Location: artwork.LocationFront, InkColors: 2}},
		GarmentConfigs: []campaign.GarmentConfig{*cfg},
	}, now)
	require.NoError(t, err)
	return c
}

func TestPostgres_GarmentColumns(t *testing.T) {
	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormGarmentRepository(tdb.DB)
	ctx := context.Background()

	g := seedGarment(t, repo, "3001")

	got, err := repo.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Colors, 2)
	assert.Equal(t, []catalog.Size{"S", "M", "L", "2XL"}, got.Sizes)
	assert.True(t, got.SizeUpcharges["2XL"].Equal(decimal.RequireFromString("2.00")))

	byCode, err := repo.FindByStyleCode(ctx, "3001")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byCode.ID)

	filter := shared.DefaultFilter()
	filter.Search = "bella"
	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostgres_CampaignSlugIsUnique(t *testing.T) {
	tdb := NewSharedTestDB(t)
	garments := persistence.NewGormGarmentRepository(tdb.DB)
	campaigns := persistence.NewGormCampaignRepository(tdb.DB)
	ctx := context.Background()

	g := seedGarment(t, garments, "3001")
	require.NoError(t, campaigns.Save(ctx, seedCampaign(t, "team-shirts", g)))

	var de *shared.DomainError
	require.ErrorAs(t, campaigns.Save(ctx, seedCampaign(t, "team-shirts", g)), &de)
	assert.Equal(t, "SLUG_TAKEN", de.Code)
}

func TestPostgres_FindExpired(t *testing.T) {
	tdb := NewSharedTestDB(t)
	garments := persistence.NewGormGarmentRepository(tdb.DB)
	campaigns := persistence.NewGormCampaignRepository(tdb.DB)
	ctx := context.Background()
	g := seedGarment(t, garments, "3001")

	open := seedCampaign(t, "still-open", g)
	closed := seedCampaign(t, "already-closed", g)
	require.NoError(t, closed.Close(time.Now()))
	require.NoError(t, campaigns.Save(ctx, open))
	require.NoError(t, campaigns.Save(ctx, closed))

	expired, err := campaigns.FindExpired(ctx, time.Now().Add(72*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "still-open", expired[0].Slug)

	reloaded, err := campaigns.FindBySlug(ctx, "already-closed")
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusClosed, reloaded.Status)
	require.NotNil(t, reloaded.ClosedAt)
	require.Len(t, reloaded.GarmentConfigs, 1)
}

func TestPostgres_TransactionScopeRollsBack(t *testing.T) {
	tdb := NewSharedTestDB(t)
	garments := persistence.NewGormGarmentRepository(tdb.DB)
	scope := persistence.NewGormTransactionScope(tdb.DB)
	ctx := context.Background()

	c := seedCampaign(t, "rollback", seedGarment(t, garments, "3001"))
	err := scope.Execute(ctx, func(repos campaignapp.TransactionalRepositories) error {
		require.NoError(t, repos.Campaigns().Save(ctx, c))
		return shared.ErrInvalidState
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = persistence.NewGormCampaignRepository(tdb.DB).FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
