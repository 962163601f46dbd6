package pricing

import (
	"math"
	"testing"

	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGarment(t *testing.T) *catalog.Garment {
	t.Helper()
	g, err := catalog.NewGarment("Softstyle Tee", "Gildan", "64000", catalog.CategoryTShirt, d("3.10"))
	require.NoError(t, err)
	require.NoError(t, g.SetColors([]catalog.Color{{Name: "Black", Hex: "#000000"}, {Name: "Sand", Hex: "#C2B280"}}))
	require.NoError(t, g.SetSizes([]catalog.Size{"S", "M", "L", "XL", "2XL"}))
	require.NoError(t, g.SetPrice(d("3.10"), map[catalog.Size]decimal.Decimal{"2XL": d("1.50")}))
	return g
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestRateTable_TierFor(t *testing.T) {
	rates := DefaultRateTable()
	tests := []struct {
		qty  int
		want int
	}{
		{1, 1}, {11, 1}, {12, 12}, {23, 12}, {24, 24}, {71, 48}, {72, 72}, {143, 72}, {144, 144}, {5000, 144},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rates.TierFor(tt.qty).MinQuantity, "qty %d", tt.qty)
	}
	assert.Equal(t, 1, rates.TierFor(0).MinQuantity)
}

func TestRateTier_LocationRate(t *testing.T) {
	tier := DefaultRateTable().TierFor(24)
	assertDecimal(t, "3.25", tier.LocationRate(1))
	assertDecimal(t, "4.75", tier.LocationRate(3))
	assertDecimal(t, "0", tier.LocationRate(0))
}

func TestQuoteCalculator_Calculate(t *testing.T) {
	calc := NewQuoteCalculator(DefaultRateTable())
	g := testGarment(t)

	t.Run("mid tier with setup fees and free shipping", func(t *testing.T) {
		q, err := calc.Calculate(QuoteInput{
			Lines: []LineInput{{Garment: g, Color: "black", Sizes: map[catalog.Size]int{"M": 12, "L": 10, "2XL": 2}}},
			Locations: []LocationSpec{
				{Location: artwork.LocationFront, InkColors: 2},
				{Location: artwork.LocationBack, InkColors: 1},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, 24, q.TotalQuantity)
		assert.Equal(t, 24, q.TierMinQty)
		assertDecimal(t, "7.25", q.PrintCostPerPiece)
		require.Len(t, q.Lines, 1)
		line := q.Lines[0]
		assert.Equal(t, "Black", line.Color)
		assertDecimal(t, "77.40", line.GarmentCost)
		assertDecimal(t, "251.40", line.LineTotal)
		assertDecimal(t, "10.35", line.UnitPriceBySize["M"])
		assertDecimal(t, "11.85", line.UnitPriceBySize["2XL"])
		assertDecimal(t, "45.00", q.SetupFees)
		assert.False(t, q.SetupFeeWaived)
		assertDecimal(t, "251.40", q.MerchandiseSubtotal)
		assertDecimal(t, "0", q.Shipping)
		assertDecimal(t, "296.40", q.Total)
		assertDecimal(t, "12.35", q.AveragePerPiece)
	})

	t.Run("small order pays shipping", func(t *testing.T) {
		q, err := calc.Calculate(QuoteInput{
			Lines:     []LineInput{{Garment: g, Color: "Sand", Sizes: map[catalog.Size]int{"M": 6, "L": 0}}},
			Locations: []LocationSpec{{Location: artwork.LocationFront, InkColors: 1}},
		})
		require.NoError(t, err)
		assertDecimal(t, "54.60", q.MerchandiseSubtotal)
		assertDecimal(t, "15.00", q.SetupFees)
		assertDecimal(t, "8.95", q.Shipping)
		assertDecimal(t, "78.55", q.Total)
		assertDecimal(t, "11.60", q.AveragePerPiece)
		assert.NotContains(t, q.Lines[0].Sizes, catalog.Size("L"))
	})

	t.Run("full color priced as six colors and setup waived", func(t *testing.T) {
		q, err := calc.Calculate(QuoteInput{
			Lines:     []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"L": 72}}},
			Locations: []LocationSpec{{Location: artwork.LocationFront, FullColor: true}},
		})
		require.NoError(t, err)
		assertDecimal(t, "4.00", q.PrintCostPerPiece)
		assert.True(t, q.SetupFeeWaived)
		assertDecimal(t, "0", q.SetupFees)
		assertDecimal(t, "511.20", q.Total)
	})

	t.Run("tier uses quantity summed across lines", func(t *testing.T) {
		q, err := calc.Calculate(QuoteInput{
			Lines: []LineInput{
				{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 6}},
				{Garment: g, Color: "Sand", Sizes: map[catalog.Size]int{"M": 6}},
			},
			Locations: []LocationSpec{{Location: artwork.LocationFront, InkColors: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, 12, q.TierMinQty)
		assertDecimal(t, "4.50", q.PrintCostPerPiece)
	})
}

func TestQuoteCalculator_CalculateErrors(t *testing.T) {
	calc := NewQuoteCalculator(DefaultRateTable())
	g := testGarment(t)
	front := []LocationSpec{{Location: artwork.LocationFront, InkColors: 1}}

	inactive := testGarment(t)
	inactive.Deactivate()

	tests := []struct {
		name     string
		in       QuoteInput
		wantCode string
	}{
		{"no lines", QuoteInput{Locations: front}, "INVALID_INPUT"},
		{"no locations", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 1}}}}, "INVALID_LOCATION"},
		{"inactive garment", QuoteInput{Lines: []LineInput{{Garment: inactive, Color: "Black", Sizes: map[catalog.Size]int{"M": 1}}}, Locations: front}, "GARMENT_UNAVAILABLE"},
		{"unknown color", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Pink", Sizes: map[catalog.Size]int{"M": 1}}}, Locations: front}, "INVALID_COLOR"},
		{"unknown size", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"5XL": 1}}}, Locations: front}, "INVALID_SIZE"},
		{"zero quantity", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 0}}}, Locations: front}, "INVALID_QUANTITY"},
		{"negative quantity", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": -1}}}, Locations: front}, "INVALID_QUANTITY"},
		{"over max quantity", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 10001}}}, Locations: front}, "INVALID_QUANTITY"},
		{"size quantities wrap", QuoteInput{Lines: []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"S": math.MaxInt, "M": 1}}}, Locations: front}, "INVALID_QUANTITY"},
		{"lines over max together", QuoteInput{Lines: []LineInput{
			{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 6000}},
			{Garment: g, Color: "Sand", Sizes: map[catalog.Size]int{"L": 6000}},
		}, Locations: front}, "INVALID_QUANTITY"},
		{"unsupported location", QuoteInput{
			Lines:     []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 1}}},
			Locations: []LocationSpec{{Location: artwork.LocationLeftSleeve, InkColors: 1}},
		}, "INVALID_LOCATION"},
		{"duplicate location", QuoteInput{
			Lines:     []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 1}}},
			Locations: []LocationSpec{{Location: artwork.LocationFront, InkColors: 1}, {Location: artwork.LocationFront, InkColors: 2}},
		}, "DUPLICATE_LOCATION"},
		{"too many ink colors", QuoteInput{
			Lines:     []LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 1}}},
			Locations: []LocationSpec{{Location: artwork.LocationFront, InkColors: 7}},
		}, "INVALID_INK_COLORS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.in)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantCode, de.Code)
		})
	}
}

func TestQuoteCalculator_SuggestCampaignPrice(t *testing.T) {
	calc := NewQuoteCalculator(DefaultRateTable())
	g := testGarment(t)
	front := []LocationSpec{{Location: artwork.LocationFront, InkColors: 1}}

	price, err := calc.SuggestCampaignPrice(g, front, 24)
	require.NoError(t, err)
	assertDecimal(t, "7.00", price)

	// zero falls back to the default expected quantity
	fallback, err := calc.SuggestCampaignPrice(g, front, 0)
	require.NoError(t, err)
	assert.True(t, fallback.Equal(price))

	_, err = calc.SuggestCampaignPrice(nil, front, 24)
	assert.Error(t, err)
}

func TestRateTable_Normalized(t *testing.T) {
	r := RateTable{Tiers: []RateTier{{MinQuantity: 50}, {MinQuantity: 1}}}.Normalized()
	assert.Equal(t, 1, r.Tiers[0].MinQuantity)
	assert.Equal(t, 10000, r.MaxOrderQuantity)
	assert.Equal(t, 24, r.DefaultExpectedQty)

	empty := RateTable{}.Normalized()
	assert.Len(t, empty.Tiers, 6)
}
