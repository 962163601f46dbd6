package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MaxInkColors is the most screens a single location can use.
// Full-color (process) prints are charged at this count.
const MaxInkColors = 6

// RateTier is a print price tier selected by total order quantity
type RateTier struct {
	MinQuantity    int             `json:"min_quantity"`
	BaseRate       decimal.Decimal `json:"base_rate"`
	ExtraColorRate decimal.Decimal `json:"extra_color_rate"`
}

// RateTable holds the static rates used for quoting
type RateTable struct {
	Tiers                 []RateTier
	SetupFeePerColor      decimal.Decimal
	SetupFeeWaiverQty     int
	ShippingFlat          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	MaxOrderQuantity      int
	DefaultExpectedQty    int
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultTiers are the storefront's screen print tiers
func DefaultTiers() []RateTier {
	return []RateTier{
		{MinQuantity: 1, BaseRate: d("6.00"), ExtraColorRate: d("1.50")},
		{MinQuantity: 12, BaseRate: d("4.50"), ExtraColorRate: d("1.00")},
		{MinQuantity: 24, BaseRate: d("3.25"), ExtraColorRate: d("0.75")},
		{MinQuantity: 48, BaseRate: d("2.50"), ExtraColorRate: d("0.50")},
		{MinQuantity: 72, BaseRate: d("2.00"), ExtraColorRate: d("0.40")},
		{MinQuantity: 144, BaseRate: d("1.50"), ExtraColorRate: d("0.30")},
	}
}

// DefaultRateTable returns the default rates
func DefaultRateTable() RateTable {
	return RateTable{
		Tiers:                 DefaultTiers(),
		SetupFeePerColor:      d("15.00"),
		SetupFeeWaiverQty:     72,
		ShippingFlat:          d("8.95"),
		FreeShippingThreshold: d("150.00"),
		MaxOrderQuantity:      10000,
		DefaultExpectedQty:    24,
	}
}

// Normalized returns a copy with tiers sorted ascending and zero values
// replaced by defaults.
func (r RateTable) Normalized() RateTable {
	def := DefaultRateTable()
	if len(r.Tiers) == 0 {
		r.Tiers = def.Tiers
	}
	tiers := make([]RateTier, len(r.Tiers))
	copy(tiers, r.Tiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity < tiers[j].MinQuantity
	})
	r.Tiers = tiers
	if r.MaxOrderQuantity <= 0 {
		r.MaxOrderQuantity = def.MaxOrderQuantity
	}
	if r.DefaultExpectedQty <= 0 {
		r.DefaultExpectedQty = def.DefaultExpectedQty
	}
	return r
}

// TierFor returns the highest tier whose minimum the quantity reaches.
// Quantities below the first tier get the first tier.
func (r RateTable) TierFor(quantity int) RateTier {
	if len(r.Tiers) == 0 {
		return RateTier{}
	}
	tier := r.Tiers[0]
	for _, t := range r.Tiers {
		if quantity >= t.MinQuantity {
			tier = t
		}
	}
	return tier
}

// LocationRate is the per-piece print cost of one location at a tier
func (t RateTier) LocationRate(inkColors int) decimal.Decimal {
	if inkColors < 1 {
		return decimal.Zero
	}
	return t.BaseRate.Add(t.ExtraColorRate.Mul(decimal.NewFromInt(int64(inkColors - 1))))
}
