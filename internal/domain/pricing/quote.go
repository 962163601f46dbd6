package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LocationSpec describes what is printed at one location
type LocationSpec struct {
	Location  artwork.PrintLocation `json:"location"`
	InkColors int                   `json:"ink_colors"`
	FullColor bool                  `json:"full_color"`
}

// ChargedColors is the number of screens billed for this location
func (l LocationSpec) ChargedColors() int {
	if l.FullColor {
		return MaxInkColors
	}
	return l.InkColors
}

// LineInput is one garment/color with a size breakdown
type LineInput struct {
	Garment *catalog.Garment
	Color   string
	Sizes   map[catalog.Size]int
}

// QuoteInput is everything needed to price an order
type QuoteInput struct {
	Lines     []LineInput
	Locations []LocationSpec
}

// QuoteLine is the priced form of a LineInput
type QuoteLine struct {
	GarmentID         uuid.UUID                        `json:"garment_id"`
	GarmentName       string                           `json:"garment_name"`
	StyleCode         string                           `json:"style_code"`
	Color             string                           `json:"color"`
	Sizes             map[catalog.Size]int             `json:"sizes"`
	Quantity          int                              `json:"quantity"`
	GarmentCost       decimal.Decimal                  `json:"garment_cost"`
	PrintCostPerPiece decimal.Decimal                  `json:"print_cost_per_piece"`
	UnitPriceBySize   map[catalog.Size]decimal.Decimal `json:"unit_price_by_size"`
	LineTotal         decimal.Decimal                  `json:"line_total"`
}

// Quote is a fully priced order
type Quote struct {
	Lines               []QuoteLine     `json:"lines"`
	Locations           []LocationSpec  `json:"locations"`
	TotalQuantity       int             `json:"total_quantity"`
	TierMinQty          int             `json:"tier_min_qty"`
	PrintCostPerPiece   decimal.Decimal `json:"print_cost_per_piece"`
	SetupFees           decimal.Decimal `json:"setup_fees"`
	SetupFeeWaived      bool            `json:"setup_fee_waived"`
	MerchandiseSubtotal decimal.Decimal `json:"merchandise_subtotal"`
	Shipping            decimal.Decimal `json:"shipping"`
	Total               decimal.Decimal `json:"total"`
	AveragePerPiece     decimal.Decimal `json:"average_per_piece"`
}

// TotalBeforeShipping is merchandise plus setup fees
func (q *Quote) TotalBeforeShipping() decimal.Decimal {
	return q.MerchandiseSubtotal.Add(q.SetupFees)
}

// QuoteCalculator prices orders from a rate table
type QuoteCalculator struct {
	rates RateTable
}

// NewQuoteCalculator creates a calculator over the given rates
func NewQuoteCalculator(rates RateTable) *QuoteCalculator {
	return &QuoteCalculator{rates: rates.Normalized()}
}

// Rates returns the rate table in use
func (c *QuoteCalculator) Rates() RateTable {
	return c.rates
}

// Calculate prices the input. Line totals are rounded half-up to cents.
func (c *QuoteCalculator) Calculate(in QuoteInput) (*Quote, error) {
	if len(in.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quote needs at least one garment")
	}
	if err := c.validateLocations(in.Locations); err != nil {
		return nil, err
	}

	total := 0
	for i, line := range in.Lines {
		qty, err := c.validateLine(line, in.Locations)
		if err != nil {
			return nil, err
		}
		if qty == 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Line %d has no quantity", i+1))
		}
		if qty > c.rates.MaxOrderQuantity-total {
			return nil, c.tooMany()
		}
		total += qty
	}

	tier := c.rates.TierFor(total)
	printPerPiece := decimal.Zero
	colorCount := 0
	for _, loc := range in.Locations {
		printPerPiece = printPerPiece.Add(tier.LocationRate(loc.ChargedColors()))
		colorCount += loc.ChargedColors()
	}

	q := &Quote{
		Lines:             make([]QuoteLine, 0, len(in.Lines)),
		Locations:         in.Locations,
		TotalQuantity:     total,
		TierMinQty:        tier.MinQuantity,
		PrintCostPerPiece: printPerPiece,
	}

	merch := decimal.Zero
	for _, line := range in.Lines {
		ql := c.priceLine(line, printPerPiece)
		merch = merch.Add(ql.LineTotal)
		q.Lines = append(q.Lines, ql)
	}
	q.MerchandiseSubtotal = merch

	if c.rates.SetupFeeWaiverQty > 0 && total >= c.rates.SetupFeeWaiverQty {
		q.SetupFees = decimal.Zero
		q.SetupFeeWaived = true
	} else {
		q.SetupFees = valueobject.RoundCents(c.rates.SetupFeePerColor.Mul(decimal.NewFromInt(int64(colorCount))))
	}

	q.Shipping = c.rates.ShippingFlat
	if merch.GreaterThanOrEqual(c.rates.FreeShippingThreshold) {
		q.Shipping = decimal.Zero
	}

	q.Total = q.MerchandiseSubtotal.Add(q.SetupFees).Add(q.Shipping)
	q.AveragePerPiece = valueobject.RoundCents(q.TotalBeforeShipping().Div(decimal.NewFromInt(int64(total))))
	return q, nil
}

// SuggestCampaignPrice returns a per-piece price for a campaign garment:
// the quote total without shipping for expectedQty pieces, divided by
// expectedQty and rounded up to the next 0.50.
func (c *QuoteCalculator) SuggestCampaignPrice(g *catalog.Garment, locations []LocationSpec, expectedQty int) (decimal.Decimal, error) {
	if g == nil || len(g.Colors) == 0 || len(g.Sizes) == 0 {
		return decimal.Zero, shared.NewDomainError("GARMENT_UNAVAILABLE", "Garment has no colors or sizes to price")
	}
	if expectedQty <= 0 {
		expectedQty = c.rates.DefaultExpectedQty
	}
	q, err := c.Calculate(QuoteInput{
		Lines: []LineInput{{
			Garment: g,
			Color:   g.Colors[0].Name,
			Sizes:   map[catalog.Size]int{g.Sizes[0]: expectedQty},
		}},
		Locations: locations,
	})
	if err != nil {
		return decimal.Zero, err
	}
	perPiece := q.TotalBeforeShipping().Div(decimal.NewFromInt(int64(expectedQty)))
	return valueobject.CeilToStep(perPiece, decimal.RequireFromString("0.50")), nil
}

func (c *QuoteCalculator) priceLine(line LineInput, printPerPiece decimal.Decimal) QuoteLine {
	g := line.Garment
	color, _ := g.FindColor(line.Color)
	ql := QuoteLine{
		GarmentID:         g.ID,
		GarmentName:       g.Name,
		StyleCode:         g.StyleCode,
		Color:             color.Name,
		Sizes:             make(map[catalog.Size]int, len(line.Sizes)),
		PrintCostPerPiece: printPerPiece,
		UnitPriceBySize:   make(map[catalog.Size]decimal.Decimal, len(line.Sizes)),
		GarmentCost:       decimal.Zero,
	}
	for size, qty := range line.Sizes {
		if qty == 0 {
			continue
		}
		blank := g.UnitPrice(size)
		ql.Sizes[size] = qty
		ql.Quantity += qty
		ql.GarmentCost = ql.GarmentCost.Add(blank.Mul(decimal.NewFromInt(int64(qty))))
		ql.UnitPriceBySize[size] = valueobject.RoundCents(blank.Add(printPerPiece))
	}
	ql.LineTotal = valueobject.RoundCents(ql.GarmentCost.Add(printPerPiece.Mul(decimal.NewFromInt(int64(ql.Quantity)))))
	return ql
}

func (c *QuoteCalculator) validateLocations(locations []LocationSpec) error {
	if len(locations) == 0 {
		return shared.NewDomainError("INVALID_LOCATION", "At least one print location is required")
	}
	seen := make(map[artwork.PrintLocation]bool, len(locations))
	for _, loc := range locations {
		if !loc.Location.IsValid() {
			return shared.NewDomainError("INVALID_LOCATION", "Unknown print location: "+string(loc.Location))
		}
		if seen[loc.Location] {
			return shared.NewDomainError("DUPLICATE_LOCATION", "Print location listed twice: "+string(loc.Location))
		}
		seen[loc.Location] = true
		if !loc.FullColor && (loc.InkColors < 1 || loc.InkColors > MaxInkColors) {
			return shared.NewDomainError("INVALID_INK_COLORS",
				fmt.Sprintf("Ink colors for %s must be between 1 and %d", loc.Location, MaxInkColors))
		}
	}
	return nil
}

func (c *QuoteCalculator) validateLine(line LineInput, locations []LocationSpec) (int, error) {
	g := line.Garment
	if g == nil || !g.Active {
		return 0, shared.NewDomainError("GARMENT_UNAVAILABLE", "Garment is not available")
	}
	if !g.HasColor(line.Color) {
		return 0, shared.NewDomainError("INVALID_COLOR",
			fmt.Sprintf("%s is not offered in %q", g.Name, line.Color))
	}
	for _, loc := range locations {
		if !g.SupportsLocation(string(loc.Location)) {
			return 0, shared.NewDomainError("INVALID_LOCATION",
				fmt.Sprintf("%s cannot be printed at %s", g.Name, loc.Location))
		}
	}
	qty := 0
	for size, n := range line.Sizes {
		if n < 0 {
			return 0, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
		}
		if n > 0 && !g.HasSize(size) {
			return 0, shared.NewDomainError("INVALID_SIZE",
				fmt.Sprintf("%s is not offered in size %s", g.Name, size))
		}
		if n > c.rates.MaxOrderQuantity-qty {
			return 0, c.tooMany()
		}
		qty += n
	}
	return qty, nil
}

func (c *QuoteCalculator) tooMany() error {
	return shared.NewDomainError("INVALID_QUANTITY",
		fmt.Sprintf("Total quantity cannot exceed %d", c.rates.MaxOrderQuantity))
}
