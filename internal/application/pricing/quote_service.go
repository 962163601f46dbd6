package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/config"
)

// RateTableFromConfig builds the rate table from the pricing settings.
// Tiers always come from the defaults; zero settings keep their defaults.
func RateTableFromConfig(cfg config.PricingConfig) pricing.RateTable {
	rates := pricing.DefaultRateTable()
	if cfg.SetupFeePerColor.IsPositive() {
		rates.SetupFeePerColor = cfg.SetupFeePerColor
	}
	if cfg.SetupFeeWaiverQty > 0 {
		rates.SetupFeeWaiverQty = cfg.SetupFeeWaiverQty
	}
	if cfg.ShippingFlat.IsPositive() {
		rates.ShippingFlat = cfg.ShippingFlat
	}
	if cfg.FreeShippingThreshold.IsPositive() {
		rates.FreeShippingThreshold = cfg.FreeShippingThreshold
	}
	if cfg.MaxOrderQuantity > 0 {
		rates.MaxOrderQuantity = cfg.MaxOrderQuantity
	}
	if cfg.DefaultExpectedQty > 0 {
		rates.DefaultExpectedQty = cfg.DefaultExpectedQty
	}
	return rates
}

// QuoteService prices requests against the live catalog
type QuoteService struct {
	garmentRepo catalog.GarmentRepository
	calculator  *pricing.QuoteCalculator
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(garmentRepo catalog.GarmentRepository, calculator *pricing.QuoteCalculator) *QuoteService {
	return &QuoteService{
		garmentRepo: garmentRepo,
		calculator:  calculator,
	}
}

// Calculator returns the underlying calculator
func (s *QuoteService) Calculator() *pricing.QuoteCalculator {
	return s.calculator
}

// Quote prices a request
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*pricing.Quote, error) {
	in, err := s.Resolve(ctx, req.Lines, req.Locations)
	if err != nil {
		return nil, err
	}
	return s.calculator.Calculate(in)
}

// Resolve loads the garments a request refers to and builds calculator input.
// Unknown garment ids fail with GARMENT_UNAVAILABLE.
func (s *QuoteService) Resolve(ctx context.Context, lines []LineRequest, locations []LocationRequest) (pricing.QuoteInput, error) {
	if len(lines) == 0 {
		return pricing.QuoteInput{}, shared.NewDomainError("INVALID_INPUT", "Quote needs at least one garment")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if !seen[l.GarmentID] {
			seen[l.GarmentID] = true
			ids = append(ids, l.GarmentID)
		}
	}
	garments, err := s.garmentRepo.FindByIDs(ctx, ids)
	if err != nil {
		return pricing.QuoteInput{}, err
	}
	byID := make(map[uuid.UUID]*catalog.Garment, len(garments))
	for i := range garments {
		byID[garments[i].ID] = &garments[i]
	}

	in := pricing.QuoteInput{
		Lines:     make([]pricing.LineInput, 0, len(lines)),
		Locations: ToLocationSpecs(locations),
	}
	for _, l := range lines {
		g, ok := byID[l.GarmentID]
		if !ok {
			return pricing.QuoteInput{}, shared.NewDomainError("GARMENT_UNAVAILABLE", "Garment not found: "+l.GarmentID.String())
		}
		sizes, err := ParseSizeMap(l.Sizes)
		if err != nil {
			return pricing.QuoteInput{}, err
		}
		in.Lines = append(in.Lines, pricing.LineInput{Garment: g, Color: l.Color, Sizes: sizes})
	}
	return in, nil
}

// ToLocationSpecs converts request locations to pricing specs
func ToLocationSpecs(locations []LocationRequest) []pricing.LocationSpec {
	specs := make([]pricing.LocationSpec, len(locations))
	for i, l := range locations {
		specs[i] = pricing.LocationSpec{
			Location:  artwork.PrintLocation(l.Location),
			InkColors: l.InkColors,
			FullColor: l.FullColor,
		}
	}
	return specs
}

// ParseSizeMap normalizes size labels. Labels that normalize to the same size are summed.
func ParseSizeMap(raw map[string]int) (map[catalog.Size]int, error) {
	out := make(map[catalog.Size]int, len(raw))
	for label, qty := range raw {
		size, ok := catalog.ParseSize(label)
		if !ok {
			return nil, shared.NewDomainError("INVALID_SIZE", "Unknown size: "+label)
		}
		out[size] += qty
	}
	return out, nil
}
