package campaign

import (
	"strings"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Limits on campaign garment configurations
const (
	MinGarmentConfigs = 1
	MaxGarmentConfigs = 10
)

// GarmentConfig is a garment a campaign offers, with its price per piece
// and the colors and sizes participants may choose.
type GarmentConfig struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	GarmentID   uuid.UUID
	GarmentName string
	StyleCode   string
	Price       decimal.Decimal
	Colors      []string
	Sizes       []catalog.Size
	SortOrder   int
}

// NewGarmentConfig validates colors and sizes against the garment.
// Empty sizes means every size the garment offers.
func NewGarmentConfig(g *catalog.Garment, price decimal.Decimal, colors []string, sizes []catalog.Size) (*GarmentConfig, error) {
	if g == nil || !g.Active {
		return nil, shared.NewDomainError("GARMENT_UNAVAILABLE", "Garment is not available")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Campaign price must be positive")
	}
	if len(colors) == 0 {
		return nil, shared.NewDomainError("INVALID_COLORS", "Choose at least one color for "+g.Name)
	}

	cfg := &GarmentConfig{
		ID:          uuid.New(),
		GarmentID:   g.ID,
		GarmentName: g.Name,
		StyleCode:   g.StyleCode,
		Price:       price.Round(2),
	}

	seen := make(map[string]bool, len(colors))
	for _, name := range colors {
		c, ok := g.FindColor(name)
		if !ok {
			return nil, shared.NewDomainError("INVALID_COLOR", g.Name+" is not offered in "+strings.TrimSpace(name))
		}
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		cfg.Colors = append(cfg.Colors, c.Name)
	}

	if len(sizes) == 0 {
		cfg.Sizes = append([]catalog.Size(nil), g.Sizes...)
		return cfg, nil
	}
	wanted := make(map[catalog.Size]bool, len(sizes))
	for _, s := range sizes {
		if !g.HasSize(s) {
			return nil, shared.NewDomainError("INVALID_SIZE", g.Name+" is not offered in size "+string(s))
		}
		wanted[s] = true
	}
	for _, s := range g.Sizes {
		if wanted[s] {
			cfg.Sizes = append(cfg.Sizes, s)
		}
	}
	return cfg, nil
}

// ResolveColor returns the configured color matching name (case-insensitive)
func (c GarmentConfig) ResolveColor(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, col := range c.Colors {
		if strings.EqualFold(col, name) {
			return col, true
		}
	}
	return "", false
}

// HasSize reports whether participants may order this size
func (c GarmentConfig) HasSize(size catalog.Size) bool {
	for _, s := range c.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
