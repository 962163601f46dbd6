package main

import (
	"context"
	"errors"

	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type garmentSeed struct {
	Name      string
	Brand     string
	StyleCode string
	Category  catalog.GarmentCategory
	BasePrice string
	Colors    []catalog.Color
	Sizes     []catalog.Size
	Upcharges map[catalog.Size]string
	Locations []string
}

var coreColors = []catalog.Color{
	{Name: "Black", Hex: "#1B1B1B"},
	{Name: "White", Hex: "#FFFFFF"},
	{Name: "Navy", Hex: "#1F2A44"},
	{Name: "Sport Grey", Hex: "#9EA1A6"},
	{Name: "Red", Hex: "#B3202C"},
}

var adultSizes = []catalog.Size{"XS", "S", "M", "L", "XL", "2XL", "3XL"}

var plusUpcharges = map[catalog.Size]string{"2XL": "2.00", "3XL": "3.00"}

var defaultCatalog = []garmentSeed{
	{
		Name: "Unisex Jersey Tee", Brand: "Bella+Canvas", StyleCode: "3001",
		Category: catalog.CategoryTShirt, BasePrice: "4.25",
		Colors: coreColors, Sizes: adultSizes, Upcharges: plusUpcharges,
		Locations: []string{"front", "back", "left_sleeve", "right_sleeve"},
	},
	{
		Name: "Garment-Dyed Heavyweight Tee", Brand: "Comfort Colors", StyleCode: "1717",
		Category: catalog.CategoryTShirt, BasePrice: "6.50",
		Colors: []catalog.Color{{Name: "Pepper", Hex: "#4F4D4B"}, {Name: "Ivory", Hex: "#F4EEDC"}, {Name: "Blue Jean", Hex: "#5B7391"}},
		Sizes:  []catalog.Size{"S", "M", "L", "XL", "2XL", "3XL"}, Upcharges: plusUpcharges,
	},
	{
		Name: "Heavy Blend Hooded Sweatshirt", Brand: "Gildan", StyleCode: "18500",
		Category: catalog.CategoryHoodie, BasePrice: "12.75",
		Colors: coreColors, Sizes: adultSizes,
		Upcharges: map[catalog.Size]string{"2XL": "2.50", "3XL": "4.00"},
		Locations: []string{"front", "back", "left_sleeve", "right_sleeve"},
	},
	{
		Name: "Heavy Blend Crewneck", Brand: "Gildan", StyleCode: "18000",
		Category: catalog.CategoryCrewneck, BasePrice: "9.80",
		Colors: coreColors, Sizes: adultSizes, Upcharges: plusUpcharges,
	},
	{
		Name: "Long Sleeve Tee", Brand: "Gildan", StyleCode: "5400",
		Category: catalog.CategoryLongSleeve, BasePrice: "6.10",
		Colors: coreColors, Sizes: adultSizes, Upcharges: plusUpcharges,
		Locations: []string{"front", "back", "left_sleeve", "right_sleeve"},
	},
	{
		Name: "Jersey Tank", Brand: "Bella+Canvas", StyleCode: "3480",
		Category: catalog.CategoryTank, BasePrice: "5.20",
		Colors: coreColors[:3], Sizes: []catalog.Size{"XS", "S", "M", "L", "XL", "2XL"},
		Upcharges: map[catalog.Size]string{"2XL": "2.00"},
	},
}

func (s garmentSeed) build() (*catalog.Garment, error) {
	g, err := catalog.NewGarment(s.Name, s.Brand, s.StyleCode, s.Category, decimal.RequireFromString(s.BasePrice))
	if err != nil {
		return nil, err
	}
	if err := g.SetColors(s.Colors); err != nil {
		return nil, err
	}
	if err := g.SetSizes(s.Sizes); err != nil {
		return nil, err
	}
	upcharges := make(map[catalog.Size]decimal.Decimal, len(s.Upcharges))
	for size, amount := range s.Upcharges {
		upcharges[size] = decimal.RequireFromString(amount)
	}
	if err := g.SetPrice(g.BasePrice, upcharges); err != nil {
		return nil, err
	}
	if len(s.Locations) > 0 {
		if err := g.SetPrintLocations(s.Locations); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// seedGarments inserts every garment whose style code is not in the catalog yet
// and returns how many were created.
func seedGarments(ctx context.Context, repo catalog.GarmentRepository, seeds []garmentSeed, log *zap.Logger) (int, error) {
	created := 0
	for i, seed := range seeds {
		_, err := repo.FindByStyleCode(ctx, seed.StyleCode)
		if err == nil {
			log.Debug("Garment already present", zap.String("style_code", seed.StyleCode))
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return created, err
		}

		g, err := seed.build()
		if err != nil {
			return created, err
		}
		g.SortOrder = i
		if err := repo.Save(ctx, g); err != nil {
			return created, err
		}
		created++
		log.Info("Garment seeded", zap.String("style_code", g.StyleCode), zap.String("name", g.Name))
	}
	return created, nil
}
