package campaign

import (
	"sort"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ConfigStats summarizes orders for one garment config
type ConfigStats struct {
	GarmentConfigID uuid.UUID       `json:"garment_config_id"`
	GarmentName     string          `json:"garment_name"`
	Orders          int             `json:"orders"`
	Items           int             `json:"items"`
	Revenue         decimal.Decimal `json:"revenue"`
}

// Stats is the organizer dashboard summary
type Stats struct {
	OrdersByStatus   map[OrderStatus]int  `json:"orders_by_status"`
	TotalOrders      int                  `json:"total_orders"`
	TotalItems       int                  `json:"total_items"`
	RevenueCollected decimal.Decimal      `json:"revenue_collected"`
	Outstanding      decimal.Decimal      `json:"outstanding"`
	SizeBreakdown    map[catalog.Size]int `json:"size_breakdown"`
	ColorBreakdown   map[string]int       `json:"color_breakdown"`
	Configs          []ConfigStats        `json:"configs"`
	Participants     int                  `json:"participants"`
}

// ComputeStats summarizes a campaign's orders. Items, breakdowns and
// participants count only live orders. For organizer_pays campaigns the
// revenue is the organizer payment and confirmed orders are outstanding
// until it arrives.
func ComputeStats(c *Campaign, orders []CampaignOrder) Stats {
	s := Stats{
		OrdersByStatus:   make(map[OrderStatus]int),
		RevenueCollected: decimal.Zero,
		Outstanding:      decimal.Zero,
		SizeBreakdown:    make(map[catalog.Size]int),
		ColorBreakdown:   make(map[string]int),
	}
	byConfig := make(map[uuid.UUID]*ConfigStats, len(c.GarmentConfigs))
	for _, cfg := range c.GarmentConfigs {
		byConfig[cfg.ID] = &ConfigStats{GarmentConfigID: cfg.ID, GarmentName: cfg.GarmentName, Revenue: decimal.Zero}
	}
	participants := make(map[string]bool)

	for _, o := range orders {
		s.OrdersByStatus[o.Status]++
		s.TotalOrders++
		if !o.Status.IsLive() {
			continue
		}
		s.TotalItems += o.Quantity
		s.SizeBreakdown[o.Size] += o.Quantity
		s.ColorBreakdown[o.Color] += o.Quantity
		participants[o.ParticipantEmail] = true

		cs, ok := byConfig[o.GarmentConfigID]
		if !ok {
			cs = &ConfigStats{GarmentConfigID: o.GarmentConfigID, GarmentName: o.GarmentName, Revenue: decimal.Zero}
			byConfig[o.GarmentConfigID] = cs
		}
		cs.Orders++
		cs.Items += o.Quantity
		cs.Revenue = cs.Revenue.Add(o.Total)

		switch {
		case o.Status == OrderStatusPaid && c.PaymentStyle == PaymentStyleEveryonePays:
			s.RevenueCollected = s.RevenueCollected.Add(o.Total)
		case o.Status == OrderStatusPendingPayment:
			s.Outstanding = s.Outstanding.Add(o.Total)
		case o.Status == OrderStatusConfirmed && c.PaymentStatus != PaymentStatusPaid:
			s.Outstanding = s.Outstanding.Add(o.Total)
		}
	}
	if c.PaymentStyle == PaymentStyleOrganizerPays {
		s.RevenueCollected = c.AmountPaid
	}
	s.Participants = len(participants)

	order := make(map[uuid.UUID]int, len(c.GarmentConfigs))
	for _, cfg := range c.GarmentConfigs {
		order[cfg.ID] = cfg.SortOrder
	}
	for _, cs := range byConfig {
		s.Configs = append(s.Configs, *cs)
	}
	sort.SliceStable(s.Configs, func(i, j int) bool {
		oi, iok := order[s.Configs[i].GarmentConfigID]
		oj, jok := order[s.Configs[j].GarmentConfigID]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return s.Configs[i].GarmentName < s.Configs[j].GarmentName
	})
	return s
}

// PayableTotal sums what the organizer owes: every confirmed order
func PayableTotal(orders []CampaignOrder) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status == OrderStatusConfirmed {
			total = total.Add(o.Total)
		}
	}
	return total
}

// ProductionLine is one garment/color of a finished campaign
type ProductionLine struct {
	GarmentConfigID uuid.UUID
	GarmentID       uuid.UUID
	GarmentName     string
	StyleCode       string
	Color           string
	Sizes           map[catalog.Size]int
	Quantity        int
	Total           decimal.Decimal
}

// ProductionLines groups paid orders by (garment config, color) with a
// size breakdown, in config order then color name.
func ProductionLines(c *Campaign, orders []CampaignOrder) []ProductionLine {
	type key struct {
		cfg   uuid.UUID
		color string
	}
	lines := make(map[key]*ProductionLine)
	for _, o := range orders {
		if o.Status != OrderStatusPaid {
			continue
		}
		k := key{o.GarmentConfigID, o.Color}
		pl, ok := lines[k]
		if !ok {
			pl = &ProductionLine{
				GarmentConfigID: o.GarmentConfigID,
				GarmentID:       o.GarmentID,
				GarmentName:     o.GarmentName,
				Color:           o.Color,
				Sizes:           make(map[catalog.Size]int),
				Total:           decimal.Zero,
			}
			if cfg, found := c.FindGarmentConfig(o.GarmentConfigID); found {
				pl.StyleCode = cfg.StyleCode
			}
			lines[k] = pl
		}
		pl.Sizes[o.Size] += o.Quantity
		pl.Quantity += o.Quantity
		pl.Total = pl.Total.Add(o.Total)
	}

	order := make(map[uuid.UUID]int, len(c.GarmentConfigs))
	for _, cfg := range c.GarmentConfigs {
		order[cfg.ID] = cfg.SortOrder
	}
	out := make([]ProductionLine, 0, len(lines))
	for _, pl := range lines {
		out = append(out, *pl)
	}
	sort.Slice(out, func(i, j int) bool {
		if order[out[i].GarmentConfigID] != order[out[j].GarmentConfigID] {
			return order[out[i].GarmentConfigID] < order[out[j].GarmentConfigID]
		}
		return out[i].Color < out[j].Color
	})
	return out
}
