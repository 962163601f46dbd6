package persistence

import (
	"strings"

	"github.com/inkthread/storefront/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns whitelists the columns a listing may be ordered by. Filter
// values reach ORDER BY only through this set.
type sortColumns map[string]struct{}

func newSortColumns(extra ...string) sortColumns {
	cols := sortColumns{"id": {}, "created_at": {}, "updated_at": {}}
	for _, c := range extra {
		cols[c] = struct{}{}
	}
	return cols
}

// column returns field when whitelisted and created_at otherwise
func (s sortColumns) column(field string) string {
	field = strings.TrimSpace(field)
	if _, ok := s[field]; ok {
		return field
	}
	return "created_at"
}

var (
	garmentSortColumns       = newSortColumns("name", "brand", "style_code", "category", "base_price", "sort_order")
	customerSortColumns      = newSortColumns("email", "name", "order_count", "total_spent")
	orderSortColumns         = newSortColumns("order_number", "email", "status", "total", "total_quantity", "paid_at", "shipped_at")
	campaignSortColumns      = newSortColumns("slug", "name", "organizer_email", "deadline", "status")
	campaignOrderSortColumns = newSortColumns("participant_name", "participant_email", "size", "quantity", "status", "total")
	savedArtworkSortColumns  = newSortColumns("name", "last_used_at")
)

// applyOrderAndPage orders by a whitelisted column, newest first unless
// "asc" is asked for, with id as tiebreaker so pages never overlap.
func applyOrderAndPage(query *gorm.DB, filter shared.Filter, cols sortColumns) *gorm.DB {
	desc := !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc")
	query = query.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: cols.column(filter.OrderBy)}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}})

	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

// likePattern lowercases a search term for LOWER(col) LIKE ? matching
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
