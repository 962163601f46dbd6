package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ListingCache caches public garment listings
type ListingCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidateAll(ctx context.Context) error
}

// DefaultListingTTL is how long a public listing stays cached
const DefaultListingTTL = 5 * time.Minute

// GarmentSortFields are the order_by values accepted by List
var GarmentSortFields = []string{"name", "style_code", "base_price", "sort_order", "updated_at"}

// GarmentService handles catalog operations
type GarmentService struct {
	garmentRepo    catalog.GarmentRepository
	cache          ListingCache
	cacheTTL       time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewGarmentService creates a new GarmentService. cache may be nil.
func NewGarmentService(garmentRepo catalog.GarmentRepository, cache ListingCache, logger *zap.Logger) *GarmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarmentService{
		garmentRepo: garmentRepo,
		cache:       cache,
		cacheTTL:    DefaultListingTTL,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *GarmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ListPublic returns active garments for the storefront, served from cache when possible
func (s *GarmentService) ListPublic(ctx context.Context, filter GarmentListFilter) (*shared.Paginated[GarmentResponse], error) {
	filter.Active = nil
	f := s.toDomainFilter(filter)
	f.Filters["active"] = true
	if filter.OrderBy == "" {
		f.OrderBy, f.OrderDir = "sort_order", "asc"
	}

	key := listingKey(f)
	if s.cache != nil {
		var cached shared.Paginated[GarmentResponse]
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Garment cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	page, err := s.list(ctx, f)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			s.logger.Warn("Garment cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

// GetPublic returns an active garment; inactive garments are not found
func (s *GarmentService) GetPublic(ctx context.Context, id uuid.UUID) (*GarmentResponse, error) {
	g, err := s.garmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.Active {
		return nil, shared.ErrNotFound
	}
	resp := ToGarmentResponse(g)
	return &resp, nil
}

// List returns garments for admins, including inactive ones
func (s *GarmentService) List(ctx context.Context, filter GarmentListFilter) (*shared.Paginated[GarmentResponse], error) {
	f := s.toDomainFilter(filter)
	if filter.Active != nil {
		f.Filters["active"] = *filter.Active
	}
	return s.list(ctx, f)
}

// GetByID returns a garment by id
func (s *GarmentService) GetByID(ctx context.Context, id uuid.UUID) (*GarmentResponse, error) {
	g, err := s.garmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToGarmentResponse(g)
	return &resp, nil
}

// Create adds a garment to the catalog
func (s *GarmentService) Create(ctx context.Context, req CreateGarmentRequest) (*GarmentResponse, error) {
	styleCode := strings.ToUpper(strings.TrimSpace(req.StyleCode))
	if _, err := s.garmentRepo.FindByStyleCode(ctx, styleCode); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Garment with this style code already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	g, err := catalog.NewGarment(req.Name, req.Brand, styleCode, catalog.GarmentCategory(req.Category), req.BasePrice)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.SortOrder != 0 {
		if err := g.Update(g.Name, g.Brand, req.Description, g.Category, req.SortOrder); err != nil {
			return nil, err
		}
	}
	if err := g.SetColors(toColors(req.Colors)); err != nil {
		return nil, err
	}
	sizes, err := parseSizes(req.Sizes)
	if err != nil {
		return nil, err
	}
	if err := g.SetSizes(sizes); err != nil {
		return nil, err
	}
	if len(req.SizeUpcharges) > 0 {
		upcharges, err := parseUpcharges(req.SizeUpcharges)
		if err != nil {
			return nil, err
		}
		if err := g.SetPrice(g.BasePrice, upcharges); err != nil {
			return nil, err
		}
	}
	if len(req.PrintLocations) > 0 {
		if err := setLocations(g, req.PrintLocations); err != nil {
			return nil, err
		}
	}
	if req.Active != nil && !*req.Active {
		g.Deactivate()
	}

	if err := s.garmentRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, g)

	s.logger.Info("Garment created", zap.String("garment_id", g.ID.String()), zap.String("style_code", g.StyleCode))
	resp := ToGarmentResponse(g)
	return &resp, nil
}

// Update applies a partial update to a garment
func (s *GarmentService) Update(ctx context.Context, id uuid.UUID, req UpdateGarmentRequest) (*GarmentResponse, error) {
	g, err := s.garmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, brand, desc, category, sortOrder := g.Name, g.Brand, g.Description, g.Category, g.SortOrder
	if req.Name != nil {
		name = *req.Name
	}
	if req.Brand != nil {
		brand = *req.Brand
	}
	if req.Description != nil {
		desc = *req.Description
	}
	if req.Category != nil {
		category = catalog.GarmentCategory(*req.Category)
	}
	if req.SortOrder != nil {
		sortOrder = *req.SortOrder
	}
	if err := g.Update(name, brand, desc, category, sortOrder); err != nil {
		return nil, err
	}

	if req.Colors != nil {
		if err := g.SetColors(toColors(req.Colors)); err != nil {
			return nil, err
		}
	}
	if req.Sizes != nil {
		sizes, err := parseSizes(req.Sizes)
		if err != nil {
			return nil, err
		}
		if err := g.SetSizes(sizes); err != nil {
			return nil, err
		}
	}
	if req.BasePrice != nil || req.SizeUpcharges != nil {
		base := g.BasePrice
		if req.BasePrice != nil {
			base = *req.BasePrice
		}
		upcharges := g.SizeUpcharges
		if req.SizeUpcharges != nil {
			if upcharges, err = parseUpcharges(req.SizeUpcharges); err != nil {
				return nil, err
			}
		}
		if err := g.SetPrice(base, upcharges); err != nil {
			return nil, err
		}
	}
	if req.PrintLocations != nil {
		if err := setLocations(g, req.PrintLocations); err != nil {
			return nil, err
		}
	}
	if req.Active != nil {
		if *req.Active {
			g.Activate()
		} else {
			g.Deactivate()
		}
	}

	if err := s.garmentRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, g)

	resp := ToGarmentResponse(g)
	return &resp, nil
}

// Delete removes a garment from the catalog
func (s *GarmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.garmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("Garment deleted", zap.String("garment_id", id.String()))
	return nil
}

func (s *GarmentService) list(ctx context.Context, f shared.Filter) (*shared.Paginated[GarmentResponse], error) {
	garments, err := s.garmentRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.garmentRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToGarmentResponses(garments), total, f.Page, f.PageSize)
	return &page, nil
}

func (s *GarmentService) toDomainFilter(filter GarmentListFilter) shared.Filter {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
	}.Normalize(GarmentSortFields...)
	if filter.Category != "" {
		f.Filters["category"] = filter.Category
	}
	return f
}

// afterWrite publishes pending events and drops cached listings
func (s *GarmentService) afterWrite(ctx context.Context, g *catalog.Garment) {
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, g.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish garment events", zap.String("garment_id", g.ID.String()), zap.Error(err))
		}
	}
	g.ClearDomainEvents()
	s.invalidate(ctx)
}

func (s *GarmentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Garment cache invalidation failed", zap.Error(err))
	}
}

func listingKey(f shared.Filter) string {
	category, _ := f.Filters["category"].(string)
	return fmt.Sprintf("garments:p%d:s%d:%s:%s:%s:%s",
		f.Page, f.PageSize, f.OrderBy, f.OrderDir, category, strings.ToLower(f.Search))
}

func toColors(in []ColorInput) []catalog.Color {
	out := make([]catalog.Color, len(in))
	for i, c := range in {
		out[i] = catalog.Color{Name: c.Name, Hex: c.Hex, ImageURL: c.ImageURL}
	}
	return out
}

func parseSizes(raw []string) ([]catalog.Size, error) {
	sizes := make([]catalog.Size, 0, len(raw))
	for _, r := range raw {
		size, ok := catalog.ParseSize(r)
		if !ok {
			return nil, shared.NewDomainError("INVALID_SIZE", "Unknown size: "+r)
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func parseUpcharges(raw map[string]decimal.Decimal) (map[catalog.Size]decimal.Decimal, error) {
	out := make(map[catalog.Size]decimal.Decimal, len(raw))
	for r, amount := range raw {
		size, ok := catalog.ParseSize(r)
		if !ok {
			return nil, shared.NewDomainError("INVALID_SIZE", "Unknown size: "+r)
		}
		out[size] = amount
	}
	return out, nil
}

func setLocations(g *catalog.Garment, raw []string) error {
	for _, l := range raw {
		if !artwork.PrintLocation(l).IsValid() {
			return shared.NewDomainError("INVALID_LOCATION", "Unknown print location: "+l)
		}
	}
	return g.SetPrintLocations(raw)
}
