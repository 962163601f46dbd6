package catalog

import (
	"regexp"
	"strings"

	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GarmentCategory groups garments on the storefront
type GarmentCategory string

const (
	CategoryTShirt     GarmentCategory = "tshirt"
	CategoryLongSleeve GarmentCategory = "long_sleeve"
	CategoryHoodie     GarmentCategory = "hoodie"
	CategoryCrewneck   GarmentCategory = "crewneck"
	CategoryTank       GarmentCategory = "tank"
	CategoryHat        GarmentCategory = "hat"
	CategoryOther      GarmentCategory = "other"
)

// IsValid checks if the category is valid
func (c GarmentCategory) IsValid() bool {
	switch c {
	case CategoryTShirt, CategoryLongSleeve, CategoryHoodie, CategoryCrewneck,
		CategoryTank, CategoryHat, CategoryOther:
		return true
	}
	return false
}

// Size is a garment size label
type Size string

// SizeOrder is the canonical display order of sizes
var SizeOrder = []Size{"XS", "S", "M", "L", "XL", "2XL", "3XL", "4XL", "5XL", "OS"}

// IsValid checks if the size is known
func (s Size) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of the size in SizeOrder, or -1
func (s Size) Rank() int {
	for i, v := range SizeOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// ParseSize normalizes a size label ("xl" -> "XL", "XXL" -> "2XL")
func ParseSize(raw string) (Size, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "XXL":
		s = "2XL"
	case "XXXL":
		s = "3XL"
	case "ONE SIZE", "ONESIZE":
		s = "OS"
	}
	size := Size(s)
	return size, size.IsValid()
}

// Color is a garment color option
type Color struct {
	Name     string `json:"name"`
	Hex      string `json:"hex"`
	ImageURL string `json:"image_url,omitempty"`
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Garment is a blank garment style that can be printed on.
// It is the aggregate root for the catalog.
type Garment struct {
	shared.BaseAggregateRoot
	Name           string
	Brand          string
	StyleCode      string
	Category       GarmentCategory
	Description    string
	BasePrice      decimal.Decimal
	Colors         []Color
	Sizes          []Size
	SizeUpcharges  map[Size]decimal.Decimal
	PrintLocations []string
	Active         bool
	SortOrder      int
}

// DefaultPrintLocations are allowed when a garment lists none
var DefaultPrintLocations = []string{"front", "back"}

// NewGarment creates a new active garment
func NewGarment(name, brand, styleCode string, category GarmentCategory, basePrice decimal.Decimal) (*Garment, error) {
	if err := validateGarmentName(name); err != nil {
		return nil, err
	}
	if err := validateStyleCode(styleCode); err != nil {
		return nil, err
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Invalid garment category")
	}
	if basePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Base price cannot be negative")
	}

	g := &Garment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Brand:             strings.TrimSpace(brand),
		StyleCode:         strings.ToUpper(strings.TrimSpace(styleCode)),
		Category:          category,
		BasePrice:         basePrice,
		Colors:            []Color{},
		Sizes:             []Size{},
		SizeUpcharges:     map[Size]decimal.Decimal{},
		PrintLocations:    append([]string(nil), DefaultPrintLocations...),
		Active:            true,
	}

	g.AddDomainEvent(NewGarmentCreatedEvent(g))
	return g, nil
}

// Update updates descriptive fields
func (g *Garment) Update(name, brand, description string, category GarmentCategory, sortOrder int) error {
	if err := validateGarmentName(name); err != nil {
		return err
	}
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Invalid garment category")
	}
	g.Name = strings.TrimSpace(name)
	g.Brand = strings.TrimSpace(brand)
	g.Description = description
	g.Category = category
	g.SortOrder = sortOrder
	g.touch()
	return nil
}

// SetPrice sets the blank garment cost and per-size upcharges
func (g *Garment) SetPrice(basePrice decimal.Decimal, upcharges map[Size]decimal.Decimal) error {
	if basePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Base price cannot be negative")
	}
	clean := make(map[Size]decimal.Decimal, len(upcharges))
	for size, amount := range upcharges {
		if !g.HasSize(size) {
			return shared.NewDomainError("INVALID_SIZE", "Upcharge given for a size the garment does not offer: "+string(size))
		}
		if amount.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Size upcharge cannot be negative")
		}
		if !amount.IsZero() {
			clean[size] = amount
		}
	}
	g.BasePrice = basePrice
	g.SizeUpcharges = clean
	g.touch()
	return nil
}

// SetColors replaces the color options
func (g *Garment) SetColors(colors []Color) error {
	if len(colors) == 0 {
		return shared.NewDomainError("INVALID_COLORS", "Garment must offer at least one color")
	}
	seen := make(map[string]bool, len(colors))
	out := make([]Color, 0, len(colors))
	for _, c := range colors {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return shared.NewDomainError("INVALID_COLORS", "Color name cannot be empty")
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return shared.NewDomainError("INVALID_COLORS", "Duplicate color: "+c.Name)
		}
		seen[key] = true
		if !hexColorPattern.MatchString(c.Hex) {
			return shared.NewDomainError("INVALID_COLORS", "Color hex must look like #RRGGBB: "+c.Name)
		}
		c.Hex = strings.ToUpper(c.Hex)
		out = append(out, c)
	}
	g.Colors = out
	g.touch()
	return nil
}

// SetSizes replaces the offered sizes, sorted in canonical order.
// Upcharges for removed sizes are dropped.
func (g *Garment) SetSizes(sizes []Size) error {
	if len(sizes) == 0 {
		return shared.NewDomainError("INVALID_SIZES", "Garment must offer at least one size")
	}
	present := make(map[Size]bool, len(sizes))
	for _, s := range sizes {
		if !s.IsValid() {
			return shared.NewDomainError("INVALID_SIZE", "Unknown size: "+string(s))
		}
		present[s] = true
	}
	ordered := make([]Size, 0, len(present))
	for _, s := range SizeOrder {
		if present[s] {
			ordered = append(ordered, s)
		}
	}
	g.Sizes = ordered
	for s := range g.SizeUpcharges {
		if !present[s] {
			delete(g.SizeUpcharges, s)
		}
	}
	g.touch()
	return nil
}

// SetPrintLocations replaces the allowed print locations.
// The caller validates location names.
func (g *Garment) SetPrintLocations(locations []string) error {
	if len(locations) == 0 {
		return shared.NewDomainError("INVALID_LOCATIONS", "Garment must allow at least one print location")
	}
	seen := make(map[string]bool, len(locations))
	out := make([]string, 0, len(locations))
	for _, l := range locations {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	g.PrintLocations = out
	g.touch()
	return nil
}

// Activate makes the garment visible on the storefront
func (g *Garment) Activate() {
	if g.Active {
		return
	}
	g.Active = true
	g.touch()
}

// Deactivate hides the garment from the storefront
func (g *Garment) Deactivate() {
	if !g.Active {
		return
	}
	g.Active = false
	g.touch()
}

// HasColor reports whether the named color is offered (case-insensitive)
func (g *Garment) HasColor(name string) bool {
	_, ok := g.FindColor(name)
	return ok
}

// FindColor returns the offered color with the given name
func (g *Garment) FindColor(name string) (Color, bool) {
	name = strings.TrimSpace(name)
	for _, c := range g.Colors {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Color{}, false
}

// HasSize reports whether the size is offered
func (g *Garment) HasSize(size Size) bool {
	for _, s := range g.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// SupportsLocation reports whether artwork may be printed at location
func (g *Garment) SupportsLocation(location string) bool {
	locations := g.PrintLocations
	if len(locations) == 0 {
		locations = DefaultPrintLocations
	}
	for _, l := range locations {
		if l == location {
			return true
		}
	}
	return false
}

// UnitPrice returns the blank cost for one piece of the given size
func (g *Garment) UnitPrice(size Size) decimal.Decimal {
	if up, ok := g.SizeUpcharges[size]; ok {
		return g.BasePrice.Add(up)
	}
	return g.BasePrice
}

func (g *Garment) touch() {
	g.MarkChanged()
	g.AddDomainEvent(NewGarmentUpdatedEvent(g))
}

func validateGarmentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Garment name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Garment name cannot exceed 200 characters")
	}
	return nil
}

var styleCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,49}$`)

func validateStyleCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_STYLE_CODE", "Style code cannot be empty")
	}
	if !styleCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_STYLE_CODE", "Style code may contain letters, digits, '-', '_' and '.' (max 50)")
	}
	return nil
}
