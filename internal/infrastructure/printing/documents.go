package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/order"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	packingSlipTemplate = "packing_slip.html"
	orderSheetTemplate  = "order_sheet.html"
	dateLayout          = "Jan 2, 2006"
)

// Documents renders order paperwork through a PDFRenderer
type Documents struct {
	renderer PDFRenderer
	tmpl     *template.Template
}

// NewDocuments parses the embedded templates
func NewDocuments(renderer PDFRenderer) (*Documents, error) {
	tmpl, err := template.New("documents").
		Funcs(template.FuncMap{"label": label}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	return &Documents{renderer: renderer, tmpl: tmpl}, nil
}

// PackingSlip renders a shop order's packing slip
func (d *Documents) PackingSlip(ctx context.Context, o *order.Order) ([]byte, error) {
	doc, err := d.execute(packingSlipTemplate, newPackingSlipView(o))
	if err != nil {
		return nil, err
	}
	return d.render(ctx, doc, "Packing slip "+o.OrderNumber, false)
}

// OrderSheet renders a campaign's production roster. Cancelled and
// refunded orders are left off.
func (d *Documents) OrderSheet(ctx context.Context, c *campaign.Campaign, orders []campaign.CampaignOrder) ([]byte, error) {
	doc, err := d.execute(orderSheetTemplate, newOrderSheetView(c, orders))
	if err != nil {
		return nil, err
	}
	return d.render(ctx, doc, "Order sheet "+c.Slug, true)
}

func (d *Documents) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := d.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute "+name, err)
	}
	return buf.String(), nil
}

func (d *Documents) render(ctx context.Context, doc, title string, landscape bool) ([]byte, error) {
	result, err := d.renderer.Render(ctx, &RenderRequest{
		HTML:       doc,
		PaperSize:  PaperLetter,
		Landscape:  landscape,
		Margins:    DefaultMargins(),
		Title:      title,
		FooterHTML: `<div style="font-size:8px;width:100%;text-align:center;"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

// label turns "left_sleeve" into "Left Sleeve"
func label(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
	return cases.Title(language.English).String(s)
}

type itemRow struct {
	Name      string
	StyleCode string
	Color     string
	Sizes     string
	Quantity  int
}

type locationRow struct {
	Location string
	Ink      string
	Artwork  string
}

type packingSlipView struct {
	OrderNumber   string
	PlacedAt      string
	Status        order.Status
	CustomerName  string
	Email         string
	AddressLines  []string
	Items         []itemRow
	Locations     []locationRow
	TotalQuantity int
	Notes         string
}

func newPackingSlipView(o *order.Order) packingSlipView {
	v := packingSlipView{
		OrderNumber:   o.OrderNumber,
		PlacedAt:      o.CreatedAt.Format(dateLayout),
		Status:        o.Status,
		CustomerName:  o.CustomerName,
		Email:         o.Email,
		AddressLines:  addressLines(o),
		TotalQuantity: o.TotalQuantity,
		Notes:         o.Notes,
	}
	for _, item := range o.Items {
		v.Items = append(v.Items, itemRow{
			Name:      item.GarmentName,
			StyleCode: item.StyleCode,
			Color:     item.Color,
			Sizes:     formatSizes(item.Sizes),
			Quantity:  item.Quantity,
		})
	}
	for _, loc := range o.PrintLocations {
		row := locationRow{Location: string(loc.Location), Artwork: "none"}
		if loc.FullColor {
			row.Ink = "Full color"
		} else {
			row.Ink = fmt.Sprintf("%d color", loc.InkColors)
		}
		if loc.ArtworkFileID != nil {
			row.Artwork = loc.ArtworkFileID.String()[:8]
		}
		v.Locations = append(v.Locations, row)
	}
	return v
}

func addressLines(o *order.Order) []string {
	a := o.ShippingAddress
	lines := []string{a.Line1}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	lines = append(lines, fmt.Sprintf("%s, %s %s", a.City, a.State, a.PostalCode), a.Country)
	return lines
}

// formatSizes lists sizes in catalog order, e.g. "S x2, M x3"
func formatSizes(sizes map[catalog.Size]int) string {
	parts := make([]string, 0, len(sizes))
	for _, size := range catalog.SizeOrder {
		if n := sizes[size]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s x%d", size, n))
		}
	}
	return strings.Join(parts, ", ")
}

type rosterRow struct {
	Participant string
	Garment     string
	Color       string
	Size        catalog.Size
	Quantity    int
	Status      campaign.OrderStatus
}

type summaryRow struct {
	Garment string
	Color   string
	Counts  []int
	Total   int
}

type orderSheetView struct {
	Name          string
	Slug          string
	OrganizerName string
	Deadline      string
	Status        campaign.Status
	Sizes         []catalog.Size
	Summary       []summaryRow
	Rows          []rosterRow
	Participants  int
	TotalItems    int
}

func newOrderSheetView(c *campaign.Campaign, orders []campaign.CampaignOrder) orderSheetView {
	stats := campaign.ComputeStats(c, orders)
	v := orderSheetView{
		Name:          c.Name,
		Slug:          c.Slug,
		OrganizerName: c.OrganizerName,
		Deadline:      c.Deadline.In(time.UTC).Format(dateLayout),
		Status:        c.Status,
		Participants:  stats.Participants,
		TotalItems:    stats.TotalItems,
	}
	for _, size := range catalog.SizeOrder {
		if stats.SizeBreakdown[size] > 0 {
			v.Sizes = append(v.Sizes, size)
		}
	}

	type key struct{ garment, color string }
	summary := make(map[key]*summaryRow)
	var keys []key
	for _, o := range orders {
		if !o.Status.IsLive() {
			continue
		}
		v.Rows = append(v.Rows, rosterRow{
			Participant: o.ParticipantName,
			Garment:     o.GarmentName,
			Color:       o.Color,
			Size:        o.Size,
			Quantity:    o.Quantity,
			Status:      o.Status,
		})
		k := key{o.GarmentName, o.Color}
		row, ok := summary[k]
		if !ok {
			row = &summaryRow{Garment: o.GarmentName, Color: o.Color, Counts: make([]int, len(v.Sizes))}
			summary[k] = row
			keys = append(keys, k)
		}
		for i, size := range v.Sizes {
			if size == o.Size {
				row.Counts[i] += o.Quantity
			}
		}
		row.Total += o.Quantity
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].garment != keys[j].garment {
			return keys[i].garment < keys[j].garment
		}
		return keys[i].color < keys[j].color
	})
	for _, k := range keys {
		v.Summary = append(v.Summary, *summary[k])
	}
	sort.SliceStable(v.Rows, func(i, j int) bool {
		a, b := v.Rows[i], v.Rows[j]
		if a.Garment != b.Garment {
			return a.Garment < b.Garment
		}
		if a.Color != b.Color {
			return a.Color < b.Color
		}
		if a.Size != b.Size {
			return a.Size.Rank() < b.Size.Rank()
		}
		return strings.ToLower(a.Participant) < strings.ToLower(b.Participant)
	})
	return v
}
