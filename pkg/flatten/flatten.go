// Package flatten turns one nested product record into flat export rows,
// one row per variant. All functions are pure; missing data defaults, it
// never fails a run.
package flatten

import (
	"strconv"
	"strings"

	"github.com/cwenzel/shopify-export/pkg/catalog"
)

// Row maps a column name to a scalar cell value.
type Row map[string]any

// DefaultColumns is the full column set in output order.
var DefaultColumns = []string{
	"Product ID",
	"Product Title",
	"Handle",
	"Status",
	"Vendor",
	"Product Type",
	"Tags",
	"Created At",
	"Updated At",
	"Published At",
	"Published Channels",
	"Image Count",
	"Variant Count",
	"Variant ID",
	"SKU",
	"Barcode",
	"Price",
	"Compare At Price",
	"Inventory Quantity",
	"Inventory Policy",
	"Requires Shipping",
	"Weight",
	"Options",
}

// Options controls flattening behavior.
type Options struct {
	// Columns projects and orders the output columns. Empty means all.
	// Unknown names are ignored.
	Columns []string

	// CleanIDs reduces gid:// references to their trailing segment.
	CleanIDs bool
}

// Flatten renders one product into rows, one per variant. A product with no
// variants yields no rows; its scalar data is dropped with it. That matches
// the historical export behavior and is deliberate.
func Flatten(p catalog.Product, opts Options) []Row {
	variantCount := len(p.Variants.Edges)
	rows := make([]Row, 0, variantCount)

	for _, edge := range p.Variants.Edges {
		v := edge.Node
		row := Row{
			"Product ID":         cleanID(p.ID, opts.CleanIDs),
			"Product Title":      p.Title,
			"Handle":             p.Handle,
			"Status":             p.Status,
			"Vendor":             p.Vendor,
			"Product Type":       p.ProductType,
			"Tags":               strings.Join(p.Tags, ", "),
			"Created At":         p.CreatedAt,
			"Updated At":         p.UpdatedAt,
			"Published At":       p.PublishedAt,
			"Published Channels": publishedChannels(p),
			"Image Count":        p.MediaCount.Count,
			"Variant Count":      variantCount,

			"Variant ID":         cleanID(v.ID, opts.CleanIDs),
			"SKU":                v.SKU,
			"Barcode":            v.Barcode,
			"Price":              v.Price,
			"Compare At Price":   v.CompareAtPrice,
			"Inventory Quantity": v.InventoryQuantity,
			"Inventory Policy":   v.InventoryPolicy,
			"Requires Shipping":  false,
			"Weight":             formatWeight(v.InventoryItem),
			"Options":            formatOptions(v.SelectedOptions),
		}

		if len(opts.Columns) > 0 {
			projected := make(Row, len(opts.Columns))
			for _, col := range opts.Columns {
				if val, ok := row[col]; ok {
					projected[col] = val
				}
			}
			row = projected
		}

		rows = append(rows, row)
	}

	return rows
}

// cleanID reduces a hierarchical gid:// reference to its final path segment.
// Empty input stays the empty string.
func cleanID(gid string, enabled bool) string {
	if !enabled || gid == "" {
		return gid
	}
	if idx := strings.LastIndexByte(gid, '/'); idx >= 0 {
		return gid[idx+1:]
	}
	return gid
}

// publishedChannels joins the names of channels the product is published to,
// preserving server order.
func publishedChannels(p catalog.Product) string {
	var names []string
	for _, edge := range p.ResourcePublications.Edges {
		if edge.Node.IsPublished {
			names = append(names, edge.Node.Publication.Name)
		}
	}
	return strings.Join(names, ", ")
}

// formatWeight renders "<value> <unit>". Empty when the inventory item,
// measurement, or weight is absent; no default unit is ever synthesized.
func formatWeight(item *catalog.InventoryItem) string {
	if item == nil || item.Measurement == nil || item.Measurement.Weight == nil {
		return ""
	}
	w := item.Measurement.Weight
	return strconv.FormatFloat(w.Value, 'f', -1, 64) + " " + w.Unit
}

// formatOptions renders option pairs as "name: value", comma-joined in
// server order.
func formatOptions(opts []catalog.SelectedOption) string {
	if len(opts) == 0 {
		return ""
	}
	parts := make([]string, len(opts))
	for i, o := range opts {
		parts[i] = o.Name + ": " + o.Value
	}
	return strings.Join(parts, ", ")
}
