// Package integrity filters the complete flattened row set for duplicate
// and incomplete entries. The filters are whole-set by nature: duplicate
// grouping cannot be decided while streaming.
package integrity

import (
	"strings"

	"github.com/cwenzel/shopify-export/pkg/flatten"
)

// skuOf returns the row's trimmed SKU, empty when absent.
func skuOf(row flatten.Row) string {
	return cellString(row["SKU"])
}

// barcodeOf returns the row's trimmed barcode, empty when absent.
func barcodeOf(row flatten.Row) string {
	return cellString(row["Barcode"])
}

func cellString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// imageCount coerces the row's image count to an int. Absent or non-numeric
// values count as zero.
func imageCount(row flatten.Row) int {
	switch v := row["Image Count"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// groups indexes rows by a key function, skipping empty keys so that two
// rows without a SKU never match each other.
func groups(rows []flatten.Row, key func(flatten.Row) string) map[string][]int {
	out := make(map[string][]int)
	for i, row := range rows {
		if k := key(row); k != "" {
			out[k] = append(out[k], i)
		}
	}
	return out
}

// Duplicates keeps rows that share a non-empty SKU or a non-empty barcode
// with at least one other row. Original order is preserved.
func Duplicates(rows []flatten.Row) []flatten.Row {
	bySKU := groups(rows, skuOf)
	byBarcode := groups(rows, barcodeOf)

	var out []flatten.Row
	for _, row := range rows {
		if len(bySKU[skuOf(row)]) > 1 || len(byBarcode[barcodeOf(row)]) > 1 {
			out = append(out, row)
		}
	}
	return out
}

// MissingImages keeps rows whose image count is exactly zero.
func MissingImages(rows []flatten.Row) []flatten.Row {
	var out []flatten.Row
	for _, row := range rows {
		if imageCount(row) == 0 {
			out = append(out, row)
		}
	}
	return out
}

// DuplicatesMissingImages keeps every member of a SKU or barcode group of
// size > 1 in which at least one member has no images. Group membership
// decides inclusion: a row with images is kept when it shares a SKU or
// barcode with an image-less sibling. Each row appears at most once, in
// original order.
func DuplicatesMissingImages(rows []flatten.Row) []flatten.Row {
	keep := make([]bool, len(rows))

	mark := func(grouped map[string][]int) {
		for _, indices := range grouped {
			if len(indices) < 2 {
				continue
			}
			hasMissing := false
			for _, i := range indices {
				if imageCount(rows[i]) == 0 {
					hasMissing = true
					break
				}
			}
			if !hasMissing {
				continue
			}
			for _, i := range indices {
				keep[i] = true
			}
		}
	}

	mark(groups(rows, skuOf))
	mark(groups(rows, barcodeOf))

	var out []flatten.Row
	for i, row := range rows {
		if keep[i] {
			out = append(out, row)
		}
	}
	return out
}
