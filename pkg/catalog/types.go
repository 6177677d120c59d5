// Package catalog defines the typed records returned by the Shopify Admin
// GraphQL API for product exports. Missing fields decode to zero values so a
// malformed record degrades instead of aborting a run.
package catalog

import (
	"bytes"
	"encoding/json"
)

// Envelope is the top-level GraphQL response document.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Errors     []GraphQLError  `json:"errors,omitempty"`
	Extensions *Extensions     `json:"extensions,omitempty"`
}

// GraphQLError is one logical error reported inside a 200 response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Extensions carries the advisory query-cost metadata.
type Extensions struct {
	Cost *Cost `json:"cost,omitempty"`
}

// Cost reports the query cost and the current throttle status.
type Cost struct {
	RequestedQueryCost float64         `json:"requestedQueryCost"`
	ActualQueryCost    float64         `json:"actualQueryCost"`
	ThrottleStatus     *ThrottleStatus `json:"throttleStatus,omitempty"`
}

// ThrottleStatus is the server-reported request-credit budget.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// PageInfo drives cursor pagination. EndCursor is opaque and only valid
// under the sort order it was issued for.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// ProductsData is the data shape of a products page query.
type ProductsData struct {
	Products ProductConnection `json:"products"`
}

// ProductConnection is a page of products with pagination info.
type ProductConnection struct {
	PageInfo PageInfo      `json:"pageInfo"`
	Edges    []ProductEdge `json:"edges"`
}

// ProductEdge wraps a product node.
type ProductEdge struct {
	Node Product `json:"node"`
}

// Product is one catalog record with its variants and channel publications.
type Product struct {
	ID                   string                `json:"id"`
	Title                string                `json:"title"`
	Handle               string                `json:"handle"`
	Status               string                `json:"status"`
	Vendor               string                `json:"vendor"`
	ProductType          string                `json:"productType"`
	Tags                 []string              `json:"tags"`
	CreatedAt            string                `json:"createdAt"`
	UpdatedAt            string                `json:"updatedAt"`
	PublishedAt          string                `json:"publishedAt"`
	TotalInventory       int                   `json:"totalInventory"`
	ResourcePublications PublicationConnection `json:"resourcePublications"`
	MediaCount           MediaCount            `json:"mediaCount"`
	Variants             VariantConnection     `json:"variants"`
}

// PublicationConnection lists the sales channels a product is attached to.
type PublicationConnection struct {
	Edges []PublicationEdge `json:"edges"`
}

// PublicationEdge wraps a resource publication node.
type PublicationEdge struct {
	Node ResourcePublication `json:"node"`
}

// ResourcePublication links a product to a sales channel.
type ResourcePublication struct {
	IsPublished bool        `json:"isPublished"`
	Publication Publication `json:"publication"`
}

// Publication is a named sales channel.
type Publication struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MediaCount is the product's media aggregate. The API has returned it both
// as a bare integer and as a {count} object across versions; both decode to
// Count, and anything else counts as zero.
type MediaCount struct {
	Count int
}

// UnmarshalJSON accepts a number, a {count} object, or null.
func (m *MediaCount) UnmarshalJSON(b []byte) error {
	m.Count = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil
		}
		m.Count = obj.Count
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	m.Count = int(n)
	return nil
}

// MarshalJSON writes the object form the current API version uses.
func (m MediaCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count int `json:"count"`
	}{Count: m.Count})
}

// VariantConnection is the nested variant page on a product.
type VariantConnection struct {
	Edges []VariantEdge `json:"edges"`
}

// VariantEdge wraps a variant node.
type VariantEdge struct {
	Node Variant `json:"node"`
}

// Variant is one sellable sub-item of a product. Price fields stay strings
// exactly as the API returns them.
type Variant struct {
	ID                string           `json:"id"`
	SKU               string           `json:"sku"`
	Barcode           string           `json:"barcode"`
	Price             string           `json:"price"`
	CompareAtPrice    string           `json:"compareAtPrice"`
	InventoryQuantity int              `json:"inventoryQuantity"`
	InventoryPolicy   string           `json:"inventoryPolicy"`
	InventoryItem     *InventoryItem   `json:"inventoryItem,omitempty"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
}

// InventoryItem carries tracking state and physical measurement.
type InventoryItem struct {
	Tracked     bool         `json:"tracked"`
	Measurement *Measurement `json:"measurement,omitempty"`
}

// Measurement holds the variant weight when the shop records one.
type Measurement struct {
	Weight *Weight `json:"weight,omitempty"`
}

// Weight is a value with its unit as reported by the API.
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// SelectedOption is one name/value option pair on a variant.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ShopData is the data shape of the shop name query.
type ShopData struct {
	Shop struct {
		Name string `json:"name"`
	} `json:"shop"`
}

// VendorsData is the data shape of a vendor listing page.
type VendorsData struct {
	Products struct {
		PageInfo PageInfo `json:"pageInfo"`
		Edges    []struct {
			Node struct {
				Vendor string `json:"vendor"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

// TagsData is the data shape of a tag listing page.
type TagsData struct {
	Shop struct {
		ProductTags struct {
			PageInfo PageInfo `json:"pageInfo"`
			Edges    []struct {
				Node string `json:"node"`
			} `json:"edges"`
		} `json:"productTags"`
	} `json:"shop"`
}

// PublicationsData is the data shape of the sales channel listing.
type PublicationsData struct {
	Publications struct {
		Edges []struct {
			Node Publication `json:"node"`
		} `json:"edges"`
	} `json:"publications"`
}

// CountData is the data shape of the product count query.
type CountData struct {
	ProductsCount struct {
		Count int `json:"count"`
	} `json:"productsCount"`
}
