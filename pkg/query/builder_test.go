package query

import (
	"strings"
	"testing"
	"time"
)

func TestPredicate_AbsentFieldsOmitted(t *testing.T) {
	if got := predicate(Criteria{}); got != "" {
		t.Errorf("predicate(empty) = %q, want empty", got)
	}
	if got := predicate(Criteria{Status: StatusAny}); got != "" {
		t.Errorf("predicate(status ANY) = %q, want empty", got)
	}

	q := BuildProducts(Criteria{}, "")
	if strings.Contains(q, "query:") {
		t.Errorf("query with no filters must not carry a query: argument:\n%s", q)
	}
	if strings.Contains(q, "after:") {
		t.Errorf("query with no cursor must not carry an after: argument:\n%s", q)
	}
}

func TestPredicate_Clauses(t *testing.T) {
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		criteria Criteria
		want     string
	}{
		{
			name:     "status only",
			criteria: Criteria{Status: StatusActive},
			want:     "status:ACTIVE",
		},
		{
			name:     "vendor quoted",
			criteria: Criteria{Vendor: "Acme Corp"},
			want:     `vendor:"Acme Corp"`,
		},
		{
			name:     "tag quoted",
			criteria: Criteria{Tag: "summer"},
			want:     `tag:"summer"`,
		},
		{
			name:     "channel quoted",
			criteria: Criteria{PublicationID: "gid://shopify/Publication/42"},
			want:     `published_status:"gid://shopify/Publication/42"`,
		},
		{
			name:     "date range",
			criteria: Criteria{CreatedAfter: after, CreatedBefore: before},
			want:     "created_at:>=2024-03-01T00:00:00Z AND created_at:<=2024-03-31T23:59:59Z",
		},
		{
			name: "all clauses AND joined",
			criteria: Criteria{
				Status: StatusDraft,
				Vendor: "Acme",
				Tag:    "sale",
			},
			want: `status:DRAFT AND vendor:"Acme" AND tag:"sale"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := predicate(tt.criteria); got != tt.want {
				t.Errorf("predicate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildProducts_QuoteEscaping(t *testing.T) {
	q := BuildProducts(Criteria{Vendor: `My "Best" Vendor`}, "")

	// Inner quotes are escaped for the search parser, then the whole
	// predicate is quoted again as a GraphQL string.
	want := `query: "vendor:\"My \\\"Best\\\" Vendor\""`
	if !strings.Contains(q, want) {
		t.Errorf("query missing escaped predicate %q:\n%s", want, q)
	}
}

func TestBuildProducts_CursorAndSort(t *testing.T) {
	q := BuildProducts(Criteria{SortKey: SortTitle, Reverse: true}, "abc123")

	if !strings.Contains(q, `after: "abc123"`) {
		t.Errorf("query missing cursor argument:\n%s", q)
	}
	if !strings.Contains(q, "sortKey: TITLE") {
		t.Errorf("query missing sort key:\n%s", q)
	}
	if !strings.Contains(q, "reverse: true") {
		t.Errorf("query missing reverse flag:\n%s", q)
	}
	if !strings.Contains(q, "products(first: 50") {
		t.Errorf("query missing page size:\n%s", q)
	}
}

func TestBuildProducts_DefaultSortKey(t *testing.T) {
	q := BuildProducts(Criteria{}, "")
	if !strings.Contains(q, "sortKey: CREATED_AT") {
		t.Errorf("query missing default sort key:\n%s", q)
	}
}

func TestBuildProducts_RequestedFields(t *testing.T) {
	q := BuildProducts(Criteria{}, "")

	for _, field := range []string{
		"id", "title", "handle", "status", "vendor", "productType",
		"tags", "createdAt", "updatedAt", "publishedAt", "totalInventory",
		"resourcePublications(first: 10)", "mediaCount { count }",
		"variants(first: 50)", "sku", "barcode", "price", "compareAtPrice",
		"inventoryQuantity", "inventoryPolicy", "weight { value unit }",
		"selectedOptions",
	} {
		if !strings.Contains(q, field) {
			t.Errorf("query missing field %q", field)
		}
	}
}

func TestBuildProductCount_SharesPredicate(t *testing.T) {
	c := Criteria{Vendor: `Quote "Heavy" Inc`, Status: StatusActive}

	products := BuildProducts(c, "")
	count := BuildProductCount(c)

	want := `"status:ACTIVE AND vendor:\"Quote \\\"Heavy\\\" Inc\""`
	if !strings.Contains(products, want) {
		t.Errorf("products query predicate mismatch:\n%s", products)
	}
	if !strings.Contains(count, want) {
		t.Errorf("count query predicate mismatch:\n%s", count)
	}
	if !strings.Contains(count, "productsCount") {
		t.Errorf("count query missing productsCount:\n%s", count)
	}
}

func TestBuildProductCount_NoFilters(t *testing.T) {
	q := BuildProductCount(Criteria{})
	if !strings.Contains(q, "productsCount {") {
		t.Errorf("unfiltered count query must omit the query argument:\n%s", q)
	}
}

func TestBuildListingQueries(t *testing.T) {
	if q := BuildVendorsPage(""); strings.Contains(q, "after:") {
		t.Errorf("first vendors page must not carry a cursor:\n%s", q)
	}
	if q := BuildVendorsPage("v1"); !strings.Contains(q, `after: "v1"`) {
		t.Errorf("vendors page missing cursor:\n%s", q)
	}
	if q := BuildTagsPage("t1"); !strings.Contains(q, `productTags(first: 250, after: "t1")`) {
		t.Errorf("tags page missing cursor:\n%s", q)
	}
	if q := BuildPublications(); !strings.Contains(q, "publications(first: 25)") {
		t.Errorf("publications query wrong shape:\n%s", q)
	}
	if q := BuildShop(); !strings.Contains(q, "shop") || !strings.Contains(q, "name") {
		t.Errorf("shop query wrong shape:\n%s", q)
	}
}

func TestBuildProducts_Deterministic(t *testing.T) {
	c := Criteria{Vendor: "Acme", Tag: "sale", Status: StatusActive}
	if BuildProducts(c, "cur") != BuildProducts(c, "cur") {
		t.Error("BuildProducts is not deterministic")
	}
}
