// Package query builds Admin GraphQL query text from export filter criteria.
// All builders are pure; the transport sends what they return verbatim.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Page size constants. Variants and publications are nested pages capped per
// product; the API rejects larger first: arguments at reasonable query cost.
const (
	ProductPageSize     = 50
	VariantPageSize     = 50
	PublicationPageSize = 10
	ListingPageSize     = 250
	ChannelListSize     = 25
)

// Status filters products by lifecycle state. StatusAny omits the clause.
type Status string

const (
	StatusAny      Status = "ANY"
	StatusActive   Status = "ACTIVE"
	StatusDraft    Status = "DRAFT"
	StatusArchived Status = "ARCHIVED"
)

// SortKey selects the server-side sort order. The pagination cursor is only
// valid under the sort it was issued for.
type SortKey string

const (
	SortCreatedAt SortKey = "CREATED_AT"
	SortTitle     SortKey = "TITLE"
)

// Criteria is the immutable set of export filters. Zero-valued fields are
// omitted from the predicate entirely, never encoded as wildcards.
type Criteria struct {
	Status        Status
	Vendor        string
	Tag           string
	PublicationID string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	SortKey       SortKey
	Reverse       bool
}

// escapeSearchTerm backslash-escapes quote characters so a user-supplied
// value cannot break out of its quoted clause in the search predicate.
func escapeSearchTerm(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// predicate renders the AND-joined free-text search parameter. Returns the
// empty string when no filter is set.
func predicate(c Criteria) string {
	var clauses []string

	if c.Status != "" && c.Status != StatusAny {
		clauses = append(clauses, "status:"+string(c.Status))
	}
	if c.PublicationID != "" {
		clauses = append(clauses, fmt.Sprintf(`published_status:"%s"`, escapeSearchTerm(c.PublicationID)))
	}
	if c.Vendor != "" {
		clauses = append(clauses, fmt.Sprintf(`vendor:"%s"`, escapeSearchTerm(c.Vendor)))
	}
	if c.Tag != "" {
		clauses = append(clauses, fmt.Sprintf(`tag:"%s"`, escapeSearchTerm(c.Tag)))
	}
	if !c.CreatedAfter.IsZero() {
		clauses = append(clauses, "created_at:>="+c.CreatedAfter.UTC().Format(time.RFC3339))
	}
	if !c.CreatedBefore.IsZero() {
		clauses = append(clauses, "created_at:<="+c.CreatedBefore.UTC().Format(time.RFC3339))
	}

	return strings.Join(clauses, " AND ")
}

// queryArg renders the optional query: argument with GraphQL string quoting
// applied on top of the search-syntax escaping.
func queryArg(c Criteria) string {
	p := predicate(c)
	if p == "" {
		return ""
	}
	return ", query: " + strconv.Quote(p)
}

// afterArg renders the optional pagination argument.
func afterArg(cursor string) string {
	if cursor == "" {
		return ""
	}
	return fmt.Sprintf(`, after: %s`, strconv.Quote(cursor))
}

// BuildProducts returns the products page query for the given criteria and
// cursor. An empty cursor starts from the first page under the sort order.
func BuildProducts(c Criteria, cursor string) string {
	sortKey := c.SortKey
	if sortKey == "" {
		sortKey = SortCreatedAt
	}

	return fmt.Sprintf(`{
  products(first: %d%s, sortKey: %s, reverse: %t%s) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        title
        handle
        status
        vendor
        productType
        tags
        createdAt
        updatedAt
        publishedAt
        totalInventory
        resourcePublications(first: %d) {
          edges {
            node {
              isPublished
              publication {
                id
                name
              }
            }
          }
        }
        mediaCount { count }
        variants(first: %d) {
          edges {
            node {
              id
              sku
              barcode
              price
              compareAtPrice
              inventoryQuantity
              inventoryPolicy
              inventoryItem {
                tracked
                measurement {
                  weight { value unit }
                }
              }
              selectedOptions {
                name
                value
              }
            }
          }
        }
      }
    }
  }
}`, ProductPageSize, afterArg(cursor), sortKey, c.Reverse, queryArg(c), PublicationPageSize, VariantPageSize)
}

// BuildProductCount returns the count-only query for the same predicate.
func BuildProductCount(c Criteria) string {
	arg := ""
	if p := predicate(c); p != "" {
		arg = "(query: " + strconv.Quote(p) + ")"
	}
	return fmt.Sprintf(`{
  productsCount%s {
    count
  }
}`, arg)
}

// BuildShop returns the minimal query used to validate credentials.
func BuildShop() string {
	return `{
  shop {
    name
  }
}`
}

// BuildVendorsPage returns one page of the vendor listing scan.
func BuildVendorsPage(cursor string) string {
	return fmt.Sprintf(`{
  products(first: %d%s) {
    pageInfo { hasNextPage endCursor }
    edges { node { vendor } }
  }
}`, ListingPageSize, afterArg(cursor))
}

// BuildTagsPage returns one page of the shop tag listing.
func BuildTagsPage(cursor string) string {
	args := fmt.Sprintf("(first: %d%s)", ListingPageSize, afterArg(cursor))
	return fmt.Sprintf(`{
  shop {
    productTags%s {
      pageInfo { hasNextPage endCursor }
      edges { node }
    }
  }
}`, args)
}

// BuildPublications returns the sales channel listing query.
func BuildPublications() string {
	return fmt.Sprintf(`{
  publications(first: %d) {
    edges {
      node {
        id
        name
      }
    }
  }
}`, ChannelListSize)
}
