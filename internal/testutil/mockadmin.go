// Package testutil provides a configurable mock Admin GraphQL endpoint for
// package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockResponse is one scripted response.
type MockResponse struct {
	Status int
	Body   string
}

// MockAdmin serves scripted responses in order and records the queries it
// received. When the script runs out it serves an empty products page.
type MockAdmin struct {
	server *httptest.Server

	mu      sync.Mutex
	queue   []MockResponse
	queries []string
}

// NewMockAdmin starts the mock endpoint. Callers must Close it.
func NewMockAdmin() *MockAdmin {
	m := &MockAdmin{}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		m.mu.Lock()
		m.queries = append(m.queries, body.Query)
		var res MockResponse
		if len(m.queue) > 0 {
			res = m.queue[0]
			m.queue = m.queue[1:]
		} else {
			res = MockResponse{Status: http.StatusOK, Body: ProductsPage(false, "")}
		}
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(res.Status)
		_, _ = w.Write([]byte(res.Body))
	}))
	return m
}

// URL returns the endpoint URL.
func (m *MockAdmin) URL() string {
	return m.server.URL
}

// Close shuts the endpoint down.
func (m *MockAdmin) Close() {
	m.server.Close()
}

// Enqueue appends scripted responses.
func (m *MockAdmin) Enqueue(res ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, res...)
}

// RequestCount returns how many requests were served.
func (m *MockAdmin) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Queries returns a copy of the received GraphQL query texts, in order.
func (m *MockAdmin) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}

// ProductsPage renders a products page envelope from product node JSON
// snippets.
func ProductsPage(hasNext bool, endCursor string, nodes ...string) string {
	edges := make([]string, len(nodes))
	for i, n := range nodes {
		edges[i] = fmt.Sprintf(`{"node":%s}`, n)
	}
	return fmt.Sprintf(`{
  "data": {
    "products": {
      "pageInfo": {"hasNextPage": %t, "endCursor": %q},
      "edges": [%s]
    }
  }
}`, hasNext, endCursor, strings.Join(edges, ","))
}

// ProductsPageThrottled is ProductsPage with cost extensions attached.
func ProductsPageThrottled(hasNext bool, endCursor string, available float64, nodes ...string) string {
	page := ProductsPage(hasNext, endCursor, nodes...)
	ext := fmt.Sprintf(`,
  "extensions": {
    "cost": {
      "requestedQueryCost": 252,
      "actualQueryCost": 42,
      "throttleStatus": {
        "maximumAvailable": 2000,
        "currentlyAvailable": %g,
        "restoreRate": 100
      }
    }
  }
}`, available)
	return strings.TrimSuffix(strings.TrimSpace(page), "}") + ext
}

// ProductNode renders a minimal product node with the given id, title, and
// variant node snippets.
func ProductNode(id, title string, variants ...string) string {
	edges := make([]string, len(variants))
	for i, v := range variants {
		edges[i] = fmt.Sprintf(`{"node":%s}`, v)
	}
	return fmt.Sprintf(`{
  "id": %q,
  "title": %q,
  "handle": "h",
  "status": "ACTIVE",
  "vendor": "Acme",
  "productType": "Widget",
  "tags": ["a","b"],
  "createdAt": "2024-01-01T00:00:00Z",
  "updatedAt": "2024-01-02T00:00:00Z",
  "publishedAt": "2024-01-03T00:00:00Z",
  "totalInventory": 5,
  "resourcePublications": {"edges": []},
  "mediaCount": {"count": 1},
  "variants": {"edges": [%s]}
}`, id, title, strings.Join(edges, ","))
}

// VariantNode renders a minimal variant node.
func VariantNode(id, sku string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "sku": %q,
  "barcode": "",
  "price": "10.00",
  "compareAtPrice": "",
  "inventoryQuantity": 3,
  "inventoryPolicy": "DENY",
  "selectedOptions": []
}`, id, sku)
}

// GraphQLErrors renders a 200 envelope carrying logical errors.
func GraphQLErrors(messages ...string) string {
	errs := make([]string, len(messages))
	for i, msg := range messages {
		errs[i] = fmt.Sprintf(`{"message":%q}`, msg)
	}
	return fmt.Sprintf(`{"data": null, "errors": [%s]}`, strings.Join(errs, ","))
}
