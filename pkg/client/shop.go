package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cwenzel/shopify-export/pkg/catalog"
	"github.com/cwenzel/shopify-export/pkg/query"
)

// listingPause spaces out the full-catalog scans used to build filter
// choices. The export loop has its own credit-based throttling instead.
const listingPause = 500 * time.Millisecond

// post sends a query and decodes the payload into v. Any non-payload
// outcome is returned as its error.
func (c *Client) post(ctx context.Context, q string, v any) error {
	out := c.Post(ctx, q)
	if err := out.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(out.Data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// ValidateCredentials checks the domain/token pair by fetching the shop
// name. Returns the name on success.
func (c *Client) ValidateCredentials(ctx context.Context) (string, error) {
	var data catalog.ShopData
	if err := c.post(ctx, query.BuildShop(), &data); err != nil {
		return "", err
	}
	c.logger.Info().Str("shop", data.Shop.Name).Msg("Credentials validated")
	return data.Shop.Name, nil
}

// FetchVendors scans the catalog and returns the distinct vendor names,
// sorted. Used to populate filter choices.
func (c *Client) FetchVendors(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	cursor := ""

	for {
		if err := pause(ctx, listingPause); err != nil {
			return nil, err
		}

		var data catalog.VendorsData
		if err := c.post(ctx, query.BuildVendorsPage(cursor), &data); err != nil {
			return nil, err
		}
		for _, edge := range data.Products.Edges {
			if edge.Node.Vendor != "" {
				seen[edge.Node.Vendor] = struct{}{}
			}
		}
		if !data.Products.PageInfo.HasNextPage {
			break
		}
		cursor = data.Products.PageInfo.EndCursor
	}

	return sortedKeys(seen), nil
}

// FetchTags returns the shop's distinct product tags, sorted.
func (c *Client) FetchTags(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	cursor := ""

	for {
		if err := pause(ctx, listingPause); err != nil {
			return nil, err
		}

		var data catalog.TagsData
		if err := c.post(ctx, query.BuildTagsPage(cursor), &data); err != nil {
			return nil, err
		}
		for _, edge := range data.Shop.ProductTags.Edges {
			if edge.Node != "" {
				seen[edge.Node] = struct{}{}
			}
		}
		if !data.Shop.ProductTags.PageInfo.HasNextPage {
			break
		}
		cursor = data.Shop.ProductTags.PageInfo.EndCursor
	}

	return sortedKeys(seen), nil
}

// FetchPublications returns the shop's sales channels.
func (c *Client) FetchPublications(ctx context.Context) ([]catalog.Publication, error) {
	var data catalog.PublicationsData
	if err := c.post(ctx, query.BuildPublications(), &data); err != nil {
		return nil, err
	}

	pubs := make([]catalog.Publication, 0, len(data.Publications.Edges))
	for _, edge := range data.Publications.Edges {
		pubs = append(pubs, edge.Node)
	}
	return pubs, nil
}

// ProductCount returns the number of products matching the criteria.
func (c *Client) ProductCount(ctx context.Context, criteria query.Criteria) (int, error) {
	var data catalog.CountData
	if err := c.post(ctx, query.BuildProductCount(criteria), &data); err != nil {
		return 0, err
	}
	return data.ProductsCount.Count, nil
}

// pause sleeps for d unless the context ends first.
func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
