package config

import (
	"strings"
	"testing"
	"time"

	"github.com/cwenzel/shopify-export/pkg/query"
)

func validConfig() *Config {
	return &Config{
		Shop:   ShopConfig{Domain: "shop.myshopify.com", AccessToken: "tok", APIVersion: "2024-01"},
		Export: ExportConfig{Mode: "export", Output: "products.csv"},
		Filters: FilterConfig{
			Status: "ANY",
			Sort:   "newest",
		},
	}
}

func TestLoad_EnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_EXPORT_SHOP_DOMAIN", "env-shop.myshopify.com")
	t.Setenv("SHOPIFY_EXPORT_SHOP_ACCESS_TOKEN", "shpat_env")
	t.Setenv("SHOPIFY_EXPORT_EXPORT_LIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shop.Domain != "env-shop.myshopify.com" {
		t.Errorf("Domain = %q", cfg.Shop.Domain)
	}
	if cfg.Shop.AccessToken != "shpat_env" {
		t.Errorf("AccessToken = %q", cfg.Shop.AccessToken)
	}
	if cfg.Export.Limit != 25 {
		t.Errorf("Limit = %d, want 25", cfg.Export.Limit)
	}

	// Defaults fill everything the environment leaves out.
	if cfg.Shop.APIVersion != "2024-01" {
		t.Errorf("APIVersion = %q", cfg.Shop.APIVersion)
	}
	if cfg.Filters.Status != "ANY" || cfg.Filters.Sort != "newest" {
		t.Errorf("filter defaults = %+v", cfg.Filters)
	}
	if cfg.Export.Mode != "export" || cfg.Export.Output != "products.csv" || !cfg.Export.CleanIDs {
		t.Errorf("export defaults = %+v", cfg.Export)
	}
	if cfg.Log.Level != "info" || !cfg.Log.Pretty {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("SHOPIFY_EXPORT_SHOP_DOMAIN", "shop.myshopify.com")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "access_token") {
		t.Errorf("err = %v, want missing access token", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Export.Mode = "upload" },
			wantErr: "export.mode",
		},
		{
			name:    "bad check",
			mutate:  func(c *Config) { c.Export.Check = "orphans" },
			wantErr: "export.check",
		},
		{
			name:   "valid check",
			mutate: func(c *Config) { c.Export.Check = "duplicates-missing-images" },
		},
		{
			name:    "negative limit",
			mutate:  func(c *Config) { c.Export.Limit = -1 },
			wantErr: "export.limit",
		},
		{
			name:    "bad status",
			mutate:  func(c *Config) { c.Filters.Status = "LIVE" },
			wantErr: "filters.status",
		},
		{
			name:    "bad sort",
			mutate:  func(c *Config) { c.Filters.Sort = "price" },
			wantErr: "filters.sort",
		},
		{
			name:    "bad date",
			mutate:  func(c *Config) { c.Filters.CreatedAfter = "01/02/2024" },
			wantErr: "created_after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestCriteria_SortPresets(t *testing.T) {
	tests := []struct {
		sort        string
		wantKey     query.SortKey
		wantReverse bool
	}{
		{"newest", query.SortCreatedAt, true},
		{"", query.SortCreatedAt, true},
		{"oldest", query.SortCreatedAt, false},
		{"title-asc", query.SortTitle, false},
		{"title-desc", query.SortTitle, true},
	}

	for _, tt := range tests {
		t.Run("sort "+tt.sort, func(t *testing.T) {
			cfg := validConfig()
			cfg.Filters.Sort = tt.sort

			criteria, err := cfg.Criteria()
			if err != nil {
				t.Fatalf("Criteria: %v", err)
			}
			if criteria.SortKey != tt.wantKey || criteria.Reverse != tt.wantReverse {
				t.Errorf("got (%v, %v), want (%v, %v)", criteria.SortKey, criteria.Reverse, tt.wantKey, tt.wantReverse)
			}
		})
	}
}

func TestCriteria_DateBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Filters.CreatedAfter = "2024-03-01"
	cfg.Filters.CreatedBefore = "2024-03-31"

	criteria, err := cfg.Criteria()
	if err != nil {
		t.Fatalf("Criteria: %v", err)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !criteria.CreatedAfter.Equal(want) {
		t.Errorf("CreatedAfter = %v, want %v", criteria.CreatedAfter, want)
	}
	// The upper bound covers the whole named day.
	if want := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC); !criteria.CreatedBefore.Equal(want) {
		t.Errorf("CreatedBefore = %v, want %v", criteria.CreatedBefore, want)
	}
}

func TestCriteria_FiltersForwarded(t *testing.T) {
	cfg := validConfig()
	cfg.Filters.Status = "active"
	cfg.Filters.Vendor = "Acme"
	cfg.Filters.Tag = "sale"
	cfg.Filters.Channel = "gid://shopify/Publication/7"

	criteria, err := cfg.Criteria()
	if err != nil {
		t.Fatalf("Criteria: %v", err)
	}
	if criteria.Status != query.StatusActive {
		t.Errorf("Status = %v, want normalized ACTIVE", criteria.Status)
	}
	if criteria.Vendor != "Acme" || criteria.Tag != "sale" || criteria.PublicationID != "gid://shopify/Publication/7" {
		t.Errorf("criteria = %+v", criteria)
	}
}
