// Package config loads CLI configuration from a config file and environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cwenzel/shopify-export/pkg/export"
	"github.com/cwenzel/shopify-export/pkg/query"
)

// Config holds all exporter configuration.
type Config struct {
	Shop    ShopConfig
	Filters FilterConfig
	Export  ExportConfig
	Log     LogConfig
}

// ShopConfig identifies the shop and credentials.
type ShopConfig struct {
	Domain      string
	AccessToken string
	APIVersion  string
}

// FilterConfig holds the export filter selections.
type FilterConfig struct {
	Status        string // ANY, ACTIVE, DRAFT, ARCHIVED
	Vendor        string
	Tag           string
	Channel       string // publication id
	CreatedAfter  string // YYYY-MM-DD
	CreatedBefore string // YYYY-MM-DD
	Sort          string // newest, oldest, title-asc, title-desc
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Mode     string // export, vendors, tags, channels
	Limit    int
	Output   string
	Columns  []string
	CleanIDs bool
	Check    string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SHOPIFY_EXPORT_ prefix
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.SetDefault("shop.api_version", "2024-01")
	v.SetDefault("filters.status", "ANY")
	v.SetDefault("filters.sort", "newest")
	v.SetDefault("export.mode", "export")
	v.SetDefault("export.output", "products.csv")
	v.SetDefault("export.clean_ids", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, env vars and defaults still apply.
	}

	v.SetEnvPrefix("SHOPIFY_EXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Shop: ShopConfig{
			Domain:      v.GetString("shop.domain"),
			AccessToken: v.GetString("shop.access_token"),
			APIVersion:  v.GetString("shop.api_version"),
		},
		Filters: FilterConfig{
			Status:        v.GetString("filters.status"),
			Vendor:        v.GetString("filters.vendor"),
			Tag:           v.GetString("filters.tag"),
			Channel:       v.GetString("filters.channel"),
			CreatedAfter:  v.GetString("filters.created_after"),
			CreatedBefore: v.GetString("filters.created_before"),
			Sort:          v.GetString("filters.sort"),
		},
		Export: ExportConfig{
			Mode:     v.GetString("export.mode"),
			Limit:    v.GetInt("export.limit"),
			Output:   v.GetString("export.output"),
			Columns:  v.GetStringSlice("export.columns"),
			CleanIDs: v.GetBool("export.clean_ids"),
			Check:    v.GetString("export.check"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Shop.Domain == "" {
		return fmt.Errorf("shop.domain is required")
	}
	if c.Shop.AccessToken == "" {
		return fmt.Errorf("shop.access_token is required")
	}
	switch c.Export.Mode {
	case "export", "vendors", "tags", "channels":
	default:
		return fmt.Errorf("export.mode must be one of export, vendors, tags, channels (got %q)", c.Export.Mode)
	}
	switch export.CheckMode(c.Export.Check) {
	case export.CheckNone, export.CheckDuplicates, export.CheckMissingImages, export.CheckDuplicatesNoImages:
	default:
		return fmt.Errorf("export.check must be empty or one of duplicates, missing-images, duplicates-missing-images (got %q)", c.Export.Check)
	}
	if c.Export.Limit < 0 {
		return fmt.Errorf("export.limit must not be negative (got %d)", c.Export.Limit)
	}
	if _, err := c.Criteria(); err != nil {
		return err
	}
	return nil
}

// Criteria maps the filter configuration to query criteria. Date bounds
// expand to the start and end of the named day in UTC.
func (c *Config) Criteria() (query.Criteria, error) {
	criteria := query.Criteria{
		Status:        query.Status(strings.ToUpper(c.Filters.Status)),
		Vendor:        c.Filters.Vendor,
		Tag:           c.Filters.Tag,
		PublicationID: c.Filters.Channel,
	}

	switch criteria.Status {
	case query.StatusAny, query.StatusActive, query.StatusDraft, query.StatusArchived:
	default:
		return query.Criteria{}, fmt.Errorf("filters.status must be one of ANY, ACTIVE, DRAFT, ARCHIVED (got %q)", c.Filters.Status)
	}

	switch c.Filters.Sort {
	case "newest", "":
		criteria.SortKey = query.SortCreatedAt
		criteria.Reverse = true
	case "oldest":
		criteria.SortKey = query.SortCreatedAt
	case "title-asc":
		criteria.SortKey = query.SortTitle
	case "title-desc":
		criteria.SortKey = query.SortTitle
		criteria.Reverse = true
	default:
		return query.Criteria{}, fmt.Errorf("filters.sort must be one of newest, oldest, title-asc, title-desc (got %q)", c.Filters.Sort)
	}

	if c.Filters.CreatedAfter != "" {
		day, err := time.Parse("2006-01-02", c.Filters.CreatedAfter)
		if err != nil {
			return query.Criteria{}, fmt.Errorf("filters.created_after: %w", err)
		}
		criteria.CreatedAfter = day
	}
	if c.Filters.CreatedBefore != "" {
		day, err := time.Parse("2006-01-02", c.Filters.CreatedBefore)
		if err != nil {
			return query.Criteria{}, fmt.Errorf("filters.created_before: %w", err)
		}
		criteria.CreatedBefore = day.Add(24*time.Hour - time.Second)
	}

	return criteria, nil
}
