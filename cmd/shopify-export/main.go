// Command shopify-export exports product catalog records from the Shopify
// Admin GraphQL API into a CSV file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwenzel/shopify-export/internal/config"
	"github.com/cwenzel/shopify-export/pkg/client"
	"github.com/cwenzel/shopify-export/pkg/export"
	"github.com/cwenzel/shopify-export/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.New(client.Config{
		Domain:      cfg.Shop.Domain,
		AccessToken: cfg.Shop.AccessToken,
		APIVersion:  cfg.Shop.APIVersion,
	})
	if err != nil {
		return err
	}

	shopName, err := c.ValidateCredentials(ctx)
	if err != nil {
		return fmt.Errorf("credential validation failed: %w", err)
	}
	fmt.Printf("Connected to shop: %s\n", shopName)

	switch cfg.Export.Mode {
	case "vendors":
		vendors, err := c.FetchVendors(ctx)
		if err != nil {
			return err
		}
		for _, v := range vendors {
			fmt.Println(v)
		}
		return nil

	case "tags":
		tags, err := c.FetchTags(ctx)
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Println(t)
		}
		return nil

	case "channels":
		pubs, err := c.FetchPublications(ctx)
		if err != nil {
			return err
		}
		for _, p := range pubs {
			fmt.Printf("%s\t%s\n", p.ID, p.Name)
		}
		return nil
	}

	criteria, err := cfg.Criteria()
	if err != nil {
		return err
	}

	runner := &export.Runner{
		Transport: c,
		Progress: func(msg string) {
			fmt.Println(msg)
		},
	}

	result, runErr := runner.Run(ctx, criteria, export.Options{
		Limit:    cfg.Export.Limit,
		Columns:  cfg.Export.Columns,
		CleanIDs: cfg.Export.CleanIDs,
		Check:    export.CheckMode(cfg.Export.Check),
	})
	if runErr != nil && len(result.Rows) == 0 {
		return runErr
	}
	if runErr != nil {
		// Partial results are still worth writing out.
		logger.Warn().Err(runErr).Int("rows", len(result.Rows)).Msg("Export incomplete, writing partial results")
		fmt.Printf("Export incomplete: %v\n", runErr)
	}

	msg, err := export.WriteCSV(cfg.Export.Output, result.Columns, result.Rows)
	if err != nil {
		return err
	}
	fmt.Println(msg)

	return runErr
}
