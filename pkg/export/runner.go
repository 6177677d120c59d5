// Package export orchestrates a full export run: count, fetch, flatten,
// integrity checks, and the tabular writer boundary.
package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cwenzel/shopify-export/pkg/fetcher"
	"github.com/cwenzel/shopify-export/pkg/flatten"
	"github.com/cwenzel/shopify-export/pkg/integrity"
	"github.com/cwenzel/shopify-export/pkg/query"
)

// CheckMode selects the integrity filter applied after flattening.
type CheckMode string

const (
	CheckNone               CheckMode = ""
	CheckDuplicates         CheckMode = "duplicates"
	CheckMissingImages      CheckMode = "missing-images"
	CheckDuplicatesNoImages CheckMode = "duplicates-missing-images"
)

// Counter abstracts the pre-run count query. *client.Client implements it.
type Counter interface {
	ProductCount(ctx context.Context, criteria query.Criteria) (int, error)
}

// Options configures one run.
type Options struct {
	// Limit caps the number of exported products. Zero exports all.
	Limit int

	// Columns projects the output columns in the given order. Empty
	// means the full default set.
	Columns []string

	// CleanIDs strips gid:// prefixes from identifiers.
	CleanIDs bool

	// Check selects an integrity filter over the collected rows.
	Check CheckMode
}

// Result is the outcome of a run. Rows collected before a terminal failure
// are preserved here even when Run returns an error.
type Result struct {
	Rows     []flatten.Row
	Columns  []string
	Products int
	Partial  bool
}

// Runner drives one export run at a time over a shared transport.
type Runner struct {
	// Transport issues page requests and the count query.
	Transport interface {
		fetcher.Transport
		Counter
	}

	// Progress receives human-readable progress lines at batch
	// boundaries. Optional, write-only, never queried.
	Progress func(msg string)
}

func (r *Runner) progress(format string, args ...any) {
	if r.Progress != nil {
		r.Progress(fmt.Sprintf(format, args...))
	}
}

// Run fetches, flattens, and filters the export. On a terminal fetch
// failure it returns the rows collected so far together with the error so a
// partial export can still be written.
func (r *Runner) Run(ctx context.Context, criteria query.Criteria, opts Options) (*Result, error) {
	runID := uuid.NewString()
	logger := log.With().Str("component", "export").Str("run_id", runID).Logger()

	columns := opts.Columns
	if len(columns) == 0 {
		columns = flatten.DefaultColumns
	}
	result := &Result{Columns: columns}

	if total, err := r.Transport.ProductCount(ctx, criteria); err != nil {
		logger.Warn().Err(err).Msg("Count query failed")
		r.progress("Could not fetch total count: %v", err)
	} else {
		logger.Info().Int("total", total).Msg("Matching products counted")
		r.progress("Found %d products matching your filters.", total)
	}

	flattenOpts := flatten.Options{Columns: opts.Columns, CleanIDs: opts.CleanIDs}
	pager := fetcher.New(r.Transport, criteria, fetcher.Options{Limit: opts.Limit})

	for {
		batch, err := pager.Next(ctx)
		if err != nil {
			result.Partial = len(result.Rows) > 0
			logger.Error().Err(err).Int("products", result.Products).Msg("Run ended with terminal failure")
			return result, err
		}
		if batch == nil {
			break
		}

		for _, p := range batch.Products {
			result.Rows = append(result.Rows, flatten.Flatten(p, flattenOpts)...)
			result.Products++
		}
		r.progress("Fetched %d products so far...", result.Products)
	}

	result.Rows = applyCheck(opts.Check, result.Rows, logger)

	logger.Info().
		Int("products", result.Products).
		Int("rows", len(result.Rows)).
		Msg("Run complete")
	return result, nil
}

func applyCheck(mode CheckMode, rows []flatten.Row, logger zerolog.Logger) []flatten.Row {
	before := len(rows)
	switch mode {
	case CheckNone:
		return rows
	case CheckDuplicates:
		rows = integrity.Duplicates(rows)
	case CheckMissingImages:
		rows = integrity.MissingImages(rows)
	case CheckDuplicatesNoImages:
		rows = integrity.DuplicatesMissingImages(rows)
	default:
		logger.Warn().Str("check", string(mode)).Msg("Unknown check mode, skipping")
		return rows
	}
	logger.Info().
		Str("check", string(mode)).
		Int("kept", len(rows)).
		Int("dropped", before-len(rows)).
		Msg("Integrity check applied")
	return rows
}
