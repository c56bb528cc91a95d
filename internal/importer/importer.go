// Package importer bulk loads loan files into the database.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/db"
	"github.com/lox/loan-record-search/internal/loader"
	"github.com/lox/loan-record-search/internal/types"
	"golang.org/x/sync/errgroup"
)

// Config controls an import
type Config struct {
	// BatchSize is the number of records stored per transaction
	BatchSize int
	// RetryAttempts is how many times a failed batch is attempted
	RetryAttempts int
	// Concurrency limits how many files are parsed at once
	Concurrency int
	// Progress shows a progress bar on stderr
	Progress bool
	// DryRun parses and validates without storing
	DryRun bool
}

// Result describes a completed import
type Result struct {
	Files   int
	Records int
	Batches int
}

// Importer parses loan files and stores them in batches
type Importer struct {
	db          *db.DB
	registry    *loader.Registry
	logger      *log.Logger
	progressOut io.Writer
}

// New creates an importer. A nil registry uses the default formats.
func New(database *db.DB, registry *loader.Registry, logger *log.Logger) *Importer {
	if registry == nil {
		registry = loader.DefaultRegistry()
	}
	return &Importer{
		db:          database,
		registry:    registry,
		logger:      logger,
		progressOut: os.Stderr,
	}
}

// Import parses every file then stores the records. Parsing is all-or-nothing: if any
// file fails nothing is stored.
func (i *Importer) Import(ctx context.Context, paths []string, config Config) (Result, error) {
	records, err := i.ParseFiles(ctx, paths, config.Concurrency)
	if err != nil {
		return Result{}, err
	}

	result := Result{Files: len(paths), Records: len(records)}
	if config.DryRun {
		i.logger.Info("Dry run, skipping store", "records", len(records))
		return result, nil
	}

	result.Batches, err = i.Store(ctx, records, config)
	if err != nil {
		return result, err
	}
	return result, nil
}

// ParseFiles parses files concurrently. Records keep file order, then row order.
func (i *Importer) ParseFiles(ctx context.Context, paths []string, concurrency int) ([]types.LoanRecord, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	parsed := make([][]types.LoanRecord, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for idx, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			parseStart := time.Now()
			records, err := i.registry.ParseFile(gCtx, path)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			i.logger.Debug("Parsed loan file",
				"path", path,
				"records", len(records),
				"duration", time.Since(parseStart))

			parsed[idx] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []types.LoanRecord
	for _, records := range parsed {
		all = append(all, records...)
	}
	return all, nil
}

// Store writes records in batches, retrying each failed batch. It returns the number of
// batches written.
func (i *Importer) Store(ctx context.Context, records []types.LoanRecord, config Config) (int, error) {
	batchSize := config.BatchSize
	if batchSize < 1 {
		batchSize = max(len(records), 1)
	}
	attempts := config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var progress Progress = noopProgress{}
	if config.Progress && len(records) > 0 {
		progress = newBarProgress(i.progressOut, len(records))
	}
	defer progress.Close()

	totalBatches := (len(records) + batchSize - 1) / batchSize
	batches := 0
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]
		progress.StartBatch(batches+1, totalBatches)

		err := retry.Do(
			func() error {
				return i.db.StoreLoans(ctx, batch)
			},
			retry.Context(ctx),
			retry.Attempts(uint(attempts)),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				return !errors.Is(err, context.Canceled)
			}),
			retry.OnRetry(func(n uint, err error) {
				i.logger.Warn("Retrying loan batch",
					"attempt", n+1,
					"max_attempts", attempts,
					"first_loan", batch[0].LoanID,
					"error", err)
			}),
		)
		if err != nil {
			return batches, fmt.Errorf("failed to store loans %d-%d: %w", start, end-1, err)
		}

		batches++
		if err := progress.Stored(len(batch)); err != nil {
			i.logger.Debug("Failed to update progress", "error", err)
		}
	}

	i.logger.Info("Stored loans", "records", len(records), "batches", batches)
	return batches, nil
}
