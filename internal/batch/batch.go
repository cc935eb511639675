// Package batch extracts invoices from many files concurrently.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/invoice-scanner/internal/invoice"
)

// TextExtractor reads the text of an image file
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) string
}

// Result is the outcome for one input file
type Result struct {
	File    string         `json:"file"`
	Invoice invoice.Record `json:"invoice"`
	Error   string         `json:"error,omitempty"`
}

// Runner parses files with a bounded number of workers
type Runner struct {
	read    func(ctx context.Context, path string) (string, error)
	workers int
}

// NewImageRunner OCRs each file with extractor before parsing
func NewImageRunner(extractor TextExtractor, workers int) *Runner {
	return &Runner{
		read: func(ctx context.Context, path string) (string, error) {
			if _, err := os.Stat(path); err != nil {
				return "", err
			}
			return extractor.ExtractText(ctx, path), nil
		},
		workers: workers,
	}
}

// NewTextRunner parses each file as raw OCR text
func NewTextRunner(workers int) *Runner {
	return &Runner{
		read: func(ctx context.Context, path string) (string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
		workers: workers,
	}
}

// Run processes paths and returns one Result per path, in input order.
// A file that cannot be read is reported in its Result; only cancellation
// fails the whole run.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = Result{File: path, Invoice: invoice.NewRecord()}
			text, err := r.read(ctx, path)
			if err != nil {
				slog.Warn("Skipping file", "file", path, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Invoice = invoice.Parse(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("processing files: %w", err)
	}
	return results, nil
}

// Failed counts the results that carry an error
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
