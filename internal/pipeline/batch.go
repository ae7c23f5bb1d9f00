package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Loader resolves a batch input name, typically a file path, to a submission.
type Loader func(name string) (*model.Submission, error)

// BatchResult is the outcome for one batch input. Exactly one of Report and
// Err is set.
type BatchResult struct {
	Name   string
	Report *model.ValuationReport
	Err    error
}

// BatchProcessor values many submissions concurrently.
type BatchProcessor struct {
	assembler   *Assembler
	load        Loader
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent valuations.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. The assembler is shared across
// goroutines, so its random source must be safe for concurrent use.
func NewBatchProcessor(assembler *Assembler, load Loader, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		assembler:   assembler,
		load:        load,
		concurrency: 10,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch values every named input and returns results in input order.
// A failed input is recorded in its result and does not stop the others;
// the error return is only set when ctx is cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, names []string) ([]BatchResult, error) {
	bp.logger.Info("starting batch valuation",
		"total", len(names),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]BatchResult, len(names))

	err := bp.run(ctx, names, func(r BatchResult, i int) {
		results[i] = r
	})

	bp.logger.Info("batch valuation complete",
		"total", len(names),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback values every named input and calls callback as
// each one finishes. The callback runs on worker goroutines and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	names []string,
	callback func(result BatchResult, index int),
) error {
	return bp.run(ctx, names, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, names []string, done func(BatchResult, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, name := range names {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			done(bp.valueOne(name, i, len(names)), i)
			return nil
		})
	}

	return g.Wait()
}

func (bp *BatchProcessor) valueOne(name string, index, total int) BatchResult {
	bp.logger.Debug("valuing submission",
		"input", name,
		"index", index+1,
		"total", total,
	)

	sub, err := bp.load(name)
	if err != nil {
		bp.logger.Warn("failed to load submission", "input", name, "error", err)
		return BatchResult{Name: name, Err: err}
	}

	report, err := bp.assembler.AssembleSubmission(sub)
	if err != nil {
		bp.logger.Warn("valuation failed", "input", name, "error", err)
		return BatchResult{Name: name, Err: err}
	}

	return BatchResult{Name: name, Report: report}
}
