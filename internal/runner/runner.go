// Package runner coordinates a census run over one or more sources: each
// source is fetched, decoded, aggregated and optionally recorded to history,
// and the outcomes are folded into a BatchResult.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/catcensus/internal/fetch"
	"github.com/harrison/catcensus/internal/history"
	"github.com/harrison/catcensus/internal/logger"
	"github.com/harrison/catcensus/internal/models"
	"github.com/harrison/catcensus/internal/parser"
)

// Logger receives progress events for a run.
type Logger interface {
	LogSourceStart(source string)
	LogSourceResult(result models.SourceResult)
	LogSummary(result models.BatchResult)
	LogWarn(message string)
}

// Fetcher retrieves the raw payload for a source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (*fetch.Payload, error)
}

// Recorder persists per-source outcomes. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, run *history.Run) error
}

// Runner processes census sources concurrently.
type Runner struct {
	fetcher        Fetcher
	recorder       Recorder
	logger         Logger
	format         parser.Format
	maxConcurrency int
	handleSignals  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the progress logger. A nil logger keeps the default,
// which discards every event.
func WithLogger(l Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder stores every source outcome, failures included.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithFormat forces the payload format instead of detecting it per source.
func WithFormat(f parser.Format) Option {
	return func(r *Runner) { r.format = f }
}

// WithMaxConcurrency bounds how many sources are processed at once (0 = unlimited).
func WithMaxConcurrency(n int) Option {
	return func(r *Runner) { r.maxConcurrency = n }
}

// WithSignalHandling cancels the run on SIGINT/SIGTERM.
func WithSignalHandling(enabled bool) Option {
	return func(r *Runner) { r.handleSignals = enabled }
}

// New creates a Runner. fetcher must not be nil.
func New(fetcher Fetcher, opts ...Option) *Runner {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}

	r := &Runner{fetcher: fetcher, logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes sources and returns their outcomes in input order. A failing
// source does not stop the others; the returned error is non-nil only when
// the run itself was canceled.
func (r *Runner) Run(ctx context.Context, sources []string) (*models.BatchResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources given")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.handleSignals {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		go func() {
			select {
			case <-sigChan:
				r.warn("Received interrupt signal, stopping census run...")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	start := time.Now()
	results := make([]models.SourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}
	for i, source := range sources {
		g.Go(func() error {
			results[i] = r.process(gctx, source)
			return nil
		})
	}
	_ = g.Wait()

	batch := aggregateResults(results, time.Since(start))
	r.logger.LogSummary(*batch)

	return batch, ctx.Err()
}

// Process runs a single payload that is already in memory through decode,
// aggregate and record. The serve command uses it for request bodies.
func (r *Runner) Process(ctx context.Context, payload *fetch.Payload) models.SourceResult {
	start := time.Now()
	sr := r.summarize(payload)
	sr.Duration = time.Since(start)
	r.record(ctx, &sr)
	return sr
}

func (r *Runner) process(ctx context.Context, source string) models.SourceResult {
	r.logger.LogSourceStart(source)

	start := time.Now()
	var sr models.SourceResult

	payload, err := r.fetcher.Fetch(ctx, source)
	if err != nil {
		sr = models.SourceResult{Source: source, Error: err}
	} else {
		sr = r.summarize(payload)
	}
	sr.Duration = time.Since(start)

	r.record(ctx, &sr)

	r.logger.LogSourceResult(sr)
	return sr
}

func (r *Runner) summarize(payload *fetch.Payload) models.SourceResult {
	format := payload.Format
	if r.format != parser.FormatUnknown {
		format = r.format
	}
	if format == parser.FormatUnknown {
		format = parser.FormatJSON
	}

	sr := models.SourceResult{Source: payload.Source, Format: format.String()}
	result, err := parser.Aggregate(format, payload.Source, payload.Data)
	if err != nil {
		sr.Error = err
		return sr
	}
	sr.Result = &result
	return sr
}

func (r *Runner) record(ctx context.Context, sr *models.SourceResult) {
	if r.recorder == nil {
		return
	}

	run := history.NewRun(*sr)
	if err := r.recorder.Record(ctx, run); err != nil {
		r.warn(fmt.Sprintf("failed to record run for %s: %v", sr.Source, err))
		return
	}
	sr.RunID = run.RunID
}

func (r *Runner) warn(message string) {
	r.logger.LogWarn(message)
}

// Merge overlays the outcomes in update onto previous. Sources keep the
// order they have in previous; sources only present in update are appended.
// Totals are recomputed from the merged outcomes.
func Merge(previous, update *models.BatchResult) *models.BatchResult {
	if previous == nil {
		return update
	}
	if update == nil {
		return previous
	}

	fresh := make(map[string]models.SourceResult, len(update.Sources))
	for _, sr := range update.Sources {
		fresh[sr.Source] = sr
	}

	merged := make([]models.SourceResult, 0, len(previous.Sources)+len(update.Sources))
	seen := make(map[string]bool, len(previous.Sources))
	for _, sr := range previous.Sources {
		if u, ok := fresh[sr.Source]; ok {
			sr = u
		}
		merged = append(merged, sr)
		seen[sr.Source] = true
	}
	for _, sr := range update.Sources {
		if !seen[sr.Source] {
			merged = append(merged, sr)
			seen[sr.Source] = true
		}
	}

	return aggregateResults(merged, update.Duration)
}

// aggregateResults folds per-source outcomes into a BatchResult.
func aggregateResults(results []models.SourceResult, duration time.Duration) *models.BatchResult {
	batch := &models.BatchResult{
		Sources:       results,
		Duration:      duration,
		FailedSources: []models.SourceResult{},
	}

	for _, sr := range results {
		if sr.Failed() {
			batch.Failed++
			batch.FailedSources = append(batch.FailedSources, sr)
			continue
		}
		batch.Succeeded++
		batch.TotalMothers += sr.Result.Mothers
		batch.TotalKittens += sr.Result.Total
		batch.TotalMale += sr.Result.Male
	}

	return batch
}
