package worker

import (
	"context"
	"time"

	"sjsage522/hsmoadigest/internal/digest"
	"sjsage522/hsmoadigest/internal/scraper"
	"sjsage522/hsmoadigest/logger"
	"sjsage522/hsmoadigest/services/notifier"
	"sjsage522/hsmoadigest/services/publisher"
)

// Source produces the schedule for one run
type Source interface {
	Scrape(ctx context.Context) (*scraper.Result, error)
}

// Worker runs one scrape and delivers exactly one digest for it
type Worker struct {
	source      Source
	notifier    notifier.Notifier
	publisher   publisher.Publisher // optional
	filters     scraper.FilterSpec
	maxLines    int
	development bool
	now         func() time.Time
	log         *logger.Logger
}

// Option configures a Worker
type Option func(*Worker)

// WithPublisher also publishes every successful run's items
func WithPublisher(p publisher.Publisher) Option {
	return func(w *Worker) { w.publisher = p }
}

// WithClock overrides the run timestamp source
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// WithDevelopment logs a sample of the extracted data
func WithDevelopment(enabled bool) Option {
	return func(w *Worker) { w.development = enabled }
}

// NewWorker creates a new worker
func NewWorker(
	source Source,
	n notifier.Notifier,
	filters scraper.FilterSpec,
	maxLines int,
	opts ...Option,
) *Worker {
	w := &Worker{
		source:   source,
		notifier: n,
		filters:  filters,
		maxLines: maxLines,
		now:      time.Now,
		log:      logger.ForWorker(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce scrapes, renders and delivers. A scrape failure is reported with an
// error digest and returned; delivery and publishing failures are only logged.
func (w *Worker) RunOnce(ctx context.Context) error {
	start := w.now()

	result, err := w.source.Scrape(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Scrape failed")
		w.Deliver(ctx, digest.BuildError(err, start))
		return err
	}

	w.logSample(result)
	w.Deliver(ctx, digest.Build(result.Items, w.filters, start, w.maxLines))

	if w.publisher != nil {
		if err := w.publisher.PublishSchedule(ctx, start, result.Items); err != nil {
			w.log.Error().Err(err).Msg("Failed to publish schedule")
		}
	}

	w.log.Info().
		Int("items", len(result.Items)).
		Dur("elapsed", w.now().Sub(start)).
		Msg("Run finished")
	return nil
}

// Deliver sends text, logging and swallowing any failure. The send gets its
// own deadline so a run that was cancelled or timed out still reports.
func (w *Worker) Deliver(ctx context.Context, text string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifier.DefaultTimeout)
	defer cancel()

	if err := w.notifier.Notify(sendCtx, text); err != nil {
		w.log.Error().Err(err).Msg("Failed to deliver digest")
	}
}

func (w *Worker) logSample(result *scraper.Result) {
	if !w.development || len(result.Items) == 0 || !logger.IsDebugEnabled() {
		return
	}
	w.log.Debug().
		Interface("item", result.Items[0]).
		Str("strategy", result.Strategy).
		Int("rows", result.Rows).
		Msg("Sample item")
}
