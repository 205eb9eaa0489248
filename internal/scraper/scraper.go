// Package scraper drives a browser page through the hsmoa schedule: it applies
// the configured filters, materializes lazily loaded rows and extracts them
// into schedule items.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"sjsage522/hsmoadigest/internal/browser"
	"sjsage522/hsmoadigest/logger"
	apperrors "sjsage522/hsmoadigest/pkg/errors"
)

// Options bounds every wait the scraper performs
type Options struct {
	URL                string
	Profile            browser.Profile
	NavigationTimeout  time.Duration
	NavigationRetries  int
	NavigationBackoff  time.Duration
	NetworkIdleTimeout time.Duration
	ClickTimeout       time.Duration
	FilterSettle       time.Duration
	ScrollMaxRounds    int
	ScrollSettle       time.Duration
	MaxRows            int
	TodayTabText       string
	RowStrategies      []RowStrategy
	Fields             FieldSelectors
}

// DefaultOptions returns the options used against the live site
func DefaultOptions() Options {
	return Options{
		URL:                "https://hsmoa.com/",
		Profile:            browser.DefaultProfile(),
		NavigationTimeout:  60 * time.Second,
		NavigationRetries:  3,
		NavigationBackoff:  2 * time.Second,
		NetworkIdleTimeout: 15 * time.Second,
		ClickTimeout:       2 * time.Second,
		FilterSettle:       600 * time.Millisecond,
		ScrollMaxRounds:    25,
		ScrollSettle:       600 * time.Millisecond,
		MaxRows:            500,
		TodayTabText:       "오늘",
		RowStrategies:      DefaultRowStrategies(),
		Fields:             DefaultFieldSelectors(),
	}
}

// Result is the outcome of one scrape
type Result struct {
	Items    []ScheduleItem
	Strategy string // row strategy that matched, empty when none did
	Rows     int    // rows located before parsing
	Dropped  int    // rows that yielded neither time nor title
	Filtered int    // items removed by the keyword post-filter
	Filters  []FilterResult
	Scroll   ScrollResult
}

// Scraper runs the full schedule extraction against one browser session
type Scraper struct {
	launcher browser.Launcher
	filters  FilterSpec
	keyword  *regexp.Regexp
	opts     Options
	log      *logger.Logger
}

// New creates a scraper. The keyword pattern is compiled once here.
func New(launcher browser.Launcher, filters FilterSpec, opts Options) (*Scraper, error) {
	engine := "snapshot"
	if launcher != nil {
		engine = launcher.Name()
	}
	s := &Scraper{
		launcher: launcher,
		filters:  filters,
		opts:     opts,
		log:      logger.ForScraper().WithFields(logger.Fields{"url": opts.URL, "engine": engine}),
	}
	if filters.CategoryKeywordPattern != "" {
		re, err := regexp.Compile("(?i)" + filters.CategoryKeywordPattern)
		if err != nil {
			return nil, apperrors.NewConfiguration("invalid category keyword pattern", err)
		}
		s.keyword = re
	}
	if len(s.opts.RowStrategies) == 0 {
		s.opts.RowStrategies = DefaultRowStrategies()
	}
	if s.opts.Fields.isZero() {
		s.opts.Fields = DefaultFieldSelectors()
	}
	return s, nil
}

// Scrape launches a session, loads the schedule and extracts it. Only launch
// and navigation failures are returned; everything past navigation degrades
// to fewer items.
func (s *Scraper) Scrape(ctx context.Context) (*Result, error) {
	page, err := s.launcher.Launch(ctx, s.opts.Profile)
	if err != nil {
		return nil, apperrors.NewBrowser("launch", "failed to start browser session", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close browser session")
		}
	}()

	if err := s.navigate(ctx, page); err != nil {
		return nil, err
	}

	if s.opts.TodayTabText != "" {
		if err := page.ClickText(ctx, s.opts.TodayTabText, s.opts.ClickTimeout); err != nil {
			s.log.Debug().Err(err).Msg("Today tab not clicked")
		} else {
			_ = page.Wait(ctx, s.opts.FilterSettle)
		}
	}

	applier := NewFilterApplier(page, s.opts.FilterSettle, s.opts.ClickTimeout)
	filterResults := applier.ApplyAll(ctx, s.filters)

	scroll := NewScrollDriver(page).MaterializeAll(ctx, s.opts.ScrollMaxRounds, s.opts.ScrollSettle)

	result := s.collect(ctx, page)
	result.Filters = filterResults
	result.Scroll = scroll
	return result, nil
}

// ParseSnapshot extracts items from an already loaded document without
// filtering or scrolling it.
func (s *Scraper) ParseSnapshot(ctx context.Context, page browser.Queryable) *Result {
	return s.collect(ctx, page)
}

// navigate loads the target URL, retrying with a fixed backoff. Failures that
// another attempt cannot fix end the loop early.
func (s *Scraper) navigate(ctx context.Context, page browser.Page) error {
	retries := s.opts.NavigationRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		err := page.Navigate(ctx, s.opts.URL, s.opts.NavigationTimeout)
		if err == nil {
			if err := page.WaitForNetworkIdle(ctx, s.opts.NetworkIdleTimeout); err != nil {
				s.log.Debug().Err(err).Msg("Network did not go idle, continuing")
			}
			s.log.Info().Int("attempt", attempt).Msg("Page loaded")
			return nil
		}

		lastErr = s.classifyNavigation(ctx, err, attempt)
		s.log.Warn().Err(err).Int("attempt", attempt).Int("retries", retries).Msg("Navigation failed")
		if !apperrors.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt < retries {
			if werr := page.Wait(ctx, s.opts.NavigationBackoff); werr != nil {
				return apperrors.NewCancelled("navigate", "run stopped during navigation backoff", werr)
			}
		}
	}

	return apperrors.NewNavigation("navigate",
		fmt.Sprintf("failed to load %s after %d attempts", s.opts.URL, retries), lastErr)
}

// classifyNavigation types a failed navigation attempt
func (s *Scraper) classifyNavigation(ctx context.Context, err error, attempt int) error {
	switch {
	case ctx.Err() != nil:
		return apperrors.NewCancelled("navigate",
			fmt.Sprintf("run stopped while loading %s (attempt %d)", s.opts.URL, attempt),
			errors.Join(ctx.Err(), err))
	case errors.Is(err, browser.ErrUnsupported):
		return apperrors.NewBrowser("navigate", "engine cannot load pages", err)
	default:
		return apperrors.NewNavigation("navigate", fmt.Sprintf("attempt %d", attempt), err)
	}
}

// collect locates and parses rows, then applies the keyword post-filter
func (s *Scraper) collect(ctx context.Context, q browser.Queryable) *Result {
	result := &Result{}

	rows, strategy := NewRowLocator(s.opts.RowStrategies...).LocateRows(ctx, q)
	result.Strategy = strategy
	if s.opts.MaxRows > 0 && len(rows) > s.opts.MaxRows {
		rows = rows[:s.opts.MaxRows]
	}
	result.Rows = len(rows)

	parser := NewRowParser(s.opts.Fields)
	items := make([]ScheduleItem, 0, len(rows))
	for _, row := range rows {
		item, ok := parser.ParseRow(ctx, row)
		if !ok {
			result.Dropped++
			continue
		}
		if s.keyword != nil && !s.keyword.MatchString(item.Title) {
			result.Filtered++
			continue
		}
		items = append(items, item)
	}
	result.Items = items

	if result.Dropped > 0 {
		s.log.WithError(apperrors.NewExtraction("parse",
			fmt.Sprintf("%d of %d rows yielded neither time nor title", result.Dropped, result.Rows), nil)).
			Debug().Msg("Rows dropped")
	}

	s.log.Info().
		Str("strategy", strategy).
		Int("rows", result.Rows).
		Int("items", len(items)).
		Int("dropped", result.Dropped).
		Int("filtered", result.Filtered).
		Msg("Schedule extracted")

	return result
}
