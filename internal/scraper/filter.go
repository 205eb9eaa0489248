package scraper

import (
	"context"
	"time"

	"sjsage522/hsmoadigest/internal/browser"
	"sjsage522/hsmoadigest/logger"
)

// appliedStateSelector matches any control rendered in an active/selected state
const appliedStateSelector = ".active, .selected, [aria-pressed='true'], .on"

// FilterResult records what happened on one axis
type FilterResult struct {
	Axis      Axis
	Skipped   bool // nothing configured for the axis
	Attempts  int
	Outcome   browser.ClickOutcome // outcome of the last attempt
	Confirmed bool                 // the applied-state check passed
}

// FilterApplier applies the shop and category filters through the page's own controls
type FilterApplier struct {
	page         browser.Page
	labels       *LabelMatcher
	settle       time.Duration
	clickTimeout time.Duration
	log          *logger.Logger
}

// NewFilterApplier creates a filter applier bound to page
func NewFilterApplier(page browser.Page, settle, clickTimeout time.Duration) *FilterApplier {
	return &FilterApplier{
		page:         page,
		labels:       NewLabelMatcher(page, clickTimeout),
		settle:       settle,
		clickTimeout: clickTimeout,
		log:          logger.ForScraper(),
	}
}

// ApplyFilter applies one axis of spec. It never fails: after one retry the
// resulting page state is accepted as is.
func (a *FilterApplier) ApplyFilter(ctx context.Context, spec FilterSpec, axis Axis) FilterResult {
	text, pattern := spec.Target(axis)
	result := FilterResult{Axis: axis}
	if text == "" && pattern == "" {
		result.Skipped = true
		return result
	}

	for result.Attempts < 2 {
		result.Attempts++
		result.Outcome = a.click(ctx, text, pattern)
		if err := a.page.Wait(ctx, a.settle); err != nil {
			break
		}
		if a.IsFilterApplied(ctx) {
			result.Confirmed = true
			break
		}
	}

	a.log.Info().
		Str("axis", axis.String()).
		Str("outcome", result.Outcome.String()).
		Int("attempts", result.Attempts).
		Bool("confirmed", result.Confirmed).
		Msg("Filter applied")

	return result
}

// ApplyAll applies the shop axis then the category axis. A failure on one
// does not prevent the other.
func (a *FilterApplier) ApplyAll(ctx context.Context, spec FilterSpec) []FilterResult {
	return []FilterResult{
		a.ApplyFilter(ctx, spec, AxisShop),
		a.ApplyFilter(ctx, spec, AxisCategory),
	}
}

// click tries the text target first and falls back to the label pattern
func (a *FilterApplier) click(ctx context.Context, text, pattern string) browser.ClickOutcome {
	outcome := browser.NotFound
	if text != "" {
		if err := a.page.ClickText(ctx, text, a.clickTimeout); err == nil {
			return browser.Clicked
		}
		a.log.Debug().Str("text", text).Msg("Text click failed")
		outcome = browser.ClickFailed
	}
	if pattern != "" {
		return a.labels.Match(ctx, pattern).Outcome
	}
	return outcome
}

// IsFilterApplied is a heuristic: any element in an active/selected/pressed state counts
func (a *FilterApplier) IsFilterApplied(ctx context.Context) bool {
	_, outcome := browser.TryQuery(ctx, a.page, appliedStateSelector)
	return outcome == browser.Matched
}
