package scraper

import (
	"context"
	"regexp"
	"time"

	"sjsage522/hsmoadigest/internal/browser"
	"sjsage522/hsmoadigest/logger"
)

// Selectors scanned for accessible labels, in priority order
const (
	imageAltSelector    = "img[alt]"
	ariaOrTitleSelector = "[aria-label], [title]"
)

// LabelMatch describes the result of one label search
type LabelMatch struct {
	Outcome  browser.ClickOutcome
	Label    string // label of the clicked element, when Outcome is Clicked
	Attempts int    // matching elements whose click was attempted
}

// Clicked reports whether an element was clicked
func (m LabelMatch) Clicked() bool {
	return m.Outcome == browser.Clicked
}

// LabelMatcher finds UI controls by their accessible name (alt, aria-label,
// title) instead of their visible text, and clicks the first match.
type LabelMatcher struct {
	page         browser.Page
	clickTimeout time.Duration
	log          *logger.Logger
}

// NewLabelMatcher creates a label matcher bound to page
func NewLabelMatcher(page browser.Page, clickTimeout time.Duration) *LabelMatcher {
	return &LabelMatcher{
		page:         page,
		clickTimeout: clickTimeout,
		log:          logger.ForScraper(),
	}
}

// FindAndClickByLabel clicks the first element whose label matches pattern
// (case-insensitive) and reports whether a click landed.
func (m *LabelMatcher) FindAndClickByLabel(ctx context.Context, pattern string) bool {
	return m.Match(ctx, pattern).Clicked()
}

// Match searches image alt text first, then aria-label/title. A matching
// element that vanishes or refuses the click is skipped and the scan continues.
func (m *LabelMatcher) Match(ctx context.Context, pattern string) LabelMatch {
	if pattern == "" {
		return LabelMatch{Outcome: browser.NotFound}
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		m.log.Warn().Err(err).Str("pattern", pattern).Msg("Invalid label pattern")
		return LabelMatch{Outcome: browser.NotFound}
	}

	attempts := 0
	passes := []struct {
		selector string
		label    func(el browser.Element) (string, error)
	}{
		{imageAltSelector, func(el browser.Element) (string, error) {
			return el.Attribute(ctx, "alt")
		}},
		{ariaOrTitleSelector, func(el browser.Element) (string, error) {
			label, err := el.Attribute(ctx, "aria-label")
			if err != nil || label != "" {
				return label, err
			}
			return el.Attribute(ctx, "title")
		}},
	}

	for _, pass := range passes {
		candidates, outcome := browser.TryQuery(ctx, m.page, pass.selector)
		if outcome != browser.Matched {
			continue
		}
		for _, el := range candidates {
			label, err := pass.label(el)
			if err != nil || label == "" || !re.MatchString(label) {
				continue
			}
			attempts++
			if browser.TryClick(ctx, el, m.clickTimeout) == browser.Clicked {
				m.log.Debug().Str("pattern", pattern).Str("label", label).Msg("Clicked by label")
				return LabelMatch{Outcome: browser.Clicked, Label: label, Attempts: attempts}
			}
			m.log.Debug().Str("label", label).Msg("Label matched but click failed, continuing")
		}
	}

	if attempts > 0 {
		return LabelMatch{Outcome: browser.ClickFailed, Attempts: attempts}
	}
	return LabelMatch{Outcome: browser.NotFound}
}
