package scraper

import (
	"context"
	"fmt"

	"sjsage522/hsmoadigest/internal/browser"
	"sjsage522/hsmoadigest/logger"
	apperrors "sjsage522/hsmoadigest/pkg/errors"
)

// RowStrategy is one way of finding schedule rows in a document
type RowStrategy interface {
	Name() string
	Locate(ctx context.Context, q browser.Queryable) ([]browser.Element, browser.QueryOutcome)
}

// SelectorStrategy locates rows with a single CSS selector
type SelectorStrategy struct {
	Selector string
}

func (s SelectorStrategy) Name() string {
	return s.Selector
}

func (s SelectorStrategy) Locate(ctx context.Context, q browser.Queryable) ([]browser.Element, browser.QueryOutcome) {
	return browser.TryQuery(ctx, q, s.Selector)
}

// DefaultRowStrategies returns the row candidates from most to least specific
func DefaultRowStrategies() []RowStrategy {
	return []RowStrategy{
		SelectorStrategy{"[data-testid='schedule-item']"},
		SelectorStrategy{".schedule-item"},
		SelectorStrategy{"li:has(.time)"},
		SelectorStrategy{".row:has(.time)"},
		SelectorStrategy{"article:has(.time)"},
	}
}

// RowLocator tries its strategies in order and keeps the first non-empty result
type RowLocator struct {
	strategies []RowStrategy
	log        *logger.Logger
}

// NewRowLocator creates a locator. With no strategies the defaults are used.
func NewRowLocator(strategies ...RowStrategy) *RowLocator {
	if len(strategies) == 0 {
		strategies = DefaultRowStrategies()
	}
	return &RowLocator{strategies: strategies, log: logger.ForScraper()}
}

// LocateRows returns the rows from the first strategy that matches and its
// name. Later strategies are not evaluated once one yields rows.
func (l *RowLocator) LocateRows(ctx context.Context, q browser.Queryable) ([]browser.Element, string) {
	for _, strategy := range l.strategies {
		rows, outcome := strategy.Locate(ctx, q)
		if outcome == browser.Matched {
			l.log.Info().Str("strategy", strategy.Name()).Int("rows", len(rows)).Msg("Rows located")
			return rows, strategy.Name()
		}
		l.log.Debug().Str("strategy", strategy.Name()).Str("outcome", outcome.String()).Msg("Row strategy missed")
	}
	l.log.WithError(apperrors.NewExtraction("locate",
		fmt.Sprintf("none of %d row strategies matched", len(l.strategies)), nil)).
		Warn().Msg("No row strategy matched")
	return nil, ""
}
