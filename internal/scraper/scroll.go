package scraper

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/hsmoadigest/internal/browser"
	"sjsage522/hsmoadigest/logger"
)

// Scripts evaluated by the scroll driver. Each returns a number so every
// engine gets a defined result back.
const (
	heightScript       = "document.body.scrollHeight"
	scrollBottomScript = "(window.scrollTo(0, document.body.scrollHeight), document.body.scrollHeight)"
	scrollTopScript    = "(window.scrollTo(0, 0), 0)"

	// stableRoundsRequired consecutive unchanged heights end the loop
	stableRoundsRequired = 2
	// topSettle is the pause after returning to the top of the page
	topSettle = 300 * time.Millisecond
)

// ScrollResult summarizes one materialization pass
type ScrollResult struct {
	Rounds      int
	Stabilized  bool
	FinalHeight int
}

// ScrollDriver scrolls until lazily loaded content stops growing the page
type ScrollDriver struct {
	page browser.Page
	log  *logger.Logger
}

// NewScrollDriver creates a scroll driver bound to page
func NewScrollDriver(page browser.Page) *ScrollDriver {
	return &ScrollDriver{page: page, log: logger.ForScraper()}
}

// MaterializeAll scrolls to the bottom up to maxRounds times, stopping early
// once the page height has been unchanged for two consecutive rounds, then
// returns to the top. The height is read before and after each scroll; a
// round whose two reads disagree is not counted as unchanged.
func (d *ScrollDriver) MaterializeAll(ctx context.Context, maxRounds int, settle time.Duration) ScrollResult {
	var result ScrollResult
	lastHeight, stable := 0, 0

	for result.Rounds < maxRounds {
		if ctx.Err() != nil {
			break
		}
		result.Rounds++

		before, beforeOK := d.height(ctx, heightScript)
		if _, err := d.page.Evaluate(ctx, scrollBottomScript); err != nil {
			d.log.Debug().Err(err).Int("round", result.Rounds).Msg("Scroll command failed")
		}
		if err := d.page.Wait(ctx, settle); err != nil {
			break
		}

		after, ok := d.height(ctx, heightScript)
		if !ok {
			// 높이를 못 읽으면 변화 없음으로 간주
			after = lastHeight
		}
		// a round is stable when the scroll grew nothing and nothing moved since the last round
		if after == lastHeight && (!beforeOK || before == after) {
			stable++
		} else {
			stable = 0
		}
		lastHeight = after

		d.log.Debug().
			Int("round", result.Rounds).
			Int("before", before).
			Int("after", after).
			Int("stable", stable).
			Msg("Scroll round")

		if stable >= stableRoundsRequired {
			result.Stabilized = true
			break
		}
	}
	result.FinalHeight = lastHeight

	// 상단으로 복귀
	if _, err := d.page.Evaluate(ctx, scrollTopScript); err != nil {
		d.log.Debug().Err(err).Msg("Scroll to top failed")
	}
	_ = d.page.Wait(ctx, topSettle)

	d.log.Info().
		Int("rounds", result.Rounds).
		Bool("stabilized", result.Stabilized).
		Int("height", result.FinalHeight).
		Msg("Scrolling finished")

	return result
}

func (d *ScrollDriver) height(ctx context.Context, script string) (int, bool) {
	v, err := d.page.Evaluate(ctx, script)
	if err != nil {
		return 0, false
	}
	return toInt(v)
}

// toInt converts a JSON-decoded script result to an int
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	default:
		return 0, false
	}
}
