package browser

import (
	"context"
	"time"
)

// QueryOutcome classifies the result of a selector query or text read
type QueryOutcome int

const (
	// Matched means at least one node (or non-empty text) was found
	Matched QueryOutcome = iota
	// Empty means the query ran and found nothing
	Empty
	// Failed means the query itself errored (detached node, timeout, bad selector)
	Failed
)

func (o QueryOutcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Empty:
		return "empty"
	default:
		return "failed"
	}
}

// ClickOutcome classifies the result of a click attempt
type ClickOutcome int

const (
	// Clicked means the click was delivered
	Clicked ClickOutcome = iota
	// NotFound means no candidate element existed
	NotFound
	// ClickFailed means a candidate existed but the click errored or timed out
	ClickFailed
)

func (o ClickOutcome) String() string {
	switch o {
	case Clicked:
		return "clicked"
	case NotFound:
		return "not_found"
	default:
		return "click_failed"
	}
}

// TryQuery runs selector against q and classifies the result
func TryQuery(ctx context.Context, q Queryable, selector string) ([]Element, QueryOutcome) {
	nodes, err := q.QueryAll(ctx, selector)
	if err != nil {
		return nil, Failed
	}
	if len(nodes) == 0 {
		return nil, Empty
	}
	return nodes, Matched
}

// TryText reads the inner text of el and classifies the result
func TryText(ctx context.Context, el Element) (string, QueryOutcome) {
	text, err := el.InnerText(ctx)
	if err != nil {
		return "", Failed
	}
	if text == "" {
		return "", Empty
	}
	return text, Matched
}

// TryClick clicks el and classifies the result
func TryClick(ctx context.Context, el Element, timeout time.Duration) ClickOutcome {
	if err := el.Click(ctx, timeout); err != nil {
		return ClickFailed
	}
	return Clicked
}
