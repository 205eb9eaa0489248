package scraper

import (
	"context"
	"regexp"

	"sjsage522/hsmoadigest/helpers"
	"sjsage522/hsmoadigest/internal/browser"
)

var (
	// timePattern matches h:mm / hh:mm with hour 0-23
	timePattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)

	// noisePatterns strip chrome from a row's flattened text when deriving a title.
	// Prices need a digit before 원 so words like 원피스 survive.
	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d[\d,]*\s*원`),
		regexp.MustCompile(`(?i)\bLIVE\b`),
		regexp.MustCompile(`(?i)\bSHOP\b`),
		regexp.MustCompile(`채널|방송`),
	}
)

// FieldSelectors lists the candidate sub-selectors tried for each field, in order
type FieldSelectors struct {
	Time    []string
	Title   []string
	Channel []string
	Price   []string
}

// DefaultFieldSelectors returns the sub-selectors known to appear on the site
func DefaultFieldSelectors() FieldSelectors {
	return FieldSelectors{
		Time:    []string{".time", ".broadcast-time", "[data-field='time']"},
		Title:   []string{".title", ".goods", ".item-title", "[data-field='title']"},
		Channel: []string{".channel", ".ch", "[data-field='channel']"},
		Price:   []string{".price", ".sale", ".amount", "[data-field='price']"},
	}
}

func (f FieldSelectors) isZero() bool {
	return len(f.Time) == 0 && len(f.Title) == 0 && len(f.Channel) == 0 && len(f.Price) == 0
}

// RowParser turns row handles into schedule items
type RowParser struct {
	fields FieldSelectors
}

// NewRowParser creates a parser using fields
func NewRowParser(fields FieldSelectors) *RowParser {
	return &RowParser{fields: fields}
}

// ParseRow extracts an item from row. It returns false when neither a time nor
// a title can be recovered; field-level failures are treated as misses.
func (p *RowParser) ParseRow(ctx context.Context, row browser.Element) (ScheduleItem, bool) {
	item := ScheduleItem{
		Time:    firstText(ctx, row, p.fields.Time),
		Title:   firstText(ctx, row, p.fields.Title),
		Channel: firstText(ctx, row, p.fields.Channel),
		Price:   firstText(ctx, row, p.fields.Price),
	}

	if item.Time == "" || item.Title == "" {
		raw, _ := browser.TryText(ctx, row)
		flat := helpers.CleanText(raw)

		if item.Time == "" {
			item.Time = timePattern.FindString(flat)
		}
		if item.Title == "" && flat != "" {
			item.Title = deriveTitle(flat)
		}
	}

	if item.Time == "" && item.Title == "" {
		return ScheduleItem{}, false
	}
	if item.Time == "" {
		item.Time = TimePlaceholder
	}
	if item.Title == "" {
		item.Title = TitlePlaceholder
	}
	return item, true
}

// firstText returns the cleaned text of the first selector with a non-empty match
func firstText(ctx context.Context, row browser.Element, selectors []string) string {
	for _, selector := range selectors {
		nodes, outcome := browser.TryQuery(ctx, row, selector)
		if outcome != browser.Matched {
			continue
		}
		text, outcome := browser.TryText(ctx, nodes[0])
		if outcome != browser.Matched {
			continue
		}
		if cleaned := helpers.CleanText(text); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

// deriveTitle strips times and noise tokens from flattened row text
func deriveTitle(flat string) string {
	title := timePattern.ReplaceAllString(flat, " ")
	for _, re := range noisePatterns {
		title = re.ReplaceAllString(title, " ")
	}
	return helpers.Truncate(helpers.CleanText(title), MaxTitleLength)
}
