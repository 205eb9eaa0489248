// Package digest renders scraped schedule items as a Slack mrkdwn text block.
package digest

import (
	"fmt"
	"strings"
	"time"

	"sjsage522/hsmoadigest/helpers"
	"sjsage522/hsmoadigest/internal/scraper"
)

const (
	// AllMarker names the digest when no filter is configured
	AllMarker = "전체"
	// NoDataNotice replaces the item lines when nothing was extracted
	NoDataNotice = "_데이터 없음(필터/셀렉터 확인 필요)_"
	// DefaultMaxLines caps the item lines of one digest
	DefaultMaxLines = 80

	siteName          = "홈쇼핑모아"
	labelSeparator    = " · "
	sampleSize        = 3
	sampleTitleLength = 30
	dateLayout        = "2006-01-02"
)

// KST is the zone the run date is reported in
var KST = time.FixedZone("KST", 9*60*60)

// Header returns the first line of a digest
func Header(now time.Time, description string) string {
	return fmt.Sprintf("*%s %s 편성 – %s*", now.In(KST).Format(dateLayout), siteName, description)
}

// Describe joins the active filter labels, or returns the all marker
func Describe(filters scraper.FilterSpec) string {
	labels := filters.Labels()
	if len(labels) == 0 {
		return AllMarker
	}
	return strings.Join(labels, labelSeparator)
}

// Build renders items under a header naming filters and the run date. At
// most maxLines item lines are emitted; a non-positive maxLines uses the default.
func Build(items []scraper.ScheduleItem, filters scraper.FilterSpec, now time.Time, maxLines int) string {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	lines := []string{Header(now, Describe(filters))}
	if len(items) == 0 {
		lines = append(lines, NoDataNotice)
		return strings.Join(lines, "\n")
	}

	lines = append(lines, summaryLine(items))
	for i, item := range items {
		if i >= maxLines {
			break
		}
		lines = append(lines, ItemLine(item))
	}
	return strings.Join(lines, "\n")
}

// BuildError renders the digest sent when a run fails
func BuildError(err error, now time.Time) string {
	return Header(now, "에러") + "\n```" + err.Error() + "```"
}

// ItemLine formats one item as time, optional channel, title and optional price
func ItemLine(item scraper.ScheduleItem) string {
	var b strings.Builder
	b.WriteString("• `")
	b.WriteString(item.Time)
	b.WriteString("` ")
	if item.Channel != "" {
		b.WriteString("[" + item.Channel + "] ")
	}
	b.WriteString(item.Title)
	if item.Price != "" {
		b.WriteString(" · " + item.Price)
	}
	return b.String()
}

func summaryLine(items []scraper.ScheduleItem) string {
	n := sampleSize
	if len(items) < n {
		n = len(items)
	}
	sample := make([]string, 0, n)
	for _, item := range items[:n] {
		sample = append(sample, helpers.Truncate(helpers.CleanText(item.Title), sampleTitleLength))
	}
	return fmt.Sprintf("_총 %d건 · 샘플: %s_", len(items), strings.Join(sample, " | "))
}
