package scraper

import (
	"context"
	"testing"

	"sjsage522/hsmoadigest/internal/browser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFirstRow(t *testing.T, html string) (ScheduleItem, bool) {
	t.Helper()
	page, err := browser.NewSnapshotPageFromString(html)
	require.NoError(t, err)
	rows, outcome := browser.TryQuery(context.Background(), page, "li")
	require.Equal(t, browser.Matched, outcome)
	return NewRowParser(DefaultFieldSelectors()).ParseRow(context.Background(), rows[0])
}

func TestParseRowStructured(t *testing.T) {
	item, ok := parseFirstRow(t, `<ul><li>
		<span class="time"> 06:30 </span>
		<span class="channel">롯데홈쇼핑</span>
		<span class="title">캐시미어
			100% 니트</span>
		<span class="price">59,900원</span>
	</li></ul>`)

	require.True(t, ok)
	assert.Equal(t, ScheduleItem{Time: "06:30", Title: "캐시미어 100% 니트", Channel: "롯데홈쇼핑", Price: "59,900원"}, item)
}

func TestParseRowLaterCandidates(t *testing.T) {
	item, ok := parseFirstRow(t, `<ul><li>
		<em class="broadcast-time">21:40</em>
		<span class="title"> </span>
		<span class="goods">한우 선물세트</span>
		<span class="ch">GS SHOP</span>
		<span class="sale">129,000원</span>
	</li></ul>`)

	require.True(t, ok)
	assert.Equal(t, "21:40", item.Time)
	assert.Equal(t, "한우 선물세트", item.Title)
	assert.Equal(t, "GS SHOP", item.Channel)
	assert.Equal(t, "129,000원", item.Price)
}

func TestParseRowRegexFallback(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		time  string
		title string
	}{
		{
			name:  "time and title from flat text",
			html:  `<ul><li><b>LIVE</b> <i>9:05</i> 캐시미어 니트 <u>59,900원</u></li></ul>`,
			time:  "9:05",
			title: "캐시미어 니트",
		},
		{
			name:  "words containing 원 survive",
			html:  `<ul><li>원피스 특가 <span>23:59</span></li></ul>`,
			time:  "23:59",
			title: "원피스 특가",
		},
		{
			name:  "channel chrome stripped",
			html:  `<ul><li>쇼핑채널 <span>00:00</span> 방송 삼겹살 2kg</li></ul>`,
			time:  "00:00",
			title: "쇼핑 삼겹살 2kg",
		},
		{
			name:  "time only keeps the title placeholder",
			html:  `<ul><li><span>07:10</span></li></ul>`,
			time:  "07:10",
			title: TitlePlaceholder,
		},
		{
			name:  "out of range hour is not a time",
			html:  `<ul><li>24:00 심야 특가</li></ul>`,
			time:  TimePlaceholder,
			title: "24:00 심야 특가",
		},
		{
			name:  "adjacent block children without whitespace",
			html:  `<ul><li><div>06:30</div><div>Sample Product</div></li></ul>`,
			time:  "06:30",
			title: "Sample Product",
		},
		{
			name:  "structured title with fallback time",
			html:  `<ul><li><span class="title">제주 감귤</span> 방송시간 14:20</li></ul>`,
			time:  "14:20",
			title: "제주 감귤",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := parseFirstRow(t, tt.html)
			require.True(t, ok)
			assert.Equal(t, tt.time, item.Time)
			assert.Equal(t, tt.title, item.Title)
		})
	}
}

func TestParseRowDropsEmptyRows(t *testing.T) {
	for _, html := range []string{
		`<ul><li>   </li></ul>`,
		`<ul><li><span>LIVE</span> <span>39,000원</span></li></ul>`,
		`<ul><li><span class="title"></span><span class="time"></span></li></ul>`,
	} {
		item, ok := parseFirstRow(t, html)
		assert.False(t, ok, html)
		assert.Equal(t, ScheduleItem{}, item)
	}
}

func TestParseRowTruncatesDerivedTitle(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "가나다 "
	}
	item, ok := parseFirstRow(t, `<ul><li>`+long+`</li></ul>`)

	require.True(t, ok)
	assert.Equal(t, MaxTitleLength, len([]rune(item.Title)))
	assert.Equal(t, TimePlaceholder, item.Time)
}

func TestParseRowSwallowsFieldErrors(t *testing.T) {
	row := &fakeElement{
		queryErr: map[string]error{".time": errDetached, ".title": errDetached},
		children: map[string][]browser.Element{
			".broadcast-time": {&fakeElement{text: "10:30"}},
			".goods":          {&fakeElement{textErr: errDetached}},
			".item-title":     {&fakeElement{text: "국내산 전복"}},
		},
		text: "10:30 국내산 전복",
	}

	item, ok := NewRowParser(DefaultFieldSelectors()).ParseRow(context.Background(), row)

	require.True(t, ok)
	assert.Equal(t, "10:30", item.Time)
	assert.Equal(t, "국내산 전복", item.Title)
	assert.Equal(t, "", item.Channel)
}

func TestParseRowDetachedRow(t *testing.T) {
	row := &fakeElement{textErr: errDetached}

	_, ok := NewRowParser(DefaultFieldSelectors()).ParseRow(context.Background(), row)
	assert.False(t, ok)
}
