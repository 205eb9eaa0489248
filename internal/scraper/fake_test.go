package scraper

import (
	"context"
	"errors"
	"time"

	"sjsage522/hsmoadigest/internal/browser"
)

var errDetached = errors.New("element is detached from the DOM")

// fakeElement is a scripted DOM node
type fakeElement struct {
	attrs    map[string]string
	attrErr  error
	text     string
	textErr  error
	children map[string][]browser.Element
	queryErr map[string]error
	clickErr error
	clicks   int
	onClick  func()
}

var _ browser.Element = (*fakeElement)(nil)

func (e *fakeElement) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := e.queryErr[selector]; err != nil {
		return nil, err
	}
	return e.children[selector], nil
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, error) {
	if e.attrErr != nil {
		return "", e.attrErr
	}
	return e.attrs[name], nil
}

func (e *fakeElement) InnerText(ctx context.Context) (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Click(ctx context.Context, timeout time.Duration) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// fakePage is a scripted live page
type fakePage struct {
	nodes     map[string][]browser.Element
	queryErrs map[string]error
	queries   []string

	clickable  map[string]bool
	textClicks []string

	// clicks landed so far; once it reaches activeAfter the page shows an active control
	clickCount  int
	activeAfter int

	// heights[k-1] is the document height after the k-th scroll; the last value repeats
	heights     []int
	heightErr   error
	// heightReads, when set, scripts every height read in order; the last value repeats
	heightReads []int
	heightIdx   int
	scrolls     int
	scrolledTop bool

	navigateErrs []error
	navigations  int
	idleErr      error

	waits  []time.Duration
	closed bool
}

var _ browser.Page = (*fakePage)(nil)

func newFakePage() *fakePage {
	return &fakePage{
		nodes:     make(map[string][]browser.Element),
		queryErrs: make(map[string]error),
		clickable: make(map[string]bool),
	}
}

func (p *fakePage) recordClick() {
	p.clickCount++
}

func (p *fakePage) active() bool {
	return p.activeAfter > 0 && p.clickCount >= p.activeAfter
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	p.queries = append(p.queries, selector)
	if selector == appliedStateSelector && p.active() {
		return []browser.Element{&fakeElement{}}, nil
	}
	if err := p.queryErrs[selector]; err != nil {
		return nil, err
	}
	return p.nodes[selector], nil
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.navigations++
	if len(p.navigateErrs) >= p.navigations {
		return p.navigateErrs[p.navigations-1]
	}
	return nil
}

func (p *fakePage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return p.idleErr
}

func (p *fakePage) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	p.textClicks = append(p.textClicks, text)
	if !p.clickable[text] {
		return errors.New("no element with text " + text)
	}
	p.recordClick()
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	switch script {
	case heightScript:
		if p.heightErr != nil {
			return nil, p.heightErr
		}
		if len(p.heightReads) > 0 {
			i := min(p.heightIdx, len(p.heightReads)-1)
			p.heightIdx++
			return float64(p.heightReads[i]), nil
		}
		return float64(p.height()), nil
	case scrollBottomScript:
		p.scrolls++
		return float64(p.height()), nil
	case scrollTopScript:
		p.scrolledTop = true
		return float64(0), nil
	}
	return nil, browser.ErrUnsupported
}

func (p *fakePage) height() int {
	if p.scrolls == 0 || len(p.heights) == 0 {
		return 0
	}
	i := p.scrolls - 1
	if i >= len(p.heights) {
		i = len(p.heights) - 1
	}
	return p.heights[i]
}

func (p *fakePage) Wait(ctx context.Context, d time.Duration) error {
	p.waits = append(p.waits, d)
	return ctx.Err()
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func (p *fakePage) queried(selector string) int {
	n := 0
	for _, q := range p.queries {
		if q == selector {
			n++
		}
	}
	return n
}

// fakeLauncher hands out a prepared page
type fakeLauncher struct {
	page     browser.Page
	err      error
	launched int
}

var _ browser.Launcher = (*fakeLauncher)(nil)

func (l *fakeLauncher) Launch(ctx context.Context, profile browser.Profile) (browser.Page, error) {
	l.launched++
	if l.err != nil {
		return nil, l.err
	}
	return l.page, nil
}

func (l *fakeLauncher) Name() string {
	return "fake"
}

// livePage turns a snapshot into a navigable page with a fixed height
type livePage struct {
	*browser.SnapshotPage
	closed bool
}

func newLivePage(html string) (*livePage, error) {
	snap, err := browser.NewSnapshotPageFromString(html)
	if err != nil {
		return nil, err
	}
	return &livePage{SnapshotPage: snap}, nil
}

func (p *livePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return nil
}

func (p *livePage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	return float64(1000), nil
}

func (p *livePage) Close() error {
	p.closed = true
	return nil
}
