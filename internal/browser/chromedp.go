package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sjsage522/hsmoadigest/logger"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// queryTimeout bounds a single DOM query issued over the DevTools protocol
const queryTimeout = 5 * time.Second

// ChromedpLauncher starts Chrome through the DevTools protocol
type ChromedpLauncher struct {
	log *logger.Logger
}

// NewChromedpLauncher creates a chromedp launcher
func NewChromedpLauncher() *ChromedpLauncher {
	return &ChromedpLauncher{log: logger.ForBrowser(EngineChromedp)}
}

// Name returns the engine name
func (l *ChromedpLauncher) Name() string {
	return EngineChromedp
}

// Launch starts a Chrome process and applies the locale and timezone overrides
func (l *ChromedpLauncher) Launch(ctx context.Context, profile Profile) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", profile.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(profile.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	for _, arg := range profile.Args {
		name, value := splitFlag(arg)
		opts = append(opts, chromedp.Flag(name, value))
	}
	if profile.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(profile.Proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			l.log.Debug().Msg(fmt.Sprintf(format, args...))
		}),
	)

	page := &chromedpPage{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		log:           l.log,
	}

	// The first Run allocates the browser and binds its lifetime to the given
	// context, so it runs on browserCtx without a timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	startTimeout := profile.DefaultTimeout
	if startTimeout <= 0 {
		startTimeout = 60 * time.Second
	}
	err := page.run(ctx, startTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetLocaleOverride().WithLocale(profile.Locale).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetTimezoneOverride(profile.TimezoneID).Do(ctx)
		}),
	)
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	l.log.Debug().
		Str("locale", profile.Locale).
		Str("timezone", profile.TimezoneID).
		Bool("proxy", profile.Proxy != "").
		Msg("Browser session started")

	return page, nil
}

// splitFlag turns "--name=value" into a chromedp flag pair
func splitFlag(arg string) (string, interface{}) {
	arg = strings.TrimLeft(arg, "-")
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}

type chromedpPage struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	log           *logger.Logger
}

var _ Page = (*chromedpPage)(nil)

// run executes actions on the browser tab, bounded by timeout and by the caller's ctx
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Navigate(url))
}

func (p *chromedpPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	var complete bool
	return p.run(ctx, timeout,
		chromedp.Poll(`document.readyState === "complete"`, &complete, chromedp.WithPollingTimeout(timeout)),
	)
}

func (p *chromedpPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := p.run(ctx, queryTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, err
	}
	return p.wrap(nodes), nil
}

func (p *chromedpPage) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	xpath := fmt.Sprintf(`//*[contains(normalize-space(text()), %s)]`, xpathLiteral(text))

	var nodes []*cdp.Node
	if err := p.run(ctx, queryTimeout,
		chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0)),
	); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("no element containing text %q", text)
	}
	return p.run(ctx, timeout, chromedp.MouseClickNode(nodes[0]))
}

func (p *chromedpPage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	var res interface{}
	if err := p.run(ctx, queryTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *chromedpPage) Wait(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}

func (p *chromedpPage) Close() error {
	p.cancelBrowser()
	p.cancelAlloc()
	p.log.Debug().Msg("Browser session closed")
	return nil
}

func (p *chromedpPage) wrap(nodes []*cdp.Node) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromedpElement{page: p, node: n})
	}
	return elements
}

type chromedpElement struct {
	page *chromedpPage
	node *cdp.Node
}

var _ Element = (*chromedpElement)(nil)

func (e *chromedpElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := e.page.run(ctx, queryTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, err
	}
	return e.page.wrap(nodes), nil
}

// Attribute reads from the node snapshot taken when the node was queried
func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, _ := e.node.Attribute(name)
	return value, nil
}

func (e *chromedpElement) InnerText(ctx context.Context) (string, error) {
	var text string
	err := e.page.run(ctx, elementReadTimeout,
		chromedp.JavascriptAttribute([]cdp.NodeID{e.node.NodeID}, "innerText", &text, chromedp.ByNodeID),
	)
	return text, err
}

func (e *chromedpElement) Click(ctx context.Context, timeout time.Duration) error {
	return e.page.run(ctx, timeout, chromedp.MouseClickNode(e.node))
}

// xpathLiteral quotes s for use inside an XPath expression
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+part+`"`)
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
