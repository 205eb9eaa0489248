package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sjsage522/hsmoadigest/logger"

	pw "github.com/playwright-community/playwright-go"
)

// elementReadTimeout bounds attribute and text reads on a single node so that
// a node detached after discovery fails fast instead of waiting the page default.
const elementReadTimeout = 2 * time.Second

// PlaywrightLauncher starts Chromium through playwright-go
type PlaywrightLauncher struct {
	log *logger.Logger
}

// NewPlaywrightLauncher creates a playwright launcher
func NewPlaywrightLauncher() *PlaywrightLauncher {
	return &PlaywrightLauncher{log: logger.ForBrowser(EnginePlaywright)}
}

// Name returns the engine name
func (l *PlaywrightLauncher) Name() string {
	return EnginePlaywright
}

// Launch starts the driver, a headless Chromium and one page with the given profile.
// Every partially acquired resource is released if a later step fails.
func (l *PlaywrightLauncher) Launch(ctx context.Context, profile Profile) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOptions := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(profile.Headless),
		Args:     profile.Args,
	}
	if profile.Proxy != "" {
		launchOptions.Proxy = &pw.Proxy{Server: profile.Proxy}
	}

	browser, err := instance.Chromium.Launch(launchOptions)
	if err != nil {
		instance.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	browserCtx, err := browser.NewContext(pw.BrowserNewContextOptions{
		Locale:     pw.String(profile.Locale),
		TimezoneId: pw.String(profile.TimezoneID),
		UserAgent:  pw.String(profile.UserAgent),
	})
	if err != nil {
		browser.Close()
		instance.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browser.Close()
		instance.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if profile.DefaultTimeout > 0 {
		page.SetDefaultTimeout(millis(profile.DefaultTimeout))
	}

	l.log.Debug().
		Str("locale", profile.Locale).
		Str("timezone", profile.TimezoneID).
		Bool("proxy", profile.Proxy != "").
		Msg("Browser session started")

	return &playwrightPage{
		instance: instance,
		browser:  browser,
		page:     page,
		log:      l.log,
	}, nil
}

type playwrightPage struct {
	instance *pw.Playwright
	browser  pw.Browser
	page     pw.Page
	log      *logger.Logger
}

var _ Page = (*playwrightPage)(nil)

func (p *playwrightPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   pw.Float(millis(timeout)),
	})
	return err
}

func (p *playwrightPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(millis(timeout)),
	})
}

func (p *playwrightPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locators, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	return wrapLocators(locators), nil
}

func (p *playwrightPage) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.GetByText(text).First().Click(pw.LocatorClickOptions{
		Timeout: pw.Float(millis(timeout)),
	})
}

func (p *playwrightPage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Evaluate(script)
}

func (p *playwrightPage) Wait(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}

func (p *playwrightPage) Close() error {
	var errs []error
	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := p.instance.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	p.log.Debug().Msg("Browser session closed")
	return errors.Join(errs...)
}

type playwrightElement struct {
	loc pw.Locator
}

var _ Element = (*playwrightElement)(nil)

func wrapLocators(locators []pw.Locator) []Element {
	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, &playwrightElement{loc: loc})
	}
	return elements
}

func (e *playwrightElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locators, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	return wrapLocators(locators), nil
}

func (e *playwrightElement) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.loc.GetAttribute(name, pw.LocatorGetAttributeOptions{
		Timeout: pw.Float(millis(elementReadTimeout)),
	})
}

func (e *playwrightElement) InnerText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.loc.InnerText(pw.LocatorInnerTextOptions{
		Timeout: pw.Float(millis(elementReadTimeout)),
	})
}

func (e *playwrightElement) Click(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.loc.Click(pw.LocatorClickOptions{
		Timeout: pw.Float(millis(timeout)),
	})
}
