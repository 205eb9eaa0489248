// Package browser defines the rendering-engine capability surface the scraper
// drives, plus the engines that implement it: playwright and chromedp for live
// pages, and a goquery-backed snapshot for saved HTML.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotInteractive is returned by engines that cannot click (static snapshots)
	ErrNotInteractive = errors.New("element is not interactive")
	// ErrUnsupported is returned for capabilities an engine does not provide
	ErrUnsupported = errors.New("operation not supported by this engine")
)

// Engine names accepted by NewLauncher
const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
)

// Queryable is anything that can be searched by selector: a page or an element.
type Queryable interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to one DOM node. Handles may go stale at any time;
// every method must fail with an error rather than block past its bound.
type Element interface {
	Queryable

	// Attribute returns the attribute value, or "" when the attribute is absent
	Attribute(ctx context.Context, name string) (string, error)

	// InnerText returns the rendered text of the node
	InnerText(ctx context.Context) (string, error)

	// Click clicks the node, giving up after timeout
	Click(ctx context.Context, timeout time.Duration) error
}

// Page is one live (or snapshotted) document.
type Page interface {
	Queryable

	// Navigate loads url and waits for DOMContentLoaded
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// WaitForNetworkIdle is a best-effort readiness signal
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error

	// ClickText clicks the first element whose text contains text
	ClickText(ctx context.Context, text string, timeout time.Duration) error

	// Evaluate runs a JavaScript expression and returns its JSON-decoded result
	Evaluate(ctx context.Context, script string) (interface{}, error)

	// Wait pauses for d, returning early if ctx is done
	Wait(ctx context.Context, d time.Duration) error

	// Close releases the page and the browser process behind it
	Close() error
}

// Launcher starts a browser session.
type Launcher interface {
	Launch(ctx context.Context, profile Profile) (Page, error)
	Name() string
}

// Profile is the fixed identity a session presents to the site.
type Profile struct {
	Locale         string
	TimezoneID     string
	UserAgent      string
	Headless       bool
	Proxy          string
	DefaultTimeout time.Duration
	Args           []string
}

// DefaultProfile returns a Korean desktop Chrome profile
func DefaultProfile() Profile {
	return Profile{
		Locale:     "ko-KR",
		TimezoneID: "Asia/Seoul",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Headless:       true,
		DefaultTimeout: 60 * time.Second,
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
		},
	}
}

// NewLauncher returns the launcher for the named engine
func NewLauncher(engine string) (Launcher, error) {
	switch engine {
	case EnginePlaywright, "":
		return NewPlaywrightLauncher(), nil
	case EngineChromedp:
		return NewChromedpLauncher(), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", engine)
	}
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
