package browser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"sjsage522/hsmoadigest/helpers"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SnapshotPage is a read-only Page over a saved HTML document. Queries and
// reads work; clicks, navigation and scripts do not. The document height never
// changes, so scrolling converges immediately.
type SnapshotPage struct {
	doc *goquery.Document
}

var _ Page = (*SnapshotPage)(nil)

// NewSnapshotPage parses HTML from r, converting it to UTF-8 first
func NewSnapshotPage(r io.Reader, contentType string) (*SnapshotPage, error) {
	utf8Body, err := helpers.ToUTF8(r, contentType)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &SnapshotPage{doc: doc}, nil
}

// NewSnapshotPageFromString parses an inline UTF-8 HTML document
func NewSnapshotPageFromString(html string) (*SnapshotPage, error) {
	return NewSnapshotPage(strings.NewReader(html), "text/html; charset=utf-8")
}

func (p *SnapshotPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return ErrUnsupported
}

func (p *SnapshotPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return ctx.Err()
}

func (p *SnapshotPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wrapSelection(p.doc.Find(selector)), nil
}

func (p *SnapshotPage) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	return ErrNotInteractive
}

func (p *SnapshotPage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	return nil, ErrUnsupported
}

func (p *SnapshotPage) Wait(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func (p *SnapshotPage) Close() error {
	return nil
}

type snapshotElement struct {
	sel *goquery.Selection
}

var _ Element = (*snapshotElement)(nil)

func wrapSelection(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &snapshotElement{sel: s})
	})
	return elements
}

func (e *snapshotElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wrapSelection(e.sel.Find(selector)), nil
}

func (e *snapshotElement) Attribute(ctx context.Context, name string) (string, error) {
	value, _ := e.sel.Attr(name)
	return value, ctx.Err()
}

// InnerText approximates innerText: text nodes in document order, with a space
// at every non-inline descendant boundary. Scripts and styles are skipped.
func (e *snapshotElement) InnerText(ctx context.Context) (string, error) {
	var b strings.Builder
	for _, n := range e.sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(&b, c)
		}
	}
	return b.String(), ctx.Err()
}

// inlineElements do not break text runs in rendered output
var inlineElements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Bdi: true, atom.Bdo: true,
	atom.Cite: true, atom.Code: true, atom.Em: true, atom.I: true, atom.Kbd: true,
	atom.Mark: true, atom.Q: true, atom.S: true, atom.Small: true, atom.Span: true,
	atom.Strong: true, atom.Sub: true, atom.Sup: true, atom.Time: true, atom.U: true,
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}

	block := n.Type == html.ElementNode && !inlineElements[n.DataAtom]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}

func (e *snapshotElement) Click(ctx context.Context, timeout time.Duration) error {
	return ErrNotInteractive
}
