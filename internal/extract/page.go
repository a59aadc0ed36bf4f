// Package extract provides the passive endpoint extraction strategies that
// run over a fetched HTML page.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
	"github.com/PentesterFlow/apihunter/internal/errors"
)

// Page is a fetched HTML page prepared for extraction.
type Page struct {
	URL  *url.URL
	Body string
	Doc  *goquery.Document

	// Authenticated marks the page as fetched with an authenticated session,
	// which enables the authenticated-content strategy.
	Authenticated bool

	// ResourceKeywords are domain-specific resource names (e.g. "order",
	// "invoice") used to widen the authenticated-content path patterns.
	ResourceKeywords []string
}

// NewPage parses a fetched body into a Page ready for the strategies.
func NewPage(pageURL, body string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.NewParseError(pageURL, "parse_url", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, errors.NewParseError(pageURL, "parse_html", err)
	}

	return &Page{
		URL:  u,
		Body: body,
		Doc:  doc,
	}, nil
}

// Strategy extracts endpoint candidates from a page. Strategies never fail:
// malformed fragments are skipped, not reported.
type Strategy interface {
	Name() string
	Extract(page *Page) []endpoint.Endpoint
}

// Strategies returns the full ordered strategy set. The order is stable so
// that first-seen merge semantics are deterministic across runs.
func Strategies(scoring endpoint.Scoring) []Strategy {
	return []Strategy{
		NewLinkStrategy(scoring),
		NewScriptStrategy(scoring),
		NewFormStrategy(scoring),
		NewAjaxStrategy(scoring),
		NewMetaStrategy(scoring),
		NewCommentStrategy(scoring),
		NewAuthContentStrategy(scoring),
	}
}
