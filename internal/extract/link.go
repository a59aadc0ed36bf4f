package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// LinkStrategy extracts endpoints from anchor hrefs. Anchors are mostly
// navigation, so only API-shaped paths pass.
type LinkStrategy struct {
	confidence float64
}

// NewLinkStrategy creates the link strategy.
func NewLinkStrategy(scoring endpoint.Scoring) *LinkStrategy {
	return &LinkStrategy{confidence: scoring.Link}
}

// Name returns the strategy name.
func (s *LinkStrategy) Name() string { return "link" }

// Extract returns endpoints for anchors whose resolved URL matches an API
// path pattern.
func (s *LinkStrategy) Extract(page *Page) []endpoint.Endpoint {
	endpoints := make([]endpoint.Endpoint, 0)

	page.Doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}

		resolved := Resolve(page.URL, href)
		if resolved == "" || !MatchesAPIPattern(resolved) {
			return
		}

		// Parameters come from the raw href: resolving can introduce
		// a host port that the :name pattern would misread.
		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        resolved,
			Method:     "GET",
			Parameters: ExtractParams(href),
			Source:     endpoint.SourceLink,
			Confidence: s.confidence,
		})
	})

	return endpoints
}
