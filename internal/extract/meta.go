package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// dataURLAttrs are the data attributes commonly used to park an endpoint
// URL on an element for later script pickup.
var dataURLAttrs = []string{
	"data-url",
	"data-api",
	"data-endpoint",
	"data-src",
	"data-action",
	"data-ajax-url",
}

// MetaStrategy extracts endpoints from meta tag content and data-*
// attributes holding URLs.
type MetaStrategy struct {
	metaConfidence float64
	dataConfidence float64
}

// NewMetaStrategy creates the meta/data-attribute strategy.
func NewMetaStrategy(scoring endpoint.Scoring) *MetaStrategy {
	return &MetaStrategy{
		metaConfidence: scoring.Meta,
		dataConfidence: scoring.DataAttribute,
	}
}

// Name returns the strategy name.
func (s *MetaStrategy) Name() string { return "meta" }

// Extract scans meta content values and the known data attributes. Meta
// content is mostly descriptions and titles, so it passes the keyword
// filter first; data attributes holding a resolvable URL are taken as-is.
func (s *MetaStrategy) Extract(page *Page) []endpoint.Endpoint {
	endpoints := make([]endpoint.Endpoint, 0)

	page.Doc.Find("meta[content]").Each(func(i int, sel *goquery.Selection) {
		content, _ := sel.Attr("content")
		if content == "" || !LooksAPILike(content) {
			return
		}

		resolved := Resolve(page.URL, content)
		if resolved == "" {
			return
		}

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        resolved,
			Method:     "GET",
			Parameters: ExtractParams(content),
			Source:     endpoint.SourceMeta,
			Confidence: s.metaConfidence,
		})
	})

	for _, attr := range dataURLAttrs {
		page.Doc.Find("[" + attr + "]").Each(func(i int, sel *goquery.Selection) {
			value, _ := sel.Attr(attr)
			resolved := Resolve(page.URL, value)
			if resolved == "" {
				return
			}

			endpoints = append(endpoints, endpoint.Endpoint{
				URL:        resolved,
				Method:     "GET",
				Parameters: ExtractParams(value),
				Source:     endpoint.SourceDataAttribute,
				Confidence: s.dataConfidence,
			})
		})
	}

	return endpoints
}
