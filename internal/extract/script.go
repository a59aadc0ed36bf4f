package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// scriptPatterns are the API call shapes recognized in inline script
// bodies. They match the call shape, not a particular client object, so
// jQuery, axios and hand-rolled wrappers all count. Patterns without a
// method capture group default to GET.
var scriptPatterns = []struct {
	regex  *regexp.Regexp
	method string
}{
	{regexp.MustCompile(`fetch\s*\(\s*["']([^"']+)["']`), "GET"},
	{regexp.MustCompile(`\.open\s*\(\s*["'](\w+)["']\s*,\s*["']([^"']+)["']`), ""},
	{regexp.MustCompile(`ajax\s*\(\s*\{[^}]*url\s*:\s*["']([^"']+)["']`), "GET"},
	{regexp.MustCompile(`\.get\s*\(\s*["']([^"']+)["']`), "GET"},
	{regexp.MustCompile(`\.post\s*\(\s*["']([^"']+)["']`), "GET"},
}

// ScriptStrategy statically analyzes inline <script> blocks for API calls.
type ScriptStrategy struct {
	confidence float64
}

// NewScriptStrategy creates the inline-script strategy.
func NewScriptStrategy(scoring endpoint.Scoring) *ScriptStrategy {
	return &ScriptStrategy{confidence: scoring.JavaScript}
}

// Name returns the strategy name.
func (s *ScriptStrategy) Name() string { return "javascript" }

// Extract scans every inline script body against the pattern bank. External
// scripts (src attribute) are not fetched.
func (s *ScriptStrategy) Extract(page *Page) []endpoint.Endpoint {
	endpoints := make([]endpoint.Endpoint, 0)

	page.Doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		js := sel.Text()
		if strings.TrimSpace(js) == "" {
			return
		}
		endpoints = append(endpoints, s.scan(page, js)...)
	})

	return endpoints
}

// scan applies the pattern bank to a single script body.
func (s *ScriptStrategy) scan(page *Page, js string) []endpoint.Endpoint {
	endpoints := make([]endpoint.Endpoint, 0)

	for _, p := range scriptPatterns {
		matches := p.regex.FindAllStringSubmatch(js, -1)
		for _, match := range matches {
			if len(match) < 2 {
				continue
			}

			method := p.method
			rawURL := match[1]
			if method == "" && len(match) >= 3 {
				// XHR open captures the method first, then the URL.
				method = strings.ToUpper(match[1])
				rawURL = match[2]
			}
			if method == "" {
				method = "GET"
			}

			resolved := Resolve(page.URL, rawURL)
			if resolved == "" {
				continue
			}

			endpoints = append(endpoints, endpoint.Endpoint{
				URL:        resolved,
				Method:     method,
				Parameters: ExtractParams(rawURL),
				Source:     endpoint.SourceJavaScript,
				Confidence: s.confidence,
			})
		}
	}

	return endpoints
}
