package extract

import (
	"regexp"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// ajaxPatterns run over the raw page body rather than parsed script nodes,
// so they also catch URLs inside attributes and templating artifacts.
var ajaxPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.ajax\s*\(\s*\{[^}]*url\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`axios\.\w+\s*\(\s*["']([^"']+)["']`),
	regexp.MustCompile(`fetch\s*\(\s*["']([^"']+)["']`),
	regexp.MustCompile(`api[_-]?endpoint["']?\s*[:=]\s*["']([^"']+)["']`),
	regexp.MustCompile(`baseURL["']?\s*[:=]\s*["']([^"']+)["']`),
	regexp.MustCompile(`["'](/api/[^"']*)["']`),
	regexp.MustCompile(`["'](/client/api/[^"']*)["']`),
}

// AjaxStrategy scans the raw body for AJAX call shapes and API URL
// literals. These are the strongest passive signal.
type AjaxStrategy struct {
	confidence float64
}

// NewAjaxStrategy creates the ajax strategy.
func NewAjaxStrategy(scoring endpoint.Scoring) *AjaxStrategy {
	return &AjaxStrategy{confidence: scoring.Ajax}
}

// Name returns the strategy name.
func (s *AjaxStrategy) Name() string { return "ajax" }

// Extract applies the pattern bank to the raw body.
func (s *AjaxStrategy) Extract(page *Page) []endpoint.Endpoint {
	return s.Scan(page, page.Body)
}

// Scan applies the pattern bank to an arbitrary body, which lets the
// authenticated probe re-extract from responses it fetches.
func (s *AjaxStrategy) Scan(page *Page, body string) []endpoint.Endpoint {
	endpoints := make([]endpoint.Endpoint, 0)
	seen := make(map[string]bool)

	for _, pattern := range ajaxPatterns {
		matches := pattern.FindAllStringSubmatch(body, -1)
		for _, match := range matches {
			if len(match) < 2 {
				continue
			}

			resolved := Resolve(page.URL, match[1])
			if resolved == "" || seen[resolved] {
				continue
			}
			seen[resolved] = true

			endpoints = append(endpoints, endpoint.Endpoint{
				URL:        resolved,
				Method:     "GET",
				Parameters: ExtractParams(match[1]),
				Source:     endpoint.SourceAjax,
				Confidence: s.confidence,
			})
		}
	}

	return endpoints
}
