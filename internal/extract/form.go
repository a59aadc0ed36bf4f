package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// FormStrategy extracts endpoints from form actions, with field names as
// parameters.
type FormStrategy struct {
	confidence float64
}

// NewFormStrategy creates the form strategy.
func NewFormStrategy(scoring endpoint.Scoring) *FormStrategy {
	return &FormStrategy{confidence: scoring.Form}
}

// Name returns the strategy name.
func (s *FormStrategy) Name() string { return "form" }

// Extract returns one endpoint per form. A form without an action submits
// to the page itself; a form without a method submits GET.
func (s *FormStrategy) Extract(page *Page) []endpoint.Endpoint {
	endpoints := make([]endpoint.Endpoint, 0)

	page.Doc.Find("form").Each(func(i int, sel *goquery.Selection) {
		action, _ := sel.Attr("action")

		var resolved string
		if action == "" {
			resolved = page.URL.String()
		} else {
			resolved = Resolve(page.URL, action)
			if resolved == "" {
				return
			}
		}

		method := "GET"
		if m, exists := sel.Attr("method"); exists && m != "" {
			method = strings.ToUpper(m)
		}

		params := make([]string, 0)
		sel.Find("input[name], textarea[name], select[name]").Each(func(j int, field *goquery.Selection) {
			if name, exists := field.Attr("name"); exists && name != "" {
				params = append(params, name)
			}
		})

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        resolved,
			Method:     method,
			Parameters: params,
			Source:     endpoint.SourceForm,
			Confidence: s.confidence,
		})
	})

	return endpoints
}
