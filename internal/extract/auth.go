package extract

import (
	"regexp"
	"strings"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// authResources are the path roots that usually appear only behind a login.
var authResources = []string{
	"user", "users", "profile", "account", "dashboard",
	"admin", "settings", "my",
}

// authDataAttrPattern matches any data-* attribute whose name mentions url.
var authDataAttrPattern = regexp.MustCompile(`data-[a-zA-Z-]*url[a-zA-Z-]*\s*=\s*["']([^"']+)["']`)

// AuthContentStrategy mines pages fetched with an authenticated session for
// user-scoped paths that anonymous extraction would never see.
type AuthContentStrategy struct {
	pathConfidence float64
	attrConfidence float64
}

// NewAuthContentStrategy creates the authenticated-content strategy.
func NewAuthContentStrategy(scoring endpoint.Scoring) *AuthContentStrategy {
	return &AuthContentStrategy{
		pathConfidence: scoring.AuthContent,
		attrConfidence: scoring.AuthDataAttr,
	}
}

// Name returns the strategy name.
func (s *AuthContentStrategy) Name() string { return "authenticated_content" }

// Extract is a no-op on anonymous pages. On authenticated pages it scans
// the raw body for user-scoped path literals and url-bearing data
// attributes; resource keywords from configuration widen the path bank.
func (s *AuthContentStrategy) Extract(page *Page) []endpoint.Endpoint {
	if !page.Authenticated {
		return nil
	}

	endpoints := make([]endpoint.Endpoint, 0)
	seen := make(map[string]bool)

	pattern := s.pathPattern(page.ResourceKeywords)
	for _, match := range pattern.FindAllStringSubmatch(page.Body, -1) {
		resolved := Resolve(page.URL, match[1])
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        resolved,
			Method:     "GET",
			Parameters: ExtractParams(match[1]),
			Source:     endpoint.SourceAuthContent,
			Confidence: s.pathConfidence,
		})
	}

	for _, match := range authDataAttrPattern.FindAllStringSubmatch(page.Body, -1) {
		resolved := Resolve(page.URL, match[1])
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        resolved,
			Method:     "GET",
			Parameters: ExtractParams(match[1]),
			Source:     endpoint.SourceAuthContent,
			Confidence: s.attrConfidence,
		})
	}

	return endpoints
}

// pathPattern builds the quoted-path pattern from the base resources plus
// any configured keywords.
func (s *AuthContentStrategy) pathPattern(keywords []string) *regexp.Regexp {
	resources := make([]string, 0, len(authResources)+len(keywords))
	resources = append(resources, authResources...)
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw != "" {
			resources = append(resources, regexp.QuoteMeta(kw))
		}
	}

	return regexp.MustCompile(`["'](/(?:` + strings.Join(resources, "|") + `)[^"'\s]*)["']`)
}
