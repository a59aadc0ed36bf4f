package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// apiKeywords is the permissive substring check used by strategies that only
// need a hint of API-ness.
var apiKeywords = []string{
	"api", "rest", "graphql", "endpoint", "service",
	"json", "xml", "data", "ajax", "fetch",
}

// apiPathPatterns is the strict path-shape check. Only the link strategy
// uses it; everything a script or form references is already interesting.
var apiPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/api/`),
	regexp.MustCompile(`/api/v\d+/`),
	regexp.MustCompile(`/rest/`),
	regexp.MustCompile(`/graphql`),
	regexp.MustCompile(`/v\d+/`),
	regexp.MustCompile(`\.json(\?|$)`),
	regexp.MustCompile(`\.xml(\?|$)`),
	regexp.MustCompile(`/ajax/`),
	regexp.MustCompile(`/services?/`),
}

// LooksAPILike reports whether a URL or text fragment contains any API
// keyword. Case-insensitive substring match, deliberately permissive.
func LooksAPILike(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range apiKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchesAPIPattern reports whether a URL has an API-shaped path.
func MatchesAPIPattern(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range apiPathPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// IsRejected reports whether a reference can never be an endpoint: empty
// strings, non-HTTP schemes, and bare fragment anchors.
func IsRejected(href string) bool {
	if href == "" {
		return true
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return true
	}

	return strings.HasPrefix(href, "#")
}

// Resolve resolves a reference against the page URL. Returns "" for
// rejected or unparseable references.
func Resolve(base *url.URL, href string) string {
	if IsRejected(href) {
		return ""
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// ExtractParams extracts parameter names from a URL: query parameter names
// plus path placeholders like :id, {id} and ${id}.
func ExtractParams(rawURL string) []string {
	params := make([]string, 0)

	for _, pattern := range pathParamPatterns {
		matches := pattern.FindAllStringSubmatch(rawURL, -1)
		for _, match := range matches {
			if len(match) >= 2 {
				params = append(params, match[1])
			}
		}
	}

	if idx := strings.Index(rawURL, "?"); idx != -1 {
		query := rawURL[idx+1:]
		for _, part := range strings.Split(query, "&") {
			if eqIdx := strings.Index(part, "="); eqIdx != -1 {
				params = append(params, part[:eqIdx])
			} else if part != "" {
				params = append(params, part)
			}
		}
	}

	return params
}

var pathParamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`:(\w+)`),
	regexp.MustCompile(`\{(\w+)\}`),
	regexp.MustCompile(`\$\{(\w+)\}`),
}
