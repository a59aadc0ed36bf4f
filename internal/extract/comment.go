package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// jsCommentPatterns pull line and block comments out of inline scripts.
var jsCommentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`//[^\n]*`),
	regexp.MustCompile(`(?s)/\*.*?\*/`),
}

// commentURLPattern matches absolute URLs and absolute paths inside
// comment text.
var commentURLPattern = regexp.MustCompile(`https?://[^\s<>"']+|/[a-zA-Z0-9][a-zA-Z0-9/_.-]*(\?[^\s<>"']*)?`)

// CommentStrategy mines HTML and JavaScript comments for forgotten
// endpoint references. Weakest signal of the passive set.
type CommentStrategy struct {
	confidence float64
}

// NewCommentStrategy creates the comment strategy.
func NewCommentStrategy(scoring endpoint.Scoring) *CommentStrategy {
	return &CommentStrategy{confidence: scoring.Comment}
}

// Name returns the strategy name.
func (s *CommentStrategy) Name() string { return "comment" }

// Extract tokenizes the page for HTML comments, pulls JS comments out of
// the raw body, and keeps only URL-shaped fragments with an API keyword.
func (s *CommentStrategy) Extract(page *Page) []endpoint.Endpoint {
	comments := s.htmlComments(page.Body)
	for _, pattern := range jsCommentPatterns {
		comments = append(comments, pattern.FindAllString(page.Body, -1)...)
	}

	endpoints := make([]endpoint.Endpoint, 0)
	seen := make(map[string]bool)

	for _, comment := range comments {
		for _, candidate := range commentURLPattern.FindAllString(comment, -1) {
			candidate = strings.TrimRight(candidate, ".,;)")
			if !LooksAPILike(candidate) {
				continue
			}

			resolved := Resolve(page.URL, candidate)
			if resolved == "" || seen[resolved] {
				continue
			}
			seen[resolved] = true

			endpoints = append(endpoints, endpoint.Endpoint{
				URL:        resolved,
				Method:     "GET",
				Parameters: ExtractParams(candidate),
				Source:     endpoint.SourceComment,
				Confidence: s.confidence,
			})
		}
	}

	return endpoints
}

// htmlComments tokenizes the body and collects comment nodes.
func (s *CommentStrategy) htmlComments(body string) []string {
	comments := make([]string, 0)

	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.CommentToken {
			comments = append(comments, z.Token().Data)
		}
	}

	return comments
}
