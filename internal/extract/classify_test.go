package extract

import (
	"net/url"
	"testing"
)

func TestLooksAPILike(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/api/users", true},
		{"https://example.com/rest/orders", true},
		{"/graphql", true},
		{"fetchProducts", true},
		{"/static/style.css", false},
		{"/about", false},
		{"", false},
		{"/API/Users", true},
		{"https://example.com/data/export", true},
	}

	for _, tt := range tests {
		if got := LooksAPILike(tt.input); got != tt.want {
			t.Errorf("LooksAPILike(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMatchesAPIPattern(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/api/users", true},
		{"https://example.com/api/v2/users", true},
		{"https://example.com/rest/orders", true},
		{"https://example.com/graphql", true},
		{"https://example.com/v1/items", true},
		{"https://example.com/users.json", true},
		{"https://example.com/feed.xml?page=2", true},
		{"https://example.com/ajax/load", true},
		{"https://example.com/service/lookup", true},
		{"https://example.com/about", false},
		{"https://example.com/blog/json-tutorial", false},
		{"https://example.com/apiary", false},
	}

	for _, tt := range tests {
		if got := MatchesAPIPattern(tt.input); got != tt.want {
			t.Errorf("MatchesAPIPattern(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsRejected(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"javascript:void(0)", true},
		{"JavaScript:alert(1)", true},
		{"mailto:admin@example.com", true},
		{"tel:+15551234567", true},
		{"data:text/plain;base64,aGk=", true},
		{"#top", true},
		{"/api/users", false},
		{"https://example.com/api", false},
		{"relative/path", false},
	}

	for _, tt := range tests {
		if got := IsRejected(tt.input); got != tt.want {
			t.Errorf("IsRejected(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://example.com/app/home")

	tests := []struct {
		href string
		want string
	}{
		{"/api/users", "https://example.com/api/users"},
		{"details", "https://example.com/app/details"},
		{"https://other.example.com/api", "https://other.example.com/api"},
		{"javascript:void(0)", ""},
		{"mailto:x@example.com", ""},
		{"", ""},
		{"//cdn.example.com/api/v1", "https://cdn.example.com/api/v1"},
		{"ftp://example.com/file", ""},
	}

	for _, tt := range tests {
		if got := Resolve(base, tt.href); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestExtractParams(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/api/users?page=1&limit=10", []string{"page", "limit"}},
		{"/api/users/{id}/orders", []string{"id"}},
		{"/api/users/:userId", []string{"userId"}},
		{"/api/plain", []string{}},
	}

	for _, tt := range tests {
		got := ExtractParams(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ExtractParams(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ExtractParams(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}
