package endpoint

import (
	"testing"
)

func TestDefaultScoring(t *testing.T) {
	s := DefaultScoring()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"link", s.Link, 0.7},
		{"javascript", s.JavaScript, 0.8},
		{"form", s.Form, 0.6},
		{"ajax", s.Ajax, 0.9},
		{"meta", s.Meta, 0.5},
		{"data attribute", s.DataAttribute, 0.8},
		{"comment", s.Comment, 0.4},
		{"auth content", s.AuthContent, 0.8},
		{"auth data attr", s.AuthDataAttr, 0.7},
		{"robots", s.Robots, 0.6},
		{"sitemap", s.Sitemap, 0.7},
		{"swagger docs", s.SwaggerDocs, 0.9},
		{"swagger spec", s.SwaggerSpec, 1.0},
		{"path scan", s.PathScan, 0.5},
		{"path scan api", s.PathScanAPI, 0.8},
		{"auth probe hit", s.AuthProbeHit, 0.95},
		{"probe reward", s.ProbeReward, 0.2},
		{"content type bonus", s.ContentTypeBonus, 0.1},
		{"probe penalty", s.ProbePenalty, 0.3},
		{"floor", s.Floor, 0.1},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestScoringClamp(t *testing.T) {
	s := DefaultScoring()

	tests := []struct {
		in   float64
		want float64
	}{
		{1.2, 1.0},
		{1.0, 1.0},
		{0.5, 0.5},
		{0.1, 0.1},
		{0.05, 0.1},
		{-0.3, 0.1},
	}

	for _, tt := range tests {
		if got := s.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeduplicateKeepsMaxConfidence(t *testing.T) {
	endpoints := []Endpoint{
		{URL: "https://example.com/api/users", Method: "GET", Source: SourceLink, Confidence: 0.7},
		{URL: "https://example.com/api/users", Method: "GET", Source: SourceAjax, Confidence: 0.9},
		{URL: "https://example.com/api/users", Method: "POST", Source: SourceForm, Confidence: 0.6},
	}

	result := Deduplicate(endpoints)

	if len(result) != 2 {
		t.Fatalf("expected 2 endpoints after dedup, got %d", len(result))
	}

	// First-seen entry keeps its source, confidence raised to max.
	if result[0].Source != SourceLink {
		t.Errorf("expected first-seen source %s, got %s", SourceLink, result[0].Source)
	}
	if result[0].Confidence != 0.9 {
		t.Errorf("expected merged confidence 0.9, got %v", result[0].Confidence)
	}

	// Different method is a distinct endpoint.
	if result[1].Method != "POST" {
		t.Errorf("expected POST endpoint to survive, got %s", result[1].Method)
	}
}

func TestDeduplicateKeepsFirstSeenDetails(t *testing.T) {
	endpoints := []Endpoint{
		{
			URL:        "https://example.com/search",
			Method:     "GET",
			Parameters: []string{"q"},
			Source:     SourceForm,
			Confidence: 0.6,
		},
		{
			URL:        "https://example.com/search",
			Method:     "GET",
			Parameters: []string{"query", "page"},
			Source:     SourceJavaScript,
			Confidence: 0.8,
		},
	}

	result := Deduplicate(endpoints)

	if len(result) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(result))
	}
	if len(result[0].Parameters) != 1 || result[0].Parameters[0] != "q" {
		t.Errorf("expected first-seen parameters [q], got %v", result[0].Parameters)
	}
	if result[0].Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", result[0].Confidence)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	endpoints := []Endpoint{
		{URL: "https://example.com/api/a", Method: "GET", Source: SourceLink, Confidence: 0.7},
		{URL: "https://example.com/api/a", Method: "GET", Source: SourceAjax, Confidence: 0.9},
		{URL: "https://example.com/api/b", Method: "POST", Source: SourceForm, Confidence: 0.6},
	}

	once := Deduplicate(endpoints)
	twice := Deduplicate(once)

	if len(once) != len(twice) {
		t.Fatalf("dedup not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Key() != twice[i].Key() {
			t.Errorf("entry %d changed on second pass", i)
		}
		if once[i].Confidence != twice[i].Confidence {
			t.Errorf("confidence changed on second pass: %v vs %v", once[i].Confidence, twice[i].Confidence)
		}
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	result := Deduplicate(nil)
	if len(result) != 0 {
		t.Errorf("expected empty result, got %d entries", len(result))
	}
}
