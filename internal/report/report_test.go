package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

func sampleEndpoints() []endpoint.Endpoint {
	return []endpoint.Endpoint{
		{URL: "https://example.com/api/low", Method: "GET", Source: endpoint.SourceComment, Confidence: 0.4},
		{URL: "https://example.com/api/high", Method: "GET", Source: endpoint.SourceAjax, Confidence: 0.9},
		{URL: "https://example.com/api/mid", Method: "POST", Source: endpoint.SourceForm, Confidence: 0.6,
			Parameters: []string{"q"}},
	}
}

func TestNewSortsByConfidence(t *testing.T) {
	r := New("https://example.com", time.Second, sampleEndpoints())

	if r.Total != 3 {
		t.Fatalf("expected 3 endpoints, got %d", r.Total)
	}
	want := []float64{0.9, 0.6, 0.4}
	for i, ep := range r.Endpoints {
		if ep.Confidence != want[i] {
			t.Errorf("position %d: confidence %v, want %v", i, ep.Confidence, want[i])
		}
	}
}

func TestFilterByConfidence(t *testing.T) {
	r := New("https://example.com", time.Second, sampleEndpoints())
	filtered := r.FilterByConfidence(0.6)

	if filtered.Total != 2 {
		t.Fatalf("expected 2 endpoints at threshold 0.6, got %d", filtered.Total)
	}
	for _, ep := range filtered.Endpoints {
		if ep.Confidence < 0.6 {
			t.Errorf("endpoint below threshold leaked: %v", ep.Confidence)
		}
	}

	// Original report untouched.
	if r.Total != 3 {
		t.Errorf("filter mutated source report: %d", r.Total)
	}
}

func TestWriteJSON(t *testing.T) {
	r := New("https://example.com", time.Second, sampleEndpoints())

	var buf bytes.Buffer
	if err := r.Write(&buf, FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Target != "https://example.com" || len(decoded.Endpoints) != 3 {
		t.Errorf("JSON round trip lost data: %+v", decoded)
	}
}

func TestWriteCSV(t *testing.T) {
	r := New("https://example.com", time.Second, sampleEndpoints())

	var buf bytes.Buffer
	if err := r.Write(&buf, FormatCSV); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "url,method,source,confidence") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "https://example.com/api/high") {
		t.Errorf("rows not sorted by confidence: %s", lines[1])
	}
}

func TestWriteList(t *testing.T) {
	r := New("https://example.com", time.Second, sampleEndpoints())

	var buf bytes.Buffer
	if err := r.Write(&buf, FormatList); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "https://example.com/api/high" {
		t.Errorf("first line %q", lines[0])
	}
}

func TestWriteHTML(t *testing.T) {
	r := New("https://example.com", time.Second, sampleEndpoints())

	var buf bytes.Buffer
	if err := r.Write(&buf, FormatHTML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"https://example.com/api/high",
		"POST",
		"<table>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"html", FormatHTML, false},
		{"text", FormatText, false},
		{"list", FormatList, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
