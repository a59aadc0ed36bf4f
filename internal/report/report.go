// Package report renders scan results as console text, JSON, CSV or HTML.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// Format selects the output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatList Format = "list"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatList:
		return FormatList, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Report is a finished scan ready for rendering.
type Report struct {
	Target      string              `json:"target"`
	GeneratedAt time.Time           `json:"generated_at"`
	Duration    time.Duration       `json:"duration"`
	Total       int                 `json:"total_endpoints"`
	Endpoints   []endpoint.Endpoint `json:"endpoints"`
}

// New builds a report with endpoints sorted by confidence descending.
// Equal confidences keep their discovery order.
func New(target string, duration time.Duration, endpoints []endpoint.Endpoint) *Report {
	sorted := make([]endpoint.Endpoint, len(endpoints))
	copy(sorted, endpoints)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	return &Report{
		Target:      target,
		GeneratedAt: time.Now().UTC(),
		Duration:    duration,
		Total:       len(sorted),
		Endpoints:   sorted,
	}
}

// FilterByConfidence returns a copy keeping only endpoints at or above the
// threshold. The scan itself never drops endpoints; filtering is a
// presentation decision.
func (r *Report) FilterByConfidence(threshold float64) *Report {
	filtered := make([]endpoint.Endpoint, 0, len(r.Endpoints))
	for _, ep := range r.Endpoints {
		if ep.Confidence >= threshold {
			filtered = append(filtered, ep)
		}
	}

	return &Report{
		Target:      r.Target,
		GeneratedAt: r.GeneratedAt,
		Duration:    r.Duration,
		Total:       len(filtered),
		Endpoints:   filtered,
	}
}

// Write renders the report in the given format.
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return r.writeJSON(w)
	case FormatCSV:
		return r.writeCSV(w)
	case FormatHTML:
		return r.writeHTML(w)
	case FormatList:
		return r.writeList(w)
	default:
		return r.writeText(w)
	}
}

func (r *Report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"url", "method", "source", "confidence", "parameters"}); err != nil {
		return err
	}
	for _, ep := range r.Endpoints {
		record := []string{
			ep.URL,
			ep.Method,
			string(ep.Source),
			strconv.FormatFloat(ep.Confidence, 'f', 2, 64),
			strings.Join(ep.Parameters, " "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Report) writeList(w io.Writer) error {
	for _, ep := range r.Endpoints {
		if _, err := fmt.Fprintln(w, ep.URL); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Target: %s\n", r.Target)
	fmt.Fprintf(w, "Endpoints: %d (scan took %s)\n\n", r.Total, r.Duration.Round(time.Millisecond))

	for _, ep := range r.Endpoints {
		fmt.Fprintf(w, "[%.2f] %-6s %s (%s)\n", ep.Confidence, ep.Method, ep.URL, ep.Source)
		if len(ep.Parameters) > 0 {
			fmt.Fprintf(w, "        params: %s\n", strings.Join(ep.Parameters, ", "))
		}
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>API endpoint report for {{.Target}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
.conf-high { color: #0a7a0a; }
.conf-low { color: #a00; }
</style>
</head>
<body>
<h1>API endpoint report</h1>
<p>Target: {{.Target}}<br>
Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}<br>
Endpoints: {{.Total}}</p>
<table>
<tr><th>Confidence</th><th>Method</th><th>URL</th><th>Source</th><th>Parameters</th></tr>
{{range .Endpoints}}
<tr>
<td class="{{if ge .Confidence 0.7}}conf-high{{else}}conf-low{{end}}">{{printf "%.2f" .Confidence}}</td>
<td>{{.Method}}</td>
<td>{{.URL}}</td>
<td>{{.Source}}</td>
<td>{{range .Parameters}}{{.}} {{end}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

func (r *Report) writeHTML(w io.Writer) error {
	return htmlTemplate.Execute(w, r)
}
