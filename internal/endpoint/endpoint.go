// Package endpoint defines the discovered-endpoint entity, the confidence
// scoring table, and the merge rules applied across extraction strategies.
package endpoint

// Source identifies the extraction strategy or probe that produced an endpoint.
type Source string

const (
	SourceLink          Source = "html_link"
	SourceJavaScript    Source = "javascript"
	SourceForm          Source = "html_form"
	SourceAjax          Source = "ajax_call"
	SourceMeta          Source = "meta_tag"
	SourceDataAttribute Source = "data_attribute"
	SourceComment       Source = "comment"
	SourceAuthContent   Source = "authenticated_content"
	SourcePathScan      Source = "path_scan"
	SourceRobots        Source = "robots_txt"
	SourceSitemap       Source = "sitemap"
	SourceSwaggerDocs   Source = "swagger_docs"
	SourceSwaggerSpec   Source = "swagger_spec"
	SourceAuthProbe     Source = "authenticated_endpoint_test"
)

// Endpoint is a single discovered API endpoint candidate.
type Endpoint struct {
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Parameters []string          `json:"parameters,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Source     Source            `json:"source"`
	Confidence float64           `json:"confidence"`
}

// Key returns the identity of an endpoint for merging: same URL and method
// means same endpoint, regardless of source.
func (e Endpoint) Key() string {
	return e.Method + " " + e.URL
}

// Scoring holds the confidence values assigned by each strategy and the
// adjustments applied by the live validator.
type Scoring struct {
	Link          float64 `json:"link" yaml:"link"`
	JavaScript    float64 `json:"javascript" yaml:"javascript"`
	Form          float64 `json:"form" yaml:"form"`
	Ajax          float64 `json:"ajax" yaml:"ajax"`
	Meta          float64 `json:"meta" yaml:"meta"`
	DataAttribute float64 `json:"data_attribute" yaml:"data_attribute"`
	Comment       float64 `json:"comment" yaml:"comment"`
	AuthContent   float64 `json:"auth_content" yaml:"auth_content"`
	AuthDataAttr  float64 `json:"auth_data_attr" yaml:"auth_data_attr"`

	Robots        float64 `json:"robots" yaml:"robots"`
	Sitemap       float64 `json:"sitemap" yaml:"sitemap"`
	SwaggerDocs   float64 `json:"swagger_docs" yaml:"swagger_docs"`
	SwaggerSpec   float64 `json:"swagger_spec" yaml:"swagger_spec"`
	PathScan      float64 `json:"path_scan" yaml:"path_scan"`
	PathScanAPI   float64 `json:"path_scan_api" yaml:"path_scan_api"`
	AuthProbeHit  float64 `json:"auth_probe_hit" yaml:"auth_probe_hit"`

	// Live validator adjustments.
	ProbeReward      float64 `json:"probe_reward" yaml:"probe_reward"`
	ContentTypeBonus float64 `json:"content_type_bonus" yaml:"content_type_bonus"`
	ProbePenalty     float64 `json:"probe_penalty" yaml:"probe_penalty"`
	Floor            float64 `json:"floor" yaml:"floor"`
}

// DefaultScoring returns the standard confidence table.
func DefaultScoring() Scoring {
	return Scoring{
		Link:          0.7,
		JavaScript:    0.8,
		Form:          0.6,
		Ajax:          0.9,
		Meta:          0.5,
		DataAttribute: 0.8,
		Comment:       0.4,
		AuthContent:   0.8,
		AuthDataAttr:  0.7,

		Robots:       0.6,
		Sitemap:      0.7,
		SwaggerDocs:  0.9,
		SwaggerSpec:  1.0,
		PathScan:     0.5,
		PathScanAPI:  0.8,
		AuthProbeHit: 0.95,

		ProbeReward:      0.2,
		ContentTypeBonus: 0.1,
		ProbePenalty:     0.3,
		Floor:            0.1,
	}
}

// Clamp bounds a confidence value to [floor, 1.0].
func (s Scoring) Clamp(confidence float64) float64 {
	if confidence > 1.0 {
		return 1.0
	}
	if confidence < s.Floor {
		return s.Floor
	}
	return confidence
}

// Deduplicate merges endpoints that share (url, method). The first-seen
// entry keeps its parameters, headers and source; confidence is raised to
// the maximum observed across duplicates. Order of first appearance is
// preserved, which makes the merge idempotent.
func Deduplicate(endpoints []Endpoint) []Endpoint {
	seen := make(map[string]int, len(endpoints))
	out := make([]Endpoint, 0, len(endpoints))

	for _, ep := range endpoints {
		key := ep.Key()
		if idx, ok := seen[key]; ok {
			if ep.Confidence > out[idx].Confidence {
				out[idx].Confidence = ep.Confidence
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, ep)
	}

	return out
}
