package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
	"github.com/PentesterFlow/apihunter/internal/extract"
	"github.com/PentesterFlow/apihunter/internal/session"
	"github.com/PentesterFlow/apihunter/internal/state"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(session.Config{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	return s
}

func findEndpoint(eps []endpoint.Endpoint, url, method string) *endpoint.Endpoint {
	for i := range eps {
		if eps[i].URL == url && eps[i].Method == method {
			return &eps[i]
		}
	}
	return nil
}

func TestValidatorRewardsLiveEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/json":
			w.Header().Set("Content-Type", "application/json")
		case "/api/html":
			w.Header().Set("Content-Type", "text/html")
		case "/api/broken":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	v := NewValidator(newTestSession(t), endpoint.DefaultScoring(), nil)

	in := []endpoint.Endpoint{
		{URL: srv.URL + "/api/json", Method: "GET", Confidence: 0.6},
		{URL: srv.URL + "/api/html", Method: "GET", Confidence: 0.6},
		{URL: srv.URL + "/api/broken", Method: "GET", Confidence: 0.6},
	}

	out := v.Validate(context.Background(), in)
	if len(out) != 3 {
		t.Fatalf("validator dropped endpoints: got %d", len(out))
	}

	tests := []struct {
		path string
		want float64
	}{
		{"/api/json", 0.9},  // +0.2 live, +0.1 content type
		{"/api/html", 0.8},  // +0.2 live
		{"/api/broken", 0.3}, // -0.3 error status
	}
	for _, tt := range tests {
		ep := findEndpoint(out, srv.URL+tt.path, "GET")
		if ep == nil {
			t.Errorf("%s missing from output", tt.path)
			continue
		}
		if ep.Confidence < tt.want-1e-9 || ep.Confidence > tt.want+1e-9 {
			t.Errorf("%s: confidence %v, want %v", tt.path, ep.Confidence, tt.want)
		}
	}
}

func TestValidatorFloorAndCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
	}))
	defer srv.Close()

	v := NewValidator(newTestSession(t), endpoint.DefaultScoring(), nil)

	out := v.Validate(context.Background(), []endpoint.Endpoint{
		{URL: srv.URL + "/dead", Method: "GET", Confidence: 0.3},
		{URL: srv.URL + "/live", Method: "GET", Confidence: 0.95},
	})

	dead := findEndpoint(out, srv.URL+"/dead", "GET")
	if dead == nil || dead.Confidence != 0.1 {
		t.Errorf("expected floor 0.1, got %+v", dead)
	}

	live := findEndpoint(out, srv.URL+"/live", "GET")
	if live == nil || live.Confidence != 1.0 {
		t.Errorf("expected ceiling 1.0, got %+v", live)
	}
}

func TestValidatorKeepsUnreachableEndpoints(t *testing.T) {
	v := NewValidator(newTestSession(t), endpoint.DefaultScoring(), nil)

	out := v.Validate(context.Background(), []endpoint.Endpoint{
		{URL: "http://127.0.0.1:1/api/users", Method: "GET", Confidence: 0.9},
	})

	if len(out) != 1 {
		t.Fatalf("unreachable endpoint dropped")
	}
	want := 0.9 - 0.3
	if out[0].Confidence < want-1e-9 || out[0].Confidence > want+1e-9 {
		t.Errorf("confidence %v, want %v", out[0].Confidence, want)
	}
}

func TestValidatorTimesOutSlowProbes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	v := NewValidator(newTestSession(t), endpoint.DefaultScoring(), nil)
	v.timeout = 50 * time.Millisecond

	start := time.Now()
	out := v.Validate(context.Background(), []endpoint.Endpoint{
		{URL: srv.URL + "/api/slow", Method: "GET", Confidence: 0.8},
		{URL: srv.URL + "/api/slower", Method: "GET", Confidence: 0.8},
	})
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Fatalf("probes waited out the full handler delay: %v", elapsed)
	}
	if len(out) != 2 {
		t.Fatalf("timed-out endpoints dropped: got %d", len(out))
	}
	for _, ep := range out {
		want := 0.8 - 0.3
		if ep.Confidence < want-1e-9 || ep.Confidence > want+1e-9 {
			t.Errorf("%s: confidence %v, want %v", ep.URL, ep.Confidence, want)
		}
	}
}

func TestScanCommonPathsTimesOutSlowPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	p := NewProber(newTestSession(t), endpoint.DefaultScoring(), state.NewProbeSet(100), nil)
	p.pathTimeout = 50 * time.Millisecond

	start := time.Now()
	eps := p.ScanCommonPaths(context.Background(), srv.URL)
	elapsed := time.Since(start)

	if elapsed > 1500*time.Millisecond {
		t.Fatalf("path scan waited out the full handler delay: %v", elapsed)
	}
	if len(eps) != 0 {
		t.Errorf("timed-out paths reported as endpoints: %v", eps)
	}
}

func TestScanCommonPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api":
			w.Header().Set("Content-Type", "application/json")
		case "/graphql":
			w.Header().Set("Content-Type", "text/html")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewProber(newTestSession(t), endpoint.DefaultScoring(), state.NewProbeSet(100), nil)
	eps := p.ScanCommonPaths(context.Background(), srv.URL+"/app/home")

	if len(eps) != 2 {
		t.Fatalf("expected 2 endpoints, got %d: %v", len(eps), eps)
	}

	api := findEndpoint(eps, srv.URL+"/api", "GET")
	if api == nil || api.Confidence != 0.8 {
		t.Errorf("JSON path: %+v", api)
	}
	gql := findEndpoint(eps, srv.URL+"/graphql", "GET")
	if gql == nil || gql.Confidence != 0.5 {
		t.Errorf("HTML path: %+v", gql)
	}
	for _, ep := range eps {
		if ep.Source != endpoint.SourcePathScan {
			t.Errorf("wrong source %s", ep.Source)
		}
	}
}

func TestScanCommonPathsSkipsProbedURLs(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	probed := state.NewProbeSet(100)
	p := NewProber(newTestSession(t), endpoint.DefaultScoring(), probed, nil)

	p.ScanCommonPaths(context.Background(), srv.URL)
	firstPass := hits.Load()
	p.ScanCommonPaths(context.Background(), srv.URL)

	if got := hits.Load(); got != firstPass {
		t.Errorf("second pass re-probed URLs: %d then %d", firstPass, got)
	}
}

func TestScanRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("User-agent: *\nDisallow: /api/internal/\nDisallow: /images/\nAllow: /api/public\nDisallow: /\n"))
	}))
	defer srv.Close()

	p := NewProber(newTestSession(t), endpoint.DefaultScoring(), nil, nil)
	eps := p.ScanRobots(context.Background(), srv.URL)

	if len(eps) != 2 {
		t.Fatalf("expected 2 endpoints, got %d: %v", len(eps), eps)
	}

	internal := findEndpoint(eps, srv.URL+"/api/internal/", "GET")
	if internal == nil || internal.Confidence != 0.6 || internal.Source != endpoint.SourceRobots {
		t.Errorf("disallowed API path: %+v", internal)
	}
	if findEndpoint(eps, srv.URL+"/api/public", "GET") == nil {
		t.Error("allowed API path missing")
	}
}

func TestScanSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/api/catalog</loc></url>
  <url><loc>https://example.com/about</loc></url>
</urlset>`))
	}))
	defer srv.Close()

	p := NewProber(newTestSession(t), endpoint.DefaultScoring(), nil, nil)
	eps := p.ScanSitemap(context.Background(), srv.URL)

	if len(eps) != 1 {
		t.Fatalf("expected 1 endpoint, got %d: %v", len(eps), eps)
	}
	if eps[0].URL != "https://example.com/api/catalog" {
		t.Errorf("unexpected URL %q", eps[0].URL)
	}
	if eps[0].Confidence != 0.7 || eps[0].Source != endpoint.SourceSitemap {
		t.Errorf("sitemap endpoint scored %v/%s", eps[0].Confidence, eps[0].Source)
	}
}

func TestDiscoverSwaggerDocs(t *testing.T) {
	spec := `{
		"basePath": "/api/v1",
		"paths": {
			"/users": {"get": {}, "post": {}},
			"/users/{id}": {"delete": {}}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/swagger.json" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(spec))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProber(newTestSession(t), endpoint.DefaultScoring(), nil, nil)
	eps := p.DiscoverSwaggerDocs(context.Background(), srv.URL)

	doc := findEndpoint(eps, srv.URL+"/swagger.json", "GET")
	if doc == nil || doc.Confidence != 0.9 || doc.Source != endpoint.SourceSwaggerDocs {
		t.Fatalf("doc endpoint: %+v", doc)
	}

	wantOps := []struct {
		url    string
		method string
	}{
		{srv.URL + "/api/v1/users", "GET"},
		{srv.URL + "/api/v1/users", "POST"},
		{srv.URL + "/api/v1/users/{id}", "DELETE"},
	}
	for _, op := range wantOps {
		ep := findEndpoint(eps, op.url, op.method)
		if ep == nil {
			t.Errorf("missing spec operation %s %s", op.method, op.url)
			continue
		}
		if ep.Confidence != 1.0 || ep.Source != endpoint.SourceSwaggerSpec {
			t.Errorf("%s %s scored %v/%s", op.method, op.url, ep.Confidence, ep.Source)
		}
	}

	del := findEndpoint(eps, srv.URL+"/api/v1/users/{id}", "DELETE")
	if del != nil && (len(del.Parameters) != 1 || del.Parameters[0] != "id") {
		t.Errorf("path parameter not extracted: %v", del.Parameters)
	}
}

func TestProbeAuthenticatedPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/me" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"refresh": "ok"} fetch('/api/internal/feed')`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := newTestSession(t)
	scoring := endpoint.DefaultScoring()
	p := NewProber(sess, scoring, nil, nil)
	ajax := extract.NewAjaxStrategy(scoring)

	// Anonymous sessions must not probe at all.
	if eps := p.ProbeAuthenticatedPaths(context.Background(), srv.URL, ajax); len(eps) != 0 {
		t.Fatalf("anonymous session produced endpoints: %v", eps)
	}

	sess.LoginWithHeaders(map[string]string{"Authorization": "Bearer x"})
	eps := p.ProbeAuthenticatedPaths(context.Background(), srv.URL, ajax)

	me := findEndpoint(eps, srv.URL+"/api/me", "GET")
	if me == nil || me.Confidence != 0.95 || me.Source != endpoint.SourceAuthProbe {
		t.Fatalf("authenticated hit: %+v", me)
	}

	feed := findEndpoint(eps, srv.URL+"/api/internal/feed", "GET")
	if feed == nil {
		t.Fatalf("ajax re-extraction missed endpoint, got %v", eps)
	}
	if feed.Confidence != 0.9 || feed.Source != endpoint.SourceAjax {
		t.Errorf("re-extracted endpoint scored %v/%s", feed.Confidence, feed.Source)
	}
}
