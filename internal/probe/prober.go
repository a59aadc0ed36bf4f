package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"encoding/xml"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
	"github.com/PentesterFlow/apihunter/internal/extract"
	"github.com/PentesterFlow/apihunter/internal/logger"
	"github.com/PentesterFlow/apihunter/internal/session"
	"github.com/PentesterFlow/apihunter/internal/state"
)

const (
	// pathScanWorkers bounds the concurrent common-path probes.
	// Everything else in a scan runs sequentially.
	pathScanWorkers = 5

	// pathProbeTimeout bounds each common-path HEAD. These probes are
	// speculative, so a slow path is abandoned quickly.
	pathProbeTimeout = 3 * time.Second

	// docProbeTimeout bounds the robots/sitemap/documentation fetches
	// and the authenticated path tests.
	docProbeTimeout = 5 * time.Second
)

// commonAPIPaths are the fixed paths tried by the common-path scan.
var commonAPIPaths = []string{
	"/api",
	"/api/v1",
	"/api/v2",
	"/api/v3",
	"/rest",
	"/rest/v1",
	"/graphql",
	"/api/users",
	"/api/user",
	"/api/auth",
	"/api/login",
	"/api/token",
	"/api/search",
	"/api/data",
	"/api/config",
	"/api/status",
	"/api/health",
	"/api/version",
	"/api/docs",
	"/services",
	"/ajax",
	"/json",
	"/ws",
	"/v1",
	"/v2",
}

// swaggerPaths are the well-known API documentation locations.
var swaggerPaths = []string{
	"/swagger.json",
	"/swagger/v1/swagger.json",
	"/api/swagger.json",
	"/openapi.json",
	"/api-docs",
	"/v2/api-docs",
	"/api/docs",
	"/docs/api",
	"/swagger-ui.html",
	"/redoc",
}

// authProbePaths are user-scoped API paths tested with the authenticated
// session.
var authProbePaths = []string{
	"/api/user",
	"/api/users/me",
	"/api/me",
	"/api/profile",
	"/api/account",
	"/api/settings",
	"/api/dashboard",
	"/api/notifications",
}

// Prober performs the active discovery passes: common paths, robots.txt,
// sitemap.xml, API documentation, and authenticated endpoint testing.
type Prober struct {
	session     *session.Session
	scoring     endpoint.Scoring
	probed      *state.ProbeSet
	pathTimeout time.Duration
	docTimeout  time.Duration
	log         *logger.Logger
}

// NewProber creates a prober sharing the scan's probe set so no URL is
// probed twice across passes.
func NewProber(sess *session.Session, scoring endpoint.Scoring, probed *state.ProbeSet, log *logger.Logger) *Prober {
	if probed == nil {
		probed = state.NewProbeSet(1024)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Prober{
		session:     sess,
		scoring:     scoring,
		probed:      probed,
		pathTimeout: pathProbeTimeout,
		docTimeout:  docProbeTimeout,
		log:         log.WithComponent("prober"),
	}
}

// origin reduces a target URL to scheme://host.
func origin(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

// ScanCommonPaths probes the fixed path list with a bounded worker pool.
// A path that answers below 400 becomes an endpoint; an API content type
// raises its confidence.
func (p *Prober) ScanCommonPaths(ctx context.Context, target string) []endpoint.Endpoint {
	base, err := origin(target)
	if err != nil {
		return nil
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		endpoints = make([]endpoint.Endpoint, 0)
		sem       = make(chan struct{}, pathScanWorkers)
	)

	for _, path := range commonAPIPaths {
		probeURL := base + path
		if !p.probed.Mark(probeURL) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(probeURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			probeCtx, cancel := context.WithTimeout(ctx, p.pathTimeout)
			resp, err := p.session.Head(probeCtx, probeURL)
			cancel()
			if err != nil || resp.StatusCode >= 400 {
				return
			}

			confidence := p.scoring.PathScan
			if IsAPIContentType(resp.ContentType) {
				confidence = p.scoring.PathScanAPI
			}

			ep := endpoint.Endpoint{
				URL:        probeURL,
				Method:     "GET",
				Source:     endpoint.SourcePathScan,
				Confidence: confidence,
			}

			mu.Lock()
			endpoints = append(endpoints, ep)
			mu.Unlock()

			p.log.DiscoveryEvent(probeURL, "GET", string(endpoint.SourcePathScan), confidence)
		}(probeURL)
	}

	wg.Wait()
	return endpoints
}

// ScanRobots reads robots.txt and keeps Allow/Disallow paths that carry an
// API keyword. Operators routinely disallow exactly the paths worth
// knowing about.
func (p *Prober) ScanRobots(ctx context.Context, target string) []endpoint.Endpoint {
	base, err := origin(target)
	if err != nil {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.docTimeout)
	resp, err := p.session.Get(probeCtx, base+"/robots.txt")
	cancel()
	if err != nil || resp.StatusCode >= 400 {
		return nil
	}

	endpoints := make([]endpoint.Endpoint, 0)
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(resp.Body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(line)

		var path string
		switch {
		case strings.HasPrefix(lower, "disallow:"):
			path = strings.TrimSpace(line[len("disallow:"):])
		case strings.HasPrefix(lower, "allow:"):
			path = strings.TrimSpace(line[len("allow:"):])
		default:
			continue
		}

		path = strings.TrimSuffix(path, "*")
		if path == "" || path == "/" || !strings.HasPrefix(path, "/") {
			continue
		}
		if !extract.LooksAPILike(path) {
			continue
		}

		epURL := base + path
		if seen[epURL] {
			continue
		}
		seen[epURL] = true

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        epURL,
			Method:     "GET",
			Source:     endpoint.SourceRobots,
			Confidence: p.scoring.Robots,
		})
	}

	return endpoints
}

// sitemapURLSet is the subset of the sitemap schema the scan cares about.
type sitemapURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// ScanSitemap reads sitemap.xml and keeps locations with an API keyword.
func (p *Prober) ScanSitemap(ctx context.Context, target string) []endpoint.Endpoint {
	base, err := origin(target)
	if err != nil {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.docTimeout)
	resp, err := p.session.Get(probeCtx, base+"/sitemap.xml")
	cancel()
	if err != nil || resp.StatusCode >= 400 {
		return nil
	}

	var urlset sitemapURLSet
	if err := xml.Unmarshal([]byte(resp.Body), &urlset); err != nil {
		p.log.Debugf("sitemap parse failed: %v", err)
		return nil
	}

	endpoints := make([]endpoint.Endpoint, 0)
	seen := make(map[string]bool)

	for _, entry := range urlset.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" || seen[loc] || !extract.LooksAPILike(loc) {
			continue
		}
		seen[loc] = true

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        loc,
			Method:     "GET",
			Source:     endpoint.SourceSitemap,
			Confidence: p.scoring.Sitemap,
		})
	}

	return endpoints
}

// swaggerDoc is the subset of an OpenAPI/Swagger document needed to
// enumerate operations.
type swaggerDoc struct {
	BasePath string                            `json:"basePath"`
	Paths    map[string]map[string]interface{} `json:"paths"`
}

var httpMethods = map[string]string{
	"get":     "GET",
	"post":    "POST",
	"put":     "PUT",
	"delete":  "DELETE",
	"patch":   "PATCH",
	"head":    "HEAD",
	"options": "OPTIONS",
}

// DiscoverSwaggerDocs probes the well-known documentation locations. A
// live location is itself an endpoint; if it serves a parseable spec,
// every documented operation is emitted at full confidence.
func (p *Prober) DiscoverSwaggerDocs(ctx context.Context, target string) []endpoint.Endpoint {
	base, err := origin(target)
	if err != nil {
		return nil
	}

	endpoints := make([]endpoint.Endpoint, 0)

	for _, path := range swaggerPaths {
		if ctx.Err() != nil {
			break
		}

		docURL := base + path
		if !p.probed.Mark(docURL) {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, p.docTimeout)
		resp, err := p.session.Get(probeCtx, docURL)
		cancel()
		if err != nil || resp.StatusCode >= 400 {
			continue
		}

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        docURL,
			Method:     "GET",
			Source:     endpoint.SourceSwaggerDocs,
			Confidence: p.scoring.SwaggerDocs,
		})
		p.log.DiscoveryEvent(docURL, "GET", string(endpoint.SourceSwaggerDocs), p.scoring.SwaggerDocs)

		endpoints = append(endpoints, p.parseSwaggerSpec(base, resp.Body)...)
	}

	return endpoints
}

// parseSwaggerSpec enumerates the operations of a JSON spec body. Non-JSON
// documentation pages simply yield nothing extra.
func (p *Prober) parseSwaggerSpec(base, body string) []endpoint.Endpoint {
	var doc swaggerDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil || len(doc.Paths) == 0 {
		return nil
	}

	endpoints := make([]endpoint.Endpoint, 0, len(doc.Paths))
	for specPath, operations := range doc.Paths {
		for verb := range operations {
			method, ok := httpMethods[strings.ToLower(verb)]
			if !ok {
				continue
			}

			endpoints = append(endpoints, endpoint.Endpoint{
				URL:        base + doc.BasePath + specPath,
				Method:     method,
				Parameters: extract.ExtractParams(specPath),
				Source:     endpoint.SourceSwaggerSpec,
				Confidence: p.scoring.SwaggerSpec,
			})
		}
	}

	return endpoints
}

// ProbeAuthenticatedPaths tests user-scoped API paths with the
// authenticated session. A 200 is near-certain evidence, and the response
// body goes back through the ajax patterns to catch endpoints referenced
// only in authenticated responses.
func (p *Prober) ProbeAuthenticatedPaths(ctx context.Context, target string, ajax *extract.AjaxStrategy) []endpoint.Endpoint {
	if !p.session.Authenticated() {
		return nil
	}

	base, err := origin(target)
	if err != nil {
		return nil
	}

	page, err := extract.NewPage(target, "")
	if err != nil {
		return nil
	}

	endpoints := make([]endpoint.Endpoint, 0)

	for _, path := range authProbePaths {
		if ctx.Err() != nil {
			break
		}

		probeURL := base + path
		if !p.probed.Mark(probeURL) {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, p.docTimeout)
		resp, err := p.session.Get(probeCtx, probeURL)
		cancel()
		if err != nil || resp.StatusCode != 200 {
			continue
		}

		endpoints = append(endpoints, endpoint.Endpoint{
			URL:        probeURL,
			Method:     "GET",
			Source:     endpoint.SourceAuthProbe,
			Confidence: p.scoring.AuthProbeHit,
		})
		p.log.DiscoveryEvent(probeURL, "GET", string(endpoint.SourceAuthProbe), p.scoring.AuthProbeHit)

		if ajax != nil {
			endpoints = append(endpoints, ajax.Scan(page, resp.Body)...)
		}
	}

	return endpoints
}
