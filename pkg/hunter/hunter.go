package hunter

import (
	"context"
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
	"github.com/PentesterFlow/apihunter/internal/errors"
	"github.com/PentesterFlow/apihunter/internal/extract"
	"github.com/PentesterFlow/apihunter/internal/logger"
	"github.com/PentesterFlow/apihunter/internal/probe"
	"github.com/PentesterFlow/apihunter/internal/report"
	"github.com/PentesterFlow/apihunter/internal/session"
	"github.com/PentesterFlow/apihunter/internal/state"
)

// Hunter discovers API endpoints on a single target page.
type Hunter struct {
	config      *Config
	logger      *logger.Logger
	logLevel    logger.Level
	logLevelSet bool
	session     *session.Session
	probed      *state.ProbeSet
	prober      *probe.Prober
	validator   *probe.Validator
	strategies  []extract.Strategy
	ajax        *extract.AjaxStrategy
}

// New creates a Hunter for the given target.
func New(target string, opts ...Option) (*Hunter, error) {
	h := &Hunter{
		config: DefaultConfig(),
	}
	h.config.Target = target

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}

	if err := h.config.Validate(); err != nil {
		return nil, err
	}

	if h.logger == nil {
		cfg := logger.DefaultConfig()
		if h.config.Verbose {
			cfg.Level = logger.DebugLevel
		}
		h.logger = logger.New(cfg)
	}
	if h.logLevelSet {
		h.logger.SetLevel(h.logLevel)
	}

	sess, err := session.New(session.Config{
		Timeout:   h.config.Timeout,
		UserAgent: h.config.UserAgent,
		Headers:   h.config.CustomHeaders,
		Logger:    h.logger,
	})
	if err != nil {
		return nil, err
	}
	h.session = sess

	h.probed = state.NewProbeSet(4096)
	h.prober = probe.NewProber(sess, h.config.Scoring, h.probed, h.logger)
	h.validator = probe.NewValidator(sess, h.config.Scoring, h.logger)
	h.strategies = extract.Strategies(h.config.Scoring)
	h.ajax = extract.NewAjaxStrategy(h.config.Scoring)

	return h, nil
}

// Authenticate runs the configured login before any discovery. A failed
// token or credential login degrades the scan to anonymous rather than
// aborting it.
func (h *Hunter) Authenticate(ctx context.Context) error {
	switch h.config.Auth.Type {
	case AuthTypeCookies:
		return h.session.LoginWithCookies(h.config.Target, h.config.Auth.Cookies)
	case AuthTypeHeaders:
		h.session.LoginWithHeaders(h.config.Auth.Headers)
		return nil
	case AuthTypeToken:
		return h.session.LoginWithToken(ctx, h.config.Target, h.config.Auth.Token)
	case AuthTypeCredentials:
		return h.session.LoginWithCredentials(ctx, h.config.Target,
			h.config.Auth.Username, h.config.Auth.Password)
	default:
		return nil
	}
}

// Discover runs the full scan: authentication, target fetch, passive
// extraction, the enabled active passes, merge, and validation. Only a
// failure to fetch the target page is fatal.
func (h *Hunter) Discover(ctx context.Context) ([]endpoint.Endpoint, error) {
	if err := h.Authenticate(ctx); err != nil {
		if errors.GetErrorType(err) == errors.Cancelled {
			return nil, err
		}
		h.logger.WithError(err).Warn("Authentication failed, continuing anonymously")
	}

	resp, err := h.session.FetchPage(ctx, h.config.Target)
	if err != nil {
		return nil, err
	}

	page, err := extract.NewPage(resp.FinalURL, resp.Body)
	if err != nil {
		return nil, err
	}
	page.Authenticated = h.session.Authenticated()
	page.ResourceKeywords = h.config.ResourceKeywords

	endpoints := make([]endpoint.Endpoint, 0)
	for _, strategy := range h.strategies {
		found := strategy.Extract(page)
		h.logger.Debugf("Strategy %s found %d candidates", strategy.Name(), len(found))
		endpoints = append(endpoints, found...)
	}

	if page.Authenticated {
		endpoints = append(endpoints, h.prober.ProbeAuthenticatedPaths(ctx, h.config.Target, h.ajax)...)
	}

	if h.config.ScanRobots {
		endpoints = append(endpoints, h.prober.ScanRobots(ctx, h.config.Target)...)
	}
	if h.config.ScanSitemap {
		endpoints = append(endpoints, h.prober.ScanSitemap(ctx, h.config.Target)...)
	}
	if h.config.IncludeSwagger {
		endpoints = append(endpoints, h.prober.DiscoverSwaggerDocs(ctx, h.config.Target)...)
	}
	if h.config.ScanCommonPaths {
		endpoints = append(endpoints, h.prober.ScanCommonPaths(ctx, h.config.Target)...)
	}

	endpoints = endpoint.Deduplicate(endpoints)
	h.logger.Infof("Discovered %d unique endpoints", len(endpoints))
	h.logger.Debugf("Probed %d URLs across active passes", h.probed.Count())

	if h.config.ValidateEndpoints {
		endpoints = h.validator.Validate(ctx, endpoints)
	}

	return endpoints, nil
}

// Scan runs Discover and wraps the result in a report.
func (h *Hunter) Scan(ctx context.Context) (*report.Report, error) {
	start := time.Now()
	endpoints, err := h.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return report.New(h.config.Target, time.Since(start), endpoints), nil
}

// Config returns the effective configuration.
func (h *Hunter) Config() *Config {
	return h.config
}

// Session exposes the underlying session, mainly for tests and embedding.
func (h *Hunter) Session() *session.Session {
	return h.session
}
