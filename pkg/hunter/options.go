package hunter

import (
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
	"github.com/PentesterFlow/apihunter/internal/logger"
)

// Option is a functional option for configuring the Hunter.
type Option func(*Hunter) error

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(h *Hunter) error {
		h.config.Timeout = timeout
		return nil
	}
}

// WithUserAgent sets the user agent string.
func WithUserAgent(ua string) Option {
	return func(h *Hunter) error {
		h.config.UserAgent = ua
		return nil
	}
}

// WithCustomHeaders sets headers for all requests.
func WithCustomHeaders(headers map[string]string) Option {
	return func(h *Hunter) error {
		if h.config.CustomHeaders == nil {
			h.config.CustomHeaders = make(map[string]string)
		}
		for k, v := range headers {
			h.config.CustomHeaders[k] = v
		}
		return nil
	}
}

// WithCookieAuth configures session cookie authentication.
func WithCookieAuth(cookies map[string]string) Option {
	return func(h *Hunter) error {
		h.config.Auth = AuthConfig{Type: AuthTypeCookies, Cookies: cookies}
		return nil
	}
}

// WithHeaderAuth configures pre-built authentication headers.
func WithHeaderAuth(headers map[string]string) Option {
	return func(h *Hunter) error {
		h.config.Auth = AuthConfig{Type: AuthTypeHeaders, Headers: headers}
		return nil
	}
}

// WithTokenAuth configures bearer token authentication.
func WithTokenAuth(token string) Option {
	return func(h *Hunter) error {
		h.config.Auth = AuthConfig{Type: AuthTypeToken, Token: token}
		return nil
	}
}

// WithCredentialsAuth configures username/password login.
func WithCredentialsAuth(username, password string) Option {
	return func(h *Hunter) error {
		h.config.Auth = AuthConfig{
			Type:     AuthTypeCredentials,
			Username: username,
			Password: password,
		}
		return nil
	}
}

// WithResourceKeywords widens the authenticated-content patterns with
// domain resource names.
func WithResourceKeywords(keywords ...string) Option {
	return func(h *Hunter) error {
		h.config.ResourceKeywords = append(h.config.ResourceKeywords, keywords...)
		return nil
	}
}

// WithValidation enables/disables the live validation pass.
func WithValidation(enabled bool) Option {
	return func(h *Hunter) error {
		h.config.ValidateEndpoints = enabled
		return nil
	}
}

// WithCommonPathScan enables/disables the common-path scan.
func WithCommonPathScan(enabled bool) Option {
	return func(h *Hunter) error {
		h.config.ScanCommonPaths = enabled
		return nil
	}
}

// WithRobotsScan enables/disables robots.txt discovery.
func WithRobotsScan(enabled bool) Option {
	return func(h *Hunter) error {
		h.config.ScanRobots = enabled
		return nil
	}
}

// WithSitemapScan enables/disables sitemap.xml discovery.
func WithSitemapScan(enabled bool) Option {
	return func(h *Hunter) error {
		h.config.ScanSitemap = enabled
		return nil
	}
}

// WithSwaggerDiscovery enables/disables API documentation discovery.
func WithSwaggerDiscovery(enabled bool) Option {
	return func(h *Hunter) error {
		h.config.IncludeSwagger = enabled
		return nil
	}
}

// WithScoring replaces the confidence table.
func WithScoring(scoring endpoint.Scoring) Option {
	return func(h *Hunter) error {
		h.config.Scoring = scoring
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Hunter) error {
		h.logger = l
		return nil
	}
}

// WithLogLevel sets the log level explicitly. It applies on top of the
// default logger or one supplied with WithLogger, and overrides the
// verbose flag.
func WithLogLevel(level logger.Level) Option {
	return func(h *Hunter) error {
		h.logLevel = level
		h.logLevelSet = true
		return nil
	}
}

// WithVerbose enables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(h *Hunter) error {
		h.config.Verbose = verbose
		return nil
	}
}

// WithConfig replaces the entire configuration. The target argument given
// to New still wins.
func WithConfig(config *Config) Option {
	return func(h *Hunter) error {
		target := h.config.Target
		h.config = config
		if target != "" {
			h.config.Target = target
		}
		return nil
	}
}
