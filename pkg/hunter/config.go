// Package hunter is the public API: construct a Hunter with a target and
// options, then run Discover and optionally the active scan passes.
package hunter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

// AuthType selects the authentication mechanism.
type AuthType string

const (
	AuthTypeNone        AuthType = "none"
	AuthTypeCookies     AuthType = "cookies"
	AuthTypeHeaders     AuthType = "headers"
	AuthTypeToken       AuthType = "token"
	AuthTypeCredentials AuthType = "credentials"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Type     AuthType          `json:"type" yaml:"type"`
	Cookies  map[string]string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Token    string            `json:"token,omitempty" yaml:"token,omitempty"`
	Username string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password string            `json:"password,omitempty" yaml:"password,omitempty"`
}

// Config holds all scanner configuration.
type Config struct {
	// Target page URL
	Target string `json:"target" yaml:"target"`

	// Request timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Custom headers to include in all requests
	CustomHeaders map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`

	// User agent override
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`

	// Authentication
	Auth AuthConfig `json:"auth" yaml:"auth"`

	// Domain resource keywords widening the authenticated-content patterns
	ResourceKeywords []string `json:"resource_keywords,omitempty" yaml:"resource_keywords,omitempty"`

	// Probe discovered endpoints and rescore them
	ValidateEndpoints bool `json:"validate_endpoints" yaml:"validate_endpoints"`

	// Active passes
	ScanCommonPaths bool `json:"scan_common_paths" yaml:"scan_common_paths"`
	ScanRobots      bool `json:"scan_robots" yaml:"scan_robots"`
	ScanSitemap     bool `json:"scan_sitemap" yaml:"scan_sitemap"`
	IncludeSwagger  bool `json:"include_swagger" yaml:"include_swagger"`

	// Confidence table
	Scoring endpoint.Scoring `json:"scoring" yaml:"scoring"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults: passive
// extraction plus validation, active passes off.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           30 * time.Second,
		Auth:              AuthConfig{Type: AuthTypeNone},
		ValidateEndpoints: true,
		ScanCommonPaths:   false,
		ScanRobots:        true,
		ScanSitemap:       true,
		IncludeSwagger:    false,
		Scoring:           endpoint.DefaultScoring(),
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target URL is required")
	}

	u, err := url.Parse(c.Target)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target URL must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("target URL has no host")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	switch c.Auth.Type {
	case AuthTypeNone, AuthTypeCookies, AuthTypeHeaders, AuthTypeToken, AuthTypeCredentials:
	default:
		return fmt.Errorf("unknown auth type %q", c.Auth.Type)
	}

	if c.Auth.Type == AuthTypeCredentials && (c.Auth.Username == "" || c.Auth.Password == "") {
		return fmt.Errorf("credentials auth requires username and password")
	}

	return nil
}
