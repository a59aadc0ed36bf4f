// Package session provides the HTTP session shared by extraction and
// probing, including the authentication helpers.
package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PentesterFlow/apihunter/internal/errors"
	"github.com/PentesterFlow/apihunter/internal/logger"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; apihunter/1.0)"

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 10 * 1024 * 1024

// Session is a cookie-carrying HTTP client with optional authentication
// state. Safe for concurrent use.
type Session struct {
	mu            sync.RWMutex
	client        *http.Client
	userAgent     string
	headers       map[string]string
	authenticated bool
	log           *logger.Logger
}

// Config holds session configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Logger    *logger.Logger
}

// New creates a session with a fresh cookie jar.
func New(cfg Config) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		headers:   headers,
		log:       cfg.Logger.WithComponent("session"),
	}, nil
}

// Authenticated reports whether a login helper succeeded on this session.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// SetHeader sets a header sent on every request.
func (s *Session) SetHeader(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[key] = value
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
	FinalURL    string
}

// Get performs a GET request and reads the body.
func (s *Session) Get(ctx context.Context, rawURL string) (*Response, error) {
	return s.do(ctx, http.MethodGet, rawURL, "", nil)
}

// Head performs a HEAD request. The body is always empty.
func (s *Session) Head(ctx context.Context, rawURL string) (*Response, error) {
	return s.do(ctx, http.MethodHead, rawURL, "", nil)
}

// PostForm performs a form-encoded POST request.
func (s *Session) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	return s.do(ctx, http.MethodPost, rawURL,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// PostJSON performs a JSON POST request.
func (s *Session) PostJSON(ctx context.Context, rawURL string, body string) (*Response, error) {
	return s.do(ctx, http.MethodPost, rawURL, "application/json", strings.NewReader(body))
}

func (s *Session) do(ctx context.Context, method, rawURL, contentType string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.NewScanError(errors.Unknown, rawURL, "build_request", err.Error(), err)
	}

	s.mu.RLock()
	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	s.mu.RUnlock()

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Categorize(err, rawURL)
	}
	defer resp.Body.Close()

	var bodyStr string
	if method != http.MethodHead {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, errors.NewTransportError(rawURL, "read_body", err)
		}
		bodyStr = string(data)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        bodyStr,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchPage retrieves the scan target. Unlike probe requests, a failure
// here is fatal for the whole scan.
func (s *Session) FetchPage(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := s.Get(ctx, rawURL)
	if err != nil {
		return nil, errors.NewFetchError(rawURL, err)
	}
	if resp.StatusCode >= 400 {
		e := errors.NewFetchError(rawURL, nil)
		e.StatusCode = resp.StatusCode
		e.Message = fmt.Sprintf("target page returned %d", resp.StatusCode)
		return nil, e
	}
	return resp, nil
}
