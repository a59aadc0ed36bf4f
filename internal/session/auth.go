package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PentesterFlow/apihunter/internal/errors"
)

// tokenProbePaths are conventional endpoints used to verify that a bearer
// token is accepted before trusting it for the scan.
var tokenProbePaths = []string{
	"/api/user",
	"/api/me",
	"/api/profile",
	"/api/v1/me",
	"/user",
	"/account",
}

// loginPaths are tried in order by credential login when no explicit login
// URL is given.
var loginPaths = []string{
	"/login",
	"/api/login",
	"/api/auth/login",
	"/signin",
	"/auth/login",
}

// LoginWithCookies installs session cookies for the target host and marks
// the session authenticated. No request is made; the cookies are trusted.
func (s *Session) LoginWithCookies(targetURL string, cookies map[string]string) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return errors.NewScanError(errors.Unknown, targetURL, "login_cookies", "invalid target URL", err)
	}

	jarCookies := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{
			Name:  name,
			Value: value,
			Path:  "/",
		})
	}

	s.mu.Lock()
	s.client.Jar.SetCookies(u, jarCookies)
	s.authenticated = true
	s.mu.Unlock()

	s.log.Infof("Installed %d session cookies for %s", len(cookies), u.Host)
	return nil
}

// LoginWithHeaders installs authentication headers (e.g. a pre-built
// Authorization or X-API-Key header) and marks the session authenticated.
func (s *Session) LoginWithHeaders(headers map[string]string) {
	s.mu.Lock()
	for k, v := range headers {
		s.headers[k] = v
	}
	s.authenticated = true
	s.mu.Unlock()

	s.log.Infof("Installed %d authentication headers", len(headers))
}

// LoginWithToken installs a bearer token and verifies it against the
// conventional account endpoints. The token is kept even when verification
// fails, but the session is only marked authenticated on a confirmed hit.
func (s *Session) LoginWithToken(ctx context.Context, targetURL, token string) error {
	base, err := url.Parse(targetURL)
	if err != nil {
		return errors.NewScanError(errors.Unknown, targetURL, "login_token", "invalid target URL", err)
	}

	s.SetHeader("Authorization", "Bearer "+token)

	for _, path := range tokenProbePaths {
		probeURL := base.Scheme + "://" + base.Host + path
		resp, err := s.Get(ctx, probeURL)
		if err != nil {
			if ctx.Err() != nil {
				return errors.NewCancelledError(probeURL, "login_token")
			}
			continue
		}
		if resp.StatusCode < 400 {
			s.mu.Lock()
			s.authenticated = true
			s.mu.Unlock()
			s.log.Infof("Token accepted by %s", probeURL)
			return nil
		}
	}

	return errors.NewScanError(errors.Unknown, targetURL, "login_token",
		"token rejected by all verification endpoints", nil)
}

// LoginWithCredentials posts username/password against the conventional
// login endpoints, trying form encoding first and JSON second. The first
// response below 400 wins; any cookies it sets stay in the jar.
func (s *Session) LoginWithCredentials(ctx context.Context, targetURL, username, password string) error {
	base, err := url.Parse(targetURL)
	if err != nil {
		return errors.NewScanError(errors.Unknown, targetURL, "login_credentials", "invalid target URL", err)
	}

	form := url.Values{
		"username": {username},
		"password": {password},
	}
	jsonBody, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	for _, path := range loginPaths {
		loginURL := base.Scheme + "://" + base.Host + path

		resp, err := s.PostForm(ctx, loginURL, form)
		if err == nil && resp.StatusCode < 400 && !looksLikeLoginFailure(resp.Body) {
			s.markAuthenticated(loginURL)
			return nil
		}
		if ctx.Err() != nil {
			return errors.NewCancelledError(loginURL, "login_credentials")
		}

		resp, err = s.PostJSON(ctx, loginURL, string(jsonBody))
		if err == nil && resp.StatusCode < 400 && !looksLikeLoginFailure(resp.Body) {
			if token := extractToken(resp.Body); token != "" {
				s.SetHeader("Authorization", "Bearer "+token)
			}
			s.markAuthenticated(loginURL)
			return nil
		}
		if ctx.Err() != nil {
			return errors.NewCancelledError(loginURL, "login_credentials")
		}
	}

	return errors.NewScanError(errors.Unknown, targetURL, "login_credentials",
		fmt.Sprintf("login failed for user %s on all known paths", username), nil)
}

func (s *Session) markAuthenticated(loginURL string) {
	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()
	s.log.Infof("Authenticated via %s", loginURL)
}

// looksLikeLoginFailure catches login endpoints that answer 200 with an
// error page instead of a proper status code.
func looksLikeLoginFailure(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "invalid credentials") ||
		strings.Contains(lower, "login failed") ||
		strings.Contains(lower, "incorrect password")
}

// extractToken pulls an access token out of a JSON login response.
func extractToken(body string) string {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	for _, key := range []string{"token", "access_token", "accessToken", "jwt"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
