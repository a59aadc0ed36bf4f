// Package probe provides active verification: the live validator that
// rescores discovered endpoints and the prober for well-known documents
// and common API paths.
package probe

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
	"github.com/PentesterFlow/apihunter/internal/logger"
	"github.com/PentesterFlow/apihunter/internal/session"
)

const (
	// probeInterval spaces validation probes so a scan does not hammer
	// the target.
	probeInterval = 100 * time.Millisecond

	// probeTimeout bounds each validation probe independently of the
	// session's page-fetch timeout. A candidate that cannot answer a
	// HEAD in a few seconds is treated as a failed probe.
	probeTimeout = 5 * time.Second
)

// Validator rescores endpoints by probing them with HEAD requests.
// Endpoints are never dropped; unreachable ones just lose confidence.
type Validator struct {
	session *session.Session
	scoring endpoint.Scoring
	limiter *rate.Limiter
	timeout time.Duration
	log     *logger.Logger
}

// NewValidator creates a validator paced at one probe per interval.
func NewValidator(sess *session.Session, scoring endpoint.Scoring, log *logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{
		session: sess,
		scoring: scoring,
		limiter: rate.NewLimiter(rate.Every(probeInterval), 1),
		timeout: probeTimeout,
		log:     log.WithComponent("validator"),
	}
}

// Validate probes each endpoint sequentially and adjusts its confidence.
// A response below 400 earns the probe reward, an API-ish content type a
// further bonus; failures and error statuses cost the penalty down to the
// floor. On context cancellation the remaining endpoints pass through
// unchanged.
func (v *Validator) Validate(ctx context.Context, endpoints []endpoint.Endpoint) []endpoint.Endpoint {
	out := make([]endpoint.Endpoint, 0, len(endpoints))

	for i, ep := range endpoints {
		if ctx.Err() != nil {
			out = append(out, endpoints[i:]...)
			break
		}
		if err := v.limiter.Wait(ctx); err != nil {
			out = append(out, endpoints[i:]...)
			break
		}

		start := time.Now()
		probeCtx, cancel := context.WithTimeout(ctx, v.timeout)
		resp, err := v.session.Head(probeCtx, ep.URL)
		cancel()
		if err != nil || resp.StatusCode >= 400 {
			ep.Confidence = v.scoring.Clamp(ep.Confidence - v.scoring.ProbePenalty)
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			v.log.ProbeEvent(ep.URL, status, ep.Confidence, time.Since(start))
			out = append(out, ep)
			continue
		}

		ep.Confidence = v.scoring.Clamp(ep.Confidence + v.scoring.ProbeReward)
		if IsAPIContentType(resp.ContentType) {
			ep.Confidence = v.scoring.Clamp(ep.Confidence + v.scoring.ContentTypeBonus)
		}
		v.log.ProbeEvent(ep.URL, resp.StatusCode, ep.Confidence, time.Since(start))
		out = append(out, ep)
	}

	return out
}

// IsAPIContentType reports whether a Content-Type header looks like an API
// response rather than a rendered page.
func IsAPIContentType(contentType string) bool {
	lower := strings.ToLower(contentType)
	return strings.Contains(lower, "json") ||
		strings.Contains(lower, "xml") ||
		strings.Contains(lower, "api")
}
