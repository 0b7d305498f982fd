package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/CoolAssPuppy/landing-pages/internal/ratelimit"
	"github.com/CoolAssPuppy/landing-pages/internal/sysutil"
	"github.com/gin-gonic/gin"
)

const (
	// clientIPKey holds the resolved client address on the Gin context.
	clientIPKey = "clientIP"
	// unknownClient is the key used when no proxy header names the client.
	unknownClient = "unknown"
	// retryAfterSeconds is advertised on every 429.
	retryAfterSeconds = 60
)

// Limiter is the rate-limit decision the gate consults.
// *ratelimit.Limiter satisfies it.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, clientKey string, isFormSubmission bool) (ratelimit.Decision, error)
	Limit(isFormSubmission bool) int
}

// ClientIP resolves the caller's address from the trusted proxy headers, in
// order: X-Vercel-Forwarded-For (first entry), CF-Connecting-IP,
// X-Forwarded-For (first entry), X-Real-IP. It returns "unknown" when none
// is set. The socket address is never used: behind the edge it is always
// the proxy.
func ClientIP(r *http.Request) string {
	ip := sysutil.FirstNonEmpty(
		firstListEntry(r.Header.Get("X-Vercel-Forwarded-For")),
		r.Header.Get("CF-Connecting-IP"),
		firstListEntry(r.Header.Get("X-Forwarded-For")),
		r.Header.Get("X-Real-IP"),
	)
	if ip = strings.TrimSpace(ip); ip == "" {
		return unknownClient
	}
	return ip
}

// ClientIPFrom returns the address stored by EdgeGate, or resolves it from
// the request headers when the gate did not run.
func ClientIPFrom(c *gin.Context) string {
	if v, ok := c.Get(clientIPKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ClientIP(c.Request)
}

func firstListEntry(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// checkRateLimit runs one rate-limit step for the gate. It returns false
// after writing a 429. Store failures let the request through.
func checkRateLimit(c *gin.Context, lim Limiter, ip string, isForm bool) bool {
	d, err := lim.CheckAndIncrement(c.Request.Context(), ip, isForm)
	if err != nil {
		rateLimitStoreErrors.Inc()
		LoggerFrom(c).Warn().Err(err).Str("client_ip", ip).Msg("rate limit store unavailable; allowing request")
		return true
	}
	if !d.Limited {
		return true
	}

	reason := "rate_limited_api"
	if isForm {
		reason = "rate_limited_form"
	}
	gateRejections.WithLabelValues(reason).Inc()

	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.Header("X-RateLimit-Limit", strconv.Itoa(lim.Limit(isForm)))
	abortJSON(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
	return false
}

// abortJSON writes the error envelope shared with the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       code,
		"error":      msg,
	})
}
