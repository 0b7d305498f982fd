package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, X-CSRF-Token"
	corsMaxAge       = 86400
)

// OriginChecker is the origin policy the gate consults.
// *origin.Guard satisfies it.
type OriginChecker interface {
	IsAllowed(origin string) bool
	IsValid(origin, referer string) bool
}

// GateOptions wires EdgeGate.
type GateOptions struct {
	Limiter Limiter
	Origins OriginChecker
	// FormPath is the submission endpoint. Requests to it count against the
	// form ceiling, and POSTs to it must pass origin validation.
	FormPath string
	// PathPrefix limits the gate to paths under it when the gate is
	// installed engine-wide, so unmatched routes and wrong methods under the
	// prefix are still limited and hardened. Empty gates every request.
	PathPrefix string
}

// EdgeGate guards API traffic. Requests outside PathPrefix pass through
// untouched. Checks run in order and stop at the first failure:
//
//  1. resolve the client IP (see ClientIP) and store it on the context
//  2. rate limit, keyed by IP and by form vs. other API traffic → 429
//  3. POST to FormPath must carry an allowed Origin (or Referer) → 403
//  4. hardening headers, and CORS headers echoing the request Origin when
//     it is allowed (never "*")
func EdgeGate(opt GateOptions) gin.HandlerFunc {
	maxAge := strconv.Itoa(corsMaxAge)

	return func(c *gin.Context) {
		if opt.PathPrefix != "" && !strings.HasPrefix(c.Request.URL.Path, opt.PathPrefix) {
			c.Next()
			return
		}

		ip := ClientIP(c.Request)
		c.Set(clientIPKey, ip)

		isForm := c.Request.URL.Path == opt.FormPath

		if opt.Limiter != nil && !checkRateLimit(c, opt.Limiter, ip, isForm) {
			return
		}

		origin := c.GetHeader("Origin")
		if isForm && c.Request.Method == http.MethodPost && opt.Origins != nil {
			if !opt.Origins.IsValid(origin, c.GetHeader("Referer")) {
				gateRejections.WithLabelValues("invalid_origin").Inc()
				LoggerFrom(c).Warn().Str("client_ip", ip).Msg("form submission from disallowed origin")
				abortJSON(c, http.StatusForbidden, "invalid_origin", "Invalid origin")
				return
			}
		}

		h := c.Writer.Header()
		hardenHeaders(h, true)
		if origin != "" && opt.Origins != nil && opt.Origins.IsAllowed(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", maxAge)
		}

		c.Next()
	}
}
