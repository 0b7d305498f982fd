// Package origin decides whether a request's declared Origin or Referer
// belongs to this site.
package origin

import (
	"net/url"
	"strings"
)

// devOrigins are accepted outside production only.
var devOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Options configures a Guard.
type Options struct {
	AllowedOrigins []string // static allow-list, any scheme://host form
	SiteURL        string   // canonical site URL; only its origin is used
	PreviewHost    string   // preview deployment host, allowed as https://<host>
	Production     bool
}

// Guard checks origins against a fixed allow-list. Build it once with
// NewGuard; it is read-only afterwards and safe for concurrent use.
type Guard struct {
	allowed    map[string]struct{}
	production bool
}

// NewGuard normalizes every configured origin up front. Entries that cannot
// be parsed are ignored.
func NewGuard(opts Options) *Guard {
	g := &Guard{
		allowed:    make(map[string]struct{}),
		production: opts.Production,
	}
	add := func(raw string) {
		if o, ok := Normalize(raw); ok {
			g.allowed[o] = struct{}{}
		}
	}

	for _, o := range opts.AllowedOrigins {
		add(o)
	}
	add(opts.SiteURL)
	if h := strings.TrimSpace(opts.PreviewHost); h != "" {
		add("https://" + h)
	}
	if !opts.Production {
		for _, o := range devOrigins {
			add(o)
		}
	}
	return g
}

// Normalize reduces raw to scheme://host[:port], lowercased, with default
// ports removed. It reports false for values without a scheme or host.
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return scheme + "://" + host + ":" + port, true
	}
	return scheme + "://" + host, true
}

// IsAllowed reports whether origin normalizes to a member of the allow-list.
func (g *Guard) IsAllowed(origin string) bool {
	o, ok := Normalize(origin)
	if !ok {
		return false
	}
	_, hit := g.allowed[o]
	return hit
}

// IsValid applies the submission policy. An empty string means the header
// was absent.
//
// In production a missing Origin is rejected outright. A present Origin must
// be allowed. Without Origin the Referer's origin is checked instead. Outside
// production a request carrying neither header passes, for API tooling.
func (g *Guard) IsValid(origin, referer string) bool {
	if origin != "" {
		return g.IsAllowed(origin)
	}
	if g.production {
		return false
	}
	if referer != "" {
		return g.IsAllowed(referer)
	}
	return true
}

// Production reports whether the guard was built in production mode.
func (g *Guard) Production() bool { return g.production }
