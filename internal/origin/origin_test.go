package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"https://example.com":                 "https://example.com",
		"https://Example.COM/pricing?x=1#top": "https://example.com",
		"HTTPS://example.com:443":             "https://example.com",
		"http://example.com:80/":              "http://example.com",
		"http://localhost:3000/form":          "http://localhost:3000",
		"https://[::1]:8443":                  "https://[::1]:8443",
	}
	for in, want := range cases {
		got, ok := Normalize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "   ", "null", "example.com", "/relative", "://nohost", "http://"} {
		_, ok := Normalize(bad)
		assert.False(t, ok, "%q should not normalize", bad)
	}
}

func TestGuard_IsAllowed(t *testing.T) {
	g := NewGuard(Options{
		AllowedOrigins: []string{"https://www.example.com", "not a url"},
		SiteURL:        "https://example.com/landing",
		PreviewHost:    "landing-git-main.vercel.app",
		Production:     true,
	})

	assert.True(t, g.IsAllowed("https://example.com"))
	assert.True(t, g.IsAllowed("https://www.example.com"))
	assert.True(t, g.IsAllowed("https://landing-git-main.vercel.app"))
	assert.False(t, g.IsAllowed("http://landing-git-main.vercel.app"))
	assert.False(t, g.IsAllowed("https://evil.com"))
	assert.False(t, g.IsAllowed("https://example.com.evil.com"))
	assert.False(t, g.IsAllowed("http://localhost:3000"), "dev origins are off in production")
	assert.False(t, g.IsAllowed(""))
}

func TestGuard_DevOrigins(t *testing.T) {
	g := NewGuard(Options{SiteURL: "https://example.com"})
	assert.True(t, g.IsAllowed("http://localhost:3000"))
	assert.True(t, g.IsAllowed("http://127.0.0.1:3000"))
	assert.False(t, g.IsAllowed("http://localhost:4000"))
}

func TestGuard_IsValid_Production(t *testing.T) {
	g := NewGuard(Options{SiteURL: "https://example.com", Production: true})

	assert.True(t, g.IsValid("https://example.com", ""))
	assert.False(t, g.IsValid("https://evil.com", "https://example.com/page"))
	assert.False(t, g.IsValid("", ""))
	assert.False(t, g.IsValid("", "https://example.com/page"), "missing Origin is fatal in production")
	assert.False(t, g.IsValid("null", ""))
}

func TestGuard_IsValid_Development(t *testing.T) {
	g := NewGuard(Options{SiteURL: "https://example.com"})

	assert.True(t, g.IsValid("", ""), "tools without headers pass outside production")
	assert.True(t, g.IsValid("", "https://example.com/pricing?ref=x"))
	assert.False(t, g.IsValid("", "https://evil.com/"))
	assert.False(t, g.IsValid("", "::garbage::"))
	assert.True(t, g.IsValid("http://localhost:3000", ""))
	assert.False(t, g.IsValid("https://evil.com", ""))
}
