// Package csrf issues and verifies stateless anti-forgery tokens.
//
// A token is "random.timestamp.signature" where random is 32 random bytes in
// lowercase hex, timestamp is the issue instant in epoch milliseconds and
// signature is hex(HMAC-SHA256(secret, "random:timestamp")). Nothing is stored
// server-side: validity depends only on the token, the shared secret and the
// current time, so any instance holding the secret can verify it. A token can
// be replayed until it expires.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	// TTL is how long an issued token stays valid.
	TTL = time.Hour
	// ClockSkew is how far in the future an issue instant may lie.
	ClockSkew = 5 * time.Minute

	randomBytes = 32
	hexLen      = 64
)

// Token is an issued anti-forgery token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Codec signs and checks tokens with a server-held secret.
// It is safe for concurrent use; the secret is read-only after construction.
type Codec struct {
	secret []byte
	now    func() time.Time
	rand   io.Reader
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithRandom overrides the entropy source (tests).
func WithRandom(r io.Reader) Option {
	return func(c *Codec) { c.rand = r }
}

// NewCodec returns a Codec bound to secret. An empty secret is rejected.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("csrf: empty secret")
	}
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue creates a fresh token valid for TTL.
func (c *Codec) Issue() (Token, error) {
	buf := make([]byte, randomBytes)
	if _, err := io.ReadFull(c.rand, buf); err != nil {
		return Token{}, err
	}
	random := hex.EncodeToString(buf)
	issuedAt := c.now().UnixMilli()
	ts := strconv.FormatInt(issuedAt, 10)

	return Token{
		Value:     random + "." + ts + "." + c.sign(random, ts),
		ExpiresAt: time.UnixMilli(issuedAt).Add(TTL),
	}, nil
}

// Verify reports whether token is well-formed, unexpired, not dated beyond the
// clock-skew tolerance, and carries a valid signature. It never panics.
func (c *Codec) Verify(token string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	random, ts, sig := parts[0], parts[1], parts[2]
	if !isLowerHex(random) || !isLowerHex(sig) {
		return false
	}
	issuedAt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}

	now := c.now().UnixMilli()
	if now > issuedAt+TTL.Milliseconds() {
		return false
	}
	if issuedAt > now+ClockSkew.Milliseconds() {
		return false
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(c.sign(random, ts))
	return hmac.Equal(got, want)
}

func (c *Codec) sign(random, ts string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(random + ":" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}

// isLowerHex reports whether s is exactly 64 lowercase hex characters.
func isLowerHex(s string) bool {
	if len(s) != hexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return false
		}
	}
	return true
}
