// Package ratelimit bounds per-client request frequency with fixed windows.
//
// The Limiter applies a policy (window length, ceilings for form submissions
// and other API calls) on top of a Store. The Store is the portable contract:
// MemoryStore is the single-process reference implementation, RedisStore
// shares counters across instances.
//
// A window starts with the first request from a key (count=1) and lasts for
// Policy.Window. Requests at the ceiling are rejected without incrementing.
// The first request after the window ends opens a new one.
package ratelimit

import (
	"context"
	"time"
)

// Kind namespaces keys so form submissions and other API calls are counted
// separately for the same client.
type Kind string

const (
	KindAPI  Kind = "api"
	KindForm Kind = "form"
)

// Decision is the outcome of one CheckAndIncrement call.
type Decision struct {
	Limited bool      // true means reject
	Limit   int       // ceiling applied
	Count   int       // requests counted in the current window
	ResetAt time.Time // end of the current window
}

// Store performs an atomic check-and-increment for key.
// Implementations must not let two concurrent callers both pass the ceiling.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Policy configures the Limiter.
type Policy struct {
	Window  time.Duration
	APIMax  int
	FormMax int
}

// DefaultPolicy is 20 API calls or 5 form submissions per minute.
func DefaultPolicy() Policy {
	return Policy{Window: time.Minute, APIMax: 20, FormMax: 5}
}

// Limiter applies Policy over a Store. It is safe for concurrent use.
type Limiter struct {
	store  Store
	policy Policy
}

// New returns a Limiter. Zero policy fields fall back to DefaultPolicy.
func New(store Store, p Policy) *Limiter {
	def := DefaultPolicy()
	if p.Window <= 0 {
		p.Window = def.Window
	}
	if p.APIMax <= 0 {
		p.APIMax = def.APIMax
	}
	if p.FormMax <= 0 {
		p.FormMax = def.FormMax
	}
	return &Limiter{store: store, policy: p}
}

// Policy returns the effective policy.
func (l *Limiter) Policy() Policy { return l.policy }

// Limit returns the ceiling for the given request kind.
func (l *Limiter) Limit(isFormSubmission bool) int {
	if isFormSubmission {
		return l.policy.FormMax
	}
	return l.policy.APIMax
}

// CheckAndIncrement counts one request from clientKey and reports whether it
// must be rejected.
func (l *Limiter) CheckAndIncrement(ctx context.Context, clientKey string, isFormSubmission bool) (Decision, error) {
	kind := KindAPI
	if isFormSubmission {
		kind = KindForm
	}
	return l.store.Hit(ctx, Key(kind, clientKey), l.Limit(isFormSubmission), l.policy.Window)
}

// Key builds the store key for a client of the given kind, e.g. "form:203.0.113.7".
func Key(kind Kind, clientKey string) string {
	return string(kind) + ":" + clientKey
}
