// Package handlers implements the HTTP endpoints of the landing-page form
// backend.
//
// Endpoints:
//   - GET/OPTIONS /api/csrf: issue an anti-forgery token
//   - POST/OPTIONS /api/form: accept a form submission
//
// Handlers are thin: they parse and check requests, delegate to the
// submission service, and translate typed errors to the error envelope.
// Origin checks, rate limiting and CORS headers are applied earlier by
// middleware.EdgeGate.
package handlers

import (
	"context"
	"net/http"

	"github.com/CoolAssPuppy/landing-pages/internal/csrf"
	"github.com/CoolAssPuppy/landing-pages/internal/security"
	"github.com/CoolAssPuppy/landing-pages/internal/services"
)

// TokenCodec issues and verifies anti-forgery tokens. *csrf.Codec satisfies it.
type TokenCodec interface {
	Issue() (csrf.Token, error)
	Verify(token string) bool
}

// SubmissionService is the business boundary for form submissions.
// *services.SubmissionService satisfies it.
type SubmissionService interface {
	Submit(ctx context.Context, sub services.Submission) (*services.Outcome, error)
	Discard(ctx context.Context, sub services.Submission, reason string)
}

// BotDetector classifies automated submissions. security.Detector satisfies it.
type BotDetector interface {
	Detect(h http.Header, submissionTimeMs *int64) security.BotDetectionResult
}

// Handlers bundles the dependencies used by the HTTP endpoints.
type Handlers struct {
	tokens TokenCodec
	subs   SubmissionService
	bots   BotDetector
}

// New constructs a Handlers instance bound to the given collaborators.
func New(tokens TokenCodec, subs SubmissionService, bots BotDetector) *Handlers {
	return &Handlers{tokens: tokens, subs: subs, bots: bots}
}
