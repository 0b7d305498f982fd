// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them while
// the `error` field carries the message shown to the visitor. The edge gate
// emits rate_limited and invalid_origin with the same envelope.

package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Form submission:
	ErrCodeInvalidToken     = "invalid_token"
	ErrCodeMissingFields    = "missing_fields"
	ErrCodeMissingFormName  = "missing_form_name"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingEmail     = "missing_email"
)

// Visitor-facing messages.
const (
	MsgInvalidToken     = "Invalid or expired security token. Please refresh and try again."
	MsgInvalidBody      = "Invalid request body"
	MsgMissingFields    = "Missing form fields"
	MsgMissingFormName  = "Missing form name"
	MsgValidationFailed = "Validation failed"
	MsgMissingEmail     = "Email is required"
	MsgUnexpected       = "An unexpected error occurred. Please try again."
	MsgSubmitted        = "Form submitted successfully"
)
