// Package services holds the form-submission business logic: validating
// and sanitizing fields, forwarding the result to the marketing
// collaborators, and recording the outcome in the ledger.
//
// Errors returned here are mapped to HTTP status codes by the handler layer.
package services

import (
	"errors"
	"sort"
	"strings"
)

// ErrMissingEmail is returned when the sanitized fields carry no email.
var ErrMissingEmail = errors.New("email is required")

// ValidationError carries per-field messages from the sanitizer.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}
