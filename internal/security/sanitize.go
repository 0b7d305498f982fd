// Package security cleans and validates untrusted form input and classifies
// automated submissions.
//
// Validate is the only entry point handlers should use for field data: it
// rejects injection attempts, enforces per-field length and format rules, and
// returns HTML-entity-encoded values safe to forward or store.
package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Field error messages returned in ValidationResult.Errors.
const (
	MsgInvalidCharacters = "Invalid characters detected"
	MsgTooLong           = "Input too long"
	MsgInvalidEmail      = "Invalid email format"
	MsgInvalidPhone      = "Invalid phone format"
)

// DefaultMaxLength applies to fields missing from MaxFieldLengths.
const DefaultMaxLength = 1000

// MaxFieldLengths caps field values by name, in characters.
var MaxFieldLengths = map[string]int{
	"email":     254, // RFC 5321
	"firstName": 100,
	"lastName":  100,
	"company":   200,
	"phone":     50,
	"message":   5000,
}

// ValidationResult is produced fresh for each submission.
type ValidationResult struct {
	IsValid       bool              `json:"isValid"`
	Errors        map[string]string `json:"errors"`
	SanitizedData map[string]string `json:"sanitizedData"`
}

var (
	xssPatterns = []*regexp.Regexp{
		// RE2 has no lookahead; an opening tag alone is enough to reject.
		regexp.MustCompile(`(?i)<\s*script\b`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
		regexp.MustCompile(`(?i)<iframe`),
		regexp.MustCompile(`(?i)<object`),
		regexp.MustCompile(`(?i)<embed`),
		regexp.MustCompile(`(?i)<link`),
		regexp.MustCompile(`(?i)data:`),
		regexp.MustCompile(`(?i)vbscript:`),
	}

	// &amp; is decoded last so "&amp;lt;" only unwraps one level.
	entityDecoders = []struct {
		re  *regexp.Regexp
		out string
	}{
		{regexp.MustCompile(`(?i)&lt;`), "<"},
		{regexp.MustCompile(`(?i)&gt;`), ">"},
		{regexp.MustCompile(`(?i)&quot;`), `"`},
		{regexp.MustCompile(`(?i)&#x27;`), "'"},
		{regexp.MustCompile(`(?i)&#39;`), "'"},
		{regexp.MustCompile(`(?i)&amp;`), "&"},
	}

	emailRE = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	phoneRE = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s./0-9]*$`)

	htmlEncoder = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
)

// Validate checks every string-valued field and returns the sanitized subset.
// Non-string values are ignored entirely.
func Validate(fields map[string]any) ValidationResult {
	res := ValidationResult{
		Errors:        map[string]string{},
		SanitizedData: map[string]string{},
	}

	for key, raw := range fields {
		value, ok := raw.(string)
		if !ok {
			continue
		}
		if msg := checkField(key, value); msg != "" {
			res.Errors[key] = msg
			continue
		}
		res.SanitizedData[key] = SanitizeString(value)
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// checkField returns the first failing rule's message, or "".
func checkField(key, value string) string {
	if ContainsXSS(value) {
		return MsgInvalidCharacters
	}
	if utf8.RuneCountInString(value) > maxLength(key) {
		return MsgTooLong
	}
	if key == "email" && value != "" && !isValidEmail(value) {
		return MsgInvalidEmail
	}
	if key == "phone" && value != "" && !isValidPhone(value) {
		return MsgInvalidPhone
	}
	return ""
}

// SanitizeString strips control characters (keeping newlines and tabs),
// applies NFC normalization, trims, and HTML-entity-encodes & < > " '.
func SanitizeString(input string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	cleaned := strings.TrimSpace(norm.NFC.String(stripped))
	return htmlEncoder.Replace(cleaned)
}

// ContainsXSS reports whether input, after decoding common HTML entities,
// contains script tags, dangerous URI schemes, inline event handlers, or
// embedding tags.
func ContainsXSS(input string) bool {
	decoded := input
	for _, d := range entityDecoders {
		decoded = d.re.ReplaceAllLiteralString(decoded, d.out)
	}
	for _, re := range xssPatterns {
		if re.MatchString(decoded) {
			return true
		}
	}
	return false
}

func maxLength(field string) int {
	if n, ok := MaxFieldLengths[field]; ok {
		return n
	}
	return DefaultMaxLength
}

func isValidEmail(email string) bool {
	return len(email) <= 254 && emailRE.MatchString(email)
}

func isValidPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return len(phone) <= 50 && phoneRE.MatchString(phone) && digits >= 7 && digits <= 15
}
