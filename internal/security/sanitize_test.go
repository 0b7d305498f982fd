package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Email(t *testing.T) {
	res := Validate(map[string]any{"email": "not-an-email"})
	assert.False(t, res.IsValid)
	assert.Equal(t, MsgInvalidEmail, res.Errors["email"])
	assert.NotContains(t, res.SanitizedData, "email")

	res = Validate(map[string]any{"email": "a@b.com"})
	require.True(t, res.IsValid)
	assert.Equal(t, "a@b.com", res.SanitizedData["email"])
}

func TestValidate_EmptyEmailSkipsFormatCheck(t *testing.T) {
	res := Validate(map[string]any{"email": ""})
	assert.True(t, res.IsValid)
	assert.Equal(t, "", res.SanitizedData["email"])
}

func TestValidate_EmailTooLong(t *testing.T) {
	long := strings.Repeat("a", 250) + "@b.com"
	res := Validate(map[string]any{"email": long})
	assert.Equal(t, MsgTooLong, res.Errors["email"])
}

func TestValidate_ScriptInjection(t *testing.T) {
	res := Validate(map[string]any{
		"firstName": "<script>alert(1)</script>",
		"lastName":  "Doe",
	})
	assert.False(t, res.IsValid)
	assert.Equal(t, MsgInvalidCharacters, res.Errors["firstName"])
	assert.NotContains(t, res.SanitizedData, "firstName")
	assert.Equal(t, "Doe", res.SanitizedData["lastName"])
}

func TestValidate_LengthLimits(t *testing.T) {
	res := Validate(map[string]any{"company": strings.Repeat("A", 201)})
	assert.Equal(t, MsgTooLong, res.Errors["company"])

	res = Validate(map[string]any{"company": strings.Repeat("A", 200)})
	assert.True(t, res.IsValid)

	res = Validate(map[string]any{"custom": strings.Repeat("x", DefaultMaxLength+1)})
	assert.Equal(t, MsgTooLong, res.Errors["custom"])

	// Limits count characters, not bytes.
	res = Validate(map[string]any{"firstName": strings.Repeat("\u00e9", 100)})
	assert.True(t, res.IsValid)
}

func TestValidate_Phone(t *testing.T) {
	good := []string{"+1 212-555-1212", "(212) 555-1212", "212.555.1212", "+44 20 7946 0958", "5551234"}
	for _, p := range good {
		res := Validate(map[string]any{"phone": p})
		assert.True(t, res.IsValid, "phone %q", p)
	}
	bad := []string{"12345", "call me", "+1234567890123456", "555-CALL-NOW"}
	for _, p := range bad {
		res := Validate(map[string]any{"phone": p})
		assert.Equal(t, MsgInvalidPhone, res.Errors["phone"], "phone %q", p)
	}
}

func TestValidate_NonStringSkipped(t *testing.T) {
	res := Validate(map[string]any{
		"age":     42.0,
		"consent": true,
		"nested":  map[string]any{"x": "<script>"},
		"nothing": nil,
	})
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.SanitizedData)
}

func TestValidate_EncodesOutput(t *testing.T) {
	res := Validate(map[string]any{"message": `  Tom & "Jerry" <3 it's  `})
	require.True(t, res.IsValid)
	assert.Equal(t, "Tom &amp; &quot;Jerry&quot; &lt;3 it&#x27;s", res.SanitizedData["message"])
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"null bytes", "ab\x00c", "abc"},
		{"c0 controls", "a\x01\x08\x0b\x0c\x1fb", "ab"},
		{"del and c1", "a\x7f\u0085\u009fb", "ab"},
		{"keeps newline and tab", "line1\n\tline2", "line1\n\tline2"},
		{"nfc", "e\u0301", "\u00e9"},
		{"trim", " \t hi \n", "hi"},
		{"ampersand first", "&lt;", "&amp;lt;"},
		{"all five", `&<>"'`, "&amp;&lt;&gt;&quot;&#x27;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeString(tc.in))
		})
	}
}

func TestContainsXSS(t *testing.T) {
	hits := []string{
		"<script>alert(1)</script>",
		"<SCRIPT src=x>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"javascript:alert(1)",
		"JaVaScRiPt:void(0)",
		"vbscript:msgbox",
		"data:text/html;base64,xx",
		`<img src=x onerror="alert(1)">`,
		"onload =boom",
		"<iframe src=//evil>",
		"<object data=x>",
		"<embed src=x>",
		"<link rel=stylesheet>",
		"&lt;iframe src=x&gt;",
	}
	for _, s := range hits {
		assert.True(t, ContainsXSS(s), "expected XSS hit for %q", s)
	}

	clean := []string{
		"Jane",
		"jane@example.com",
		"We love <3 your product",
		"Tom & Jerry",
		"5 > 3",
	}
	for _, s := range clean {
		assert.False(t, ContainsXSS(s), "unexpected XSS hit for %q", s)
	}
}
