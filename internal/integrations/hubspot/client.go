// Package hubspot is a small client for the two HubSpot endpoints the form
// backend uses: secure form submissions and contact upserts.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public HubSpot API root.
const DefaultBaseURL = "https://api.hubapi.com"

// consentText accompanies consentToProcess on form submissions.
const consentText = "I agree to receive communications."

// ErrNotConfigured is returned by every call when no access token is set.
var ErrNotConfigured = errors.New("hubspot: not configured")

// StatusError reports a non-2xx response.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hubspot: %s failed: %d", e.Op, e.Status)
}

// FormContext describes where a submission came from.
type FormContext struct {
	PageURI   string `json:"pageUri,omitempty"`
	PageName  string `json:"pageName,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	HUTK      string `json:"hutk,omitempty"`
}

// Contact is the property set written by UpsertContact. Extra holds custom
// properties; empty values are never sent.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Company   string
	Phone     string
	Extra     map[string]string
}

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type consent struct {
	ConsentToProcess bool   `json:"consentToProcess"`
	Text             string `json:"text"`
}

type legalConsentOptions struct {
	Consent consent `json:"consent"`
}

type formSubmission struct {
	Fields              []field              `json:"fields"`
	Context             FormContext          `json:"context"`
	LegalConsentOptions *legalConsentOptions `json:"legalConsentOptions,omitempty"`
}

// Client talks to HubSpot with a private-app access token. Calls are
// throttled client-side; waiting honours the request context.
type Client struct {
	BaseURL     string
	AccessToken string
	HTTP        *http.Client
	Limiter     *rate.Limiter
}

// New returns a Client. An empty baseURL means DefaultBaseURL; a nil limiter
// disables throttling.
func New(baseURL, accessToken string, limiter *rate.Limiter) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		HTTP:        &http.Client{},
		Limiter:     limiter,
	}
}

// Configured reports whether an access token is set.
func (c *Client) Configured() bool { return c != nil && c.AccessToken != "" }

// SubmitForm posts fields to a HubSpot form. Empty values are dropped. When
// consentGiven is true the submission carries legal consent to process.
func (c *Client) SubmitForm(ctx context.Context, portalID, formID string, fields map[string]string, fc FormContext, consentGiven bool) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	sub := formSubmission{Context: fc}
	for name, value := range fields {
		if value == "" {
			continue
		}
		sub.Fields = append(sub.Fields, field{Name: name, Value: value})
	}
	if consentGiven {
		sub.LegalConsentOptions = &legalConsentOptions{
			Consent: consent{ConsentToProcess: true, Text: consentText},
		}
	}

	path := fmt.Sprintf("/submissions/v3/integration/secure/submit/%s/%s",
		url.PathEscape(portalID), url.PathEscape(formID))
	return c.do(ctx, "form submission", http.MethodPost, path, sub, nil)
}

// UpsertContact finds a contact by email and updates it, or creates one.
// It returns the HubSpot contact ID.
func (c *Client) UpsertContact(ctx context.Context, ct Contact) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	search := map[string]any{
		"filterGroups": []any{map[string]any{
			"filters": []any{map[string]string{
				"propertyName": "email",
				"operator":     "EQ",
				"value":        ct.Email,
			}},
		}},
	}
	var found struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := c.do(ctx, "contact search", http.MethodPost, "/crm/v3/objects/contacts/search", search, &found); err != nil {
		return "", err
	}

	body := map[string]any{"properties": ct.properties()}

	if len(found.Results) > 0 {
		id := found.Results[0].ID
		if err := c.do(ctx, "contact update", http.MethodPatch, "/crm/v3/objects/contacts/"+url.PathEscape(id), body, nil); err != nil {
			return "", err
		}
		return id, nil
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "contact create", http.MethodPost, "/crm/v3/objects/contacts", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (ct Contact) properties() map[string]string {
	props := map[string]string{"email": ct.Email}
	set := func(k, v string) {
		if v != "" {
			props[k] = v
		}
	}
	set("firstname", ct.FirstName)
	set("lastname", ct.LastName)
	set("company", ct.Company)
	set("phone", ct.Phone)
	for k, v := range ct.Extra {
		if _, reserved := reservedProperties[k]; !reserved {
			set(k, v)
		}
	}
	return props
}

var reservedProperties = map[string]struct{}{
	"email": {}, "firstname": {}, "lastname": {}, "company": {}, "phone": {},
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("hubspot: %s throttled: %w", op, err)
		}
	}

	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("hubspot: encode %s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hubspot: decode %s: %w", op, err)
	}
	return nil
}
