// Package customerio sends profile updates and events to the Customer.io
// Track API.
package customerio

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
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultTrackURL is the public Track API root.
const DefaultTrackURL = "https://track.customer.io/api/v1"

// DefaultEventName is used by TrackFormSubmission when none is given.
const DefaultEventName = "form_submission"

// ErrNotConfigured is returned when the site ID or API key is missing.
var ErrNotConfigured = errors.New("customerio: not configured")

// StatusError reports a non-2xx response.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("customerio: %s failed: %d", e.Op, e.Status)
}

// Event is a named customer event. A zero Timestamp means now.
type Event struct {
	Name      string         `json:"name"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// UTM carries campaign attribution copied onto the event.
type UTM struct {
	Source, Medium, Campaign, Content, Term string
}

// FormSubmission is the input to TrackFormSubmission.
type FormSubmission struct {
	Email             string
	EventName         string
	ProfileAttributes map[string]any
	EventMetadata     map[string]any
	Source            string
	PageSlug          string
	PageURL           string
	UTM               UTM
}

// Client authenticates with HTTP basic auth (site ID, API key).
type Client struct {
	BaseURL string
	SiteID  string
	APIKey  string
	HTTP    *http.Client
	Limiter *rate.Limiter

	now func() time.Time
}

// New returns a Client. An empty baseURL means DefaultTrackURL; a nil
// limiter disables throttling.
func New(baseURL, siteID, apiKey string, limiter *rate.Limiter) *Client {
	if baseURL == "" {
		baseURL = DefaultTrackURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		SiteID:  siteID,
		APIKey:  apiKey,
		HTTP:    &http.Client{},
		Limiter: limiter,
		now:     time.Now,
	}
}

// Configured reports whether both credentials are set.
func (c *Client) Configured() bool {
	return c != nil && c.SiteID != "" && c.APIKey != ""
}

// UpsertProfile creates or updates the customer identified by email.
func (c *Client) UpsertProfile(ctx context.Context, email string, attrs map[string]any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	body := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		if v == nil || v == "" {
			continue
		}
		body[k] = v
	}
	body["email"] = email
	return c.do(ctx, "profile update", http.MethodPut, "/customers/"+url.PathEscape(email), body)
}

// TrackEvent records ev against the customer identified by email.
func (c *Client) TrackEvent(ctx context.Context, email string, ev Event) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = c.now().Unix()
	}
	if ev.Data == nil {
		ev.Data = map[string]any{}
	}
	return c.do(ctx, "event tracking", http.MethodPost, "/customers/"+url.PathEscape(email)+"/events", ev)
}

// TrackFormSubmission upserts the profile (adding created_at), then records
// the submission event. A failed profile upsert is logged through the
// context logger and does not stop the event; the returned error is the
// event's.
func (c *Client) TrackFormSubmission(ctx context.Context, fs FormSubmission) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	now := c.now()

	attrs := make(map[string]any, len(fs.ProfileAttributes)+1)
	for k, v := range fs.ProfileAttributes {
		attrs[k] = v
	}
	attrs["created_at"] = now.Unix()
	if err := c.UpsertProfile(ctx, fs.Email, attrs); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("target", "customerio").Msg("profile update failed")
	}

	data := make(map[string]any, len(fs.EventMetadata)+10)
	for k, v := range fs.EventMetadata {
		data[k] = v
	}
	data["submitted_at"] = now.UTC().Format(time.RFC3339Nano)

	set := func(k, v string) {
		if v != "" {
			data[k] = v
		}
	}
	set("source", fs.Source)
	set("page_slug", fs.PageSlug)
	set("page_url", fs.PageURL)
	set("utm_source", fs.UTM.Source)
	set("utm_medium", fs.UTM.Medium)
	set("utm_campaign", fs.UTM.Campaign)
	set("utm_content", fs.UTM.Content)
	set("utm_term", fs.UTM.Term)

	name := fs.EventName
	if name == "" {
		name = DefaultEventName
	}
	return c.TrackEvent(ctx, fs.Email, Event{Name: name, Data: data, Timestamp: now.Unix()})
}

func (c *Client) do(ctx context.Context, op, method, path string, in any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("customerio: %s throttled: %w", op, err)
		}
	}

	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("customerio: encode %s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.SiteID, c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("customerio: %s: %w", op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, Status: resp.StatusCode}
	}
	return nil
}
