package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		calls = append(calls, rec)
		handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSubmitForm(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := New(srv.URL+"/", "tok", nil)

	err := c.SubmitForm(context.Background(), "123", "abc-def",
		map[string]string{"email": "jane@x.com", "company": ""},
		FormContext{PageURI: "https://example.com/demo", PageName: "demo", IPAddress: "203.0.113.1"},
		true)
	require.NoError(t, err)
	require.Len(t, *calls, 1)

	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/submissions/v3/integration/secure/submit/123/abc-def", got.Path)
	assert.Equal(t, "Bearer tok", got.Auth)

	fields := got.Body["fields"].([]any)
	require.Len(t, fields, 1, "empty values are dropped")
	assert.Equal(t, map[string]any{"name": "email", "value": "jane@x.com"}, fields[0])

	ctx := got.Body["context"].(map[string]any)
	assert.Equal(t, "203.0.113.1", ctx["ipAddress"])
	assert.NotContains(t, ctx, "hutk")

	consent := got.Body["legalConsentOptions"].(map[string]any)["consent"].(map[string]any)
	assert.Equal(t, true, consent["consentToProcess"])
	assert.NotEmpty(t, consent["text"])
}

func TestSubmitForm_NoConsentOmitsBlock(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := New(srv.URL, "tok", nil)

	require.NoError(t, c.SubmitForm(context.Background(), "1", "2", map[string]string{"email": "a@b.com"}, FormContext{}, false))
	assert.NotContains(t, (*calls)[0].Body, "legalConsentOptions")
}

func TestSubmitForm_StatusError(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c := New(srv.URL, "tok", nil)

	err := c.SubmitForm(context.Background(), "1", "2", nil, FormContext{}, false)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
}

func TestUpsertContact_CreatesWhenMissing(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crm/v3/objects/contacts/search":
			_, _ = w.Write([]byte(`{"results":[]}`))
		case "/crm/v3/objects/contacts":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"901"}`))
		}
	})
	c := New(srv.URL, "tok", nil)

	id, err := c.UpsertContact(context.Background(), Contact{
		Email:     "jane@x.com",
		FirstName: "Jane",
		Extra:     map[string]string{"lifecyclestage": "lead", "email": "other@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "901", id)
	require.Len(t, *calls, 2)

	filter := (*calls)[0].Body["filterGroups"].([]any)[0].(map[string]any)["filters"].([]any)[0].(map[string]any)
	assert.Equal(t, "jane@x.com", filter["value"])

	props := (*calls)[1].Body["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"email": "jane@x.com", "firstname": "Jane", "lifecyclestage": "lead"}, props)
}

func TestUpsertContact_UpdatesExisting(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/crm/v3/objects/contacts/search" {
			_, _ = w.Write([]byte(`{"results":[{"id":"77"}]}`))
		}
	})
	c := New(srv.URL, "tok", nil)

	id, err := c.UpsertContact(context.Background(), Contact{Email: "jane@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "77", id)
	assert.Equal(t, http.MethodPatch, (*calls)[1].Method)
	assert.Equal(t, "/crm/v3/objects/contacts/77", (*calls)[1].Path)
}

func TestNotConfigured(t *testing.T) {
	c := New("", "", nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.ErrorIs(t, c.SubmitForm(context.Background(), "1", "2", nil, FormContext{}, false), ErrNotConfigured)
	_, err := c.UpsertContact(context.Background(), Contact{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestThrottleHonoursContext(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	c := New(srv.URL, "tok", lim)

	require.NoError(t, c.SubmitForm(context.Background(), "1", "2", nil, FormContext{}, false))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.SubmitForm(ctx, "1", "2", nil, FormContext{}, false)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotConfigured))
}
