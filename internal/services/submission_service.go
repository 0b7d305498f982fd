// Package services – SubmissionService
//
// SubmissionService runs steps 5–8 of a form submission once the handler
// has checked the token, parsed the body and cleared the bot heuristic:
// validate and sanitize, require an email, forward to the CRM and the event
// tracker, record the ledger row.
//
// Forwarding is best-effort. Both collaborators are called concurrently,
// each bounded by Timeout, and their failures are logged and counted but
// never returned. Ledger failures are treated the same way.
//
// Observability: Submit and Discard are OpenTelemetry-instrumented and
// feed the form_submissions_total / form_forward_results_total counters.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/CoolAssPuppy/landing-pages/internal/domain"
	"github.com/CoolAssPuppy/landing-pages/internal/integrations/customerio"
	"github.com/CoolAssPuppy/landing-pages/internal/integrations/hubspot"
	"github.com/CoolAssPuppy/landing-pages/internal/security"
)

// DefaultForwardTimeout bounds each collaborator call when Timeout is unset.
const DefaultForwardTimeout = 5 * time.Second

// Submission outcomes reported to Prometheus.
const (
	OutcomeAccepted         = "accepted"
	OutcomeDiscarded        = "discarded"
	OutcomeValidationFailed = "validation_failed"
	OutcomeMissingEmail     = "missing_email"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Form submissions by outcome.",
		},
		[]string{"outcome"},
	)
	forwardResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_forward_results_total",
			Help: "Collaborator forwarding results by target and result.",
		},
		[]string{"target", "result"},
	)
)

func init() {
	prometheus.MustRegister(submissionsTotal, forwardResults)
}

// CRM is the marketing CRM boundary. *hubspot.Client satisfies it.
type CRM interface {
	SubmitForm(ctx context.Context, portalID, formID string, fields map[string]string, fc hubspot.FormContext, consent bool) error
	UpsertContact(ctx context.Context, c hubspot.Contact) (string, error)
}

// EventTracker is the event-tracking boundary. *customerio.Client satisfies it.
type EventTracker interface {
	TrackFormSubmission(ctx context.Context, fs customerio.FormSubmission) error
}

// SubmissionRepo defines the ledger contract required by SubmissionService.
type SubmissionRepo interface {
	CreateSubmission(ctx context.Context, db *gorm.DB, s *domain.Submission) error
}

// CustomerIOOptions customizes the tracked event.
type CustomerIOOptions struct {
	EventName string
	Metadata  map[string]any
}

// Submission is a parsed form submission.
type Submission struct {
	Fields          map[string]any
	FormName        string
	PageSlug        string
	PageURL         string
	HubSpotPortalID string
	HubSpotFormID   string
	GDPRConsent     bool
	ClientIP        string
	CustomerIO      *CustomerIOOptions
}

// Outcome reports what Submit did.
type Outcome struct {
	ID         string            // ledger row, empty when the ledger is off or failed
	Sanitized  map[string]string // the values that were forwarded
	HubSpot    string            // domain.Forward*
	CustomerIO string            // domain.Forward*
}

// SubmissionService validates and forwards form submissions.
type SubmissionService struct {
	// DB is the ledger handle; nil disables the ledger.
	DB   *gorm.DB
	Repo SubmissionRepo

	CRM     CRM
	Tracker EventTracker

	// Timeout bounds each collaborator call.
	Timeout time.Duration
}

// NewSubmissionService wires a service with the default forward timeout.
func NewSubmissionService(db *gorm.DB, r SubmissionRepo, crm CRM, tracker EventTracker) *SubmissionService {
	return &SubmissionService{
		DB:      db,
		Repo:    r,
		CRM:     crm,
		Tracker: tracker,
		Timeout: DefaultForwardTimeout,
	}
}

// Submit validates sub.Fields, forwards the sanitized values and records the
// submission. It returns *ValidationError or ErrMissingEmail for input
// problems; forwarding and ledger failures never produce an error.
func (s *SubmissionService) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("form.name", sub.FormName),
			attribute.String("form.page_slug", sub.PageSlug),
		),
	)
	defer span.End()

	res := security.Validate(sub.Fields)
	if !res.IsValid {
		submissionsTotal.WithLabelValues(OutcomeValidationFailed).Inc()
		span.SetAttributes(attribute.Int("form.invalid_fields", len(res.Errors)))
		return nil, &ValidationError{Fields: res.Errors}
	}

	fields := res.SanitizedData
	if fields["email"] == "" {
		submissionsTotal.WithLabelValues(OutcomeMissingEmail).Inc()
		return nil, ErrMissingEmail
	}

	out := &Outcome{Sanitized: fields}
	out.HubSpot, out.CustomerIO = s.forward(ctx, sub, fields)
	span.SetAttributes(
		attribute.String("forward.hubspot", out.HubSpot),
		attribute.String("forward.customerio", out.CustomerIO),
	)

	out.ID = s.record(ctx, &domain.Submission{
		FormName:   sub.FormName,
		PageSlug:   sub.PageSlug,
		Status:     domain.StatusAccepted,
		ClientIP:   sub.ClientIP,
		HubSpot:    out.HubSpot,
		CustomerIO: out.CustomerIO,
	})

	submissionsTotal.WithLabelValues(OutcomeAccepted).Inc()
	return out, nil
}

// Discard records a submission dropped by the bot heuristic. Nothing is
// forwarded.
func (s *SubmissionService) Discard(ctx context.Context, sub Submission, reason string) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Discard",
		trace.WithAttributes(
			attribute.String("form.name", sub.FormName),
			attribute.String("bot.reason", reason),
		),
	)
	defer span.End()

	s.record(ctx, &domain.Submission{
		FormName: sub.FormName,
		PageSlug: sub.PageSlug,
		Status:   domain.StatusDiscarded,
		Reason:   reason,
		ClientIP: sub.ClientIP,
	})
	submissionsTotal.WithLabelValues(OutcomeDiscarded).Inc()
}

// forward calls both collaborators concurrently. Calls are detached from
// client cancellation and bounded by Timeout.
func (s *SubmissionService) forward(ctx context.Context, sub Submission, fields map[string]string) (hs, cio string) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		hs = s.result(ctx, "hubspot", s.sendCRM(cctx, sub, fields))
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		cio = s.result(ctx, "customerio", s.sendTracker(cctx, sub, fields))
	}()
	wg.Wait()
	return hs, cio
}

// sendCRM posts to the configured HubSpot form, or upserts a contact when
// the submission names no form.
func (s *SubmissionService) sendCRM(ctx context.Context, sub Submission, f map[string]string) error {
	if s.CRM == nil {
		return hubspot.ErrNotConfigured
	}
	if sub.HubSpotPortalID != "" && sub.HubSpotFormID != "" {
		return s.CRM.SubmitForm(ctx, sub.HubSpotPortalID, sub.HubSpotFormID, f, hubspot.FormContext{
			PageURI:   sub.PageURL,
			PageName:  sub.FormName,
			IPAddress: sub.ClientIP,
		}, sub.GDPRConsent)
	}
	_, err := s.CRM.UpsertContact(ctx, hubspot.Contact{
		Email:     f["email"],
		FirstName: f["firstName"],
		LastName:  f["lastName"],
		Company:   f["company"],
		Phone:     f["phone"],
	})
	return err
}

func (s *SubmissionService) sendTracker(ctx context.Context, sub Submission, f map[string]string) error {
	if s.Tracker == nil {
		return customerio.ErrNotConfigured
	}

	meta := map[string]any{"form_name": sub.FormName}
	eventName := ""
	if sub.CustomerIO != nil {
		eventName = sub.CustomerIO.EventName
		for k, v := range sub.CustomerIO.Metadata {
			meta[k] = v
		}
	}

	return s.Tracker.TrackFormSubmission(ctx, customerio.FormSubmission{
		Email:     f["email"],
		EventName: eventName,
		ProfileAttributes: map[string]any{
			"firstName": f["firstName"],
			"lastName":  f["lastName"],
			"company":   f["company"],
		},
		EventMetadata: meta,
		Source:        sub.FormName,
		PageSlug:      sub.PageSlug,
		PageURL:       sub.PageURL,
		UTM: customerio.UTM{
			Source:   f["utm_source"],
			Medium:   f["utm_medium"],
			Campaign: f["utm_campaign"],
			Content:  f["utm_content"],
			Term:     f["utm_term"],
		},
	})
}

// result classifies a collaborator error, logging failures without any
// submitted values.
func (s *SubmissionService) result(ctx context.Context, target string, err error) string {
	var r string
	switch {
	case err == nil:
		r = domain.ForwardOK
	case errors.Is(err, hubspot.ErrNotConfigured), errors.Is(err, customerio.ErrNotConfigured):
		r = domain.ForwardSkipped
	default:
		r = domain.ForwardFailed
		zerolog.Ctx(ctx).Warn().Err(err).Str("target", target).Msg("forwarding failed")
	}
	forwardResults.WithLabelValues(target, r).Inc()
	return r
}

func (s *SubmissionService) record(ctx context.Context, row *domain.Submission) string {
	if s.DB == nil || s.Repo == nil {
		return ""
	}
	if err := s.Repo.CreateSubmission(ctx, s.DB, row); err != nil {
		trace.SpanFromContext(ctx).SetStatus(codes.Error, "ledger write failed")
		zerolog.Ctx(ctx).Warn().Err(err).Str("status", row.Status).Msg("ledger write failed")
		return ""
	}
	return row.ID
}
