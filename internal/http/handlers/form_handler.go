package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CoolAssPuppy/landing-pages/internal/http/middleware"
	"github.com/CoolAssPuppy/landing-pages/internal/services"
)

// csrfHeader carries the token issued by GET /api/csrf.
const csrfHeader = "X-CSRF-Token"

//
// DTOs
//

// CustomerIOOptions customizes the tracked event.
type CustomerIOOptions struct {
	// EventName defaults to "form_submission".
	EventName string         `json:"eventName,omitempty" example:"demo_request"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FormSubmissionRequest is the JSON payload of POST /api/form.
//
// Fields and FormName are required. The remaining members are optional and
// read leniently: a value of the wrong JSON type is ignored rather than
// rejecting the submission (see decodeSubmission).
type FormSubmissionRequest struct {
	Fields          map[string]any     `json:"fields" swaggertype:"object"`
	FormName        string             `json:"formName" example:"demo-request"`
	HubSpotPortalID string             `json:"hubspotPortalId,omitempty" example:"12345678"`
	HubSpotFormID   string             `json:"hubspotFormId,omitempty" example:"00000000-0000-0000-0000-000000000000"`
	PageSlug        string             `json:"pageSlug,omitempty" example:"demo"`
	PageURL         string             `json:"pageUrl,omitempty" example:"https://example.com/demo"`
	GDPRConsent     bool               `json:"gdprConsent,omitempty"`
	SubmissionTime  *float64           `json:"submissionTime,omitempty" example:"8400"`
	CustomerIO      *CustomerIOOptions `json:"customerio,omitempty"`
}

// FormSubmissionResponse acknowledges a submission. Bot-discarded
// submissions receive the same status with no message.
type FormSubmissionResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Form submitted successfully"`
}

//
// Handlers
//

// SubmitForm godoc
// @ID          submitForm
// @Summary     Submit a landing-page form
// @Description Verifies the anti-forgery token, screens for bots, validates and sanitizes fields, then forwards them to the CRM and event tracker (best-effort).
// @Tags        Forms
// @Accept      json
// @Produce     json
//
// @Param       X-CSRF-Token  header  string                         true  "Token from GET /csrf"
// @Param       body          body    handlers.FormSubmissionRequest  true  "Form submission"
//
// @Success     200  {object}  handlers.FormSubmissionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or validation failed"
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid token or origin"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /form [post]
func (h *Handlers) SubmitForm(c *gin.Context) {
	// 1) anti-forgery token
	tok := c.GetHeader(csrfHeader)
	if tok == "" || !h.tokens.Verify(tok) {
		fail(c, http.StatusForbidden, ErrCodeInvalidToken, MsgInvalidToken)
		return
	}

	// 2) body
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidBody)
		return
	}

	// 3) required shape
	req := decodeSubmission(raw)
	if req.Fields == nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, MsgMissingFields)
		return
	}
	if req.FormName == "" {
		fail(c, http.StatusBadRequest, ErrCodeMissingFormName, MsgMissingFormName)
		return
	}
	formName := req.FormName

	lg := middleware.LoggerFrom(c)
	ctx := lg.WithContext(c.Request.Context())
	sub := services.Submission{
		Fields:          req.Fields,
		FormName:        formName,
		PageSlug:        req.PageSlug,
		PageURL:         req.PageURL,
		HubSpotPortalID: req.HubSpotPortalID,
		HubSpotFormID:   req.HubSpotFormID,
		GDPRConsent:     req.GDPRConsent,
		ClientIP:        middleware.ClientIPFrom(c),
	}
	if req.CustomerIO != nil {
		sub.CustomerIO = &services.CustomerIOOptions{
			EventName: req.CustomerIO.EventName,
			Metadata:  req.CustomerIO.Metadata,
		}
	}

	// 4) bots get a silent success
	if res := h.bots.Detect(c.Request.Header, fillTime(req.SubmissionTime)); res.IsBot {
		lg.Info().Str("reason", res.Reason).Str("form", formName).Msg("bot submission discarded")
		h.subs.Discard(ctx, sub, res.Reason)
		ok(c, http.StatusOK, FormSubmissionResponse{Success: true})
		return
	}

	// 5-7) validate, require email, forward
	if _, err := h.subs.Submit(ctx, sub); err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			failDetails(c, http.StatusBadRequest, ErrCodeValidationFailed, MsgValidationFailed, ve.Fields)
		case errors.Is(err, services.ErrMissingEmail):
			fail(c, http.StatusBadRequest, ErrCodeMissingEmail, MsgMissingEmail)
		default:
			lg.Error().Err(err).Msg("submission failed")
			fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgUnexpected)
		}
		return
	}

	// 8) done
	ok(c, http.StatusOK, FormSubmissionResponse{Success: true, Message: MsgSubmitted})
}

// FormPreflight godoc
// @ID          formPreflight
// @Summary     CORS preflight for form submissions
// @Tags        Forms
// @Success     204
// @Router      /form [options]
func (h *Handlers) FormPreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")
	noContent(c)
}

// decodeSubmission reads the body members one by one. Each member that does
// not decode into its Go type is left at its zero value.
func decodeSubmission(raw map[string]json.RawMessage) FormSubmissionRequest {
	var req FormSubmissionRequest
	lenient(raw, "fields", &req.Fields)
	lenient(raw, "formName", &req.FormName)
	lenient(raw, "hubspotPortalId", &req.HubSpotPortalID)
	lenient(raw, "hubspotFormId", &req.HubSpotFormID)
	lenient(raw, "pageSlug", &req.PageSlug)
	lenient(raw, "pageUrl", &req.PageURL)
	lenient(raw, "gdprConsent", &req.GDPRConsent)
	lenient(raw, "submissionTime", &req.SubmissionTime)
	lenient(raw, "customerio", &req.CustomerIO)
	return req
}

// lenient decodes raw[key] into dst only when the whole value fits.
func lenient[T any](raw map[string]json.RawMessage, key string, dst *T) {
	v, found := raw[key]
	if !found {
		return
	}
	var tmp T
	if json.Unmarshal(v, &tmp) == nil {
		*dst = tmp
	}
}

// fillTime converts the client-reported milliseconds to the detector input,
// saturating at the int64 range.
func fillTime(ms *float64) *int64 {
	if ms == nil {
		return nil
	}
	var v int64
	switch {
	case *ms >= math.MaxInt64:
		v = math.MaxInt64
	case *ms <= math.MinInt64:
		v = math.MinInt64
	default:
		v = int64(*ms)
	}
	return &v
}
