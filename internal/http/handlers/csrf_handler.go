package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CoolAssPuppy/landing-pages/internal/http/middleware"
)

// CSRFResponse carries a freshly issued anti-forgery token.
type CSRFResponse struct {
	Token string `json:"token" example:"3f9a...e1.1760000000000.9c4b...0d"`
	// ExpiresAt is the expiry instant in epoch milliseconds.
	ExpiresAt int64 `json:"expiresAt" example:"1760003600000"`
}

// IssueCSRF godoc
// @ID          issueCSRF
// @Summary     Issue an anti-forgery token
// @Description Returns a signed token valid for one hour. Send it back in the X-CSRF-Token header when submitting a form.
// @Tags        Forms
// @Produce     json
// @Success     200  {object}  handlers.CSRFResponse
// @Failure     429  {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /csrf [get]
func (h *Handlers) IssueCSRF(c *gin.Context) {
	tok, err := h.tokens.Issue()
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("csrf token issue failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgUnexpected)
		return
	}

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	ok(c, http.StatusOK, CSRFResponse{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt.UnixMilli(),
	})
}

// CSRFPreflight godoc
// @ID          csrfPreflight
// @Summary     CORS preflight for the token endpoint
// @Tags        Forms
// @Success     204
// @Router      /csrf [options]
func (h *Handlers) CSRFPreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	noContent(c)
}
