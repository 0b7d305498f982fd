package security

import (
	"net/http"
	"regexp"
	"time"
)

// Bot classification reasons.
const (
	ReasonBadUserAgent = "Missing or invalid user agent"
	ReasonBotUserAgent = "Bot user agent detected"
	ReasonTooFast      = "Form submitted too quickly"
)

// DefaultMinFillTime is the fastest plausible human form completion.
const DefaultMinFillTime = 2 * time.Second

var botUserAgent = regexp.MustCompile(`(?i)bot|crawler|spider|scraper|curl|wget|python-requests|httpx|node-fetch`)

// BotDetectionResult is produced fresh for each submission.
type BotDetectionResult struct {
	IsBot  bool
	Reason string
}

// Detector flags submissions that look automated. Detection is advisory:
// false negatives are expected.
type Detector struct {
	// Production enables user-agent signature matching. It is off elsewhere
	// so curl and test clients keep working during development.
	Production bool
	// MinFillTime is the render-to-submit floor; zero means DefaultMinFillTime.
	MinFillTime time.Duration
}

// Detect inspects request headers and the client-reported fill time in
// milliseconds (nil when the client did not send one).
func (d Detector) Detect(h http.Header, submissionTimeMs *int64) BotDetectionResult {
	ua := h.Get("User-Agent")
	if len(ua) < 10 {
		return BotDetectionResult{IsBot: true, Reason: ReasonBadUserAgent}
	}

	if d.Production && botUserAgent.MatchString(ua) {
		return BotDetectionResult{IsBot: true, Reason: ReasonBotUserAgent}
	}

	floor := d.MinFillTime
	if floor <= 0 {
		floor = DefaultMinFillTime
	}
	if submissionTimeMs != nil && *submissionTimeMs < floor.Milliseconds() {
		return BotDetectionResult{IsBot: true, Reason: ReasonTooFast}
	}

	return BotDetectionResult{}
}
