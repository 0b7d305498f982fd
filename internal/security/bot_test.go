package security

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15"

func headersWithUA(ua string) http.Header {
	h := http.Header{}
	if ua != "" {
		h.Set("User-Agent", ua)
	}
	return h
}

func ms(v int64) *int64 { return &v }

func TestDetect_UserAgentPresence(t *testing.T) {
	d := Detector{}

	res := d.Detect(headersWithUA(""), nil)
	assert.True(t, res.IsBot)
	assert.Equal(t, ReasonBadUserAgent, res.Reason)

	res = d.Detect(headersWithUA("short/1.0"), nil) // 9 chars
	assert.True(t, res.IsBot)

	res = d.Detect(headersWithUA(browserUA), nil)
	assert.False(t, res.IsBot)
	assert.Empty(t, res.Reason)
}

func TestDetect_SignaturesOnlyInProduction(t *testing.T) {
	agents := []string{
		"Googlebot/2.1 (+http://www.google.com/bot.html)",
		"curl/8.4.0 (x86_64)",
		"Wget/1.21.4 (linux-gnu)",
		"python-requests/2.31.0",
		"python-httpx/0.27.0",
		"node-fetch/1.0 (+https://github.com/bitinn/node-fetch)",
		"SomeCrawler/1.0 compatible",
		"MySpider/3.0 compatible",
		"data-Scraper/0.1 compatible",
	}
	prod := Detector{Production: true}
	dev := Detector{Production: false}

	for _, ua := range agents {
		res := prod.Detect(headersWithUA(ua), nil)
		assert.True(t, res.IsBot, "prod should flag %q", ua)
		assert.Equal(t, ReasonBotUserAgent, res.Reason)

		assert.False(t, dev.Detect(headersWithUA(ua), nil).IsBot, "dev should allow %q", ua)
	}

	assert.False(t, prod.Detect(headersWithUA(browserUA), nil).IsBot)
}

func TestDetect_HoneypotTiming(t *testing.T) {
	d := Detector{}

	res := d.Detect(headersWithUA(browserUA), ms(1999))
	assert.True(t, res.IsBot)
	assert.Equal(t, ReasonTooFast, res.Reason)

	assert.False(t, d.Detect(headersWithUA(browserUA), ms(2000)).IsBot)
	assert.False(t, d.Detect(headersWithUA(browserUA), nil).IsBot)

	custom := Detector{MinFillTime: 5 * time.Second}
	assert.True(t, custom.Detect(headersWithUA(browserUA), ms(4000)).IsBot)
}
