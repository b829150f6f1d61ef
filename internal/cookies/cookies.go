// Package cookies implements the page-view cookie persistence policy: which
// of the two identifier cookies and the channel cookie to write, and with
// what attributes.
package cookies

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stape-io/awin-conversion-api-tag/internal/channel"
	"github.com/stape-io/awin-conversion-api-tag/internal/clickid"
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/consent"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

const secondsPerDay = 60 * 60 * 24

// PageViewWrites computes the cookies a page view should set. Returns nil
// when consent is declined and the visit is not exempt via the
// secondary-network marker.
func PageViewWrites(tag *config.Tag, ctx *event.Context) []*fiber.Cookie {
	exempt := isJourneyExempt(tag, ctx)
	if !exempt && consent.Declined(tag, ctx) {
		return nil
	}

	var writes []*fiber.Cookie

	if id, ok := clickid.FromURL(ctx.URL()); ok && id != "" {
		name := clickid.CookieAwc
		if exempt {
			name = clickid.CookieSnAwc
		}
		writes = append(writes, newCookie(tag, name, id))
	}

	existing := channel.FromCookie(tag, ctx)
	fresh, ok := channel.Classify(tag, ctx)
	// Overwrite only when something fresh was produced, and either no
	// classification is persisted yet or the fresh one is more specific
	// than direct.
	shouldOverwrite := existing != "" && ok && fresh != channel.Direct
	if ok && (existing == "" || shouldOverwrite) {
		writes = append(writes, newCookie(tag, channel.CookieName, string(fresh)))
	}

	return writes
}

// isJourneyExempt reports the cashback exemption: tracking enabled and the
// URL carrying the secondary-network marker sn=1.
func isJourneyExempt(tag *config.Tag, ctx *event.Context) bool {
	if !tag.EnableCashbackTracking {
		return false
	}
	return queryParam(ctx.URL(), "sn") == "1"
}

// queryParam returns one query parameter of a raw URL, empty on any miss.
func queryParam(rawURL, name string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(name)
}

func newCookie(tag *config.Tag, name, value string) *fiber.Cookie {
	days := tag.CookieExpiration
	if days <= 0 {
		days = config.DefaultCookieExpirationDays
	}
	maxAge := days * secondsPerDay
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   tag.CookieDomain, // empty leaves the host-matched default
		MaxAge:   maxAge,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		Secure:   true,
		HTTPOnly: tag.CookieHTTPOnly,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
