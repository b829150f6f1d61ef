// Package clickid resolves the Awin click identifier for a visit or
// conversion from its competing sources: explicit field overrides, the
// persisted identifier cookies, and the page URL's query parameters.
package clickid

import (
	"net/url"
	"strings"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/consent"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

// Cookie names for the two persisted identifiers.
const (
	CookieAwc   = "awin_awc"
	CookieSnAwc = "awin_sn_awc"
)

// FromURL resolves a click identifier from the URL's query parameters.
// An `awc` parameter wins verbatim; otherwise a secondary-network id plus a
// gclid form the composite "gclid_<awaid>_<gclid>". The second return value
// reports whether anything resolved.
func FromURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	params := parsed.Query()
	if awc := params.Get("awc"); awc != "" {
		return awc, true
	}
	awaid, gclid := params.Get("awaid"), params.Get("gclid")
	if awaid != "" && gclid != "" {
		return "gclid_" + awaid + "_" + gclid, true
	}
	return "", false
}

// FromUIFields joins the explicitly supplied click id override fields,
// dropping empty and literal "0" values. The result may legitimately be
// empty: supplying the fields at all suppresses cookie and URL resolution.
func FromUIFields(tag *config.Tag) string {
	var values []string
	for _, field := range []*string{tag.ClickIDAwc, tag.ClickIDSnAwc} {
		if field != nil && *field != "" && *field != "0" {
			values = append(values, *field)
		}
	}
	return strings.Join(values, ",")
}

// ForConversion resolves the click identifier attached to a conversion.
// Explicitly supplied override fields take total precedence (even when they
// resolve empty); otherwise the persisted cookies are consulted under the
// consent rules, with URL resolution as the final fallback.
func ForConversion(tag *config.Tag, ctx *event.Context) (string, bool) {
	if tag.ClickIDAwc != nil || tag.ClickIDSnAwc != nil {
		return FromUIFields(tag), true
	}
	return fromCookies(tag, ctx)
}

// fromCookies resolves from the persisted identifier cookies. With consent
// declined, only the secondary-network cookie may be used and only when
// cashback tracking is enabled.
func fromCookies(tag *config.Tag, ctx *event.Context) (string, bool) {
	awcCookie := ctx.Cookie(CookieAwc)
	snCookie := ctx.Cookie(CookieSnAwc)

	if !consent.Declined(tag, ctx) {
		var values []string
		for _, v := range []string{awcCookie, snCookie} {
			if v != "" {
				values = append(values, v)
			}
		}
		if joined := strings.Join(values, ","); joined != "" {
			return joined, true
		}
		return FromURL(ctx.URL())
	}

	if tag.EnableCashbackTracking {
		if snCookie != "" {
			return snCookie, true
		}
		return FromURL(ctx.URL())
	}

	return "", false
}
