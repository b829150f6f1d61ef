// Package channel classifies the acquisition channel of a visit so a
// conversion is credited at most once across marketing channels.
package channel

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/consent"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

// CookieName persists the last resolved classification.
const CookieName = "awin_source"

// Channel is one classification tag. The unresolved case (internal
// navigation, or no URL at all) is expressed by the ok=false return of
// Classify rather than a tag of its own.
type Channel string

const (
	Aw      Channel = "aw"      // this channel's own traffic
	Other   Channel = "other"   // a different paid channel
	Organic Channel = "organic" // organic search
	Direct  Channel = "direct"  // direct or unattributed
)

// Search-engine origin fragments used for organic detection.
var organicSources = []string{
	"google.", "bing.", "yahoo.", "yandex.", "duckduckgo.", "baidu.",
	"naver.", "qwant.", "ask.",
}

// Classify resolves the channel for the current visit. Precedence is fixed:
// Awin click parameters, configured deduplication parameters, internal
// navigation (unresolved), organic detection, direct. The internal check
// runs only after the parameter checks so ad clicks surviving an internal
// redirect keep their attribution.
func Classify(tag *config.Tag, ctx *event.Context) (Channel, bool) {
	rawURL := ctx.URL()
	if rawURL == "" {
		return "", false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	params := parsed.Query()

	if tag.ConsiderAwinClickIDsAsAwinSourceChannel &&
		(params.Get("awaid") != "" || params.Get("awc") != "") {
		return Aw, true
	}

	paramNames := config.ItemizeCommaSeparated(valueOr(tag.DeduplicationQueryParameterNames, config.DefaultDeduplicationParameters))
	sourceValues := config.ItemizeCommaSeparated(valueOr(tag.AwinSourceValues, config.DefaultAwinSourceValues))
	foundOtherPaidSource := false
	for _, name := range paramNames {
		value := params.Get(name)
		if value == "" {
			continue
		}
		if contains(sourceValues, value) {
			return Aw, true
		}
		foundOtherPaidSource = true
	}
	if foundOtherPaidSource {
		return Other, true
	}

	referrerOrigin := origin(ctx.PageReferrer)
	if referrerOrigin != "" && parsed.Hostname() != "" &&
		strings.Contains(referrerOrigin, registrableDomain(parsed.Hostname())) {
		// Internal navigation: never overwrite existing attribution.
		return "", false
	}

	if tag.IncludeOrganicTraffic && referrerOrigin != "" {
		fragments := append(append([]string{}, organicSources...),
			config.ItemizeCommaSeparated(tag.CustomOrganicSources)...)
		for _, fragment := range fragments {
			if strings.Contains(referrerOrigin, fragment) {
				return Organic, true
			}
		}
	}

	return Direct, true
}

// FromCookie reads the persisted classification, honoring the consent rules:
// with consent declined and cashback tracking off, the cookie is not read.
func FromCookie(tag *config.Tag, ctx *event.Context) string {
	if consent.Declined(tag, ctx) && !tag.EnableCashbackTracking {
		return ""
	}
	return ctx.Cookie(CookieName)
}

// registrableDomain returns the eTLD+1 for a hostname, or the hostname
// itself when the public suffix list cannot resolve one.
func registrableDomain(hostname string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return hostname
	}
	return domain
}

// origin returns scheme://host for a URL, or empty when unparsable.
func origin(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
