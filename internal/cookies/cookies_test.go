package cookies_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/cookies"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
	"github.com/stape-io/awin-conversion-api-tag/internal/testsupport"
)

func findCookie(writes []*fiber.Cookie, name string) *fiber.Cookie {
	for _, c := range writes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestClickIdentifierCookieFromURL(t *testing.T) {
	tag := testsupport.TestTag()
	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/?awc=ABC123",
	}, nil)

	writes := cookies.PageViewWrites(tag, ctx)
	cookie := findCookie(writes, "awin_awc")
	require.NotNil(t, cookie)
	assert.Equal(t, "ABC123", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.Secure)
	assert.False(t, cookie.HTTPOnly)
	assert.Equal(t, fiber.CookieSameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 365*86400, cookie.MaxAge)
}

func TestCookieAttributesFromConfig(t *testing.T) {
	tag := testsupport.TestTag()
	tag.CookieDomain = "example.com"
	tag.CookieExpiration = 30
	tag.CookieHTTPOnly = true

	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/?awc=ABC123",
	}, nil)

	cookie := findCookie(cookies.PageViewWrites(tag, ctx), "awin_awc")
	require.NotNil(t, cookie)
	assert.Equal(t, "example.com", cookie.Domain)
	assert.True(t, cookie.HTTPOnly)
	assert.Equal(t, 30*86400, cookie.MaxAge)
}

func TestDeclinedConsentBlocksWrites(t *testing.T) {
	tag := testsupport.TestTag()
	tag.ConsentDetection = config.ConsentDetectionManual
	tag.ConsentManualValue = "0"

	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/?awc=ABC123",
	}, nil)

	assert.Nil(t, cookies.PageViewWrites(tag, ctx))
}

func TestCashbackExemptionWritesSecondaryNetworkCookie(t *testing.T) {
	tag := testsupport.TestTag()
	tag.ConsentDetection = config.ConsentDetectionManual
	tag.ConsentManualValue = "0"
	tag.EnableCashbackTracking = true

	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/?awc=ABC123&sn=1",
	}, nil)

	writes := cookies.PageViewWrites(tag, ctx)
	assert.Nil(t, findCookie(writes, "awin_awc"))
	cookie := findCookie(writes, "awin_sn_awc")
	require.NotNil(t, cookie)
	assert.Equal(t, "ABC123", cookie.Value)
}

func TestChannelCookieWrittenWhenAbsent(t *testing.T) {
	tag := testsupport.TestTag()
	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/",
	}, nil)

	cookie := findCookie(cookies.PageViewWrites(tag, ctx), "awin_source")
	require.NotNil(t, cookie)
	assert.Equal(t, "direct", cookie.Value)
}

func TestChannelCookieNeverDowngraded(t *testing.T) {
	tag := testsupport.TestTag()

	// A fresh direct classification must not replace an existing value.
	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/",
	}, map[string]string{"awin_source": "organic"})
	assert.Nil(t, findCookie(cookies.PageViewWrites(tag, ctx), "awin_source"))

	// A fresh paid classification always replaces direct.
	ctx = testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://shop.example.com/?source=awin",
	}, map[string]string{"awin_source": "direct"})
	cookie := findCookie(cookies.PageViewWrites(tag, ctx), "awin_source")
	require.NotNil(t, cookie)
	assert.Equal(t, "aw", cookie.Value)
}

func TestUnresolvedNeverOverwrites(t *testing.T) {
	tag := testsupport.TestTag()

	// Internal navigation: classification unresolved, existing cookie kept.
	ctx := testsupport.EventContext(event.KindPageView, map[string]any{
		"page_location": "https://example.com/thanks",
		"page_referrer": "https://example.com/checkout",
	}, map[string]string{"awin_source": "aw"})

	assert.Nil(t, findCookie(cookies.PageViewWrites(tag, ctx), "awin_source"))
}
