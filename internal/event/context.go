// Package event defines the immutable view of one incoming tracking event.
package event

// Kind discriminates the two supported event kinds.
type Kind string

const (
	KindPageView   Kind = "pageView"
	KindConversion Kind = "conversion"
)

// Item is one basket line as delivered by the event source. Field names
// vary between ecommerce schemas (item_id vs id, item_name vs name), so
// items stay dynamic until order assembly.
type Item map[string]any

// Context is a read-only view of the triggering event. It is created once
// per invocation and never mutated.
type Context struct {
	Kind    Kind
	TraceID string

	PageLocation   string
	PageReferrer   string
	RequestReferer string // Referer header, URL fallback when page_location is absent

	ConsentState map[string]any
	GCS          string // compact consent signal, e.g. "G110"

	TransactionID string
	Value         any
	Currency      string
	Coupon        string
	Items         []Item

	// CommonCookie mirrors cookie values forwarded inside the event body;
	// consulted when the request jar misses a name.
	CommonCookie map[string]any

	cookies map[string]string
}

// URL returns the page URL for this event, falling back to the request
// Referer header the way the original transport does.
func (c *Context) URL() string {
	if c.PageLocation != "" {
		return c.PageLocation
	}
	return c.RequestReferer
}

// Cookie returns the named cookie from the request jar, falling back to the
// event body's forwarded cookie map. Empty string means absent.
func (c *Context) Cookie(name string) string {
	if v, ok := c.cookies[name]; ok && v != "" {
		return v
	}
	if c.CommonCookie != nil {
		if v, ok := c.CommonCookie[name].(string); ok {
			return v
		}
	}
	return ""
}
