package event

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cast"
)

//go:embed request.schema.json
var requestSchema string

var compiledSchema = jsonschema.MustCompileString("request.schema.json", requestSchema)

// Envelope is the decoded inbound request body: the event kind, the event
// data, and optional per-request configuration overrides.
type Envelope struct {
	Type   string         `json:"type"`
	Event  map[string]any `json:"event"`
	Config map[string]any `json:"config"`
}

// DecodeEnvelope parses and schema-validates an inbound request body.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("request body failed schema validation: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return &env, nil
}

// BuildContext assembles the immutable event view from the decoded envelope
// plus transport attributes (trace id, Referer header, cookie jar).
func BuildContext(env *Envelope, traceID, requestReferer string, cookies map[string]string) *Context {
	data := env.Event
	if data == nil {
		data = map[string]any{}
	}

	ctx := &Context{
		Kind:           Kind(env.Type),
		TraceID:        traceID,
		PageLocation:   cast.ToString(data["page_location"]),
		PageReferrer:   cast.ToString(data["page_referrer"]),
		RequestReferer: requestReferer,
		GCS:            cast.ToString(data["x-ga-gcs"]),
		TransactionID:  firstString(data, "orderId", "order_id", "transaction_id"),
		Value:          data["value"],
		Currency:       firstString(data, "currency", "currencyCode"),
		Coupon:         cast.ToString(data["coupon"]),
		cookies:        cookies,
	}

	if consent, ok := data["consent_state"].(map[string]any); ok {
		ctx.ConsentState = consent
	}
	if common, ok := data["commonCookie"].(map[string]any); ok {
		ctx.CommonCookie = common
	}
	if items, ok := data["items"].([]any); ok {
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				ctx.Items = append(ctx.Items, Item(m))
			}
		}
	}

	return ctx
}

// firstString returns the first present, non-empty key coerced to a string.
func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}
