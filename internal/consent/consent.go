// Package consent answers whether tracking is permitted for an event.
//
// Two signals exist: an explicit per-parameter consent-state structure and
// the compact consent string (e.g. "G110") whose characters encode storage
// grants positionally. Absence of any signal defaults to permitted.
package consent

import (
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

// Character position of each storage parameter within the compact consent
// signal string.
var gcsPosition = map[string]int{
	"analytics_storage": 3,
	"ad_storage":        2,
}

// Declined reports whether the visitor has declined cookie consent under
// the configured detection mode. Never errors; missing signals mean "not
// declined".
func Declined(tag *config.Tag, ctx *event.Context) bool {
	switch tag.ConsentDetection {
	case config.ConsentDetectionAuto:
		param := tag.ConsentAutoParameter
		if param == "" {
			return false
		}
		if ctx.ConsentState != nil {
			if granted, ok := ctx.ConsentState[param].(bool); ok && !granted {
				return true
			}
		}
		if pos, ok := gcsPosition[param]; ok && signalAt(ctx.GCS, pos) == '0' {
			return true
		}
		return false
	case config.ConsentDetectionManual:
		return config.IsFalsyToken(tag.ConsentManualValue)
	default:
		return false
	}
}

// ExecutionAllowed is the global gate evaluated before anything else runs.
// When ad-storage consent is configured as required, it demands either an
// explicit consent-state grant or a '1' at the ad-storage position of the
// compact signal.
func ExecutionAllowed(tag *config.Tag, ctx *event.Context) bool {
	if tag.AdStorageConsent != config.AdStorageConsentRequired {
		return true
	}
	if ctx.ConsentState != nil {
		return truthy(ctx.ConsentState["ad_storage"])
	}
	return signalAt(ctx.GCS, gcsPosition["ad_storage"]) == '1'
}

// truthy mirrors the loose boolean coercion the consent-state structure is
// read with: false, nil, empty string and zero all count as not granted.
func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	case int:
		return value != 0
	default:
		return true
	}
}

// signalAt returns the byte at the given position of the compact consent
// string, or 0 when the string is too short.
func signalAt(signal string, pos int) byte {
	if pos < 0 || pos >= len(signal) {
		return 0
	}
	return signal[pos]
}
