package order

import (
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

// reservedCustomKey always identifies the integration/runtime version and
// cannot be overridden by configured entries.
const reservedCustomKey = "1"

// assembleCustomParameters seeds the reserved version key and layers the
// configured entries on top. Entries reusing the reserved key or carrying
// an invalid key or value are silently dropped.
func assembleCustomParameters(params []config.CustomParameter, containerID string) map[string]any {
	custom := map[string]any{
		reservedCustomKey: "gtm_s2s_stape_" + containerID,
	}
	for _, p := range params {
		if p.Key == reservedCustomKey || p.Key == "" || !config.IsValidValue(p.Value) {
			continue
		}
		custom[p.Key] = p.Value
	}
	return custom
}
