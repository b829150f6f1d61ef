package order

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cast"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

// assembleBasket normalizes the basket lines from either the configured
// override or the event's item list. A string-encoded basket is parsed as
// JSON; parse failure means no basket (never an error). Per-line required
// fields are carried through as-is here; completeness is the validator's
// concern.
func assembleBasket(tag *config.Tag, ctx *event.Context, logger *slog.Logger) []BasketItem {
	source := tag.Basket
	if source == nil {
		if len(ctx.Items) == 0 {
			return nil
		}
		items := make([]any, 0, len(ctx.Items))
		for _, item := range ctx.Items {
			items = append(items, map[string]any(item))
		}
		source = items
	}

	if encoded, ok := source.(string); ok {
		var decoded []any
		if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
			logger.Warn("Failed to parse basket JSON, treating as absent",
				slog.Any("error", err))
			return nil
		}
		source = decoded
	}

	entries, ok := source.([]any)
	if !ok || len(entries) == 0 {
		return nil
	}

	basket := make([]BasketItem, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		basket = append(basket, basketItemFrom(m))
	}
	if len(basket) == 0 {
		return nil
	}
	return basket
}

// basketItemFrom maps one raw item, accepting both ga4-style (item_id,
// item_name, ...) and plain field names. The id mirrors into the sku unless
// an explicit sku is present.
func basketItemFrom(m map[string]any) BasketItem {
	item := BasketItem{}

	if id := firstValid(m, "item_id", "id"); id != nil {
		item.ID = cast.ToString(id)
		item.SKU = item.ID
	}
	if name := firstValid(m, "item_name", "name"); name != nil {
		item.Name = cast.ToString(name)
	}
	if price, ok := m["price"]; ok && config.IsValidValue(price) {
		if parsed, err := cast.ToFloat64E(price); err == nil {
			item.Price = &parsed
		}
	}
	if quantity, ok := m["quantity"]; ok {
		item.Quantity = cast.ToInt(quantity)
	}

	if category := firstValid(m, "item_category", "category"); category != nil {
		item.Category = cast.ToString(category)
	}
	if sku := firstValid(m, "item_sku", "sku"); sku != nil {
		item.SKU = cast.ToString(sku)
	}
	if code := firstValid(m, "commission_group_code", "commissionGroupCode"); code != nil {
		item.CommissionGroupCode = cast.ToString(code)
	} else {
		item.CommissionGroupCode = DefaultCommissionGroupCode
	}

	return item
}

// firstValid returns the first truthy value among the named keys.
func firstValid(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && config.IsValidValue(v) {
			if s, isString := v.(string); isString && s == "" {
				continue
			}
			return v
		}
	}
	return nil
}
