package order

import (
	"strings"

	"github.com/spf13/cast"
)

// DefaultCommissionGroupCode is applied when no group is configured.
const DefaultCommissionGroupCode = "DEFAULT"

// Commission groups arrive as one of three shapes: a list of {code, amount}
// entries, a "code:amount|code:amount" string (or a bare group code), or
// nothing. The shape is resolved once here into the canonical list; each
// shape has its own constructor.
func assembleCommissionGroups(value any, orderAmount *float64) []CommissionGroup {
	switch v := value.(type) {
	case []CommissionGroup:
		return v
	case []any:
		return groupsFromList(v)
	case string:
		return groupsFromString(v, orderAmount)
	default:
		return defaultGroups(orderAmount)
	}
}

// groupsFromList takes configured {code, amount} entries verbatim.
func groupsFromList(entries []any) []CommissionGroup {
	groups := make([]CommissionGroup, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		groups = append(groups, CommissionGroup{
			Code:   cast.ToString(m["code"]),
			Amount: cast.ToFloat64(m["amount"]),
		})
	}
	return groups
}

// groupsFromString parses "code:amount|code:amount" pairs; a bare string
// without ':' names a single group carrying the whole order amount.
func groupsFromString(s string, orderAmount *float64) []CommissionGroup {
	if strings.Contains(s, ":") {
		var groups []CommissionGroup
		for _, pair := range strings.Split(s, "|") {
			parts := strings.SplitN(pair, ":", 2)
			group := CommissionGroup{Code: parts[0]}
			if len(parts) == 2 {
				group.Amount = cast.ToFloat64(parts[1])
			}
			groups = append(groups, group)
		}
		return groups
	}
	if orderAmount != nil {
		return []CommissionGroup{{Code: s, Amount: *orderAmount}}
	}
	return nil
}

// defaultGroups is the fallback single DEFAULT group over the order amount.
func defaultGroups(orderAmount *float64) []CommissionGroup {
	group := CommissionGroup{Code: DefaultCommissionGroupCode}
	if orderAmount != nil {
		group.Amount = *orderAmount
	}
	return []CommissionGroup{group}
}
