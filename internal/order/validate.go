package order

import (
	"fmt"
	"strings"
)

// Contract names reported on validation failure.
const (
	ContractBase        = "base"
	ContractAttribution = "attribution"
	ContractBasket      = "basket"
)

// ValidationError names the unmet contract and its required fields. The
// reason string mirrors the audit log wording of the tag.
type ValidationError struct {
	Contract string
	Missing  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s contract unmet: %s", e.Contract, strings.Join(e.Missing, " or "))
}

// Reason is the human-readable rejection message for the audit log.
func (e *ValidationError) Reason() string {
	return "One or more required parameters are missing: " + strings.Join(e.Missing, " or ")
}

// Validate checks the assembled request against the three required-field
// contracts. The base contract short-circuits the rest; the attribution
// contract needs any one of its three alternatives fully satisfied; the
// basket contract applies only when a basket exists. Nil means dispatchable.
func Validate(req *Request) *ValidationError {
	ord := req.Order()

	baseRequired := []string{"orderReference", "amount", "currency", "commissionGroups", "channel"}
	if ord.OrderReference == "" || ord.Amount == nil || ord.Currency == "" ||
		len(ord.CommissionGroups) == 0 || ord.Channel == "" {
		return &ValidationError{Contract: ContractBase, Missing: baseRequired}
	}

	hasClickID := ord.Awc != ""
	hasVoucher := ord.Voucher != ""
	hasPublisherPair := ord.PublisherID != 0 && ord.ClickTime != 0
	if !hasClickID && !hasVoucher && !hasPublisherPair {
		return &ValidationError{
			Contract: ContractAttribution,
			Missing:  []string{"awc", "voucher", "publisherId,clickTime"},
		}
	}

	if len(ord.Basket) > 0 {
		for _, item := range ord.Basket {
			if item.ID == "" || item.Name == "" || item.Price == nil || item.Quantity == 0 {
				return &ValidationError{
					Contract: ContractBasket,
					Missing:  []string{"id", "name", "price", "quantity"},
				}
			}
		}
	}

	return nil
}
