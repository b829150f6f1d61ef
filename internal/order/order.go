// Package order assembles the normalized conversion payload from event
// attributes and tag configuration, and validates it against the required
// field contracts before dispatch.
package order

import (
	"log/slog"

	"github.com/spf13/cast"
	"golang.org/x/text/currency"

	"github.com/stape-io/awin-conversion-api-tag/internal/channel"
	"github.com/stape-io/awin-conversion-api-tag/internal/clickid"
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

// DefaultChannel is the channel credited when neither an override nor a
// persisted classification exists.
const DefaultChannel = "aw"

// CommissionGroup is one code/amount commission split.
type CommissionGroup struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount,omitempty"`
}

// BasketItem is one normalized basket line. Pointer price and zero quantity
// encode absence so validation can tell a missing field from a zero one.
type BasketItem struct {
	ID                  string   `json:"id,omitempty"`
	SKU                 string   `json:"sku,omitempty"`
	Name                string   `json:"name,omitempty"`
	Price               *float64 `json:"price,omitempty"`
	Quantity            int      `json:"quantity,omitempty"`
	Category            string   `json:"category,omitempty"`
	CommissionGroupCode string   `json:"commissionGroupCode"`
}

// Order is the assembled conversion record. Built once per conversion
// event; immutable once validated.
type Order struct {
	OrderReference      string            `json:"orderReference,omitempty"`
	Amount              *float64          `json:"amount,omitempty"`
	Currency            string            `json:"currency,omitempty"`
	Channel             string            `json:"channel,omitempty"`
	CommissionGroups    []CommissionGroup `json:"commissionGroups,omitempty"`
	Voucher             string            `json:"voucher,omitempty"`
	Awc                 string            `json:"awc,omitempty"`
	PublisherID         int               `json:"publisherId,omitempty"`
	ClickTime           int64             `json:"clickTime,omitempty"`
	CustomerAcquisition string            `json:"customerAcquisition,omitempty"`
	TransactionTime     int64             `json:"transactionTime,omitempty"`
	IsTest              bool              `json:"isTest"`
	Basket              []BasketItem      `json:"basket,omitempty"`
	Custom              map[string]any    `json:"custom"`
}

// Webhook is the optional sibling target of the order payload.
type Webhook struct {
	URL string `json:"url"`
}

// Request is the body sent to the conversion endpoint.
type Request struct {
	Orders  []Order  `json:"orders"`
	Webhook *Webhook `json:"webhook,omitempty"`
}

// Order for convenience: the single order every request carries.
func (r *Request) Order() *Order {
	return &r.Orders[0]
}

// Assemble merges the tag configuration and event attributes into the
// request payload. Per field, the explicit override wins, then the event
// attribute, then (for the channel) the persisted classification with the
// "aw" fallback. Malformed optional inputs degrade to absence, never to an
// error.
func Assemble(tag *config.Tag, ctx *event.Context, containerID string, logger *slog.Logger) *Request {
	ord := Order{}

	orderReference := tag.OrderReference
	if orderReference == "" {
		orderReference = ctx.TransactionID
	}
	ord.OrderReference = orderReference

	if tag.Amount != nil {
		ord.Amount = tag.Amount
	} else if config.IsValidValue(ctx.Value) {
		if amount, err := cast.ToFloat64E(ctx.Value); err == nil {
			ord.Amount = &amount
		}
	}

	ord.Currency = tag.Currency
	if ord.Currency == "" {
		ord.Currency = ctx.Currency
	}
	if ord.Currency != "" {
		if _, err := currency.ParseISO(ord.Currency); err != nil {
			logger.Warn("Currency is not a known ISO 4217 code",
				slog.String("currency", ord.Currency))
		}
	}

	if tag.Channel != nil {
		ord.Channel = *tag.Channel
	} else if persisted := channel.FromCookie(tag, ctx); persisted != "" {
		ord.Channel = persisted
	} else {
		ord.Channel = DefaultChannel
		logger.Debug("No channel override or persisted classification, defaulting",
			slog.String("channel", DefaultChannel))
	}

	ord.CommissionGroups = assembleCommissionGroups(tag.CommissionGroups, ord.Amount)

	if tag.Voucher != nil {
		ord.Voucher = *tag.Voucher
	} else {
		ord.Voucher = ctx.Coupon
	}

	if id, ok := clickid.ForConversion(tag, ctx); ok && id != "" {
		ord.Awc = id
	}

	if tag.PublisherID != nil && *tag.PublisherID != 0 {
		ord.PublisherID = *tag.PublisherID
	}
	if tag.ClickTime != nil && *tag.ClickTime != 0 {
		ord.ClickTime = *tag.ClickTime
	}
	ord.CustomerAcquisition = tag.CustomerAcquisition
	if tag.TransactionTime != nil && *tag.TransactionTime != 0 {
		ord.TransactionTime = *tag.TransactionTime
	}
	ord.IsTest = config.IsUIFieldTrue(tag.IsTest)

	ord.Basket = assembleBasket(tag, ctx, logger)
	ord.Custom = assembleCustomParameters(tag.CustomParameters, containerID)

	req := &Request{Orders: []Order{ord}}
	if tag.WebhookURL != "" {
		req.Webhook = &Webhook{URL: tag.WebhookURL}
	}
	return req
}
