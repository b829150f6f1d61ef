package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stape-io/awin-conversion-api-tag/internal/order"
	"github.com/stape-io/awin-conversion-api-tag/internal/testsupport"
)

func validOrder() order.Order {
	return order.Order{
		OrderReference:   "R1",
		Amount:           testsupport.F64(100),
		Currency:         "USD",
		Channel:          "aw",
		CommissionGroups: []order.CommissionGroup{{Code: "DEFAULT", Amount: 100}},
		Awc:              "CLICK_ID",
	}
}

func requestWith(ord order.Order) *order.Request {
	return &order.Request{Orders: []order.Order{ord}}
}

func TestValidOrderPasses(t *testing.T) {
	assert.Nil(t, order.Validate(requestWith(validOrder())))
}

func TestMissingCurrencyFailsBaseContractOnly(t *testing.T) {
	ord := validOrder()
	ord.Currency = ""
	// Also strip attribution so a wrong evaluation order would blame the
	// attribution contract instead.
	ord.Awc = ""

	verr := order.Validate(requestWith(ord))
	require.NotNil(t, verr)
	assert.Equal(t, order.ContractBase, verr.Contract)
	assert.Contains(t, verr.Reason(), "currency")
}

func TestAttributionContract(t *testing.T) {
	ord := validOrder()
	ord.Awc = ""

	verr := order.Validate(requestWith(ord))
	require.NotNil(t, verr)
	assert.Equal(t, order.ContractAttribution, verr.Contract)
	assert.Equal(t, "One or more required parameters are missing: awc or voucher or publisherId,clickTime", verr.Reason())

	// Any one alternative satisfies the contract.
	ord.Voucher = "SUMMER10"
	assert.Nil(t, order.Validate(requestWith(ord)))

	ord.Voucher = ""
	ord.PublisherID = 99
	verr = order.Validate(requestWith(ord))
	require.NotNil(t, verr) // publisher id alone is not enough

	ord.ClickTime = 1700000000
	assert.Nil(t, order.Validate(requestWith(ord)))
}

func TestBasketContract(t *testing.T) {
	ord := validOrder()
	ord.Basket = []order.BasketItem{
		{ID: "sku-1", Name: "Shoe", Price: testsupport.F64(59.9), Quantity: 2},
		{ID: "sku-2", Name: "Bag", Price: testsupport.F64(19.9)}, // quantity missing
	}

	verr := order.Validate(requestWith(ord))
	require.NotNil(t, verr)
	assert.Equal(t, order.ContractBasket, verr.Contract)

	ord.Basket[1].Quantity = 1
	assert.Nil(t, order.Validate(requestWith(ord)))

	// No basket means the contract does not apply.
	ord.Basket = nil
	assert.Nil(t, order.Validate(requestWith(ord)))
}

func TestEmptyCommissionGroupsFailBase(t *testing.T) {
	ord := validOrder()
	ord.CommissionGroups = nil

	verr := order.Validate(requestWith(ord))
	require.NotNil(t, verr)
	assert.Equal(t, order.ContractBase, verr.Contract)
}
