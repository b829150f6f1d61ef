package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ContainerID: "test-container",
		Tag: config.Tag{
			AdvertiserID:     "12345",
			APIKey:           "static-key",
			Currency:         "EUR",
			CookieExpiration: config.DefaultCookieExpirationDays,
		},
	}
}

func TestTagForWithoutOverridesCopiesStaticTag(t *testing.T) {
	cfg := baseConfig()

	tag, err := cfg.TagFor(nil)
	require.NoError(t, err)
	assert.Equal(t, "12345", tag.AdvertiserID)
	assert.Equal(t, "EUR", tag.Currency)

	// The copy is independent of the static configuration.
	tag.Currency = "USD"
	assert.Equal(t, "EUR", cfg.Tag.Currency)
}

func TestTagForMergesOnlySuppliedKeys(t *testing.T) {
	cfg := baseConfig()

	tag, err := cfg.TagFor(map[string]any{
		"currency": "GBP",
		"voucher":  "SUMMER10",
	})
	require.NoError(t, err)
	assert.Equal(t, "GBP", tag.Currency)
	assert.Equal(t, "static-key", tag.APIKey)
	require.NotNil(t, tag.Voucher)
	assert.Equal(t, "SUMMER10", *tag.Voucher)

	// Fields absent from the overrides keep their absent state.
	assert.Nil(t, tag.ClickIDAwc)
	assert.Nil(t, tag.Amount)
}

func TestTagForPreservesExplicitEmptyValues(t *testing.T) {
	cfg := baseConfig()

	// An explicitly supplied empty click id is distinct from an absent one.
	tag, err := cfg.TagFor(map[string]any{"clickIdAwc": ""})
	require.NoError(t, err)
	require.NotNil(t, tag.ClickIDAwc)
	assert.Equal(t, "", *tag.ClickIDAwc)
}

func TestTagForCoercesWeaklyTypedInput(t *testing.T) {
	cfg := baseConfig()

	tag, err := cfg.TagFor(map[string]any{
		"amount":      "99.90",
		"publisherId": "777",
		"clickTime":   float64(1700000000),
	})
	require.NoError(t, err)
	require.NotNil(t, tag.Amount)
	assert.Equal(t, 99.90, *tag.Amount)
	require.NotNil(t, tag.PublisherID)
	assert.Equal(t, 777, *tag.PublisherID)
	require.NotNil(t, tag.ClickTime)
	assert.Equal(t, int64(1700000000), *tag.ClickTime)
}

func TestIsUIFieldTrue(t *testing.T) {
	assert.True(t, config.IsUIFieldTrue(true))
	assert.True(t, config.IsUIFieldTrue("true"))
	assert.False(t, config.IsUIFieldTrue(false))
	assert.False(t, config.IsUIFieldTrue("yes"))
	assert.False(t, config.IsUIFieldTrue(nil))
	assert.False(t, config.IsUIFieldTrue(1))
}

func TestIsFalsyToken(t *testing.T) {
	for _, value := range []any{false, "false", "0", 0, float64(0)} {
		assert.True(t, config.IsFalsyToken(value), "%v", value)
	}
	for _, value := range []any{true, "true", "no", "", 1, nil} {
		assert.False(t, config.IsFalsyToken(value), "%v", value)
	}
}

func TestItemizeCommaSeparated(t *testing.T) {
	assert.Equal(t, []string{"awin", "aw"}, config.ItemizeCommaSeparated("awin,aw"))
	assert.Equal(t, []string{"a", "b"}, config.ItemizeCommaSeparated(" a , b , "))
	assert.Nil(t, config.ItemizeCommaSeparated(""))
}

func TestIsValidValue(t *testing.T) {
	assert.True(t, config.IsValidValue("x"))
	assert.True(t, config.IsValidValue(0))
	assert.True(t, config.IsValidValue(false))
	assert.False(t, config.IsValidValue(nil))
	assert.False(t, config.IsValidValue(""))
}
