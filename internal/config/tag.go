package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Defaults for tag fields the original leaves user-editable.
const (
	DefaultCookieExpirationDays    = 365
	DefaultDeduplicationParameters = "source"
	DefaultAwinSourceValues        = "awin,aw"
)

// Consent detection modes
const (
	ConsentDetectionOff    = ""
	ConsentDetectionAuto   = "auto"
	ConsentDetectionManual = "manual"
)

// AdStorageConsentRequired is the value of AdStorageConsent that turns the
// global execution gate on.
const AdStorageConsentRequired = "required"

// CustomParameter is one user-configured custom key/value entry.
type CustomParameter struct {
	Key   string `mapstructure:"key" json:"key"`
	Value any    `mapstructure:"value" json:"value"`
}

// Tag is the per-invocation tag configuration. Pointer fields distinguish
// "explicitly supplied" from "absent"; for those fields an explicitly
// supplied empty value changes behavior (e.g. click id resolution).
type Tag struct {
	AdvertiserID string `mapstructure:"advertiserId"`
	APIKey       string `mapstructure:"apiKey"`

	// Consent
	ConsentDetection     string `mapstructure:"cookieConsentDetection"` // "", "auto", "manual"
	ConsentAutoParameter string `mapstructure:"cookieConsentAutoParameter"`
	ConsentManualValue   any    `mapstructure:"cookieConsentManualValue"`
	AdStorageConsent     string `mapstructure:"adStorageConsent"`

	// Order field overrides
	OrderReference      string   `mapstructure:"orderReference"`
	Amount              *float64 `mapstructure:"amount"`
	Currency            string   `mapstructure:"currency"`
	Channel             *string  `mapstructure:"channel"`
	Voucher             *string  `mapstructure:"voucher"`
	ClickIDAwc          *string  `mapstructure:"clickIdAwc"`
	ClickIDSnAwc        *string  `mapstructure:"clickIdSnAwc"`
	PublisherID         *int     `mapstructure:"publisherId"`
	ClickTime           *int64   `mapstructure:"clickTime"`
	TransactionTime     *int64   `mapstructure:"transactionTime"`
	CustomerAcquisition string   `mapstructure:"customerAcquisition"`
	IsTest              any      `mapstructure:"isTest"`

	// CommissionGroups accepts a list of {code, amount} entries or a
	// "code:amount|code:amount" string or a bare group code.
	CommissionGroups any `mapstructure:"commissionGroups"`
	// Basket accepts a list of items or a JSON-encoded string of one.
	Basket           any               `mapstructure:"basket"`
	CustomParameters []CustomParameter `mapstructure:"customParameters"`
	WebhookURL       string            `mapstructure:"webhookUrl"`

	// Channel deduplication
	ConsiderAwinClickIDsAsAwinSourceChannel bool   `mapstructure:"considerAwinClickIdsAsAwinSourceChannel"`
	DeduplicationQueryParameterNames        string `mapstructure:"deduplicationQueryParameterNames"`
	AwinSourceValues                        string `mapstructure:"awinSourceValues"`
	IncludeOrganicTraffic                   bool   `mapstructure:"includeOrganicTraffic"`
	CustomOrganicSources                    string `mapstructure:"customOrganicSources"`
	EnableCashbackTracking                  bool   `mapstructure:"enableCashbackTracking"`

	// Cookie attributes
	CookieDomain     string `mapstructure:"cookieDomain"` // empty means host-matched
	CookieExpiration int    `mapstructure:"cookieExpiration"`
	CookieHTTPOnly   bool   `mapstructure:"cookieHttpOnly"`

	// Behavior toggles
	UseOptimisticScenario any    `mapstructure:"useOptimisticScenario"`
	LogType               string `mapstructure:"logType"`         // "", "no", "debug", "always"
	BigQueryLogType       string `mapstructure:"bigQueryLogType"` // "no", "always"
	BigQueryProjectID     string `mapstructure:"logBigQueryProjectId"`
	BigQueryDatasetID     string `mapstructure:"logBigQueryDatasetId"`
	BigQueryTableID       string `mapstructure:"logBigQueryTableId"`
}

// TagFor returns a copy of the static tag configuration with the given
// per-request overrides merged on top. Only keys present in the override
// map change the copy, which preserves the supplied-vs-absent distinction
// of the pointer fields.
func (c *Config) TagFor(overrides map[string]any) (*Tag, error) {
	tag := c.Tag
	if len(overrides) == 0 {
		return &tag, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &tag,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build override decoder: %w", err)
	}
	if err := decoder.Decode(overrides); err != nil {
		return nil, fmt.Errorf("failed to apply config overrides: %w", err)
	}
	return &tag, nil
}
