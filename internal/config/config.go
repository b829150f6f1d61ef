// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the service plus the
// static tag configuration applied to every incoming event.
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// Identifies this deployment in the reserved custom parameter and in
	// audit records. Plays the role of the tagging container id.
	ContainerID string `mapstructure:"containerid"`
	// PreviewMode marks the deployment as a debug/preview build, which is
	// what the default console-log policy keys off.
	PreviewMode bool `mapstructure:"previewmode"`

	// Optional API key required on inbound event requests. Empty disables
	// inbound authentication.
	InboundAPIKey string `mapstructure:"inboundapikey"`

	// Audit logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Warehouse sink database location (sqlite) and row retention
	WarehousePath          string `mapstructure:"warehousepath"`
	WarehouseRetentionDays int    `mapstructure:"warehouseretentiondays"`

	// Static tag configuration; per-request overrides are merged on top.
	Tag Tag `mapstructure:"tag"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.Mutex
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		loaded, err := Load()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	})
	return cfg
}

// SetConfig replaces the singleton configuration. Test use only.
func SetConfig(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	once.Do(func() {})
	cfg = c
}

// Load reads configuration from the environment and an optional config file.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("appname", "awintag")
	v.SetDefault("appport", "3000")
	v.SetDefault("environment", Development)
	v.SetDefault("loglevel", string(LogLevelDebug))
	v.SetDefault("containerid", "standalone")
	v.SetDefault("logsdir", "logs")
	v.SetDefault("logsmaxsizeinmb", 20)
	v.SetDefault("logsmaxbackups", 10)
	v.SetDefault("logsmaxageindays", 30)
	v.SetDefault("warehousepath", "storage")
	v.SetDefault("warehouseretentiondays", 90)
	v.SetDefault("tag.cookieexpiration", DefaultCookieExpirationDays)
	v.SetDefault("tag.deduplicationqueryparameternames", DefaultDeduplicationParameters)
	v.SetDefault("tag.awinsourcevalues", DefaultAwinSourceValues)

	// Bind environment variables
	v.BindEnv("appname", "AWINTAG_APP_NAME")
	v.BindEnv("appport", "AWINTAG_APP_PORT")
	v.BindEnv("environment", "AWINTAG_ENV")
	v.BindEnv("loglevel", "AWINTAG_LOG_LEVEL")
	v.BindEnv("containerid", "AWINTAG_CONTAINER_ID")
	v.BindEnv("previewmode", "AWINTAG_PREVIEW_MODE")
	v.BindEnv("inboundapikey", "AWINTAG_INBOUND_API_KEY")
	v.BindEnv("logsdir", "AWINTAG_LOGS_DIR")
	v.BindEnv("logsmaxsizeinmb", "AWINTAG_LOGS_MAX_SIZE_IN_MB")
	v.BindEnv("logsmaxbackups", "AWINTAG_LOGS_MAX_BACKUPS")
	v.BindEnv("logsmaxageindays", "AWINTAG_LOGS_MAX_AGE_IN_DAYS")
	v.BindEnv("warehousepath", "AWINTAG_WAREHOUSE_PATH")
	v.BindEnv("warehouseretentiondays", "AWINTAG_WAREHOUSE_RETENTION_DAYS")
	v.BindEnv("tag.advertiserid", "AWINTAG_ADVERTISER_ID")
	v.BindEnv("tag.apikey", "AWINTAG_API_KEY")

	// Tag settings beyond credentials are richer than env vars express
	// comfortably, so a config file is supported as well.
	v.SetConfigName("awintag")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/awintag")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}
	return nil
}

// WarehouseDatabasePath returns the sqlite file backing the warehouse sink.
func (c *Config) WarehouseDatabasePath() string {
	return filepath.Join(c.WarehousePath,
		fmt.Sprintf("%s-%s-audit.db", c.AppName, c.Environment))
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// IsDebug reports whether this deployment counts as a debug/preview build
// for log-enablement purposes.
func (c *Config) IsDebug() bool {
	return c.PreviewMode || !c.IsProduction()
}
