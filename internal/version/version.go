// Package version exposes build and runtime identity.
package version

import (
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

// Version is overridden at build time via
// -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "dev"

// Info describes this deployment.
type Info struct {
	Version     string `json:"version"`
	ContainerID string `json:"containerId"`
	Environment string `json:"environment"`
	Debug       bool   `json:"debug"`
}

// Current returns the deployment identity for the given configuration.
func Current(cfg *config.Config) Info {
	return Info{
		Version:     Version,
		ContainerID: cfg.ContainerID,
		Environment: cfg.Environment,
		Debug:       cfg.IsDebug(),
	}
}
