package config

import (
	"fmt"

	"github.com/yndnr/geminid/internal/infra/confloader"
)

// Load reads path (if non-empty) and GEMINID_* environment overrides
// over the defaults, then verifies the result.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()

	var opts []confloader.Option
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
