package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/geminid/internal/core/domain"
)

// Verify validates the configuration.
//
// It checks shape only; certificate files and content directories are
// opened later by the components that use them.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return verifySites(cfg.Sites)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.HandshakeTimeout < 0 || cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if cfg.MaxRequestLine < 0 {
		return errors.New("server.max_request_line must not be negative")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	for _, entry := range cfg.Allow {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("metrics.allow: %w", err)
			}
		} else if net.ParseIP(entry) == nil {
			return fmt.Errorf("metrics.allow: %q is not an IP address", entry)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not json or text", cfg.Format)
	}
	return nil
}

func verifySites(sites []SiteConfig) error {
	seen := make(map[string]bool, len(sites))
	for i, s := range sites {
		if s.Host == "" {
			return fmt.Errorf("sites[%d].host is required", i)
		}
		if norm, err := domain.NormalizeHost(s.Host); err != nil {
			return fmt.Errorf("sites[%d]: host %s: %w", i, s.Host, err)
		} else if norm != s.Host {
			return fmt.Errorf("sites[%d]: host %s must be written as %s", i, s.Host, norm)
		}
		if seen[s.Host] {
			return fmt.Errorf("sites[%d]: host %s is configured more than once", i, s.Host)
		}
		seen[s.Host] = true

		if s.CertFile == "" || s.KeyFile == "" {
			return fmt.Errorf("site %s: cert_file and key_file are required", s.Host)
		}

		switch s.Source.Type {
		case SourceFlatDir:
			if s.Source.Directory == "" {
				return fmt.Errorf("site %s: source.directory is required for %s", s.Host, SourceFlatDir)
			}
		case SourceKV:
			if s.Source.DBDir == "" {
				return fmt.Errorf("site %s: source.db_dir is required for %s", s.Host, SourceKV)
			}
		case "":
			return fmt.Errorf("site %s: source.type is required", s.Host)
		default:
			return fmt.Errorf("site %s: unknown source.type %q", s.Host, s.Source.Type)
		}
	}
	return nil
}
