package config

import "time"

// Content source types.
const (
	SourceFlatDir = "flat_dir"
	SourceKV      = "kv"
)

// ServerConfig is the root configuration for geminid.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics"`
	TLS     TLSSection     `koanf:"tls" yaml:"tls"`
	Log     LogSection     `koanf:"log" yaml:"log"`
	Sites   []SiteConfig   `koanf:"sites" yaml:"sites"`
}

// ServerSection configures the Gemini listener.
//
// Zero timeouts and a zero MaxRequestLine disable the respective limit.
type ServerSection struct {
	Addr             string        `koanf:"addr" yaml:"addr"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	MaxRequestLine   int           `koanf:"max_request_line" yaml:"max_request_line"`

	// StrictSNI drops requests whose URL host differs from the TLS server name.
	StrictSNI bool `koanf:"strict_sni" yaml:"strict_sni"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`

	// Allow restricts /metrics and /sites to these IPs or CIDRs. Empty
	// allows everyone.
	Allow []string `koanf:"allow" yaml:"allow,omitempty"`
}

// TLSSection configures TLS behaviour shared by all sites.
type TLSSection struct {
	// KeyLogFile receives session secrets in NSS key log format. Debug only.
	KeyLogFile string `koanf:"key_log_file" yaml:"key_log_file"`

	// WatchCertificates reloads a site's key pair when its files change.
	WatchCertificates bool `koanf:"watch_certificates" yaml:"watch_certificates"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// SiteConfig configures one virtual host.
type SiteConfig struct {
	Host     string       `koanf:"host" yaml:"host"`
	CertFile string       `koanf:"cert_file" yaml:"cert_file"`
	KeyFile  string       `koanf:"key_file" yaml:"key_file"`
	Source   SourceConfig `koanf:"source" yaml:"source"`
}

// SourceConfig selects and configures a site's content source.
type SourceConfig struct {
	Type string `koanf:"type" yaml:"type"`

	// flat_dir
	Directory     string `koanf:"directory" yaml:"directory,omitempty"`
	AutoIndex     bool   `koanf:"auto_index" yaml:"auto_index,omitempty"`
	DisableFooter bool   `koanf:"disable_footer" yaml:"disable_footer,omitempty"`
	HideVersion   bool   `koanf:"hide_version" yaml:"hide_version,omitempty"`

	// kv
	DBDir string `koanf:"db_dir" yaml:"db_dir,omitempty"`
}
