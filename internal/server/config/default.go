package config

// Default configuration values.
const (
	DefaultAddr        = "0.0.0.0:1965"
	DefaultMetricsAddr = "127.0.0.1:9165"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration. It has no sites.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr: DefaultAddr,
		},
		Metrics: MetricsSection{
			Addr: DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Example returns the default configuration with one sample site, as
// written by "geminictl config init".
func Example() *ServerConfig {
	cfg := Default()
	cfg.Sites = []SiteConfig{
		{
			Host:     "localhost",
			CertFile: "/etc/geminid/localhost.crt",
			KeyFile:  "/etc/geminid/localhost.key",
			Source: SourceConfig{
				Type:      SourceFlatDir,
				Directory: "/srv/gemini/localhost",
				AutoIndex: true,
			},
		},
	}
	return cfg
}
