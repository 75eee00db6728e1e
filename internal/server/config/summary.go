package config

// Summary returns key/value pairs describing cfg for the startup log.
//
// Certificate paths are included; the key log file is reported only as
// enabled or not.
func Summary(cfg *ServerConfig) []any {
	hosts := make([]string, 0, len(cfg.Sites))
	for _, s := range cfg.Sites {
		hosts = append(hosts, s.Host)
	}

	args := []any{
		"addr", cfg.Server.Addr,
		"sites", hosts,
		"strict_sni", cfg.Server.StrictSNI,
		"watch_certificates", cfg.TLS.WatchCertificates,
		"key_log", cfg.TLS.KeyLogFile != "",
	}
	if cfg.Server.MaxRequestLine > 0 {
		args = append(args, "max_request_line", cfg.Server.MaxRequestLine)
	}
	if cfg.Metrics.Enabled {
		args = append(args, "metrics_addr", cfg.Metrics.Addr)
	}
	return args
}
