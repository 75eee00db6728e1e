package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/geminid/internal/infra/buildinfo"
	"github.com/yndnr/geminid/internal/infra/confloader"
	"github.com/yndnr/geminid/internal/infra/shutdown"
	"github.com/yndnr/geminid/internal/server/config"
	"github.com/yndnr/geminid/internal/server/geminiserver"
	"github.com/yndnr/geminid/internal/server/httpserver"
	"github.com/yndnr/geminid/internal/server/sites"
	"github.com/yndnr/geminid/internal/telemetry/logger"
	"github.com/yndnr/geminid/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", buildinfo.Name, buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting geminid",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)
	log.Info("configuration loaded", config.Summary(cfg)...)

	if len(cfg.Sites) == 0 {
		log.Warn("no sites configured, all requests will be answered with 51")
	}

	metrics := metric.Global()

	set, err := sites.Build(cfg, sites.Options{Logger: log, Metrics: metrics})
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}

	keyLog, closeKeyLog, err := openKeyLog(cfg.TLS.KeyLogFile)
	if err != nil {
		set.Close()
		return fmt.Errorf("open key log: %w", err)
	}
	if keyLog != nil {
		log.Warn("TLS key logging enabled, session secrets are written to disk",
			"file", cfg.TLS.KeyLogFile)
	}

	gemini := geminiserver.New(&geminiserver.Config{
		Addr:             cfg.Server.Addr,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		MaxRequestLine:   cfg.Server.MaxRequestLine,
		StrictSNI:        cfg.Server.StrictSNI,
		KeyLog:           keyLog,
	}, set.Router, set.Resolver, metrics, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing sites")
		err := set.Close()
		if cerr := closeKeyLog(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return err
	})

	if err := gemini.Start(ctx); err != nil {
		set.Close()
		closeKeyLog()
		return fmt.Errorf("start gemini server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down gemini server")
		cancel()
		return gemini.Shutdown(ctx)
	})

	if cfg.Metrics.Enabled {
		ops, err := startOpsServer(cfg, set, gemini, metrics, log)
		if err != nil {
			shutdownHandler.Shutdown()
			return fmt.Errorf("start metrics server: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return ops.Shutdown(ctx)
		})
	}

	shutdownHandler.OnReload(func() {
		reload(*configFile, set, log)
	})

	if *configFile != "" {
		stopWatch, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config file watch disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return stopWatch()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// openKeyLog opens the NSS key log file for appending. An empty path
// disables key logging.
func openKeyLog(path string) (io.Writer, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func startOpsServer(cfg *config.ServerConfig, set *sites.Set, gemini *geminiserver.Server, metrics *metric.Registry, log logger.Logger) (*httpserver.Server, error) {
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics:   metrics,
		Logger:    logger.Slog(log),
		Ready:     func() bool { return gemini.Addr() != nil },
		Hosts:     set.Router.Hosts,
		AllowList: cfg.Metrics.Allow,
	})

	ln, err := net.Listen("tcp", cfg.Metrics.Addr)
	if err != nil {
		return nil, err
	}

	srv := httpserver.New(cfg.Metrics.Addr, router)
	go func() {
		log.Info("metrics server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()
	return srv, nil
}

// reload re-reads the log level and reloads every site certificate.
// The host set itself is fixed for the life of the process.
func reload(configFile string, set *sites.Set, log logger.Logger) {
	log.Info("reload requested")

	if configFile != "" {
		if cfg, err := config.Load(configFile); err != nil {
			log.Error("reload config", "error", err)
		} else {
			logger.SetLevel(cfg.Log.Level)
		}
	}

	for _, host := range set.Resolver.Hosts() {
		kp, _ := set.Resolver.Lookup(host)
		if err := kp.Reload(); err != nil {
			log.Error("reload certificate", "host", host, "error", err)
			continue
		}
		log.Info("certificate reloaded", "host", host)
	}
}

// watchConfig applies log level changes when the config file is written.
func watchConfig(path string, log logger.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("ignoring invalid config change", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			log.Info("log level changed", "from", logger.GetLevel(), "to", cfg.Log.Level)
			logger.SetLevel(cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w.Stop, nil
}
