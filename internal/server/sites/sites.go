package sites

import (
	"errors"
	"fmt"

	"github.com/yndnr/geminid/internal/content"
	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/core/service"
	"github.com/yndnr/geminid/internal/infra/tlscert"
	"github.com/yndnr/geminid/internal/server/config"
	"github.com/yndnr/geminid/internal/telemetry/logger"
	"github.com/yndnr/geminid/internal/telemetry/metric"
)

// ErrNoStores is returned when a kv source is built without a store set.
var ErrNoStores = errors.New("sites: kv source requires a store set")

// Set is the assembled, immutable site configuration.
type Set struct {
	Router   *service.Router
	Resolver *tlscert.Resolver
	Stores   *Stores
}

// Options configures Build.
type Options struct {
	Logger  logger.Logger
	Metrics *metric.Registry
}

// Build loads every site's key pair and content source.
//
// Any certificate or source error aborts the build; stores opened so far
// are closed.
func Build(cfg *config.ServerConfig, opts Options) (*Set, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	pairs, err := LoadKeyPairs(cfg.Sites, opts.Logger)
	if err != nil {
		return nil, err
	}

	stores := NewStores(opts.Logger, opts.Metrics)
	vsites := make([]*domain.VirtualSite, 0, len(cfg.Sites))
	for _, sc := range cfg.Sites {
		src, err := NewSource(sc, stores)
		if err != nil {
			stores.Close()
			return nil, err
		}
		vsites = append(vsites, &domain.VirtualSite{
			Host:     sc.Host,
			CertFile: sc.CertFile,
			KeyFile:  sc.KeyFile,
			Source:   src,
		})
		opts.Logger.Debug("site configured",
			"host", sc.Host,
			"source", sc.Source.Type)
	}

	router, err := service.NewRouter(vsites)
	if err != nil {
		stores.Close()
		return nil, err
	}

	resolver := tlscert.NewResolver(pairs)
	if cfg.TLS.WatchCertificates {
		resolver.WatchAll()
	}

	return &Set{
		Router:   router,
		Resolver: resolver,
		Stores:   stores,
	}, nil
}

// Close stops certificate watchers and closes the document stores.
func (s *Set) Close() error {
	s.Resolver.StopAll()
	return s.Stores.Close()
}

// LoadKeyPairs loads the certificate and key of every site.
func LoadKeyPairs(sites []config.SiteConfig, log logger.Logger) (map[string]*tlscert.KeyPair, error) {
	pairs := make(map[string]*tlscert.KeyPair, len(sites))
	for _, sc := range sites {
		kp, err := tlscert.LoadKeyPair(sc.CertFile, sc.KeyFile,
			tlscert.WithLogger(logger.Slog(log).With("host", sc.Host)))
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Host, err)
		}
		pairs[sc.Host] = kp
	}
	return pairs, nil
}

// NewSource builds the content source for one site. stores may be nil
// when no site uses a kv source.
func NewSource(sc config.SiteConfig, stores *Stores) (domain.ContentSource, error) {
	switch sc.Source.Type {
	case config.SourceFlatDir:
		src, err := content.NewFlatDir(content.FlatDirOptions{
			Directory:     sc.Source.Directory,
			AutoIndex:     sc.Source.AutoIndex,
			DisableFooter: sc.Source.DisableFooter,
			HideVersion:   sc.Source.HideVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Host, err)
		}
		return src, nil

	case config.SourceKV:
		if stores == nil {
			return nil, fmt.Errorf("site %s: %w", sc.Host, ErrNoStores)
		}
		st, err := stores.Open(sc.Source.DBDir)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Host, err)
		}
		return content.NewKV(st), nil

	default:
		return nil, fmt.Errorf("site %s: unknown source type %q", sc.Host, sc.Source.Type)
	}
}
