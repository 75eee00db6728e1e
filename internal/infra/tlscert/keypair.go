package tlscert

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// KeyPair holds the certificate presented for one host.
//
// The pair can be swapped by Reload while handshakes read it.
type KeyPair struct {
	certFile string
	keyFile  string

	mu   sync.RWMutex
	cert *tls.Certificate

	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger

	// Debounce settings to avoid multiple reloads
	debounce   time.Duration
	lastReload time.Time
	reloadMu   sync.Mutex
}

// Option configures a KeyPair.
type Option func(*KeyPair)

// WithLogger sets the logger for the key pair.
func WithLogger(logger *slog.Logger) Option {
	return func(k *KeyPair) {
		k.logger = logger
	}
}

// WithDebounce sets the debounce duration for file change reloads.
func WithDebounce(d time.Duration) Option {
	return func(k *KeyPair) {
		k.debounce = d
	}
}

// LoadKeyPair loads a PEM certificate chain and private key.
func LoadKeyPair(certFile, keyFile string, opts ...Option) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		done:     make(chan struct{}),
		logger:   slog.Default(),
		debounce: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(k)
	}

	if err := k.Reload(); err != nil {
		return nil, fmt.Errorf("tlscert: initial load: %w", err)
	}

	return k, nil
}

// NewStaticKeyPair wraps an already parsed certificate.
// Static pairs cannot be reloaded from disk.
func NewStaticKeyPair(cert tls.Certificate) *KeyPair {
	return &KeyPair{
		cert:   &cert,
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
}

// Certificate returns the current certificate.
func (k *KeyPair) Certificate() *tls.Certificate {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert
}

// Leaf returns the parsed leaf certificate.
func (k *KeyPair) Leaf() (*x509.Certificate, error) {
	cert := k.Certificate()
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("tlscert: empty certificate chain")
	}
	return x509.ParseCertificate(cert.Certificate[0])
}

// Reload reads the key pair from disk and swaps it in.
func (k *KeyPair) Reload() error {
	if k.certFile == "" || k.keyFile == "" {
		return fmt.Errorf("tlscert: key pair has no backing files")
	}

	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	k.mu.Lock()
	k.cert = &cert
	k.mu.Unlock()

	k.logger.Info("certificate loaded",
		"cert_file", k.certFile,
	)

	return nil
}

// Watch reloads the pair whenever its files change.
// This function blocks until Stop() is called.
func (k *KeyPair) Watch() error {
	if k.certFile == "" {
		<-k.done
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlscert: create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directories so editor-style renames are seen.
	certDir := filepath.Dir(k.certFile)
	keyDir := filepath.Dir(k.keyFile)

	if err := watcher.Add(certDir); err != nil {
		return fmt.Errorf("tlscert: watch cert dir %s: %w", certDir, err)
	}
	if keyDir != certDir {
		if err := watcher.Add(keyDir); err != nil {
			return fmt.Errorf("tlscert: watch key dir %s: %w", keyDir, err)
		}
	}

	k.logger.Info("certificate watcher started",
		"cert_file", k.certFile,
		"key_file", k.keyFile,
	)

	certBase := filepath.Base(k.certFile)
	keyBase := filepath.Base(k.keyFile)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			changed := filepath.Base(event.Name)
			if changed != certBase && changed != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			k.logger.Debug("certificate file changed",
				"file", event.Name,
				"op", event.Op.String(),
			)

			if err := k.debouncedReload(); err != nil {
				// Keep serving the previous pair.
				k.logger.Error("certificate reload failed",
					"error", err,
					"cert_file", k.certFile,
					"key_file", k.keyFile,
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			k.logger.Error("certificate watcher error",
				"error", err,
				"cert_file", k.certFile,
			)

		case <-k.done:
			return nil
		}
	}
}

// WatchAsync runs Watch in a goroutine.
func (k *KeyPair) WatchAsync() {
	go func() {
		if err := k.Watch(); err != nil {
			k.logger.Error("certificate watcher stopped with error",
				"error", err,
			)
		}
	}()
}

// Stop stops watching. It is safe to call more than once.
func (k *KeyPair) Stop() {
	k.stopOnce.Do(func() {
		close(k.done)
	})
}

func (k *KeyPair) debouncedReload() error {
	k.reloadMu.Lock()
	defer k.reloadMu.Unlock()

	now := time.Now()
	if now.Sub(k.lastReload) < k.debounce {
		return nil
	}
	k.lastReload = now

	// Give the writer a moment to finish both files.
	time.Sleep(100 * time.Millisecond)

	return k.Reload()
}
