package benchmark

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/core/service"
	"github.com/yndnr/geminid/internal/infra/tlscert"
)

// SiteCounts are the router sizes benchmarked.
var SiteCounts = []int{1, 10, 100, 1000}

// DirSizes are the directory entry counts benchmarked for auto index.
var DirSizes = []int{10, 100, 1000}

func hostName(i int) string {
	return fmt.Sprintf("site-%04d.example", i)
}

// newRouter builds a router with n sites sharing src.
func newRouter(b *testing.B, n int, src domain.ContentSource) *service.Router {
	b.Helper()
	sites := make([]*domain.VirtualSite, n)
	for i := range sites {
		sites[i] = &domain.VirtualSite{Host: hostName(i), Source: src}
	}
	r, err := service.NewRouter(sites)
	if err != nil {
		b.Fatalf("NewRouter() error = %v", err)
	}
	return r
}

// newResolver returns a resolver with a self-signed pair per host.
func newResolver(b *testing.B, hosts ...string) *tlscert.Resolver {
	b.Helper()
	pairs := make(map[string]*tlscert.KeyPair, len(hosts))
	for _, h := range hosts {
		certPEM, keyPEM, err := tlscert.SelfSigned(time.Hour, h)
		if err != nil {
			b.Fatal(err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			b.Fatal(err)
		}
		pairs[h] = tlscert.NewStaticKeyPair(cert)
	}
	return tlscert.NewResolver(pairs)
}

// fillDir creates n small gemtext files under a new directory.
func fillDir(b *testing.B, n int) string {
	b.Helper()
	dir := b.TempDir()
	for i := 0; i < n; i++ {
		name := filepath.Join(dir, fmt.Sprintf("page-%04d.gmi", i))
		if err := os.WriteFile(name, []byte("# page\n"), 0644); err != nil {
			b.Fatal(err)
		}
	}
	return dir
}
