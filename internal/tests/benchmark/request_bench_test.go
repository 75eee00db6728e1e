package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/yndnr/geminid/internal/cli/connection"
	"github.com/yndnr/geminid/internal/content"
	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/server/geminiserver"
	"github.com/yndnr/geminid/internal/storage"
	"github.com/yndnr/geminid/internal/telemetry/logger"
)

func BenchmarkValidateURL(b *testing.B) {
	urls := []string{
		"gemini://example.org/",
		"gemini://example.org:1965/a/b/c/page.gmi",
		"gemini://[::1]/%E2%9C%93",
		"https://example.org/",
	}

	for _, raw := range urls {
		b.Run(raw, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				domain.ValidateURL(raw)
			}
		})
	}
}

func BenchmarkRouterRoute(b *testing.B) {
	src := domain.ContentSourceFunc(func(ctx context.Context, host, path string, w io.Writer) error {
		return nil
	})

	for _, n := range SiteCounts {
		b.Run(fmt.Sprintf("sites=%d", n), func(b *testing.B) {
			r := newRouter(b, n, src)
			host := hostName(n / 2)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, ok := r.Route(host); !ok {
					b.Fatal("route miss")
				}
			}
		})
	}
}

func BenchmarkResponseWriteTo(b *testing.B) {
	for _, size := range []int{0, 1 << 10, 64 << 10} {
		b.Run(fmt.Sprintf("body=%d", size), func(b *testing.B) {
			resp := domain.OK(make([]byte, size))
			b.SetBytes(int64(size))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := resp.WriteTo(io.Discard); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFlatDirFile(b *testing.B) {
	src, err := content.NewFlatDir(content.FlatDirOptions{Directory: fillDir(b, 1)})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := src.Serve(ctx, "a.example", "/page-0000.gmi", io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFlatDirAutoIndex(b *testing.B) {
	for _, n := range DirSizes {
		b.Run(fmt.Sprintf("entries=%d", n), func(b *testing.B) {
			src, err := content.NewFlatDir(content.FlatDirOptions{Directory: fillDir(b, n), AutoIndex: true})
			if err != nil {
				b.Fatal(err)
			}
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := src.Serve(ctx, "a.example", "/", io.Discard); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkKVServe(b *testing.B) {
	engine, err := storage.NewBadgerEngine(storage.KVConfig{InMemory: true}, slog.New(slog.DiscardHandler))
	if err != nil {
		b.Fatal(err)
	}
	store := storage.NewDocumentStore(engine)
	defer store.Close()

	ctx := context.Background()
	err = store.Put(ctx, &storage.Document{Host: "a.example", Path: "/", MIME: domain.MIMEGemini, Body: make([]byte, 4<<10)})
	if err != nil {
		b.Fatal(err)
	}
	src := content.NewKV(store)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := src.Serve(ctx, "a.example", "/", io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRequestRoundTrip measures a full connection: TLS handshake,
// request line, routing and response.
func BenchmarkRequestRoundTrip(b *testing.B) {
	src := domain.ContentSourceFunc(func(ctx context.Context, host, path string, w io.Writer) error {
		_, err := domain.OK([]byte("# bench\n")).WriteTo(w)
		return err
	})
	router := newRouter(b, 1, src)
	host := hostName(0)

	cfg := geminiserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := geminiserver.New(cfg, router, newResolver(b, host), nil, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		b.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	addr := srv.Addr().String()
	client := connection.NewGeminiClient(nil, 5*time.Second)
	line := "gemini://" + host + "/\r\n"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		resp, err := client.Do(ctx, addr, host, line)
		if err != nil {
			b.Fatal(err)
		}
		if resp.Status != int(domain.StatusSuccess) {
			b.Fatalf("status = %d", resp.Status)
		}
	}
}
