package content

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/yndnr/geminid/internal/storage"
)

func newTestKV(t *testing.T) (*KV, *storage.DocumentStore, *storage.BadgerEngine) {
	t.Helper()

	engine, err := storage.NewBadgerEngine(storage.KVConfig{InMemory: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewDocumentStore(engine)
	t.Cleanup(func() { store.Close() })
	return NewKV(store), store, engine
}

func TestKV_Serve(t *testing.T) {
	src, store, _ := newTestKV(t)
	ctx := context.Background()

	store.Put(ctx, &storage.Document{Host: "a.example", Path: "/", MIME: "text/gemini", Body: []byte("hi")})
	store.Put(ctx, &storage.Document{Host: "a.example", Path: "/feed.xml", MIME: "application/atom+xml", Body: []byte("<feed/>")})

	tests := []struct {
		name string
		host string
		path string
		want string
	}{
		{"root", "a.example", "/", "20 text/gemini\r\nhi"},
		{"other mime", "a.example", "/feed.xml", "20 application/atom+xml\r\n<feed/>"},
		{"missing path", "a.example", "/nope", "51 Not found\r\n"},
		{"other host", "b.example", "/", "51 Not found\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := src.Serve(ctx, tt.host, tt.path, &buf); err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Serve() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestKV_StorageError(t *testing.T) {
	src, _, engine := newTestKV(t)
	engine.Close()

	var buf bytes.Buffer
	err := src.Serve(context.Background(), "a.example", "/", &buf)
	if err == nil {
		t.Fatal("Serve() expected error from closed store")
	}
	if buf.Len() != 0 {
		t.Errorf("Serve() wrote %q before failing", buf.String())
	}
}
