package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()

	engine, err := NewBadgerEngine(KVConfig{InMemory: true}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	s := NewDocumentStore(engine)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocumentStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	doc := &Document{Host: "a.example", Path: "/", MIME: "text/gemini", Body: []byte("# hi\n")}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "a.example", "/")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Host != "a.example" || got.Path != "/" || got.MIME != "text/gemini" || string(got.Body) != "# hi\n" {
		t.Errorf("Get() = %+v", got)
	}
	if !got.UpdatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestDocumentStore_EmptyBody(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &Document{Host: "a.example", Path: "/empty", MIME: "text/plain"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "a.example", "/empty")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Body) != 0 || got.MIME != "text/plain" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestDocumentStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "a.example", "/missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Get() error = %v, want ErrDocumentNotFound", err)
	}
	if err := s.Delete(ctx, "a.example", "/missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Delete() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDocumentStore_HostsAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Put(ctx, &Document{Host: "a.example", Path: "/", MIME: "text/gemini", Body: []byte("a")})

	if _, err := s.Get(ctx, "b.example", "/"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("b.example saw a.example's document: %v", err)
	}
}

func TestDocumentStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Put(ctx, &Document{Host: "a.example", Path: "/x", MIME: "text/gemini"})
	if err := s.Delete(ctx, "a.example", "/x"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "a.example", "/x"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Get() after Delete = %v", err)
	}
}

func TestDocumentStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []*Document{
		{Host: "b.example", Path: "/", MIME: "text/gemini", Body: []byte("b")},
		{Host: "a.example", Path: "/z", MIME: "text/plain", Body: []byte("zzz")},
		{Host: "a.example", Path: "/", MIME: "text/gemini", Body: []byte("a")},
		{Host: "a.example.org", Path: "/", MIME: "text/gemini"},
	}
	for _, d := range docs {
		if err := s.Put(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.example/", "a.example/z", "a.example.org/", "b.example/"}
	if len(all) != len(want) {
		t.Fatalf("List(\"\") returned %d docs, want %d", len(all), len(want))
	}
	for i, w := range want {
		if got := all[i].Host + all[i].Path; got != w {
			t.Errorf("List()[%d] = %s, want %s", i, got, w)
		}
	}

	only, err := s.List(ctx, "a.example")
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 2 {
		t.Fatalf("List(a.example) returned %d docs, want 2", len(only))
	}
	if only[1].Size != 3 || only[1].MIME != "text/plain" {
		t.Errorf("List(a.example)[1] = %+v", only[1])
	}
}

func TestDocumentStore_PutInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil", nil},
		{"no host", &Document{Path: "/", MIME: "text/gemini"}},
		{"relative path", &Document{Host: "a.example", Path: "x", MIME: "text/gemini"}},
		{"no mime", &Document{Host: "a.example", Path: "/"}},
		{"mime with newline", &Document{Host: "a.example", Path: "/", MIME: "text/gemini\r\n20 x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Put(ctx, tt.doc); !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("Put() error = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestDecodeDocument_Corrupt(t *testing.T) {
	raw := encodeDocument(&Document{MIME: "text/gemini", Body: []byte("hello"), UpdatedAt: time.Now()})

	tests := []struct {
		name string
		raw  []byte
	}{
		{"short", raw[:5]},
		{"flipped byte", func() []byte {
			b := append([]byte(nil), raw...)
			b[len(b)-1] ^= 0xff
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeDocument(tt.raw); !errors.Is(err, ErrCorruptDocument) {
				t.Errorf("decodeDocument() error = %v, want ErrCorruptDocument", err)
			}
		})
	}
}
