package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
	"strings"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptDocument  = errors.New("corrupt document record")
	ErrInvalidDocument  = errors.New("invalid document")
)

// Key layout: "doc/" host 0x00 path. Hosts never contain NUL, so a
// per-host prefix scan cannot match a longer host name.
const docKeyPrefix = "doc/"

// Document is one stored Gemini resource.
type Document struct {
	Host      string
	Path      string
	MIME      string
	Body      []byte
	UpdatedAt time.Time
}

// DocumentInfo is a Document without its body, as returned by List.
type DocumentInfo struct {
	Host      string
	Path      string
	MIME      string
	Size      int
	UpdatedAt time.Time
}

// DocumentStore keeps documents keyed by (host, path) in a KVEngine.
type DocumentStore struct {
	kv  KVEngine
	now func() time.Time
}

// NewDocumentStore wraps kv.
func NewDocumentStore(kv KVEngine) *DocumentStore {
	return &DocumentStore{kv: kv, now: time.Now}
}

// Engine returns the underlying KV engine.
func (s *DocumentStore) Engine() KVEngine {
	return s.kv
}

// Get returns the document at (host, path) or ErrDocumentNotFound.
func (s *DocumentStore) Get(ctx context.Context, host, path string) (*Document, error) {
	raw, err := s.kv.Get(ctx, docKey(host, path))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get %s%s: %w", host, path, err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s%s: %w", host, path, err)
	}
	doc.Host = host
	doc.Path = path
	return doc, nil
}

// Put stores doc, replacing any document at the same (host, path).
// UpdatedAt is set to the current time.
func (s *DocumentStore) Put(ctx context.Context, doc *Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}
	doc.UpdatedAt = s.now().UTC()

	if err := s.kv.Set(ctx, docKey(doc.Host, doc.Path), encodeDocument(doc)); err != nil {
		return fmt.Errorf("put %s%s: %w", doc.Host, doc.Path, err)
	}
	return nil
}

// Delete removes the document at (host, path). It returns
// ErrDocumentNotFound if there is none.
func (s *DocumentStore) Delete(ctx context.Context, host, path string) error {
	key := docKey(host, path)
	if _, err := s.kv.Get(ctx, key); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	return s.kv.Delete(ctx, key)
}

// List returns documents for host, or for every host if host is empty,
// sorted by host then path.
func (s *DocumentStore) List(ctx context.Context, host string) ([]DocumentInfo, error) {
	prefix := []byte(docKeyPrefix)
	if host != "" {
		prefix = append(prefix, host...)
		prefix = append(prefix, 0)
	}

	var (
		out     []DocumentInfo
		scanErr error
	)
	err := s.kv.Scan(ctx, prefix, func(key, value []byte) bool {
		h, p, ok := splitDocKey(key)
		if !ok {
			return true
		}
		doc, err := decodeDocument(value)
		if err != nil {
			scanErr = fmt.Errorf("decode %s%s: %w", h, p, err)
			return false
		}
		out = append(out, DocumentInfo{
			Host:      h,
			Path:      p,
			MIME:      doc.MIME,
			Size:      len(doc.Body),
			UpdatedAt: doc.UpdatedAt,
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Host != out[j].Host {
			return out[i].Host < out[j].Host
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Close closes the underlying engine.
func (s *DocumentStore) Close() error {
	return s.kv.Close()
}

func validateDocument(doc *Document) error {
	switch {
	case doc == nil:
		return ErrInvalidDocument
	case doc.Host == "" || strings.ContainsRune(doc.Host, 0):
		return fmt.Errorf("%w: bad host %q", ErrInvalidDocument, doc.Host)
	case !strings.HasPrefix(doc.Path, "/"):
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidDocument, doc.Path)
	case doc.MIME == "" || strings.ContainsAny(doc.MIME, "\r\n"):
		return fmt.Errorf("%w: bad mime type %q", ErrInvalidDocument, doc.MIME)
	}
	return nil
}

func docKey(host, path string) []byte {
	key := make([]byte, 0, len(docKeyPrefix)+len(host)+1+len(path))
	key = append(key, docKeyPrefix...)
	key = append(key, host...)
	key = append(key, 0)
	key = append(key, path...)
	return key
}

func splitDocKey(key []byte) (host, path string, ok bool) {
	rest, found := bytes.CutPrefix(key, []byte(docKeyPrefix))
	if !found {
		return "", "", false
	}
	h, p, found := bytes.Cut(rest, []byte{0})
	if !found {
		return "", "", false
	}
	return string(h), string(p), true
}

// Record layout, big endian:
//
//	crc32(4) | updated_unix_ms(8) | mime_len(2) | mime | body
//
// The checksum covers everything after it.
const recordHeaderLen = 4 + 8 + 2

func encodeDocument(doc *Document) []byte {
	out := make([]byte, recordHeaderLen, recordHeaderLen+len(doc.MIME)+len(doc.Body))
	binary.BigEndian.PutUint64(out[4:12], uint64(doc.UpdatedAt.UnixMilli()))
	binary.BigEndian.PutUint16(out[12:14], uint16(len(doc.MIME)))
	out = append(out, doc.MIME...)
	out = append(out, doc.Body...)
	binary.BigEndian.PutUint32(out[0:4], crc32.ChecksumIEEE(out[4:]))
	return out
}

func decodeDocument(raw []byte) (*Document, error) {
	if len(raw) < recordHeaderLen {
		return nil, ErrCorruptDocument
	}
	if crc32.ChecksumIEEE(raw[4:]) != binary.BigEndian.Uint32(raw[0:4]) {
		return nil, ErrCorruptDocument
	}

	updated := int64(binary.BigEndian.Uint64(raw[4:12]))
	mimeLen := int(binary.BigEndian.Uint16(raw[12:14]))
	if len(raw) < recordHeaderLen+mimeLen {
		return nil, ErrCorruptDocument
	}

	rest := raw[recordHeaderLen:]
	return &Document{
		MIME:      string(rest[:mimeLen]),
		Body:      rest[mimeLen:],
		UpdatedAt: time.UnixMilli(updated).UTC(),
	}, nil
}
