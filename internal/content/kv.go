package content

import (
	"context"
	"errors"
	"io"

	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/storage"
)

// KV serves documents from a DocumentStore, keyed by the site host and
// the request path.
type KV struct {
	store *storage.DocumentStore
}

// NewKV returns a source backed by store.
func NewKV(store *storage.DocumentStore) *KV {
	return &KV{store: store}
}

// Serve writes the stored document, 51 if there is none, or returns the
// storage error without writing.
func (s *KV) Serve(ctx context.Context, host, path string, w io.Writer) error {
	doc, err := s.store.Get(ctx, host, path)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return writeNotFound(w)
		}
		return err
	}
	_, err = domain.Success(doc.MIME, doc.Body).WriteTo(w)
	return err
}
