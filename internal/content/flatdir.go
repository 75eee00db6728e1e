package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/infra/buildinfo"
)

// IndexFile is served for a directory when present.
const IndexFile = "index.gmi"

// FlatDirOptions configures a FlatDir source.
type FlatDirOptions struct {
	Directory     string
	AutoIndex     bool
	DisableFooter bool
	HideVersion   bool
}

// FlatDir serves files from a directory tree.
type FlatDir struct {
	root      string
	autoIndex bool
	index     IndexOptions
	now       func() time.Time
}

// NewFlatDir returns a source rooted at opts.Directory. The directory
// must exist.
func NewFlatDir(opts FlatDirOptions) (*FlatDir, error) {
	root, err := filepath.Abs(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("flat_dir %s: %w", opts.Directory, err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("flat_dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("flat_dir: %s is not a directory", root)
	}

	return &FlatDir{
		root:      root,
		autoIndex: opts.AutoIndex,
		index: IndexOptions{
			DisableFooter: opts.DisableFooter,
			HideVersion:   opts.HideVersion,
			Server:        buildinfo.ServerString(),
		},
		now: time.Now,
	}, nil
}

// Root returns the absolute directory being served.
func (s *FlatDir) Root() string {
	return s.root
}

// Serve writes the response for path.
//
// Missing files and paths outside the root are answered with 51. Read
// failures are returned without writing anything.
func (s *FlatDir) Serve(ctx context.Context, host, path string, w io.Writer) error {
	full, ok := s.resolve(path)
	if !ok {
		return writeNotFound(w)
	}

	fi, err := os.Stat(full)
	if err != nil {
		if isMissing(err) {
			return writeNotFound(w)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !fi.IsDir() {
		return s.serveFile(full, path, w)
	}

	index := filepath.Join(full, IndexFile)
	if ifi, err := os.Stat(index); err == nil && ifi.Mode().IsRegular() {
		return s.serveFile(index, path, w)
	}
	if !s.autoIndex {
		return writeNotFound(w)
	}

	page, err := GenerateIndex(full, s.index, s.now())
	if err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	_, err = domain.OK([]byte(page)).WriteTo(w)
	return err
}

// resolve maps a percent-encoded URL path onto the filesystem. "/" is
// the root; any other path is decoded, has its leading slash removed and
// is joined to the root.
func (s *FlatDir) resolve(path string) (string, bool) {
	path, err := url.PathUnescape(path)
	if err != nil || strings.ContainsRune(path, 0) {
		return "", false
	}
	if path == "/" || path == "" {
		return s.root, true
	}

	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func (s *FlatDir) serveFile(full, path string, w io.Writer) error {
	body, err := os.ReadFile(full)
	if err != nil {
		if isMissing(err) {
			return writeNotFound(w)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	_, err = domain.Success(MIMEType(full), body).WriteTo(w)
	return err
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func writeNotFound(w io.Writer) error {
	_, err := domain.NotFound().WriteTo(w)
	return err
}
