package content

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IndexOptions controls the footer of a generated directory index.
type IndexOptions struct {
	DisableFooter bool
	HideVersion   bool
	// Server is the build string shown unless HideVersion is set.
	Server string
}

const indexTimeLayout = "2006-01-02 15:04:05"

// GenerateIndex renders a gemtext listing of dir.
//
// Entries are sorted by name; directories get a trailing slash. The
// footer timestamp is now in UTC.
func GenerateIndex(dir string, opts IndexOptions, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Index of ")
	b.WriteString(filepath.Base(dir))
	b.WriteString("\n\n=> ../ ../\n")

	for _, e := range entries {
		name, link := e.Name(), url.PathEscape(e.Name())
		if isDir(dir, e) {
			name += "/"
			link += "/"
		}
		b.WriteString("=> ")
		b.WriteString(link)
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if !opts.DisableFooter {
		stamp := now.UTC().Format(indexTimeLayout)
		if opts.HideVersion {
			b.WriteString("> Generated at " + stamp)
		} else {
			b.WriteString("> Generated by " + opts.Server + " at " + stamp)
		}
	}
	return b.String(), nil
}

// isDir follows symlinks so a link to a directory is listed as one.
func isDir(dir string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.IsDir()
	}
	fi, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && fi.IsDir()
}
