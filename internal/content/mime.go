package content

import (
	"path/filepath"
	"strings"

	"github.com/yndnr/geminid/internal/core/domain"
)

// DefaultMIMEType is sent for files with an unknown extension.
const DefaultMIMEType = "application/octet-stream"

var mimeTypes = map[string]string{
	"gmi":    domain.MIMEGemini,
	"gemini": domain.MIMEGemini,

	"txt":  "text/plain; charset=utf-8",
	"md":   "text/markdown; charset=utf-8",
	"csv":  "text/csv",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"xml":  "application/xml",
	"atom": "application/atom+xml",
	"rss":  "application/rss+xml",
	"json": "application/json",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"tar":  "application/x-tar",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"webm": "video/webm",
}

// MIMEType returns the MIME type for a file name by its extension.
func MIMEType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return DefaultMIMEType
}
