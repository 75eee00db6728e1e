// Package content implements the site content sources.
//
// FlatDir serves a directory tree, with optional generated indexes for
// directories lacking an index.gmi. KV serves documents from the
// embedded document store. Both satisfy domain.ContentSource.
package content
