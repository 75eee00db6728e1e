package confloader

import "errors"

// ErrReadBytesNotSupported is returned by ReadBytes on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: map provider only supports Read")

// mapProvider is a koanf provider backed by an in-memory map.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
