package provider

import (
	"context"
	"errors"
)

var ErrNoProvider = errors.New("no provider found for this URL")

// Location is a direct, fetchable media URL plus any headers the backend
// says the request needs (referer, cookies).
type Location struct {
	URL     string
	Headers map[string]string
}

// Provider turns a share link into direct media locations. Resolve returns
// an empty slice, not an error, when the backend simply has nothing for the
// link; errors are reserved for transport and decoding failures.
type Provider interface {
	Name() string
	Supports(url string) bool
	Resolve(ctx context.Context, url string) ([]Location, error)
}
