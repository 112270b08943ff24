package texture

import "net/http"

// LoaderBuilderOption is a functional option applied to a texture load.
type LoaderBuilderOption func(*loader)

// WithHTTPClient sets the client used for http(s) sources.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithMaxDimension sets the longest edge an image may have before it is scaled down.
// Zero or a negative value disables scaling.
func WithMaxDimension(pixels int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxDimension = pixels
	}
}

// WithMaxBytes caps the number of bytes read from the source.
func WithMaxBytes(n int64) LoaderBuilderOption {
	return func(l *loader) {
		l.maxBytes = n
	}
}
