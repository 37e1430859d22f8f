package document

import "errors"

// Document errors.
var (
	// ErrNilRenderer indicates a document created without a renderer.
	ErrNilRenderer = errors.New("document requires a renderer")

	// ErrInvalidSelector indicates a query selector that does not parse.
	ErrInvalidSelector = errors.New("invalid selector")
)
