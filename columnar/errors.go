package columnar

import "errors"

// Error kinds surfaced by the public API. Internal unchecked fast paths
// assume pre-validated indices and never return these; they are reached
// only through checked wrappers or from join tuples that are valid by
// construction.
var (
	ErrNotFound         = errors.New("not found")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrOutOfBounds      = errors.New("index out of bounds")
	ErrInvalidOperation = errors.New("invalid operation")
)
