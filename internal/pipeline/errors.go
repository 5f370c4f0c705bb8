package pipeline

import "errors"

// ErrNotAnalyzable means no usable image bytes could be produced for an
// item from any source: no archived copies, no legacy inline data, and no
// self-contained live images. Bare remote URLs don't count as usable.
var ErrNotAnalyzable = errors.New("item has no analyzable image data")

// ErrItemNotFound means the requested item does not exist.
var ErrItemNotFound = errors.New("item not found")
