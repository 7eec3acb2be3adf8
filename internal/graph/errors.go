package graph

import "errors"

// Error taxonomy for the detection pipeline.
//
// Only ErrInvalidImage and ErrInconsistentGraph reach callers as hard
// failures. ErrEngineUnavailable and ErrCacheUnavailable are recovered
// locally: the pipeline degrades (empty labels, uncached computation) and
// records the condition in the result diagnostics instead of failing.
var (
	// ErrInvalidImage indicates an unreadable or malformed input image.
	// Raised before any detection stage runs.
	ErrInvalidImage = errors.New("invalid image")

	// ErrEngineUnavailable indicates the external OCR engine is unreachable
	// or failed. Recovered locally; the result is flagged labels_unavailable.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrInconsistentGraph indicates an assembly-time invariant violation,
	// such as an edge referencing a node id that does not exist. This is a
	// contract violation upstream, not a user input problem.
	ErrInconsistentGraph = errors.New("inconsistent graph")

	// ErrCacheUnavailable indicates the cache backing store failed.
	// Recovered locally; the pipeline falls back to uncached computation.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
