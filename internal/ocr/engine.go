// Package ocr wraps an external text-recognition engine behind a small
// interface and adapts its output to the pipeline's TextRegion model.
//
// The engine is treated as a possibly-unavailable, possibly-slow black box:
// a failing engine never aborts the pipeline. The Localizer degrades to an
// empty region set and reports the condition so the result can be flagged
// labels_unavailable.
package ocr

import (
	"context"
	"image"

	"github.com/graphextract/graphextract/internal/graph"
)

// Engine recognizes text in an image region.
//
// Implementations must be safe for concurrent use. The returned regions
// carry bounding boxes in the coordinates of the given image and OCR
// confidence in [0, 1].
type Engine interface {
	Recognize(ctx context.Context, img image.Image, languages []string) ([]graph.TextRegion, error)
}
