package ocr

import (
	"context"
	"image"

	"github.com/graphextract/graphextract/internal/graph"
	"github.com/graphextract/graphextract/internal/logger"
)

// Localizer runs the OCR engine and filters results below a minimum
// confidence. Engine failures are recovered locally: the pipeline continues
// with an empty region set.
type Localizer struct {
	engine        Engine
	languages     []string
	minConfidence float64
}

// NewLocalizer creates a localizer over the given engine.
func NewLocalizer(engine Engine, languages []string, minConfidence float64) *Localizer {
	return &Localizer{engine: engine, languages: languages, minConfidence: minConfidence}
}

// Localize returns the text regions found in the image with confidence at
// or above the threshold. The boolean is false when the engine failed and
// the (empty) result should be flagged labels_unavailable.
func (l *Localizer) Localize(ctx context.Context, img image.Image) ([]graph.TextRegion, bool) {
	regions, err := l.engine.Recognize(ctx, img, l.languages)
	if err != nil {
		logger.Warn("%v: %v", graph.ErrEngineUnavailable, err)
		return nil, false
	}

	filtered := regions[:0:0]
	for _, r := range regions {
		if r.Confidence >= l.minConfidence {
			filtered = append(filtered, r)
		}
	}
	logger.Debug("ocr: %d regions, %d above confidence %.2f", len(regions), len(filtered), l.minConfidence)
	return filtered, true
}
