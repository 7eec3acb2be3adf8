package pipeline

import (
	"github.com/graphextract/graphextract/internal/cache"
	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/ocr"
)

type options struct {
	cfg    *config.Config
	cache  *cache.ContentCache
	engine ocr.Engine
	noOCR  bool
}

// Option configures a Pipeline at construction time.
type Option func(*options)

// WithConfig replaces the default tunables.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithCache attaches a content cache. Without it every request runs the
// full pipeline.
func WithCache(c *cache.ContentCache) Option {
	return func(o *options) { o.cache = c }
}

// WithEngine replaces the default Tesseract OCR engine, e.g. with a fake
// in tests.
func WithEngine(e ocr.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithoutOCR disables the OCR stage entirely. Results carry no labels and
// are not flagged labels_unavailable.
func WithoutOCR() Option {
	return func(o *options) { o.noOCR = true }
}
