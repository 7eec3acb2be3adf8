// Package pipeline chains the detection stages into one request path:
// quality analysis, quality-driven enhancement, node and edge detection,
// OCR text localization, text-to-element mapping and graph assembly, with
// the content cache wrapping the whole chain as a memoizing decorator.
//
// Stages are synchronous, CPU-bound transformations. Concurrency lives at
// the boundaries: a bounded CPU pool limits simultaneous detections, a
// separate bounded pool limits OCR calls so a slow engine cannot starve
// geometric work, and the cache de-duplicates concurrent identical
// requests.
package pipeline

import (
	"context"
	"image"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/graphextract/graphextract/internal/assemble"
	"github.com/graphextract/graphextract/internal/cache"
	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/detect"
	"github.com/graphextract/graphextract/internal/enhance"
	"github.com/graphextract/graphextract/internal/graph"
	"github.com/graphextract/graphextract/internal/logger"
	"github.com/graphextract/graphextract/internal/ocr"
	"github.com/graphextract/graphextract/internal/quality"
	"github.com/graphextract/graphextract/internal/textmap"
)

// Pipeline is the full detection-and-assembly chain for one process.
//
// A Pipeline is safe for concurrent use by many callers; results it returns
// are immutable and freely shareable.
type Pipeline struct {
	cfg      config.Config
	analyzer *quality.Analyzer
	nodes    *detect.NodeDetector
	edges    *detect.EdgeDetector
	mapper   *textmap.Mapper
	loc      *ocr.Localizer
	cache    *cache.ContentCache

	cpuSem *semaphore.Weighted
	ocrSem *semaphore.Weighted

	executions atomic.Int64
}

// New creates a pipeline. By default OCR uses the Tesseract engine and no
// cache is attached; see the With* options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{cfg: config.Default()}
	var engine ocr.Engine = ocr.NewTesseractEngine()

	settings := options{engine: engine}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.cfg != nil {
		p.cfg = *settings.cfg
	}
	p.cache = settings.cache

	p.analyzer = quality.New()
	p.nodes = detect.NewNodeDetector(p.cfg.Detection)
	p.edges = detect.NewEdgeDetector(p.cfg.Detection)
	p.mapper = textmap.New(p.cfg.Text)
	if p.cfg.Text.Enabled && !settings.noOCR {
		p.loc = ocr.NewLocalizer(settings.engine, p.cfg.Text.Languages, p.cfg.Text.MinConfidence)
	}

	cpuWorkers := p.cfg.Workers.CPU
	if cpuWorkers <= 0 {
		cpuWorkers = runtime.NumCPU()
	}
	ocrWorkers := p.cfg.Workers.OCR
	if ocrWorkers <= 0 {
		ocrWorkers = 2
	}
	p.cpuSem = semaphore.NewWeighted(int64(cpuWorkers))
	p.ocrSem = semaphore.NewWeighted(int64(ocrWorkers))
	return p
}

// Executions returns the number of full pipeline runs performed (cache hits
// and de-duplicated waiters excluded). Exposed for de-duplication tests and
// diagnostics.
func (p *Pipeline) Executions() int64 {
	return p.executions.Load()
}

// Close releases the attached cache, if any.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// Detect runs the full pipeline on a decoded image.
//
// Only graph.ErrInvalidImage and graph.ErrInconsistentGraph are returned as
// hard failures. OCR and cache failures degrade gracefully and are recorded
// in the result diagnostics.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) (*graph.DetectionResult, error) {
	// Input validation is the one check that runs before any stage.
	if err := quality.Validate(img); err != nil {
		return nil, err
	}

	key := ""
	if p.cache != nil {
		k, err := cache.Key(img)
		if err != nil {
			logger.Warn("hashing failed, running uncached: %v", err)
		} else {
			key = k
		}
	}

	if key != "" {
		res, hit, err := p.cache.Get(key)
		if err != nil {
			logger.Warn("cache read failed, running uncached: %v", err)
		} else if hit {
			logger.Debug("cache hit for %s", key)
			return res.WithCacheHit(), nil
		}
	}

	run := func() (*graph.DetectionResult, error) {
		return p.run(ctx, img, key)
	}
	if key == "" {
		return run()
	}
	return p.cache.Do(key, run)
}

// run executes the stages once. It deliberately detaches from the caller's
// cancellation: stages are short-lived and bounded, and a shared in-flight
// computation should finish and populate the cache even when the caller
// that started it times out.
func (p *Pipeline) run(ctx context.Context, img image.Image, key string) (*graph.DetectionResult, error) {
	p.executions.Add(1)
	detached := context.WithoutCancel(ctx)

	if err := p.cpuSem.Acquire(detached, 1); err != nil {
		return nil, err
	}
	defer p.cpuSem.Release(1)

	timings := make(map[string]float64)
	mark := func(stage string, since time.Time) {
		timings[stage] = float64(time.Since(since).Microseconds()) / 1000
	}

	start := time.Now()
	report, err := p.analyzer.Analyze(img)
	if err != nil {
		return nil, err
	}
	mark("quality", start)
	logger.Info("image quality: %s (contrast %.1f, noise %.1f, sharpness %.3f)",
		report.Level, report.Contrast, report.Noise, report.Sharpness)

	start = time.Now()
	enhanced := enhance.Enhance(img, report)
	mark("enhance", start)

	var (
		nodes     []graph.Node
		edges     []graph.Edge
		regions   []graph.TextRegion
		ocrOK     = true
		detectDur time.Duration
		ocrDur    time.Duration
	)

	g, gctx := errgroup.WithContext(detached)
	g.Go(func() error {
		detectStart := time.Now()
		nodes = p.nodes.Detect(enhanced)
		edges = p.edges.Detect(enhanced, nodes)
		detectDur = time.Since(detectStart)
		return nil
	})
	if p.loc != nil {
		g.Go(func() error {
			if err := p.ocrSem.Acquire(gctx, 1); err != nil {
				ocrOK = false
				return nil
			}
			defer p.ocrSem.Release(1)
			ocrStart := time.Now()
			regions, ocrOK = p.loc.Localize(gctx, enhanced)
			ocrDur = time.Since(ocrStart)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timings["detect"] = float64(detectDur.Microseconds()) / 1000
	if p.loc != nil {
		timings["ocr"] = float64(ocrDur.Microseconds()) / 1000
	}

	start = time.Now()
	labeledNodes, labeledEdges, dropped := p.mapper.Map(regions, nodes, edges)
	mark("textmap", start)

	diag := graph.Diagnostics{
		Hash:              key,
		LabelsUnavailable: p.loc != nil && !ocrOK,
		DroppedRegions:    dropped,
		StageMillis:       timings,
	}
	result, err := assemble.Assemble(labeledNodes, labeledEdges, report, diag)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := p.cache.Set(key, result); err != nil {
			logger.Warn("cache write failed: %v", err)
		}
	}
	return result, nil
}
