// Package graph defines the data model shared across the detection pipeline:
// nodes, edges, text regions, quality reports and the terminal
// DetectionResult artifact, plus the pipeline error taxonomy.
//
// A DetectionResult is immutable once constructed and safe to share across
// any number of concurrent readers without locking.
package graph

import (
	"time"

	"github.com/graphextract/graphextract/internal/geometry"
)

// QualityLevel is an ordinal classification of an image's usability for
// detection. Higher values mean better quality.
type QualityLevel int

const (
	QualityVeryLow QualityLevel = iota
	QualityLow
	QualityMedium
	QualityHigh
)

// String returns the level name as used in reports and logs.
func (l QualityLevel) String() string {
	switch l {
	case QualityHigh:
		return "HIGH"
	case QualityMedium:
		return "MEDIUM"
	case QualityLow:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// QualityReport holds the per-image quality scores computed once per request
// and the ordinal level derived from them.
type QualityReport struct {
	// Level is the combined four-level quality classification.
	Level QualityLevel `json:"level"`

	// Brightness is the mean luminance (0-255).
	Brightness float64 `json:"brightness"`

	// Contrast is the spread (standard deviation) of the luminance histogram.
	Contrast float64 `json:"contrast"`

	// Noise is the mean high-frequency residual after a median low-pass
	// filter, normalized by image area (0-255 per pixel).
	Noise float64 `json:"noise"`

	// Sharpness is the fraction of pixels with strong gradient magnitude
	// (0.0 to 1.0).
	Sharpness float64 `json:"sharpness"`
}

// EdgeStyle tags the visual rendering of a detected edge.
type EdgeStyle string

const (
	StyleSolid  EdgeStyle = "solid"
	StyleDashed EdgeStyle = "dashed"
)

// Node is a detected graph vertex represented by a geometric shape.
//
// Nodes are created by the node detector; the label is attached later by the
// text mapper. After assembly a node is never mutated.
type Node struct {
	// ID is unique and stable within one DetectionResult ("n0", "n1", ...).
	ID string `json:"id"`

	// Shape is the detected geometry (circle, rectangle or polygon).
	Shape geometry.Shape `json:"shape"`

	// Label is the associated text, empty when no text region was claimed.
	Label string `json:"label,omitempty"`

	// LabelConfidence is the OCR confidence of the claimed label (0.0 to 1.0).
	LabelConfidence float64 `json:"label_confidence,omitempty"`

	// FillColor is the hex color sampled at the shape center.
	// May be empty if sampling fails.
	FillColor string `json:"fill_color,omitempty"`

	// Confidence indicates detection quality (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// Edge is a detected connection between two nodes.
type Edge struct {
	// ID is unique and stable within one DetectionResult ("e0", "e1", ...).
	ID string `json:"id"`

	// Source and Target reference node ids present in the same result.
	// A dangling reference is an assembly-time invariant violation.
	Source string `json:"source"`
	Target string `json:"target"`

	// Directed is set when an arrowhead was detected. The arrow points at
	// the target node.
	Directed bool `json:"directed"`

	// Style is the rendering style of the connecting segment.
	Style EdgeStyle `json:"style"`

	// Midpoint is the midpoint of the detected line segment, in image
	// coordinates. Label proximity is measured against it, so labels land
	// on the drawn stroke even when it is offset from the straight line
	// between the node centers.
	Midpoint geometry.Point `json:"midpoint"`

	// Label is the associated text, empty when no text region was claimed.
	Label string `json:"label,omitempty"`

	// LabelConfidence is the OCR confidence of the claimed label (0.0 to 1.0).
	LabelConfidence float64 `json:"label_confidence,omitempty"`

	// Confidence indicates detection quality (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// TextRegion is a recognized piece of text with its location and OCR
// confidence. Each region is consumed at most once by the text mapper.
type TextRegion struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     geometry.Bounds `json:"bounds"`
}

// Diagnostics carries per-request metadata attached to a DetectionResult.
// Diagnostic fields never affect graph content.
type Diagnostics struct {
	// Hash is the perceptual hash key of the original image, when computed.
	Hash string `json:"hash,omitempty"`

	// CacheHit is true when the result was served from the content cache.
	CacheHit bool `json:"cache_hit"`

	// LabelsUnavailable is true when the OCR engine failed and the pipeline
	// degraded to an empty label set.
	LabelsUnavailable bool `json:"labels_unavailable"`

	// DroppedRegions counts text regions claimed by no node or edge.
	DroppedRegions int `json:"dropped_regions"`

	// StageMillis records per-stage wall time in milliseconds.
	StageMillis map[string]float64 `json:"stage_millis,omitempty"`
}

// DetectionResult is the terminal artifact of the pipeline for one image.
//
// Once constructed it is immutable: all fields are read-only and the result
// may be shared freely between goroutines. It is also the unit stored in the
// content cache.
type DetectionResult struct {
	Nodes   []Node        `json:"nodes"`
	Edges   []Edge        `json:"edges"`
	Quality QualityReport `json:"quality"`
	Diag    Diagnostics   `json:"diagnostics"`
}

// WithCacheHit returns a shallow copy of the result with the cache-hit flag
// set. Node and edge slices are shared with the original, which is safe
// because results are read-only.
func (r *DetectionResult) WithCacheHit() *DetectionResult {
	out := *r
	out.Diag.CacheHit = true
	return &out
}

// CacheEntry wraps a DetectionResult for durable storage, keyed by the
// perceptual hash of the original image.
type CacheEntry struct {
	Key       string           `json:"key"`
	Result    *DetectionResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}
