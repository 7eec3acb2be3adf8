// Package config holds the tunable parameters of the detection pipeline.
//
// The distance and ratio thresholds below have no single correct value; the
// defaults work well for clean machine-drawn diagrams with node sizes in the
// 20-200 pixel range. All values can be overridden from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config collects every tunable of the pipeline in one place.
type Config struct {
	Detection Detection `toml:"detection"`
	Text      Text      `toml:"text"`
	Cache     Cache     `toml:"cache"`
	Workers   Workers   `toml:"workers"`
}

// Detection holds node and edge detector tunables.
type Detection struct {
	// MinNodeArea and MaxNodeArea bound the filled area (in square pixels)
	// of an accepted node candidate. Defaults: 100 and 10000.
	MinNodeArea int `toml:"min_node_area"`
	MaxNodeArea int `toml:"max_node_area"`

	// Circularity is the minimum 4*pi*area/perimeter^2 ratio for a contour
	// to be classified as a circle. Default: 0.70.
	Circularity float64 `toml:"circularity"`

	// RectFillRatio is the minimum bounding-box fill ratio for a contour to
	// be classified as a rectangle. Default: 0.90.
	RectFillRatio float64 `toml:"rect_fill_ratio"`

	// MaxPolygonVertices caps the vertex count of an accepted convex
	// polygon node. Default: 6.
	MaxPolygonVertices int `toml:"max_polygon_vertices"`

	// SuppressionIoU is the bounding-box IoU above which two node
	// candidates are considered duplicates. Default: 0.45.
	SuppressionIoU float64 `toml:"suppression_iou"`

	// NodeMaskMargin is the dilation (in pixels) applied around node
	// regions before edge extraction, so line detection does not pick up
	// strokes inside node glyphs. Default: 5.
	NodeMaskMargin int `toml:"node_mask_margin"`

	// MinEdgeLength is the minimum segment length (in pixels) considered a
	// candidate edge. Default: 30.
	MinEdgeLength int `toml:"min_edge_length"`

	// EndpointMatchDist is the maximum distance (in pixels) between a
	// segment endpoint and a node center for the endpoint to attach to
	// that node. Default: 40.
	EndpointMatchDist float64 `toml:"endpoint_match_dist"`

	// MergeAngleDeg and MergeGapPx control merging of colinear,
	// endpoint-adjacent segments into one logical edge.
	// Defaults: 5 degrees and 10 pixels.
	MergeAngleDeg float64 `toml:"merge_angle_deg"`
	MergeGapPx    float64 `toml:"merge_gap_px"`

	// DashOccupancy is the minimum fraction of lit pixels along a segment
	// for it to be tagged solid; below it the edge is tagged dashed.
	// Default: 0.8.
	DashOccupancy float64 `toml:"dash_occupancy"`
}

// Text holds OCR and text-association tunables.
type Text struct {
	// Enabled toggles the OCR stage entirely. Default: true.
	Enabled bool `toml:"enabled"`

	// Languages are the Tesseract language codes passed to the engine.
	// Default: ["eng"].
	Languages []string `toml:"languages"`

	// MinConfidence filters OCR results below this confidence (0.0 to 1.0).
	// Default: 0.3.
	MinConfidence float64 `toml:"min_confidence"`

	// ClaimDist is the maximum distance (in pixels) between a text region
	// center and a node boundary or edge midpoint for the region to be
	// claimed. Default: 50.
	ClaimDist float64 `toml:"claim_dist"`
}

// Cache holds content-cache tunables.
type Cache struct {
	// Enabled toggles the content cache. Default: true.
	Enabled bool `toml:"enabled"`

	// Backend selects the durable store: "fs" or "sqlite". Default: "fs".
	Backend string `toml:"backend"`

	// Dir is the directory holding cache files (fs backend) or the
	// database file (sqlite backend). Empty means a "cache" directory
	// under the working directory.
	Dir string `toml:"dir"`
}

// Workers bounds the pipeline's concurrency.
type Workers struct {
	// CPU bounds concurrent detection computations. 0 means the number of
	// available CPU cores.
	CPU int `toml:"cpu"`

	// OCR bounds concurrent calls into the OCR engine, which may block on
	// an external process. Default: 2.
	OCR int `toml:"ocr"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		Detection: Detection{
			MinNodeArea:        100,
			MaxNodeArea:        10000,
			Circularity:        0.70,
			RectFillRatio:      0.90,
			MaxPolygonVertices: 6,
			SuppressionIoU:     0.45,
			NodeMaskMargin:     5,
			MinEdgeLength:      30,
			EndpointMatchDist:  40,
			MergeAngleDeg:      5,
			MergeGapPx:         10,
			DashOccupancy:      0.8,
		},
		Text: Text{
			Enabled:       true,
			Languages:     []string{"eng"},
			MinConfidence: 0.3,
			ClaimDist:     50,
		},
		Cache: Cache{
			Enabled: true,
			Backend: "fs",
			Dir:     "cache",
		},
		Workers: Workers{
			CPU: 0,
			OCR: 2,
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a TOML file. Used by `graphextract config
// init` to emit a commented starting point for tuning.
func Save(cfg Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
