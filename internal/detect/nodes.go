package detect

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/geometry"
	"github.com/graphextract/graphextract/internal/graph"
	"github.com/graphextract/graphextract/internal/logger"
)

// hullAngleTol is the colinearity tolerance (degrees) used when simplifying
// convex hulls into polygon vertices.
const hullAngleTol = 12.0

// NodeDetector extracts candidate node shapes from an enhanced image.
//
// The detector finds closed contour boundaries, classifies each as circle,
// rectangle or low-vertex convex polygon, and suppresses overlapping
// duplicates. It is stateless and safe for concurrent use.
type NodeDetector struct {
	cfg config.Detection
}

// NewNodeDetector creates a node detector with the given tunables.
func NewNodeDetector(cfg config.Detection) *NodeDetector {
	return &NodeDetector{cfg: cfg}
}

// candidate is an accepted contour before duplicate suppression.
type candidate struct {
	shape      geometry.Shape
	confidence float64
	area       int
	index      int
}

// Detect returns the nodes found in the image, with sequential ids assigned
// in detection (scan) order. An empty result is valid and never an error.
//
// # Algorithm
//
//  1. Gradient edge detection over the enhanced image
//  2. Connected-component contour extraction (flood fill)
//  3. Per contour: the bounding window is flooded from its border and every
//     pixel region the strokes seal off becomes one glyph candidate. Open
//     connector strokes enclose nothing, so node shapes that touch an
//     incident edge stroke are still classified one by one rather than as a
//     single fused component.
//  4. Per region: area, convex hull perimeter, circularity
//     (4*pi*area/perimeter^2) and bounding-box fill ratio. High fill
//     ratio -> rectangle; circularity above threshold -> circle; otherwise a
//     simplified convex hull with few vertices -> polygon; anything else is
//     rejected
//  5. IoU-based suppression of overlapping candidates, keeping the higher
//     shape-fit confidence (tie-break: larger area)
func (d *NodeDetector) Detect(img image.Image) []graph.Node {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mask := edgeMask(img)
	contours := findContours(mask, width, height)

	var candidates []candidate
	index := 0
	for _, c := range contours {
		for _, r := range enclosedRegions(mask, c.box, width, height) {
			if r.area < d.cfg.MinNodeArea || r.area > d.cfg.MaxNodeArea {
				index++
				continue
			}
			if cand, ok := d.classify(r, index); ok {
				candidates = append(candidates, cand)
			}
			index++
		}
	}

	kept := suppress(candidates, d.cfg.SuppressionIoU)

	// Restore scan order for stable sequential ids.
	sort.Slice(kept, func(i, j int) bool { return kept[i].index < kept[j].index })

	nodes := make([]graph.Node, 0, len(kept))
	for i, cand := range kept {
		center := cand.shape.Center
		nodes = append(nodes, graph.Node{
			ID:         fmt.Sprintf("n%d", i),
			Shape:      cand.shape,
			FillColor:  sampleColorHex(img, center.X+bounds.Min.X, center.Y+bounds.Min.Y),
			Confidence: cand.confidence,
		})
	}
	logger.Debug("node detector: %d contours, %d candidates, %d nodes", len(contours), len(candidates), len(nodes))
	return nodes
}

// classify decides the shape class of one enclosed region, or rejects it.
func (d *NodeDetector) classify(r region, index int) (candidate, bool) {
	hull := geometry.ConvexHull(r.points)
	perimeter := geometry.HullPerimeter(hull)
	if perimeter <= 0 {
		return candidate{}, false
	}

	circularity := 4 * math.Pi * float64(r.area) / (perimeter * perimeter)
	if circularity > 1 {
		circularity = 1
	}
	boxArea := (r.box.Width() + 1) * (r.box.Height() + 1)
	fillRatio := float64(r.area) / float64(boxArea)

	switch {
	case fillRatio >= d.cfg.RectFillRatio:
		return candidate{
			shape:      geometry.NewRectangle(r.box),
			confidence: fillRatio,
			area:       r.area,
			index:      index,
		}, true

	case circularity >= d.cfg.Circularity:
		radius := int(math.Round(math.Sqrt(float64(r.area) / math.Pi)))
		return candidate{
			shape:      geometry.NewCircle(centroid(r.points), radius),
			confidence: circularity,
			area:       r.area,
			index:      index,
		}, true

	default:
		simplified := geometry.SimplifyHull(hull, hullAngleTol)
		hullArea := geometry.HullArea(hull)
		if hullArea <= 0 {
			return candidate{}, false
		}
		// Solidity guards against stringy or concave blobs that happen to
		// simplify to few hull vertices.
		solidity := float64(r.area) / hullArea
		if len(simplified) >= 3 && len(simplified) <= d.cfg.MaxPolygonVertices && solidity >= 0.85 {
			return candidate{
				shape:      geometry.NewPolygon(simplified),
				confidence: math.Min(solidity, 1),
				area:       r.area,
				index:      index,
			}, true
		}
		return candidate{}, false
	}
}

// suppress removes candidates whose bounding regions overlap a
// higher-ranked candidate with IoU at or above the threshold.
// Rank: higher confidence first, larger area on a tie.
func suppress(candidates []candidate, iouThreshold float64) []candidate {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].confidence != ranked[j].confidence {
			return ranked[i].confidence > ranked[j].confidence
		}
		return ranked[i].area > ranked[j].area
	})

	var kept []candidate
	for _, cand := range ranked {
		duplicate := false
		for _, k := range kept {
			if cand.shape.Box.IoU(k.shape.Box) >= iouThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, cand)
		}
	}
	return kept
}

// centroid returns the mean of a point set.
func centroid(points []geometry.Point) geometry.Point {
	if len(points) == 0 {
		return geometry.Point{}
	}
	var sx, sy int
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	return geometry.Point{X: sx / len(points), Y: sy / len(points)}
}
