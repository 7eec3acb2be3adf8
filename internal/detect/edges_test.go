package detect

import (
	"image"
	"image/color"
	"testing"

	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/geometry"
	"github.com/graphextract/graphextract/internal/graph"
)

func newTestEdgeDetector() *EdgeDetector {
	return NewEdgeDetector(config.Default().Detection)
}

// twoCircleNodes returns a node pair matching the layout used by the edge
// tests: centers at (60,100) and (240,100), radius 20.
func twoCircleNodes() []graph.Node {
	return []graph.Node{
		{ID: "n0", Shape: geometry.NewCircle(geometry.Point{X: 60, Y: 100}, 20)},
		{ID: "n1", Shape: geometry.NewCircle(geometry.Point{X: 240, Y: 100}, 20)},
	}
}

// drawArrowWings draws two 45-degree wing strokes pointing back from the
// tip toward the line.
func drawArrowWings(img *image.RGBA, tipX, tipY, length int, c color.Color) {
	for i := 1; i <= length; i++ {
		img.Set(tipX-i, tipY-i, c)
		img.Set(tipX-i, tipY+i, c)
	}
}

func TestDetectUndirectedEdge(t *testing.T) {
	img := createTestImage(300, 200, color.White)
	drawHLine(img, 82, 218, 100, color.Black)

	edges := newTestEdgeDetector().Detect(img, twoCircleNodes())
	if len(edges) != 1 {
		t.Fatalf("detected %d edges, want 1", len(edges))
	}

	e := edges[0]
	if e.ID != "e0" {
		t.Errorf("edge id = %q, want e0", e.ID)
	}
	if e.Directed {
		t.Error("plain line should be undirected")
	}
	if e.Style != graph.StyleSolid {
		t.Errorf("style = %q, want solid", e.Style)
	}
	pair := map[string]bool{e.Source: true, e.Target: true}
	if !pair["n0"] || !pair["n1"] {
		t.Errorf("edge connects %q -> %q, want the two nodes", e.Source, e.Target)
	}
}

func TestDetectDirectedEdge(t *testing.T) {
	img := createTestImage(300, 200, color.White)
	drawHLine(img, 82, 218, 100, color.Black)
	// Arrowhead just outside the masked region around the right node.
	drawArrowWings(img, 214, 100, 8, color.Black)

	edges := newTestEdgeDetector().Detect(img, twoCircleNodes())
	if len(edges) != 1 {
		t.Fatalf("detected %d edges, want 1", len(edges))
	}

	e := edges[0]
	if !e.Directed {
		t.Fatal("arrowhead should make the edge directed")
	}
	if e.Source != "n0" || e.Target != "n1" {
		t.Errorf("edge = %q -> %q, want n0 -> n1 (arrow points at target)", e.Source, e.Target)
	}
}

func TestDetectDashedEdge(t *testing.T) {
	img := createTestImage(300, 200, color.White)
	// 5px dashes with 5px gaps.
	for x := 82; x <= 218; x++ {
		if ((x-82)/5)%2 == 0 {
			img.Set(x, 100, color.Black)
		}
	}

	edges := newTestEdgeDetector().Detect(img, twoCircleNodes())
	if len(edges) != 1 {
		t.Fatalf("detected %d edges, want 1", len(edges))
	}
	if edges[0].Style != graph.StyleDashed {
		t.Errorf("style = %q, want dashed", edges[0].Style)
	}
}

func TestDetectNeedsTwoNodes(t *testing.T) {
	img := createTestImage(300, 200, color.White)
	drawHLine(img, 82, 218, 100, color.Black)

	one := twoCircleNodes()[:1]
	if edges := newTestEdgeDetector().Detect(img, one); edges != nil {
		t.Errorf("detected %d edges with a single node, want none", len(edges))
	}
}

func TestDetectIgnoresUnattachedLine(t *testing.T) {
	img := createTestImage(300, 200, color.White)
	// A line far from both node centers.
	drawHLine(img, 100, 200, 20, color.Black)

	if edges := newTestEdgeDetector().Detect(img, twoCircleNodes()); len(edges) != 0 {
		t.Errorf("detected %d edges from an unattached line, want 0", len(edges))
	}
}

func TestDetectIgnoresStrokesInsideNodes(t *testing.T) {
	img := createTestImage(300, 200, color.White)
	// Stroke entirely within the left node's masked region.
	drawHLine(img, 45, 75, 100, color.Black)

	if edges := newTestEdgeDetector().Detect(img, twoCircleNodes()); len(edges) != 0 {
		t.Errorf("detected %d edges from a node-interior stroke, want 0", len(edges))
	}
}

func TestPairKeyCanonical(t *testing.T) {
	ab := pairKey(graph.Edge{Source: "n0", Target: "n1"})
	ba := pairKey(graph.Edge{Source: "n1", Target: "n0"})
	if ab != ba {
		t.Errorf("undirected keys differ: %q vs %q", ab, ba)
	}

	directed := pairKey(graph.Edge{Source: "n0", Target: "n1", Directed: true})
	reversed := pairKey(graph.Edge{Source: "n1", Target: "n0", Directed: true})
	if directed == reversed {
		t.Error("directed keys should be orientation-sensitive")
	}
}

func TestMergeColinearJoinsAdjacent(t *testing.T) {
	a := segment{start: geometry.Point{X: 0, Y: 0}, end: geometry.Point{X: 50, Y: 0}, support: 50}
	b := segment{start: geometry.Point{X: 55, Y: 0}, end: geometry.Point{X: 100, Y: 0}, support: 45}

	merged := mergeColinear([]segment{a, b}, 5, 10)
	if len(merged) != 1 {
		t.Fatalf("merged into %d segments, want 1", len(merged))
	}
	if merged[0].length() < 99 {
		t.Errorf("merged span length = %v, want about 100", merged[0].length())
	}
	if merged[0].support != 95 {
		t.Errorf("merged support = %d, want 95", merged[0].support)
	}
}

func TestMergeColinearKeepsPerpendicular(t *testing.T) {
	a := segment{start: geometry.Point{X: 0, Y: 0}, end: geometry.Point{X: 50, Y: 0}}
	b := segment{start: geometry.Point{X: 50, Y: 2}, end: geometry.Point{X: 50, Y: 60}}

	if merged := mergeColinear([]segment{a, b}, 5, 10); len(merged) != 2 {
		t.Errorf("merged into %d segments, want 2 (perpendicular)", len(merged))
	}
}
