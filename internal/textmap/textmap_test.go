package textmap

import (
	"testing"

	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/geometry"
	"github.com/graphextract/graphextract/internal/graph"
)

func newTestMapper() *Mapper {
	return New(config.Default().Text)
}

func circleNode(id string, cx, cy, r int) graph.Node {
	return graph.Node{ID: id, Shape: geometry.NewCircle(geometry.Point{X: cx, Y: cy}, r)}
}

func regionAt(text string, cx, cy int, confidence float64) graph.TextRegion {
	return graph.TextRegion{
		Text:       text,
		Confidence: confidence,
		Bounds:     geometry.Bounds{X1: cx - 10, Y1: cy - 5, X2: cx + 10, Y2: cy + 5},
	}
}

func TestMapLabelsNearestNode(t *testing.T) {
	nodes := []graph.Node{circleNode("n0", 50, 50, 10)}
	regions := []graph.TextRegion{regionAt("start", 65, 50, 0.9)}

	outNodes, _, dropped := newTestMapper().Map(regions, nodes, nil)
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if outNodes[0].Label != "start" {
		t.Errorf("label = %q, want %q", outNodes[0].Label, "start")
	}
	if outNodes[0].LabelConfidence != 0.9 {
		t.Errorf("label confidence = %v, want 0.9", outNodes[0].LabelConfidence)
	}
}

func TestMapGlobalAscendingOrder(t *testing.T) {
	// Both regions are closest to A, but only one can claim it. The claim
	// order is global: the closer region wins A and the other falls back
	// to B, even though it was listed first.
	nodes := []graph.Node{
		circleNode("a", 100, 100, 10),
		circleNode("b", 160, 100, 10),
	}
	regions := []graph.TextRegion{
		regionAt("second", 114, 100, 0.8), // dist 4 to A
		regionAt("first", 113, 100, 0.8),  // dist 3 to A
	}

	outNodes, _, dropped := newTestMapper().Map(regions, nodes, nil)
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if outNodes[0].Label != "first" {
		t.Errorf("node a label = %q, want %q", outNodes[0].Label, "first")
	}
	if outNodes[1].Label != "second" {
		t.Errorf("node b label = %q, want %q", outNodes[1].Label, "second")
	}
}

func TestMapElementClaimedOnce(t *testing.T) {
	nodes := []graph.Node{circleNode("n0", 50, 50, 10)}
	regions := []graph.TextRegion{
		regionAt("near", 65, 50, 0.9),
		regionAt("far", 75, 50, 0.9),
	}

	outNodes, _, dropped := newTestMapper().Map(regions, nodes, nil)
	if outNodes[0].Label != "near" {
		t.Errorf("label = %q, want the closer region", outNodes[0].Label)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1 (second region unclaimed)", dropped)
	}
}

func TestMapEdgeLabel(t *testing.T) {
	nodes := []graph.Node{
		circleNode("n0", 50, 100, 10),
		circleNode("n1", 250, 100, 10),
	}
	edges := []graph.Edge{{ID: "e0", Source: "n0", Target: "n1"}}
	// Near the edge midpoint (150, 100) and far from both node boundaries.
	regions := []graph.TextRegion{regionAt("flow", 150, 90, 0.7)}

	_, outEdges, dropped := newTestMapper().Map(regions, nodes, edges)
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if outEdges[0].Label != "flow" {
		t.Errorf("edge label = %q, want %q", outEdges[0].Label, "flow")
	}
	if outEdges[0].LabelConfidence != 0.7 {
		t.Errorf("edge label confidence = %v, want 0.7", outEdges[0].LabelConfidence)
	}
}

func TestMapEdgeLabelFollowsSegmentMidpoint(t *testing.T) {
	nodes := []graph.Node{
		circleNode("n0", 50, 100, 10),
		circleNode("n1", 250, 100, 10),
	}
	// The detected stroke bows below the straight line between the node
	// centers. The region sits near the recorded segment midpoint but out
	// of claim range of the center-to-center midpoint (150, 100).
	edges := []graph.Edge{{
		ID:       "e0",
		Source:   "n0",
		Target:   "n1",
		Midpoint: geometry.Point{X: 150, Y: 160},
	}}
	regions := []graph.TextRegion{regionAt("flow", 150, 165, 0.7)}

	_, outEdges, dropped := newTestMapper().Map(regions, nodes, edges)
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if outEdges[0].Label != "flow" {
		t.Errorf("edge label = %q, want %q", outEdges[0].Label, "flow")
	}
}

func TestMapDistantRegionDropped(t *testing.T) {
	nodes := []graph.Node{circleNode("n0", 50, 50, 10)}
	regions := []graph.TextRegion{regionAt("orphan", 400, 400, 0.9)}

	outNodes, _, dropped := newTestMapper().Map(regions, nodes, nil)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if outNodes[0].Label != "" {
		t.Errorf("label = %q, want empty", outNodes[0].Label)
	}
}

func TestMapDoesNotMutateInputs(t *testing.T) {
	nodes := []graph.Node{circleNode("n0", 50, 50, 10)}
	regions := []graph.TextRegion{regionAt("x", 65, 50, 0.9)}

	newTestMapper().Map(regions, nodes, nil)
	if nodes[0].Label != "" {
		t.Errorf("input node mutated: label = %q", nodes[0].Label)
	}
}

func TestMapNoRegions(t *testing.T) {
	nodes := []graph.Node{circleNode("n0", 50, 50, 10)}
	outNodes, outEdges, dropped := newTestMapper().Map(nil, nodes, nil)
	if dropped != 0 || len(outNodes) != 1 || len(outEdges) != 0 {
		t.Errorf("unexpected result for empty region set: %d nodes, %d edges, %d dropped",
			len(outNodes), len(outEdges), dropped)
	}
}
