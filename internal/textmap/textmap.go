// Package textmap associates recognized text regions with detected nodes
// and edges.
//
// Assignment is global and greedy: all (region, element) pairs within the
// distance threshold are ranked by ascending distance across the whole
// image, and claims are granted in that order. Each region labels at most
// one element and each element receives at most one label, so a label can
// never be attached to two elements. Unclaimed regions are dropped and only
// counted for diagnostics.
package textmap

import (
	"sort"

	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/geometry"
	"github.com/graphextract/graphextract/internal/graph"
	"github.com/graphextract/graphextract/internal/logger"
)

// Mapper assigns text regions to graph elements by proximity.
type Mapper struct {
	cfg config.Text
}

// New creates a mapper with the given tunables.
func New(cfg config.Text) *Mapper {
	return &Mapper{cfg: cfg}
}

// claim is one (region, element) pairing candidate.
type claim struct {
	region  int
	element int // node index, or len(nodes)+edge index
	dist    float64
	overlap int // region/element bbox overlap, used to break distance ties
}

// Map returns copies of the node and edge sequences with labels attached,
// plus the number of regions claimed by nothing.
//
// Distances are measured from the region's bounding-box center to a node's
// shape boundary, and to an edge's segment midpoint (falling back to the
// midpoint of its endpoint node centers when no segment was recorded). A
// region is considered only for candidates within the claim distance
// threshold.
func (m *Mapper) Map(regions []graph.TextRegion, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, []graph.Edge, int) {
	outNodes := make([]graph.Node, len(nodes))
	copy(outNodes, nodes)
	outEdges := make([]graph.Edge, len(edges))
	copy(outEdges, edges)
	if len(regions) == 0 {
		return outNodes, outEdges, 0
	}

	centerOf := make(map[string]geometry.Point, len(nodes))
	for _, n := range nodes {
		centerOf[n.ID] = n.Shape.Center
	}

	var claims []claim
	for ri, r := range regions {
		center := r.Bounds.Center()
		for ni, n := range nodes {
			d := n.Shape.BoundaryDist(center)
			if d <= m.cfg.ClaimDist {
				claims = append(claims, claim{
					region:  ri,
					element: ni,
					dist:    d,
					overlap: r.Bounds.Overlap(n.Shape.Box),
				})
			}
		}
		for ei, e := range edges {
			mid, ok := labelAnchor(e, centerOf)
			if !ok {
				continue
			}
			d := geometry.Dist(center, mid)
			if d <= m.cfg.ClaimDist {
				claims = append(claims, claim{
					region:  ri,
					element: len(nodes) + ei,
					dist:    d,
					overlap: 0,
				})
			}
		}
	}

	// Global ascending-distance order; greater bbox overlap wins a tie.
	sort.SliceStable(claims, func(i, j int) bool {
		if claims[i].dist != claims[j].dist {
			return claims[i].dist < claims[j].dist
		}
		return claims[i].overlap > claims[j].overlap
	})

	regionTaken := make([]bool, len(regions))
	elementTaken := make([]bool, len(nodes)+len(edges))
	claimed := 0
	for _, c := range claims {
		if regionTaken[c.region] || elementTaken[c.element] {
			continue
		}
		regionTaken[c.region] = true
		elementTaken[c.element] = true
		claimed++

		r := regions[c.region]
		if c.element < len(nodes) {
			outNodes[c.element].Label = r.Text
			outNodes[c.element].LabelConfidence = r.Confidence
		} else {
			ei := c.element - len(nodes)
			outEdges[ei].Label = r.Text
			outEdges[ei].LabelConfidence = r.Confidence
		}
	}

	dropped := len(regions) - claimed
	if dropped > 0 {
		logger.Debug("textmap: %d of %d regions unclaimed", dropped, len(regions))
	}
	return outNodes, outEdges, dropped
}

// labelAnchor is the point an edge label is measured against: the midpoint
// of the detected segment when the detector recorded one, otherwise the
// midpoint between the endpoint node centers.
func labelAnchor(e graph.Edge, centerOf map[string]geometry.Point) (geometry.Point, bool) {
	if e.Midpoint != (geometry.Point{}) {
		return e.Midpoint, true
	}
	src, okS := centerOf[e.Source]
	dst, okT := centerOf[e.Target]
	if !okS || !okT {
		return geometry.Point{}, false
	}
	return geometry.Point{X: (src.X + dst.X) / 2, Y: (src.Y + dst.Y) / 2}, true
}
