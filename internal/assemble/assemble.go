// Package assemble merges labeled nodes and edges into a validated,
// immutable DetectionResult.
package assemble

import (
	"fmt"

	"github.com/graphextract/graphextract/internal/graph"
)

// Assemble validates referential integrity, re-sequences ids to be
// contiguous and stable, and packages everything into a DetectionResult.
//
// The integrity checks are defensive: given correct upstream contracts a
// violation is unreachable, so a failure here surfaces as
// graph.ErrInconsistentGraph (an internal error, not a user input problem).
func Assemble(nodes []graph.Node, edges []graph.Edge, quality graph.QualityReport, diag graph.Diagnostics) (*graph.DetectionResult, error) {
	remap := make(map[string]string, len(nodes))
	outNodes := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		if _, dup := remap[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", graph.ErrInconsistentGraph, n.ID)
		}
		remap[n.ID] = fmt.Sprintf("n%d", i)
		outNodes[i] = n
		outNodes[i].ID = remap[n.ID]
	}

	seenEdge := make(map[string]bool, len(edges))
	outEdges := make([]graph.Edge, len(edges))
	for i, e := range edges {
		if seenEdge[e.ID] {
			return nil, fmt.Errorf("%w: duplicate edge id %q", graph.ErrInconsistentGraph, e.ID)
		}
		seenEdge[e.ID] = true

		src, ok := remap[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: edge %q references unknown node %q", graph.ErrInconsistentGraph, e.ID, e.Source)
		}
		dst, ok := remap[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: edge %q references unknown node %q", graph.ErrInconsistentGraph, e.ID, e.Target)
		}
		outEdges[i] = e
		outEdges[i].ID = fmt.Sprintf("e%d", i)
		outEdges[i].Source = src
		outEdges[i].Target = dst
	}

	return &graph.DetectionResult{
		Nodes:   outNodes,
		Edges:   outEdges,
		Quality: quality,
		Diag:    diag,
	}, nil
}
