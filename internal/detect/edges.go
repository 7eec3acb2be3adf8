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

// maxSegments caps the number of Hough peaks converted into segments.
const maxSegments = 50

// EdgeDetector extracts connecting segments between detected nodes.
//
// Node interiors are masked out (dilated by a margin) before line
// extraction so strokes inside node glyphs are not mistaken for edges.
// It is stateless and safe for concurrent use.
type EdgeDetector struct {
	cfg config.Detection
}

// NewEdgeDetector creates an edge detector with the given tunables.
func NewEdgeDetector(cfg config.Detection) *EdgeDetector {
	return &EdgeDetector{cfg: cfg}
}

// segment is a raw line segment in mask coordinates.
type segment struct {
	start, end geometry.Point
	support    int // edge pixels backing the segment
}

func (s segment) length() float64 { return geometry.Dist(s.start, s.end) }

func (s segment) angle() float64 {
	return math.Atan2(float64(s.end.Y-s.start.Y), float64(s.end.X-s.start.X))
}

// Detect returns the edges found in the image given the node sequence.
// Segments whose endpoints cannot be matched to two distinct nodes are
// discarded. An empty result is valid and never an error.
func (d *EdgeDetector) Detect(img image.Image, nodes []graph.Node) []graph.Edge {
	if len(nodes) < 2 {
		return nil
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mask := edgeMask(img)
	d.maskNodes(mask, nodes, width, height)

	segments := houghSegments(mask, width, height, d.cfg.MinEdgeLength)
	segments = mergeColinear(segments, d.cfg.MergeAngleDeg, d.cfg.MergeGapPx)

	byPair := make(map[string]graph.Edge)
	var order []string
	for _, seg := range segments {
		edge, ok := d.toEdge(seg, nodes, mask, width, height)
		if !ok {
			continue
		}
		key := pairKey(edge)
		prev, seen := byPair[key]
		if !seen {
			byPair[key] = edge
			order = append(order, key)
			continue
		}
		if edge.Confidence > prev.Confidence {
			byPair[key] = edge
		}
	}

	edges := make([]graph.Edge, 0, len(order))
	for i, key := range order {
		e := byPair[key]
		e.ID = fmt.Sprintf("e%d", i)
		edges = append(edges, e)
	}
	logger.Debug("edge detector: %d segments, %d edges", len(segments), len(edges))
	return edges
}

// maskNodes clears edge pixels inside each node's dilated bounding region.
func (d *EdgeDetector) maskNodes(mask [][]bool, nodes []graph.Node, width, height int) {
	for _, n := range nodes {
		box := n.Shape.Box.Dilate(d.cfg.NodeMaskMargin, width, height)
		for y := box.Y1; y <= box.Y2 && y < height; y++ {
			for x := box.X1; x <= box.X2 && x < width; x++ {
				mask[y][x] = false
			}
		}
	}
}

// toEdge matches a segment's endpoints to nodes and builds the edge.
func (d *EdgeDetector) toEdge(seg segment, nodes []graph.Node, mask [][]bool, width, height int) (graph.Edge, bool) {
	startIdx := d.nearestNode(seg.start, nodes)
	endIdx := d.nearestNode(seg.end, nodes)
	if startIdx < 0 || endIdx < 0 || startIdx == endIdx {
		return graph.Edge{}, false
	}

	length := seg.length()
	if length <= 0 {
		return graph.Edge{}, false
	}

	// Occupancy along the traced line. Gradient edges straddle a stroke on
	// both sides, so a fully solid line yields roughly two mask pixels per
	// unit length.
	occupancy := float64(seg.support) / (2 * length)
	if occupancy > 1 {
		occupancy = 1
	}
	style := graph.StyleSolid
	if occupancy < d.cfg.DashOccupancy {
		style = graph.StyleDashed
	}

	arrowAtStart := hasArrowHead(mask, seg.start, seg.end, width, height)
	arrowAtEnd := hasArrowHead(mask, seg.end, seg.start, width, height)

	source, target := nodes[startIdx].ID, nodes[endIdx].ID
	directed := false
	switch {
	case arrowAtEnd && !arrowAtStart:
		directed = true
	case arrowAtStart && !arrowAtEnd:
		directed = true
		source, target = target, source
	}
	// Arrowheads on both ends cancel out: the edge stays undirected.

	return graph.Edge{
		Source:   source,
		Target:   target,
		Directed: directed,
		Style:    style,
		Midpoint: geometry.Point{
			X: (seg.start.X + seg.end.X) / 2,
			Y: (seg.start.Y + seg.end.Y) / 2,
		},
		Confidence: occupancy,
	}, true
}

// nearestNode returns the index of the node whose center is closest to p
// within the endpoint match distance, or -1.
func (d *EdgeDetector) nearestNode(p geometry.Point, nodes []graph.Node) int {
	best := -1
	bestDist := d.cfg.EndpointMatchDist
	for i, n := range nodes {
		dist := geometry.Dist(p, n.Shape.Center)
		if dist <= bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// pairKey identifies an edge by its node pair. Undirected edges use a
// canonical ordering so the same connection detected in either direction
// merges into one edge.
func pairKey(e graph.Edge) string {
	if e.Directed {
		return e.Source + ">" + e.Target
	}
	if e.Source < e.Target {
		return e.Source + "-" + e.Target
	}
	return e.Target + "-" + e.Source
}

// houghSegments finds straight segments in a binary edge mask using a
// standard rho-theta Hough transform. For each accumulator peak the segment
// endpoints are recovered by collecting the mask pixels lying on the voted
// line and taking the extremes along the line direction.
func houghSegments(mask [][]bool, width, height, minLength int) []segment {
	maxDist := int(math.Sqrt(float64(width*width + height*height)))
	const numAngles = 180
	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] {
				continue
			}
			for theta := 0; theta < numAngles; theta++ {
				angle := float64(theta) * math.Pi / 180
				rho := float64(x)*math.Cos(angle) + float64(y)*math.Sin(angle)
				rhoIdx := int(rho) + maxDist
				if rhoIdx >= 0 && rhoIdx < maxDist*2 {
					accumulator[rhoIdx][theta]++
				}
			}
		}
	}

	type peak struct {
		rho, theta, votes int
	}
	var peaks []peak
	threshold := minLength / 2
	if threshold < 5 {
		threshold = 5
	}
	for rhoIdx := 0; rhoIdx < maxDist*2; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			votes := accumulator[rhoIdx][theta]
			if votes < threshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					nt := (theta + dt + numAngles) % numAngles
					if nr >= 0 && nr < maxDist*2 && accumulator[nr][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: rhoIdx - maxDist, theta: theta, votes: votes})
			}
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].votes > peaks[j].votes })

	// Adjacent rho bins over a thick stroke produce near-identical peaks.
	// Pixels are consumed by the first segment that claims them so a later
	// peak cannot rebuild the same segment and inflate its support.
	consumed := make([][]bool, height)
	for y := range consumed {
		consumed[y] = make([]bool, width)
	}

	var segments []segment
	for _, pk := range peaks {
		if len(segments) >= maxSegments {
			break
		}
		cosA := math.Cos(float64(pk.theta) * math.Pi / 180)
		sinA := math.Sin(float64(pk.theta) * math.Pi / 180)
		rho := float64(pk.rho)

		var linePoints []geometry.Point
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !mask[y][x] || consumed[y][x] {
					continue
				}
				if math.Abs(float64(x)*cosA+float64(y)*sinA-rho) < 2.0 {
					linePoints = append(linePoints, geometry.Point{X: x, Y: y})
				}
			}
		}
		if len(linePoints) < minLength {
			continue
		}

		var start, end geometry.Point
		minProj, maxProj := math.MaxFloat64, -math.MaxFloat64
		for _, p := range linePoints {
			// Projection onto the line direction (perpendicular to the
			// normal (cosA, sinA)).
			proj := -float64(p.X)*sinA + float64(p.Y)*cosA
			if proj < minProj {
				minProj = proj
				start = p
			}
			if proj > maxProj {
				maxProj = proj
				end = p
			}
		}

		seg := segment{start: start, end: end, support: len(linePoints)}
		if seg.length() < float64(minLength) {
			continue
		}
		for _, p := range linePoints {
			consumed[p.Y][p.X] = true
		}
		segments = append(segments, seg)
	}
	return segments
}

// mergeColinear merges segments that are nearly parallel and
// endpoint-adjacent into one logical segment spanning both.
func mergeColinear(segments []segment, angleTolDeg, gapPx float64) []segment {
	tol := angleTolDeg * math.Pi / 180
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(segments) && !merged; i++ {
			for j := i + 1; j < len(segments) && !merged; j++ {
				if !colinearAdjacent(segments[i], segments[j], tol, gapPx) {
					continue
				}
				segments[i] = joinSegments(segments[i], segments[j])
				segments = append(segments[:j], segments[j+1:]...)
				merged = true
			}
		}
	}
	return segments
}

func colinearAdjacent(a, b segment, angleTol, gapPx float64) bool {
	diff := math.Abs(angleDiff(a.angle(), b.angle()))
	// Segments have no inherent orientation; a 180 degree flip is the
	// same direction.
	if diff > math.Pi/2 {
		diff = math.Pi - diff
	}
	if diff > angleTol {
		return false
	}
	gap := math.Min(
		math.Min(geometry.Dist(a.start, b.start), geometry.Dist(a.start, b.end)),
		math.Min(geometry.Dist(a.end, b.start), geometry.Dist(a.end, b.end)),
	)
	return gap <= gapPx
}

// joinSegments spans the two farthest endpoints of a pair of segments.
func joinSegments(a, b segment) segment {
	pts := []geometry.Point{a.start, a.end, b.start, b.end}
	best := segment{start: a.start, end: a.end, support: a.support + b.support}
	bestLen := -1.0
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if d := geometry.Dist(pts[i], pts[j]); d > bestLen {
				bestLen = d
				best.start, best.end = pts[i], pts[j]
			}
		}
	}
	return best
}

func angleDiff(a, b float64) float64 {
	d := a - b
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// arrowWingLen is how far back from a segment endpoint the detector looks
// for arrowhead wing strokes.
const arrowWingLen = 10

// hasArrowHead checks for arrowhead wing strokes near the endpoint at
// `tip`, pointing away from `other`. Wings are edge pixels at roughly 45
// degrees off the segment direction on both sides of the tip.
func hasArrowHead(mask [][]bool, tip, other geometry.Point, width, height int) bool {
	dx := float64(tip.X - other.X)
	dy := float64(tip.Y - other.Y)
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return false
	}
	dx /= length
	dy /= length

	cos45 := math.Cos(math.Pi / 4)
	sin45 := math.Sin(math.Pi / 4)

	leftX := dx*cos45 - dy*sin45
	leftY := dx*sin45 + dy*cos45
	rightX := dx*cos45 + dy*sin45
	rightY := -dx*sin45 + dy*cos45

	leftCount, rightCount := 0, 0
	for d := 1; d <= arrowWingLen; d++ {
		px := tip.X - int(float64(d)*leftX)
		py := tip.Y - int(float64(d)*leftY)
		if px >= 0 && px < width && py >= 0 && py < height && mask[py][px] {
			leftCount++
		}
		px = tip.X - int(float64(d)*rightX)
		py = tip.Y - int(float64(d)*rightY)
		if px >= 0 && px < width && py >= 0 && py < height && mask[py][px] {
			rightCount++
		}
	}
	return leftCount >= 3 && rightCount >= 3
}
