package geometry

import (
	"math"
	"sort"
)

// ShapeKind identifies the geometric class of a detected shape.
type ShapeKind string

const (
	KindCircle    ShapeKind = "circle"
	KindRectangle ShapeKind = "rectangle"
	KindPolygon   ShapeKind = "polygon"
)

// Shape is a detected geometric figure. The Kind field selects which of the
// remaining fields are meaningful:
//
//   - circle: Center and Radius
//   - rectangle: Box
//   - polygon: Vertices (convex, in hull order)
//
// Box always holds the bounding box regardless of kind, so consumers that
// only need a rectangular region can use it without switching on Kind.
type Shape struct {
	Kind     ShapeKind `json:"kind"`
	Center   Point     `json:"center"`
	Radius   int       `json:"radius,omitempty"`
	Box      Bounds    `json:"box"`
	Vertices []Point   `json:"vertices,omitempty"`
}

// NewCircle builds a circle shape with a bounding box derived from the radius.
func NewCircle(center Point, radius int) Shape {
	return Shape{
		Kind:   KindCircle,
		Center: center,
		Radius: radius,
		Box: Bounds{
			X1: center.X - radius,
			Y1: center.Y - radius,
			X2: center.X + radius,
			Y2: center.Y + radius,
		},
	}
}

// NewRectangle builds a rectangle shape from its bounding box.
func NewRectangle(box Bounds) Shape {
	return Shape{Kind: KindRectangle, Center: box.Center(), Box: box}
}

// NewPolygon builds a polygon shape from its vertices.
// The centroid of the vertices is used as the center.
func NewPolygon(vertices []Point) Shape {
	box := Bounds{X1: math.MaxInt32, Y1: math.MaxInt32, X2: math.MinInt32, Y2: math.MinInt32}
	var sx, sy int
	for _, v := range vertices {
		sx += v.X
		sy += v.Y
		if v.X < box.X1 {
			box.X1 = v.X
		}
		if v.X > box.X2 {
			box.X2 = v.X
		}
		if v.Y < box.Y1 {
			box.Y1 = v.Y
		}
		if v.Y > box.Y2 {
			box.Y2 = v.Y
		}
	}
	c := Point{}
	if n := len(vertices); n > 0 {
		c = Point{X: sx / n, Y: sy / n}
	}
	return Shape{Kind: KindPolygon, Center: c, Box: box, Vertices: vertices}
}

// BoundaryDist returns the distance from p to the shape boundary.
// Returns 0 when p lies on or inside the shape.
func (s Shape) BoundaryDist(p Point) float64 {
	switch s.Kind {
	case KindCircle:
		d := Dist(p, s.Center) - float64(s.Radius)
		if d < 0 {
			return 0
		}
		return d
	default:
		// Rectangles and polygons fall back to their bounding box. Polygon
		// nodes are convex and low-vertex, so the box is a close proxy.
		return s.Box.DistToPoint(p)
	}
}

// ConvexHull computes the convex hull of a point set using Andrew's monotone
// chain algorithm. The result is in counter-clockwise order (image
// coordinates, y growing downward). Input order does not matter.
//
// Returns the input unchanged when it has fewer than 3 points.
func ConvexHull(points []Point) []Point {
	n := len(points)
	if n < 3 {
		out := make([]Point, n)
		copy(out, points)
		return out
	}

	sorted := make([]Point, n)
	copy(sorted, points)
	sortPoints(sorted)

	hull := make([]Point, 0, n)
	// Lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper hull
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// HullPerimeter returns the perimeter of a closed polygon.
func HullPerimeter(hull []Point) float64 {
	if len(hull) < 2 {
		return 0
	}
	var per float64
	for i := range hull {
		per += Dist(hull[i], hull[(i+1)%len(hull)])
	}
	return per
}

// HullArea returns the area of a closed polygon via the shoelace formula.
func HullArea(hull []Point) float64 {
	if len(hull) < 3 {
		return 0
	}
	var sum int
	for i := range hull {
		j := (i + 1) % len(hull)
		sum += hull[i].X*hull[j].Y - hull[j].X*hull[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// SimplifyHull removes near-colinear vertices from a convex hull.
// A vertex is dropped when the angle it forms with its neighbors deviates
// from a straight line by less than angleTolDeg degrees.
func SimplifyHull(hull []Point, angleTolDeg float64) []Point {
	if len(hull) <= 3 {
		return hull
	}
	tol := angleTolDeg * math.Pi / 180
	out := make([]Point, 0, len(hull))
	n := len(hull)
	for i := 0; i < n; i++ {
		prev := hull[(i-1+n)%n]
		cur := hull[i]
		next := hull[(i+1)%n]
		a1 := math.Atan2(float64(cur.Y-prev.Y), float64(cur.X-prev.X))
		a2 := math.Atan2(float64(next.Y-cur.Y), float64(next.X-cur.X))
		diff := math.Abs(normAngle(a2 - a1))
		if diff > tol {
			out = append(out, cur)
		}
	}
	if len(out) < 3 {
		return hull
	}
	return out
}

// normAngle wraps an angle into (-pi, pi].
func normAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// cross returns the z-component of (b-a) x (c-a).
func cross(a, b, c Point) int {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// sortPoints orders points by X, then Y.
func sortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
}
