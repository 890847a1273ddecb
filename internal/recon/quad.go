package recon

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

// PlaneQuad approximates a plane's footprint with four coplanar
// corners and two triangles indexing them. The corners come from the
// axis-aligned bounding rectangle of the inliers in a local plane
// frame; for rotated rectangular patches this overestimates the true
// footprint, which downstream consumers rely on staying stable.
type PlaneQuad struct {
	Corners   [4]r3.Vec
	Triangles [2][3]int
}

// Mesh returns the quad as a standalone 4-vertex, 2-triangle mesh.
func (q *PlaneQuad) Mesh() *geom.Mesh {
	return &geom.Mesh{
		Vertices:  q.Corners[:],
		Triangles: [][3]int{q.Triangles[0], q.Triangles[1]},
	}
}

// planeFrame is an orthonormal 2D basis lying in a plane, anchored at
// the inlier centroid.
type planeFrame struct {
	origin r3.Vec
	u, v   r3.Vec
}

// buildFrame derives the local frame from the plane normal: the
// helper axis is world Z unless the normal is already near Z, then
// world X; u = normal x helper (normalised), v = normal x u.
func buildFrame(p *Plane) (planeFrame, error) {
	if len(p.Inliers) == 0 {
		return planeFrame{}, fmt.Errorf("plane has no inliers")
	}
	n := p.Coefficients.Normal()
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return planeFrame{}, fmt.Errorf("plane normal is degenerate")
	}
	n = r3.Scale(1/l, n)

	helper := r3.Vec{Z: 1}
	if math.Abs(r3.Dot(n, helper)) > 0.9 {
		helper = r3.Vec{X: 1}
	}
	u := r3.Cross(n, helper)
	ul := r3.Norm(u)
	if ul == 0 {
		return planeFrame{}, fmt.Errorf("cannot build in-plane basis")
	}
	u = r3.Scale(1/ul, u)
	return planeFrame{
		origin: geom.Centroid(p.Inliers),
		u:      u,
		v:      r3.Cross(n, u),
	}, nil
}

func (f planeFrame) project(p r3.Vec) [2]float64 {
	d := r3.Sub(p, f.origin)
	return [2]float64{r3.Dot(d, f.u), r3.Dot(d, f.v)}
}

func (f planeFrame) unproject(x, y float64) r3.Vec {
	return r3.Add(f.origin, r3.Add(r3.Scale(x, f.u), r3.Scale(y, f.v)))
}

// ProjectPlane returns the 2D projections of a plane's inliers and
// the 2D corners of its bounding rectangle, for diagnostics and plot
// snapshots.
func ProjectPlane(p *Plane) (points [][2]float64, quad [4][2]float64, err error) {
	frame, err := buildFrame(p)
	if err != nil {
		return nil, quad, err
	}
	points = make([][2]float64, 0, len(p.Inliers))
	for _, pt := range p.Inliers {
		points = append(points, frame.project(pt))
	}
	rect, err := boundingRect(points)
	if err != nil {
		return nil, quad, err
	}
	return points, rect, nil
}

// boundingRect returns the corners of the axis-aligned bounding
// rectangle of 2D points in a fixed winding order.
func boundingRect(points [][2]float64) ([4][2]float64, error) {
	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, pt := range points {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) {
			continue
		}
		minU = math.Min(minU, pt[0])
		maxU = math.Max(maxU, pt[0])
		minV = math.Min(minV, pt[1])
		maxV = math.Max(maxV, pt[1])
	}
	if math.IsInf(minU, 0) || math.IsInf(minV, 0) || maxU <= minU || maxV <= minV {
		return [4][2]float64{}, fmt.Errorf("degenerate 2D footprint")
	}
	return [4][2]float64{
		{minU, minV},
		{maxU, minV},
		{maxU, maxV},
		{minU, maxV},
	}, nil
}

// ExtractQuad derives a PlaneQuad from a detected plane: project the
// inliers into the local frame, take the 2D bounding rectangle,
// un-project its corners, and split along the shorter diagonal. On
// failure it degrades to the first four corners of the inliers'
// bounding box.
func ExtractQuad(p *Plane) (PlaneQuad, error) {
	quad, err := extractQuadFrame(p)
	if err == nil {
		return quad, nil
	}
	return bboxQuad(p.Inliers, err)
}

func extractQuadFrame(p *Plane) (PlaneQuad, error) {
	frame, err := buildFrame(p)
	if err != nil {
		return PlaneQuad{}, err
	}
	proj := make([][2]float64, 0, len(p.Inliers))
	for _, pt := range p.Inliers {
		proj = append(proj, frame.project(pt))
	}
	rect, err := boundingRect(proj)
	if err != nil {
		return PlaneQuad{}, err
	}
	var corners [4]r3.Vec
	for i, c := range rect {
		corners[i] = frame.unproject(c[0], c[1])
	}
	return PlaneQuad{Corners: corners, Triangles: splitQuad(corners)}, nil
}

// splitQuad picks the shorter of the two diagonals (0-2 vs 1-3) as the
// split edge. Shorter-diagonal splits avoid sliver triangles on skewed
// quads.
func splitQuad(c [4]r3.Vec) [2][3]int {
	d02 := r3.Norm(r3.Sub(c[2], c[0]))
	d13 := r3.Norm(r3.Sub(c[3], c[1]))
	if d02 <= d13 {
		return [2][3]int{{0, 1, 2}, {0, 2, 3}}
	}
	return [2][3]int{{0, 1, 3}, {1, 2, 3}}
}

// bboxQuad is the degraded fallback: the first four corners of the
// inliers' axis-aligned bounding box.
func bboxQuad(pts []r3.Vec, cause error) (PlaneQuad, error) {
	b, ok := geom.Bounds(pts)
	if !ok {
		return PlaneQuad{}, fmt.Errorf("quad extraction failed (%v) and no finite points for bbox fallback", cause)
	}
	corners := [4]r3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
	}
	return PlaneQuad{Corners: corners, Triangles: splitQuad(corners)}, nil
}
