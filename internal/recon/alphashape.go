package recon

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/cloud"
	"github.com/banshee-data/meshforge/internal/geom"
)

// candidateNeighbors is the neighbourhood size from which candidate
// triangles are enumerated.
const candidateNeighbors = 16

// indexedCloud pairs a deduplicated point slice with a spatial index
// and an exact-position table so neighbour queries can be resolved
// back to point indices.
type indexedCloud struct {
	pts   []r3.Vec
	idx   *cloud.NeighborIndex
	byPos map[r3.Vec]int
}

func newIndexedCloud(pts []r3.Vec) *indexedCloud {
	pts = cloud.RemoveDuplicates(geom.FilterFinite(pts))
	ic := &indexedCloud{
		pts:   pts,
		idx:   cloud.NewNeighborIndex(pts),
		byPos: make(map[r3.Vec]int, len(pts)),
	}
	for i, p := range pts {
		ic.byPos[p] = i
	}
	return ic
}

// neighbors returns the indices of the k points nearest pts[i],
// excluding i itself.
func (ic *indexedCloud) neighbors(i, k int) []int {
	nbs := ic.idx.Nearest(ic.pts[i], k+1)
	out := make([]int, 0, k)
	for _, nb := range nbs {
		j, ok := ic.byPos[nb.Pos]
		if !ok || j == i {
			continue
		}
		out = append(out, j)
	}
	return out
}

// hasPointInBall reports whether any point other than the three
// triangle vertices lies strictly inside the ball at center with
// radius r.
func (ic *indexedCloud) hasPointInBall(center r3.Vec, r float64, a, b, c int) bool {
	tol := r * 1e-7
	for _, nb := range ic.idx.InRadius(center, r-tol) {
		j, ok := ic.byPos[nb.Pos]
		if !ok {
			continue
		}
		if j != a && j != b && j != c {
			return true
		}
	}
	return false
}

// circumcircle3D returns the circumcenter and circumradius of triangle
// (a, b, c) and the unit triangle normal.
func circumcircle3D(a, b, c r3.Vec) (center r3.Vec, radius float64, normal r3.Vec, ok bool) {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	n := r3.Cross(ab, ac)
	n2 := r3.Norm2(n)
	if n2 == 0 || math.IsNaN(n2) {
		return r3.Vec{}, 0, r3.Vec{}, false
	}
	// Standard circumcenter formula relative to a.
	d := r3.Scale(1/(2*n2), r3.Add(
		r3.Scale(r3.Norm2(ac), r3.Cross(n, ab)),
		r3.Scale(r3.Norm2(ab), r3.Cross(ac, n)),
	))
	center = r3.Add(a, d)
	radius = r3.Norm(d)
	normal = r3.Scale(1/math.Sqrt(n2), n)
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return r3.Vec{}, 0, r3.Vec{}, false
	}
	return center, radius, normal, true
}

// emptyBallSide reports whether one of the two balls of radius r
// touching all three triangle vertices is empty of other points, and
// which side it is on (+1 along the triangle normal, -1 against it).
func emptyBallSide(ic *indexedCloud, i, j, k int, r float64) (side int, ok bool) {
	cc, rc, n, valid := circumcircle3D(ic.pts[i], ic.pts[j], ic.pts[k])
	if !valid || rc > r {
		return 0, false
	}
	h := math.Sqrt(math.Max(r*r-rc*rc, 0))
	if !ic.hasPointInBall(r3.Add(cc, r3.Scale(h, n)), r, i, j, k) {
		return 1, true
	}
	if !ic.hasPointInBall(r3.Sub(cc, r3.Scale(h, n)), r, i, j, k) {
		return -1, true
	}
	return 0, false
}

// AlphaShape reconstructs a triangle mesh as the boundary of a local
// alpha complex: a triangle among near neighbours is part of the
// surface when its circumradius is at most alpha and a ball of radius
// alpha resting on its three vertices contains no other point. This is
// a neighbourhood-limited approximation of the full alpha shape; it
// trades exactness for not needing a 3D Delaunay triangulation.
func AlphaShape(pts []r3.Vec, alpha float64) (*geom.Mesh, error) {
	if alpha <= 0 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("alpha must be positive, got %v", alpha)
	}
	ic := newIndexedCloud(pts)
	if len(ic.pts) < 3 {
		return nil, fmt.Errorf("alpha shape needs at least 3 points, have %d", len(ic.pts))
	}

	seen := make(map[[3]int]struct{})
	mesh := &geom.Mesh{Vertices: ic.pts}
	for i := range ic.pts {
		nbs := ic.neighbors(i, candidateNeighbors)
		for a := 0; a < len(nbs); a++ {
			for b := a + 1; b < len(nbs); b++ {
				j, k := nbs[a], nbs[b]
				key := [3]int{i, j, k}
				sort.Ints(key[:])
				if _, done := seen[key]; done {
					continue
				}
				seen[key] = struct{}{}
				if _, ok := emptyBallSide(ic, i, j, k, alpha); ok {
					mesh.Triangles = append(mesh.Triangles, [3]int{i, j, k})
				}
			}
		}
	}
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("alpha shape produced no triangles at alpha=%v", alpha)
	}
	mesh.RemoveUnreferencedVertices()
	return mesh, nil
}
