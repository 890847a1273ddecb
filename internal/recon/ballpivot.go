package recon

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

// BallPivot reconstructs a mesh from the rho-exposed triangles of the
// point set: for each pivot radius, a triangle among near neighbours
// is accepted when a ball of that radius resting on its three vertices
// is empty of other points and sits on the outward side indicated by
// the point normals. Radii are tried from smallest to largest and
// accepted triangles accumulate across radii, so fine detail is
// captured first and larger balls bridge sparser regions.
func BallPivot(pts, normals []r3.Vec, radii []float64) (*geom.Mesh, error) {
	if len(radii) == 0 {
		return nil, fmt.Errorf("ball pivoting needs at least one radius")
	}
	if len(normals) != len(pts) {
		return nil, fmt.Errorf("ball pivoting needs one normal per point: %d points, %d normals", len(pts), len(normals))
	}

	// The indexed cloud deduplicates, so carry normals through a
	// position lookup rather than by input index.
	normalAt := make(map[r3.Vec]r3.Vec, len(pts))
	for i, p := range pts {
		if _, ok := normalAt[p]; !ok {
			normalAt[p] = normals[i]
		}
	}
	ic := newIndexedCloud(pts)
	if len(ic.pts) < 3 {
		return nil, fmt.Errorf("ball pivoting needs at least 3 points, have %d", len(ic.pts))
	}

	ordered := append([]float64(nil), radii...)
	sort.Float64s(ordered)

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

				outward := r3.Add(r3.Add(normalAt[ic.pts[i]], normalAt[ic.pts[j]]),
					normalAt[ic.pts[k]])
				for _, r := range ordered {
					side, ok := emptyBallSide(ic, i, j, k, r)
					if !ok {
						continue
					}
					_, _, n, valid := circumcircle3D(ic.pts[i], ic.pts[j], ic.pts[k])
					if !valid {
						break
					}
					// The empty ball must rest on the outward side.
					if r3.Dot(r3.Scale(float64(side), n), outward) >= 0 {
						mesh.Triangles = append(mesh.Triangles, [3]int{i, j, k})
						break
					}
				}
			}
		}
	}
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("ball pivoting produced no triangles for radii %v", ordered)
	}
	mesh.RemoveUnreferencedVertices()
	return mesh, nil
}
