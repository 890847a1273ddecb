package recon

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

// implicitSmoothingPasses is the Jacobi iteration count used to
// diffuse the indicator field away from the splatted samples.
const implicitSmoothingPasses = 60

// ImplicitSurface is the last-resort reconstruction in the residual
// chain, standing in for Poisson reconstruction: oriented points are
// splatted as signed-distance samples into a uniform lattice of
// resolution 2^depth, the field is relaxed by Jacobi passes with the
// lattice boundary pinned outside, and the zero isosurface is
// extracted by marching tetrahedra. The result is cropped to a 1.1x
// expansion of the input bounding box, mirroring the crop applied
// after Poisson to shed the inflated outer shell.
func ImplicitSurface(pts, normals []r3.Vec, depth int) (*geom.Mesh, error) {
	if len(normals) != len(pts) {
		return nil, fmt.Errorf("implicit surface needs one normal per point: %d points, %d normals", len(pts), len(normals))
	}
	finite := geom.FilterFinite(pts)
	if len(finite) < 4 {
		return nil, fmt.Errorf("implicit surface needs at least 4 points, have %d", len(finite))
	}
	if depth < 3 {
		depth = 3
	}
	if depth > 7 {
		depth = 7
	}
	res := 1 << depth

	bounds, ok := geom.Bounds(finite)
	if !ok {
		return nil, fmt.Errorf("no finite points")
	}
	grid := bounds.Expand(1.3)
	ext := grid.Extent()
	maxExt := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	if maxExt <= 0 {
		return nil, fmt.Errorf("degenerate bounding box")
	}
	cell := maxExt / float64(res)

	// Cubic lattice of (res+1)^3 sample values centred on the grid box.
	n1 := res + 1
	at := func(ix, iy, iz int) int { return (iz*n1+iy)*n1 + ix }
	pos := func(ix, iy, iz int) r3.Vec {
		return r3.Vec{
			X: grid.Min.X + float64(ix)*cell,
			Y: grid.Min.Y + float64(iy)*cell,
			Z: grid.Min.Z + float64(iz)*cell,
		}
	}

	val := make([]float64, n1*n1*n1)
	weight := make([]float64, n1*n1*n1)
	known := make([]bool, n1*n1*n1)

	// Splat each oriented sample onto nearby lattice vertices as a
	// signed offset along the sample normal.
	for i, p := range pts {
		if !geom.IsFinite(p) {
			continue
		}
		n := normals[i]
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		} else {
			continue
		}
		cx := (p.X - grid.Min.X) / cell
		cy := (p.Y - grid.Min.Y) / cell
		cz := (p.Z - grid.Min.Z) / cell
		for ix := int(math.Floor(cx)) - 1; ix <= int(math.Floor(cx))+2; ix++ {
			for iy := int(math.Floor(cy)) - 1; iy <= int(math.Floor(cy))+2; iy++ {
				for iz := int(math.Floor(cz)) - 1; iz <= int(math.Floor(cz))+2; iz++ {
					if ix < 0 || iy < 0 || iz < 0 || ix >= n1 || iy >= n1 || iz >= n1 {
						continue
					}
					v := pos(ix, iy, iz)
					d := r3.Sub(v, p)
					if r3.Norm(d) > 2*cell {
						continue
					}
					idx := at(ix, iy, iz)
					val[idx] += r3.Dot(d, n)
					weight[idx]++
					known[idx] = true
				}
			}
		}
	}
	for i := range val {
		if weight[i] > 0 {
			val[i] /= weight[i]
		}
	}

	// Pin the lattice boundary outside so the relaxed field closes
	// around the samples.
	outside := 2 * cell
	for ix := 0; ix < n1; ix++ {
		for iy := 0; iy < n1; iy++ {
			for iz := 0; iz < n1; iz++ {
				if ix == 0 || iy == 0 || iz == 0 || ix == n1-1 || iy == n1-1 || iz == n1-1 {
					idx := at(ix, iy, iz)
					val[idx] = outside
					known[idx] = true
				} else if !known[at(ix, iy, iz)] {
					val[at(ix, iy, iz)] = outside
				}
			}
		}
	}

	// Jacobi relaxation of the unknown lattice vertices.
	next := make([]float64, len(val))
	for pass := 0; pass < implicitSmoothingPasses; pass++ {
		copy(next, val)
		for ix := 1; ix < n1-1; ix++ {
			for iy := 1; iy < n1-1; iy++ {
				for iz := 1; iz < n1-1; iz++ {
					idx := at(ix, iy, iz)
					if known[idx] {
						continue
					}
					next[idx] = (val[at(ix-1, iy, iz)] + val[at(ix+1, iy, iz)] +
						val[at(ix, iy-1, iz)] + val[at(ix, iy+1, iz)] +
						val[at(ix, iy, iz-1)] + val[at(ix, iy, iz+1)]) / 6
				}
			}
		}
		val, next = next, val
	}

	mesh := marchingTetrahedra(val, n1, pos, at)
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("implicit surface extraction produced no triangles at depth %d", depth)
	}

	crop := bounds.Expand(1.1)
	mesh.CropToBox(crop)
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("implicit surface empty after bounding-box crop")
	}
	return mesh, nil
}

// tetraDecomposition splits a cube into six tetrahedra sharing the
// 0-6 diagonal. Corner numbering: bit0=x, bit1=y, bit2=z.
var tetraDecomposition = [6][4]int{
	{0, 5, 1, 6},
	{0, 1, 3, 6},
	{0, 3, 2, 6},
	{0, 2, 7, 6},
	{0, 7, 4, 6},
	{0, 4, 5, 6},
}

// marchingTetrahedra extracts the zero isosurface of the lattice
// field. Vertices on lattice edges are shared through an edge map so
// the output is indexed rather than triangle soup.
func marchingTetrahedra(val []float64, n1 int, pos func(ix, iy, iz int) r3.Vec, at func(ix, iy, iz int) int) *geom.Mesh {
	mesh := &geom.Mesh{}
	edgeVerts := make(map[[2]int]int)

	vertexOnEdge := func(ia, ib int, pa, pb r3.Vec, va, vb float64) int {
		key := [2]int{ia, ib}
		if ia > ib {
			key = [2]int{ib, ia}
		}
		if v, ok := edgeVerts[key]; ok {
			return v
		}
		t := 0.5
		if vb != va {
			t = va / (va - vb)
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		p := r3.Add(pa, r3.Scale(t, r3.Sub(pb, pa)))
		mesh.Vertices = append(mesh.Vertices, p)
		idx := len(mesh.Vertices) - 1
		edgeVerts[key] = idx
		return idx
	}

	for ix := 0; ix < n1-1; ix++ {
		for iy := 0; iy < n1-1; iy++ {
			for iz := 0; iz < n1-1; iz++ {
				// Cube corners: bit0 -> +x, bit1 -> +y, bit2 -> +z.
				var cornerIdx [8]int
				var cornerPos [8]r3.Vec
				var cornerVal [8]float64
				for c := 0; c < 8; c++ {
					cx, cy, cz := ix+(c&1), iy+((c>>1)&1), iz+((c>>2)&1)
					cornerIdx[c] = at(cx, cy, cz)
					cornerPos[c] = pos(cx, cy, cz)
					cornerVal[c] = val[cornerIdx[c]]
				}
				for _, tet := range tetraDecomposition {
					emitTetra(mesh, vertexOnEdge, tet, cornerIdx, cornerPos, cornerVal)
				}
			}
		}
	}
	return mesh
}

// emitTetra emits 0, 1 or 2 triangles for one tetrahedron depending on
// which of its vertices are inside (negative field value).
func emitTetra(mesh *geom.Mesh,
	vertexOnEdge func(ia, ib int, pa, pb r3.Vec, va, vb float64) int,
	tet [4]int, idx [8]int, pos [8]r3.Vec, val [8]float64) {

	var inside, outside []int
	for _, c := range tet {
		if val[c] < 0 {
			inside = append(inside, c)
		} else {
			outside = append(outside, c)
		}
	}

	edge := func(a, b int) int {
		return vertexOnEdge(idx[a], idx[b], pos[a], pos[b], val[a], val[b])
	}

	switch len(inside) {
	case 0, 4:
		return
	case 1:
		a := inside[0]
		mesh.Triangles = append(mesh.Triangles, [3]int{
			edge(a, outside[0]), edge(a, outside[1]), edge(a, outside[2]),
		})
	case 3:
		a := outside[0]
		mesh.Triangles = append(mesh.Triangles, [3]int{
			edge(inside[0], a), edge(inside[1], a), edge(inside[2], a),
		})
	case 2:
		v00 := edge(inside[0], outside[0])
		v01 := edge(inside[0], outside[1])
		v10 := edge(inside[1], outside[0])
		v11 := edge(inside[1], outside[1])
		mesh.Triangles = append(mesh.Triangles,
			[3]int{v00, v01, v11},
			[3]int{v00, v11, v10},
		)
	}
}
