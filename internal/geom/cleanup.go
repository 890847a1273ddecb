package geom

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// RemoveDuplicatedTriangles drops triangles that reference the same
// vertex triple as an earlier triangle, regardless of winding. Returns
// the number of triangles removed.
func (m *Mesh) RemoveDuplicatedTriangles() int {
	seen := make(map[[3]int]struct{}, len(m.Triangles))
	before := len(m.Triangles)
	m.filterTriangles(func(_ int, t [3]int) bool {
		k := t
		sort.Ints(k[:])
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
	return before - len(m.Triangles)
}

// RemoveDegenerateTriangles drops triangles with a repeated vertex
// index or with an area at or below areaEps. Returns the number
// removed.
func (m *Mesh) RemoveDegenerateTriangles(areaEps float64) int {
	before := len(m.Triangles)
	m.filterTriangles(func(_ int, t [3]int) bool {
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			return false
		}
		return m.TriangleArea(t) > areaEps
	})
	return before - len(m.Triangles)
}

// RemoveNonManifoldEdges detects edges shared by more than two
// triangles and, for each, keeps the two largest-area triangles while
// dropping the rest. Returns the number of triangles removed.
func (m *Mesh) RemoveNonManifoldEdges() int {
	incident := make(map[edgeKey][]int)
	for i, t := range m.Triangles {
		for _, e := range m.edges(t) {
			incident[e] = append(incident[e], i)
		}
	}

	drop := make(map[int]bool)
	for _, tris := range incident {
		if len(tris) <= 2 {
			continue
		}
		sort.Slice(tris, func(a, b int) bool {
			return m.TriangleArea(m.Triangles[tris[a]]) > m.TriangleArea(m.Triangles[tris[b]])
		})
		for _, ti := range tris[2:] {
			drop[ti] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	before := len(m.Triangles)
	m.filterTriangles(func(i int, _ [3]int) bool {
		return !drop[i]
	})
	return before - len(m.Triangles)
}

// ClusterConnectedTriangles labels triangles into connected components
// by shared-edge adjacency. It returns a per-triangle component id and
// the triangle count of each component.
func (m *Mesh) ClusterConnectedTriangles() (labels []int, sizes []int, err error) {
	if len(m.Triangles) == 0 {
		return nil, nil, fmt.Errorf("mesh has no triangles")
	}

	parent := make([]int, len(m.Triangles))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	last := make(map[edgeKey]int)
	for i, t := range m.Triangles {
		for _, e := range m.edges(t) {
			if j, ok := last[e]; ok {
				union(i, j)
			}
			last[e] = i
		}
	}

	labels = make([]int, len(m.Triangles))
	next := 0
	rootLabel := make(map[int]int)
	for i := range m.Triangles {
		r := find(i)
		l, ok := rootLabel[r]
		if !ok {
			l = next
			next++
			rootLabel[r] = l
			sizes = append(sizes, 0)
		}
		labels[i] = l
		sizes[l]++
	}
	return labels, sizes, nil
}

// KeepLargestComponent discards all triangles outside the component
// with the greatest triangle count and prunes vertices that are no
// longer referenced. Labeling failure leaves the mesh untouched.
func (m *Mesh) KeepLargestComponent() error {
	labels, sizes, err := m.ClusterConnectedTriangles()
	if err != nil {
		return err
	}
	best := 0
	for l, n := range sizes {
		if n > sizes[best] {
			best = l
		}
	}
	if sizes[best] == len(m.Triangles) {
		return nil
	}
	m.filterTriangles(func(i int, _ [3]int) bool {
		return labels[i] == best
	})
	m.RemoveUnreferencedVertices()
	return nil
}

// RemoveUnreferencedVertices drops vertices that no triangle uses and
// remaps triangle indices. Vertex normals are remapped alongside when
// present.
func (m *Mesh) RemoveUnreferencedVertices() int {
	used := make([]bool, len(m.Vertices))
	for _, t := range m.Triangles {
		for _, v := range t {
			used[v] = true
		}
	}

	remap := make([]int, len(m.Vertices))
	keepNormals := len(m.VertexNormals) == len(m.Vertices)
	next := 0
	for i, u := range used {
		if !u {
			remap[i] = -1
			continue
		}
		m.Vertices[next] = m.Vertices[i]
		if keepNormals {
			m.VertexNormals[next] = m.VertexNormals[i]
		}
		remap[i] = next
		next++
	}
	removed := len(m.Vertices) - next
	m.Vertices = m.Vertices[:next]
	if keepNormals {
		m.VertexNormals = m.VertexNormals[:next]
	} else {
		m.VertexNormals = nil
	}

	for i, t := range m.Triangles {
		m.Triangles[i] = [3]int{remap[t[0]], remap[t[1]], remap[t[2]]}
	}
	return removed
}

// MergeCloseVertices collapses vertices lying within eps of each other
// onto a single representative using a uniform voxel hash, then remaps
// triangle indices. Triangles collapsed to fewer than three distinct
// vertices are dropped. Returns the number of vertices removed.
func (m *Mesh) MergeCloseVertices(eps float64) int {
	if eps <= 0 || len(m.Vertices) == 0 {
		return 0
	}

	type cell struct{ x, y, z int64 }
	voxel := func(p r3.Vec) cell {
		return cell{
			x: int64(math.Floor(p.X / eps)),
			y: int64(math.Floor(p.Y / eps)),
			z: int64(math.Floor(p.Z / eps)),
		}
	}

	// Representative lookup probes the vertex's own voxel and all 26
	// neighbours so near pairs straddling a voxel boundary still merge.
	buckets := make(map[cell][]int)
	remap := make([]int, len(m.Vertices))
	kept := make([]r3.Vec, 0, len(m.Vertices))
	for i, p := range m.Vertices {
		c := voxel(p)
		target := -1
		for dx := int64(-1); dx <= 1 && target < 0; dx++ {
			for dy := int64(-1); dy <= 1 && target < 0; dy++ {
				for dz := int64(-1); dz <= 1 && target < 0; dz++ {
					nc := cell{c.x + dx, c.y + dy, c.z + dz}
					for _, k := range buckets[nc] {
						if r3.Norm(r3.Sub(p, kept[k])) <= eps {
							target = k
							break
						}
					}
				}
			}
		}
		if target >= 0 {
			remap[i] = target
			continue
		}
		k := len(kept)
		kept = append(kept, p)
		buckets[c] = append(buckets[c], k)
		remap[i] = k
	}

	removed := len(m.Vertices) - len(kept)
	if removed == 0 {
		return 0
	}
	m.Vertices = kept
	m.VertexNormals = nil
	m.TriangleNormals = nil

	out := m.Triangles[:0]
	for _, t := range m.Triangles {
		nt := [3]int{remap[t[0]], remap[t[1]], remap[t[2]]}
		if nt[0] == nt[1] || nt[1] == nt[2] || nt[2] == nt[0] {
			continue
		}
		out = append(out, nt)
	}
	m.Triangles = out
	return removed
}

// CropToBox drops triangles with any vertex outside b and prunes the
// vertices left unreferenced.
func (m *Mesh) CropToBox(b Box) {
	m.filterTriangles(func(_ int, t [3]int) bool {
		return b.Contains(m.Vertices[t[0]]) &&
			b.Contains(m.Vertices[t[1]]) &&
			b.Contains(m.Vertices[t[2]])
	})
	m.RemoveUnreferencedVertices()
}

// Concat concatenates meshes into one indexed mesh, offsetting each
// input's triangle indices by the running vertex count. Inputs are not
// modified.
func Concat(meshes []*Mesh) *Mesh {
	out := &Mesh{}
	for _, in := range meshes {
		if in == nil {
			continue
		}
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, in.Vertices...)
		for _, t := range in.Triangles {
			out.Triangles = append(out.Triangles, [3]int{t[0] + offset, t[1] + offset, t[2] + offset})
		}
	}
	return out
}
