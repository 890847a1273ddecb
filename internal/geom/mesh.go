package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. Each triangle holds three 0-based
// indices into Vertices. Normals are optional until computed; STL
// export requires vertex normals to be present.
type Mesh struct {
	Vertices        []r3.Vec
	Triangles       [][3]int
	VertexNormals   []r3.Vec
	TriangleNormals []r3.Vec
}

// Validate checks that every triangle index is inside the vertex range.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for ti, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= n {
				return fmt.Errorf("triangle %d references vertex %d, have %d vertices", ti, v, n)
			}
		}
	}
	return nil
}

// TriangleArea returns the area of triangle t.
func (m *Mesh) TriangleArea(t [3]int) float64 {
	a := m.Vertices[t[0]]
	b := m.Vertices[t[1]]
	c := m.Vertices[t[2]]
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// SurfaceArea returns the sum of all triangle areas.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for _, t := range m.Triangles {
		area += m.TriangleArea(t)
	}
	return area
}

// ComputeTriangleNormals fills TriangleNormals with unit face normals.
// Degenerate faces get a zero normal.
func (m *Mesh) ComputeTriangleNormals() {
	m.TriangleNormals = make([]r3.Vec, len(m.Triangles))
	for i, t := range m.Triangles {
		a := m.Vertices[t[0]]
		b := m.Vertices[t[1]]
		c := m.Vertices[t[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		m.TriangleNormals[i] = n
	}
}

// ComputeVertexNormals fills VertexNormals with area-weighted averages
// of the incident face normals, normalised to unit length.
func (m *Mesh) ComputeVertexNormals() {
	m.VertexNormals = make([]r3.Vec, len(m.Vertices))
	for _, t := range m.Triangles {
		a := m.Vertices[t[0]]
		b := m.Vertices[t[1]]
		c := m.Vertices[t[2]]
		// Cross product magnitude is twice the face area, so the
		// unnormalised normal is already area weighted.
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range t {
			m.VertexNormals[v] = r3.Add(m.VertexNormals[v], n)
		}
	}
	for i, n := range m.VertexNormals {
		if l := r3.Norm(n); l > 0 {
			m.VertexNormals[i] = r3.Scale(1/l, n)
		}
	}
}

// HasVertexNormals reports whether a vertex normal exists for every
// vertex.
func (m *Mesh) HasVertexNormals() bool {
	return len(m.Vertices) > 0 && len(m.VertexNormals) == len(m.Vertices)
}

// edgeKey is an undirected edge identified by its sorted vertex pair.
type edgeKey struct {
	lo, hi int
}

func makeEdge(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

func (m *Mesh) edges(t [3]int) [3]edgeKey {
	return [3]edgeKey{
		makeEdge(t[0], t[1]),
		makeEdge(t[1], t[2]),
		makeEdge(t[2], t[0]),
	}
}

// filterTriangles keeps only the triangles for which keep returns true.
// Any computed normals are invalidated.
func (m *Mesh) filterTriangles(keep func(i int, t [3]int) bool) {
	out := m.Triangles[:0]
	for i, t := range m.Triangles {
		if keep(i, t) {
			out = append(out, t)
		}
	}
	m.Triangles = out
	m.TriangleNormals = nil
}
