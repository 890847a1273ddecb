package recon

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

func messyMesh() *geom.Mesh {
	m := &geom.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
			// Far floating triangle.
			{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 10, Y: 11},
		},
		Triangles: [][3]int{
			{0, 1, 2}, {0, 2, 3},
			{0, 1, 2},    // duplicate
			{0, 0, 1},    // degenerate
			{4, 5, 6},    // floating component
		},
	}
	return m
}

func TestPostProcess(t *testing.T) {
	m := PostProcess(messyMesh())
	if m == nil {
		t.Fatal("postprocess returned nil")
	}
	if len(m.Triangles) != 2 {
		t.Fatalf("have %d triangles after cleanup, want 2", len(m.Triangles))
	}
	if len(m.Vertices) != 4 {
		t.Fatalf("have %d vertices after cleanup, want 4", len(m.Vertices))
	}
	if !m.HasVertexNormals() {
		t.Fatal("postprocess must leave vertex normals in place")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("indices invalid after cleanup: %v", err)
	}
}

func TestPostProcessIdempotent(t *testing.T) {
	once := PostProcess(messyMesh())
	again := PostProcess(&geom.Mesh{
		Vertices:  append([]r3.Vec(nil), once.Vertices...),
		Triangles: append([][3]int(nil), once.Triangles...),
	})
	if diff := cmp.Diff(once.Vertices, again.Vertices); diff != "" {
		t.Fatalf("second pass moved vertices (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(once.Triangles, again.Triangles); diff != "" {
		t.Fatalf("second pass changed triangles (-first +second):\n%s", diff)
	}
}

func TestPostProcessNil(t *testing.T) {
	if PostProcess(nil) != nil {
		t.Fatal("nil mesh should pass through")
	}
}
