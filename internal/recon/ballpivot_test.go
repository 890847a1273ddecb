package recon

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestBallPivotSphere(t *testing.T) {
	pts := fibonacciSphere(1000, 1)
	normals := make([]r3.Vec, len(pts))
	for i, p := range pts {
		normals[i] = p // outward normals of a unit sphere
	}

	// Spacing is roughly 0.11; the usual radius ladder around it.
	mesh, err := BallPivot(pts, normals, []float64{0.09, 0.13, 0.22})
	if err != nil {
		t.Fatalf("ball pivot failed: %v", err)
	}
	if len(mesh.Triangles) < 100 {
		t.Fatalf("only %d triangles, expected a dense sphere cover", len(mesh.Triangles))
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("mesh invalid: %v", err)
	}
	for i, v := range mesh.Vertices {
		if math.Abs(r3.Norm(v)-1) > 1e-9 {
			t.Fatalf("vertex %d not on sphere: %v", i, v)
		}
	}
}

func TestBallPivotRejectsBadInput(t *testing.T) {
	pts := fibonacciSphere(100, 1)
	normals := make([]r3.Vec, len(pts))
	copy(normals, pts)

	if _, err := BallPivot(pts, normals, nil); err == nil {
		t.Fatal("expected error with no radii")
	}
	if _, err := BallPivot(pts, normals[:10], []float64{0.1}); err == nil {
		t.Fatal("expected error on point/normal count mismatch")
	}
	if _, err := BallPivot(pts[:2], normals[:2], []float64{0.1}); err == nil {
		t.Fatal("expected error with fewer than 3 points")
	}
}

func TestBallPivotTinyRadiusFails(t *testing.T) {
	pts := fibonacciSphere(300, 1)
	normals := make([]r3.Vec, len(pts))
	copy(normals, pts)
	// A ball smaller than the point spacing cannot rest on any triangle.
	if _, err := BallPivot(pts, normals, []float64{1e-4}); err == nil {
		t.Fatal("expected failure when every ball is too small")
	}
}
