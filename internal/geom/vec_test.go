package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestFilterFinite(t *testing.T) {
	pts := []r3.Vec{
		{X: 1, Y: 2, Z: 3},
		{X: math.NaN(), Y: 0, Z: 0},
		{X: 0, Y: math.Inf(1), Z: 0},
		{X: 4, Y: 5, Z: 6},
	}
	got := FilterFinite(pts)
	if len(got) != 2 {
		t.Fatalf("expected 2 finite points, got %d", len(got))
	}
	if got[0] != pts[0] || got[1] != pts[3] {
		t.Fatalf("finite points out of order: %v", got)
	}
}

func TestCentroid(t *testing.T) {
	pts := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 4, Z: 6},
	}
	c := Centroid(pts)
	want := r3.Vec{X: 1, Y: 2, Z: 3}
	if c != want {
		t.Fatalf("centroid = %v, want %v", c, want)
	}
	if (Centroid(nil) != r3.Vec{}) {
		t.Fatalf("empty centroid should be zero")
	}
}

func TestBounds(t *testing.T) {
	pts := []r3.Vec{
		{X: -1, Y: 2, Z: 0},
		{X: 3, Y: -2, Z: 5},
		{X: math.NaN(), Y: 100, Z: 100},
	}
	b, ok := Bounds(pts)
	if !ok {
		t.Fatal("expected bounds from finite points")
	}
	if b.Min.X != -1 || b.Max.X != 3 || b.Min.Y != -2 || b.Max.Y != 2 || b.Max.Z != 5 {
		t.Fatalf("unexpected bounds: %+v", b)
	}

	if _, ok := Bounds([]r3.Vec{{X: math.NaN()}}); ok {
		t.Fatal("all-non-finite input should report no bounds")
	}
}

func TestBoxExpandAndContains(t *testing.T) {
	b := Box{Min: r3.Vec{X: 0, Y: 0, Z: 0}, Max: r3.Vec{X: 2, Y: 2, Z: 2}}
	e := b.Expand(1.5)
	if math.Abs(e.Min.X+0.5) > 1e-12 || math.Abs(e.Max.X-2.5) > 1e-12 {
		t.Fatalf("expanded box wrong: %+v", e)
	}
	if !b.Contains(r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Fatal("box should contain its center")
	}
	if b.Contains(r3.Vec{X: 3, Y: 1, Z: 1}) {
		t.Fatal("box should not contain outside point")
	}
}
