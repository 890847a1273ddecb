package recon

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

func TestRunResidualChainOrder(t *testing.T) {
	var calls []string
	want := &geom.Mesh{
		Vertices:  []r3.Vec{{X: 0}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	chain := []residualMethod{
		{name: "first", run: func() (*geom.Mesh, error) {
			calls = append(calls, "first")
			return nil, fmt.Errorf("boom")
		}},
		{name: "second", run: func() (*geom.Mesh, error) {
			calls = append(calls, "second")
			return &geom.Mesh{}, nil // empty counts as failure
		}},
		{name: "third", run: func() (*geom.Mesh, error) {
			calls = append(calls, "third")
			return want, nil
		}},
		{name: "fourth", run: func() (*geom.Mesh, error) {
			calls = append(calls, "fourth")
			return nil, nil
		}},
	}

	got := runResidualChain(chain)
	if got != want {
		t.Fatalf("chain returned %v, want the third method's mesh", got)
	}
	if len(calls) != 3 || calls[2] != "third" {
		t.Fatalf("call sequence = %v, want first..third and no fourth", calls)
	}
}

func TestRunResidualChainAllFail(t *testing.T) {
	chain := []residualMethod{
		{name: "a", run: func() (*geom.Mesh, error) { return nil, fmt.Errorf("a") }},
		{name: "b", run: func() (*geom.Mesh, error) { return nil, nil }},
	}
	if got := runResidualChain(chain); got != nil {
		t.Fatalf("expected nil from a failing chain, got %v", got)
	}
}

func TestReconstructResidualBelowMinimum(t *testing.T) {
	pts := []r3.Vec{{X: 0}, {X: 1}, {X: 2}}
	mesh, err := ReconstructResidual(pts, 0.5, 100, 5, 2.0)
	if err != nil {
		t.Fatalf("small residual should be skipped without error: %v", err)
	}
	if mesh != nil {
		t.Fatalf("small residual should produce no mesh, got %d triangles", len(mesh.Triangles))
	}
}

// fibonacciSphere distributes n points roughly evenly on a sphere of
// the given radius.
func fibonacciSphere(n int, radius float64) []r3.Vec {
	pts := make([]r3.Vec, 0, n)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		y := 1 - 2*float64(i)/float64(n-1)
		r := math.Sqrt(1 - y*y)
		theta := golden * float64(i)
		pts = append(pts, r3.Vec{
			X: radius * math.Cos(theta) * r,
			Y: radius * y,
			Z: radius * math.Sin(theta) * r,
		})
	}
	return pts
}

func TestReconstructResidualSphere(t *testing.T) {
	pts := fibonacciSphere(2000, 1)
	// Neighbour spacing on a 2000-point unit sphere is about 0.08.
	mesh, err := ReconstructResidual(pts, 0.08, 100, 5, 2.0)
	if err != nil {
		t.Fatalf("sphere reconstruction failed: %v", err)
	}
	if mesh == nil || len(mesh.Triangles) == 0 {
		t.Fatal("sphere reconstruction produced no triangles")
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("reconstructed mesh invalid: %v", err)
	}
	// Every vertex sits on the sampled sphere (alpha and pivot methods
	// interpolate nothing) or near it (implicit surface).
	for i, v := range mesh.Vertices {
		if d := math.Abs(r3.Norm(v) - 1); d > 0.2 {
			t.Fatalf("vertex %d is %v off the unit sphere: %v", i, d, v)
		}
	}
}
