package recon

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestEstimateSpacingGrid(t *testing.T) {
	// Regular 20x20 grid with 0.5 spacing: the nearest-neighbour median
	// is exactly the grid pitch.
	var pts []r3.Vec
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			pts = append(pts, r3.Vec{X: float64(i) * 0.5, Y: float64(j) * 0.5})
		}
	}
	rng := rand.New(rand.NewSource(1))
	s := EstimateSpacing(pts, 5000, rng)
	if math.Abs(s-0.5) > 1e-9 {
		t.Fatalf("spacing = %v, want 0.5", s)
	}
}

func TestEstimateSpacingSampled(t *testing.T) {
	var pts []r3.Vec
	for i := 0; i < 50; i++ {
		for j := 0; j < 50; j++ {
			pts = append(pts, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	rng := rand.New(rand.NewSource(1))
	// Sample far fewer points than the cloud holds.
	s := EstimateSpacing(pts, 100, rng)
	if math.Abs(s-1) > 1e-9 {
		t.Fatalf("sampled spacing = %v, want 1", s)
	}
}

func TestEstimateSpacingDegenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if s := EstimateSpacing(nil, 100, rng); s != defaultSpacing {
		t.Fatalf("empty cloud spacing = %v, want default %v", s, defaultSpacing)
	}
	if s := EstimateSpacing([]r3.Vec{{X: 1}}, 100, rng); s != defaultSpacing {
		t.Fatalf("single point spacing = %v, want default %v", s, defaultSpacing)
	}

	// All points coincident: no positive neighbour distance, bbox
	// degenerate in every axis. The clamp floor must hold.
	same := []r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}
	s := EstimateSpacing(same, 100, rng)
	if s < minSpacing {
		t.Fatalf("coincident cloud spacing = %v, below floor %v", s, minSpacing)
	}
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		t.Fatalf("spacing must be positive and finite, got %v", s)
	}
}

func TestEstimateSpacingIgnoresNonFinite(t *testing.T) {
	pts := []r3.Vec{
		{X: 0}, {X: 1}, {X: 2},
		{X: math.NaN()}, {Y: math.Inf(1)},
	}
	rng := rand.New(rand.NewSource(1))
	s := EstimateSpacing(pts, 100, rng)
	if math.Abs(s-1) > 1e-9 {
		t.Fatalf("spacing = %v, want 1", s)
	}
}
