package recon

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// noisyPlane scatters n points near a*x + b*y + c*z + d = 0 restricted
// to z = (-d - a*x - b*y) / c, plus jitter along z.
func noisyPlane(n int, a, b, c, d, jitter float64, rng *rand.Rand) []r3.Vec {
	pts := make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		x := rng.Float64()*10 - 5
		y := rng.Float64()*10 - 5
		z := (-d - a*x - b*y) / c
		pts = append(pts, r3.Vec{X: x, Y: y, Z: z + (rng.Float64()*2-1)*jitter})
	}
	return pts
}

func TestFitPlaneRecoversHorizontal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pts := noisyPlane(500, 0, 0, 1, -2, 0.005, rng)
	// A handful of gross outliers.
	for i := 0; i < 20; i++ {
		pts = append(pts, r3.Vec{
			X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64()*20 + 5,
		})
	}

	coeffs, inliers, err := FitPlane(pts, 0.02, 300, rng)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if len(inliers) < 450 {
		t.Fatalf("only %d inliers, want most of the 500 plane points", len(inliers))
	}
	n := coeffs.Normal()
	if math.Abs(math.Abs(n.Z)-1) > 0.01 {
		t.Fatalf("normal = %v, want ±Z", n)
	}
	// A·0 + B·0 + C·2 + D ≈ 0 for the point (0,0,2) on the plane.
	if coeffs.Distance(r3.Vec{Z: 2}) > 0.02 {
		t.Fatalf("fitted plane misses z=2: %+v", coeffs)
	}
}

func TestFitPlaneNormalIsUnit(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pts := noisyPlane(200, 1, 1, 1, 0, 0.002, rng)
	coeffs, _, err := FitPlane(pts, 0.01, 200, rng)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(r3.Norm(coeffs.Normal())-1) > 1e-9 {
		t.Fatalf("normal not unit length: %+v", coeffs)
	}
}

func TestFitPlaneErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, _, err := FitPlane([]r3.Vec{{X: 1}, {X: 2}}, 0.1, 10, rng); err == nil {
		t.Fatal("expected error with fewer than 3 points")
	}
	pts := []r3.Vec{{X: 1}, {X: 2}, {X: 3}}
	if _, _, err := FitPlane(pts, 0, 10, rng); err == nil {
		t.Fatal("expected error with non-positive threshold")
	}
	// Collinear points never span a plane.
	if _, _, err := FitPlane(pts, 0.1, 50, rng); err == nil {
		t.Fatal("expected error on collinear input")
	}
}

func TestSegmentPlanesTwoLevels(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	pts := noisyPlane(600, 0, 0, 1, 0, 0.002, rng)     // z = 0
	pts = append(pts, noisyPlane(400, 0, 0, 1, -5, 0.002, rng)...) // z = 5
	// Scattered noise between the two planes.
	for i := 0; i < 50; i++ {
		pts = append(pts, r3.Vec{
			X: rng.Float64()*10 - 5,
			Y: rng.Float64()*10 - 5,
			Z: 1 + rng.Float64()*3,
		})
	}

	planes, residual := SegmentPlanes(pts, 0.01, 300, 500, 6, rng)
	if len(planes) != 2 {
		t.Fatalf("detected %d planes, want 2", len(planes))
	}
	// Ordered by inlier count: the 600-point plane first.
	if planes[0].InlierCount() < planes[1].InlierCount() {
		t.Fatalf("planes out of order: %d then %d inliers",
			planes[0].InlierCount(), planes[1].InlierCount())
	}

	total := len(residual)
	for _, p := range planes {
		total += p.InlierCount()
	}
	if total != len(pts) {
		t.Fatalf("planes + residual = %d points, want %d", total, len(pts))
	}
	if len(residual) < 40 {
		t.Fatalf("residual lost the noise points, have %d", len(residual))
	}
}

func TestSegmentPlanesRespectsMaxPlanes(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	var pts []r3.Vec
	for level := 0; level < 4; level++ {
		pts = append(pts, noisyPlane(300, 0, 0, 1, -float64(level*3), 0.002, rng)...)
	}
	planes, _ := SegmentPlanes(pts, 0.01, 200, 500, 2, rng)
	if len(planes) != 2 {
		t.Fatalf("detected %d planes with maxPlanes=2, want 2", len(planes))
	}
}

func TestSegmentPlanesTooFewPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pts := noisyPlane(50, 0, 0, 1, 0, 0.001, rng)
	planes, residual := SegmentPlanes(pts, 0.01, 200, 100, 6, rng)
	if len(planes) != 0 {
		t.Fatalf("detected %d planes below minPoints, want 0", len(planes))
	}
	if len(residual) != len(pts) {
		t.Fatalf("residual has %d points, want all %d", len(residual), len(pts))
	}
}
