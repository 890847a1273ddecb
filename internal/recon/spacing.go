package recon

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/meshforge/internal/cloud"
	"github.com/banshee-data/meshforge/internal/geom"
)

const (
	defaultSpacing = 1e-2
	minSpacing     = 1e-3
)

// EstimateSpacing returns a strictly positive estimate of the typical
// distance between neighbouring points: the median nearest-other-point
// distance over a random sample of up to sampleSize points. The
// fallback path estimates from the bounding box when the neighbour
// query cannot be used. Every adaptive threshold downstream scales
// with this value, so it never returns zero or a non-finite number.
func EstimateSpacing(pts []r3.Vec, sampleSize int, rng *rand.Rand) float64 {
	finite := geom.FilterFinite(pts)
	if len(finite) < 2 {
		return defaultSpacing
	}
	if sampleSize <= 0 {
		sampleSize = 5000
	}

	if s, ok := medianNeighborSpacing(finite, sampleSize, rng); ok {
		return s
	}
	return bboxSpacing(finite)
}

func medianNeighborSpacing(pts []r3.Vec, sampleSize int, rng *rand.Rand) (float64, bool) {
	idx := cloud.NewNeighborIndex(pts)
	if idx.Len() < 2 {
		return 0, false
	}

	m := sampleSize
	if m > len(pts) {
		m = len(pts)
	}
	sample := rng.Perm(len(pts))[:m]

	dists := make([]float64, 0, m)
	for _, i := range sample {
		// k=2: the point itself plus its nearest other point.
		nbs := idx.Nearest(pts[i], 2)
		for _, nb := range nbs {
			if nb.Dist > 0 && !math.IsInf(nb.Dist, 0) && !math.IsNaN(nb.Dist) {
				dists = append(dists, nb.Dist)
				break
			}
		}
	}
	if len(dists) == 0 {
		return 0, false
	}
	sort.Float64s(dists)
	med := stat.Quantile(0.5, stat.Empirical, dists, nil)
	if med <= 0 || math.IsNaN(med) || math.IsInf(med, 0) {
		return 0, false
	}
	return med, true
}

// bboxSpacing falls back to cbrt(bbox volume / n), and further to
// (largest extent / 100) when the box is degenerate in any axis.
func bboxSpacing(pts []r3.Vec) float64 {
	b, ok := geom.Bounds(pts)
	if !ok {
		return defaultSpacing
	}
	e := b.Extent()
	if e.X > 0 && e.Y > 0 && e.Z > 0 {
		approx := math.Cbrt(e.X * e.Y * e.Z / float64(len(pts)))
		return clampSpacing(approx)
	}
	largest := math.Max(e.X, math.Max(e.Y, e.Z))
	return clampSpacing(largest / 100)
}

func clampSpacing(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < minSpacing {
		return minSpacing
	}
	return s
}
