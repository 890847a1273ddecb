package recon

import (
	"log"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is one extracted planar region: the fitted coefficients and
// the points classified as its inliers. Planes are immutable once
// produced and ordered by detection sequence; the first plane is the
// best RANSAC fit on the full cloud, each later one the best fit on
// what remained.
type Plane struct {
	Coefficients PlaneCoefficients
	Inliers      []r3.Vec
}

// InlierCount returns the number of inlier points.
func (p *Plane) InlierCount() int { return len(p.Inliers) }

// SegmentPlanes greedily peels planar subsets off pts. Each round runs
// a RANSAC fit against the remaining points; rounds stop when fewer
// than minPoints remain, when the best fit gathers fewer than
// minPoints inliers, or after maxPlanes rounds. A fit failure ends the
// loop early with the planes found so far. The returned residual holds
// every point not assigned to a plane; a point belongs to at most one
// plane.
func SegmentPlanes(pts []r3.Vec, distThresh float64, minPoints, iterations, maxPlanes int, rng *rand.Rand) ([]Plane, []r3.Vec) {
	remaining := pts
	var planes []Plane

	for round := 0; round < maxPlanes; round++ {
		if len(remaining) < minPoints {
			break
		}
		coeffs, inlierIdx, err := FitPlane(remaining, distThresh, iterations, rng)
		if err != nil {
			log.Printf("[Segment] plane fit failed on round %d: %v", round+1, err)
			break
		}
		if len(inlierIdx) < minPoints {
			break
		}

		// Partition remaining into inliers and the next residual. The
		// inlier slice owns copies so planes stay valid as remaining is
		// replaced each round.
		isInlier := make([]bool, len(remaining))
		for _, i := range inlierIdx {
			isInlier[i] = true
		}
		inliers := make([]r3.Vec, 0, len(inlierIdx))
		rest := make([]r3.Vec, 0, len(remaining)-len(inlierIdx))
		for i, p := range remaining {
			if isInlier[i] {
				inliers = append(inliers, p)
			} else {
				rest = append(rest, p)
			}
		}

		planes = append(planes, Plane{Coefficients: coeffs, Inliers: inliers})
		log.Printf("[Segment] plane %d: %d inliers, %d points remain", len(planes), len(inliers), len(rest))
		remaining = rest
	}
	return planes, remaining
}
