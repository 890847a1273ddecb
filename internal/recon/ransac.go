package recon

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// PlaneCoefficients holds the implicit plane equation
// A·x + B·y + C·z + D = 0. The normal (A, B, C) is unit length as
// produced by FitPlane.
type PlaneCoefficients struct {
	A, B, C, D float64
}

// Normal returns the (A, B, C) normal vector.
func (p PlaneCoefficients) Normal() r3.Vec {
	return r3.Vec{X: p.A, Y: p.B, Z: p.C}
}

// Distance returns the absolute point-to-plane distance, assuming a
// unit normal.
func (p PlaneCoefficients) Distance(v r3.Vec) float64 {
	return math.Abs(p.A*v.X + p.B*v.Y + p.C*v.Z + p.D)
}

// FitPlane runs a RANSAC plane fit over pts: iterations random
// candidates scored by inlier count within distThresh, the winner
// refined by a least-squares fit over its inliers. Each candidate is
// the minimal sample for a plane, three points. Returns the refined
// coefficients and the inlier indices of the refined plane.
func FitPlane(pts []r3.Vec, distThresh float64, iterations int, rng *rand.Rand) (PlaneCoefficients, []int, error) {
	if len(pts) < 3 {
		return PlaneCoefficients{}, nil, fmt.Errorf("plane fit needs at least 3 points, have %d", len(pts))
	}
	if distThresh <= 0 {
		return PlaneCoefficients{}, nil, fmt.Errorf("plane fit needs a positive distance threshold")
	}
	if iterations < 1 {
		iterations = 1
	}

	var best PlaneCoefficients
	bestCount := 0
	for it := 0; it < iterations; it++ {
		i := rng.Intn(len(pts))
		j := rng.Intn(len(pts))
		k := rng.Intn(len(pts))
		if i == j || j == k || i == k {
			continue
		}
		cand, ok := planeFrom3(pts[i], pts[j], pts[k])
		if !ok {
			continue
		}
		count := 0
		for _, p := range pts {
			if cand.Distance(p) <= distThresh {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = cand
		}
	}
	if bestCount < 3 {
		return PlaneCoefficients{}, nil, fmt.Errorf("no candidate plane found in %d iterations", iterations)
	}

	inliers := inlierIndices(pts, best, distThresh)
	if refined, ok := refinePlane(pts, inliers); ok {
		refinedInliers := inlierIndices(pts, refined, distThresh)
		if len(refinedInliers) >= len(inliers) {
			return refined, refinedInliers, nil
		}
	}
	return best, inliers, nil
}

func planeFrom3(a, b, c r3.Vec) (PlaneCoefficients, bool) {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) {
		return PlaneCoefficients{}, false
	}
	n = r3.Scale(1/l, n)
	return PlaneCoefficients{A: n.X, B: n.Y, C: n.Z, D: -r3.Dot(n, a)}, true
}

func inlierIndices(pts []r3.Vec, plane PlaneCoefficients, distThresh float64) []int {
	var idx []int
	for i, p := range pts {
		if plane.Distance(p) <= distThresh {
			idx = append(idx, i)
		}
	}
	return idx
}

// refinePlane least-squares fits a plane to the indexed points: the
// normal is the eigenvector of the smallest eigenvalue of their
// covariance.
func refinePlane(pts []r3.Vec, idx []int) (PlaneCoefficients, bool) {
	if len(idx) < 3 {
		return PlaneCoefficients{}, false
	}
	var c r3.Vec
	for _, i := range idx {
		c = r3.Add(c, pts[i])
	}
	c = r3.Scale(1/float64(len(idx)), c)

	var xx, xy, xz, yy, yz, zz float64
	for _, i := range idx {
		d := r3.Sub(pts[i], c)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	sym := mat.NewSymDense(3, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})
	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return PlaneCoefficients{}, false
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	n := r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) {
		return PlaneCoefficients{}, false
	}
	n = r3.Scale(1/l, n)
	return PlaneCoefficients{A: n.X, B: n.Y, C: n.Z, D: -r3.Dot(n, c)}, true
}
