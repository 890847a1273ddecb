package cloud

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// EstimateNormals computes a unit normal per point from the PCA of its
// neighbourhood: the eigenvector of the smallest eigenvalue of the
// neighbourhood covariance. Neighbourhoods are gathered within radius
// and capped at maxNN; points with too few radius neighbours fall back
// to a plain k-nearest query.
func EstimateNormals(pts []r3.Vec, radius float64, maxNN int) ([]r3.Vec, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("need at least 3 points for normal estimation, have %d", len(pts))
	}
	if maxNN < 3 {
		maxNN = 3
	}
	idx := NewNeighborIndex(pts)

	normals := make([]r3.Vec, len(pts))
	for i, p := range pts {
		nbs := idx.InRadius(p, radius)
		if len(nbs) > maxNN {
			nbs = nbs[:maxNN]
		}
		if len(nbs) < 3 {
			nbs = idx.Nearest(p, maxNN)
		}
		n, err := pcaNormal(nbs)
		if err != nil {
			// Isolated or perfectly collinear neighbourhood. A vertical
			// normal is the least damaging placeholder.
			n = r3.Vec{Z: 1}
		}
		normals[i] = n
	}
	return normals, nil
}

// pcaNormal returns the unit eigenvector of the smallest eigenvalue of
// the covariance of the neighbour positions.
func pcaNormal(nbs []Neighbor) (r3.Vec, error) {
	if len(nbs) < 3 {
		return r3.Vec{}, fmt.Errorf("need 3 neighbours, have %d", len(nbs))
	}
	var c r3.Vec
	for _, nb := range nbs {
		c = r3.Add(c, nb.Pos)
	}
	c = r3.Scale(1/float64(len(nbs)), c)

	var cov [6]float64 // xx, xy, xz, yy, yz, zz
	for _, nb := range nbs {
		d := r3.Sub(nb.Pos, c)
		cov[0] += d.X * d.X
		cov[1] += d.X * d.Y
		cov[2] += d.X * d.Z
		cov[3] += d.Y * d.Y
		cov[4] += d.Y * d.Z
		cov[5] += d.Z * d.Z
	}

	sym := mat.NewSymDense(3, []float64{
		cov[0], cov[1], cov[2],
		cov[1], cov[3], cov[4],
		cov[2], cov[4], cov[5],
	})
	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return r3.Vec{}, fmt.Errorf("eigendecomposition failed")
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	// Eigenvalues are ascending, so column 0 is the normal direction.
	n := r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	if l := r3.Norm(n); l > 0 {
		return r3.Scale(1/l, n), nil
	}
	return r3.Vec{}, fmt.Errorf("degenerate neighbourhood")
}

// OrientNormalsConsistently flips normals so that neighbouring points
// agree in direction, propagating breadth-first over a k-nearest
// neighbour graph from the highest point (whose normal is forced
// upward). Best effort: callers treat an error as a no-op.
func OrientNormalsConsistently(pts []r3.Vec, normals []r3.Vec, k int) error {
	if len(pts) != len(normals) {
		return fmt.Errorf("point/normal count mismatch: %d vs %d", len(pts), len(normals))
	}
	if len(pts) < 2 {
		return nil
	}
	if k < 2 {
		k = 2
	}

	// The index reports neighbour positions, not identities, so recover
	// identity through an exact-position table. Duplicate positions are
	// removed upstream; bail out rather than guess if any remain.
	byPos := make(map[r3.Vec]int, len(pts))
	for i, p := range pts {
		if _, dup := byPos[p]; dup {
			return fmt.Errorf("duplicate positions prevent normal orientation")
		}
		byPos[p] = i
	}
	idx := NewNeighborIndex(pts)

	seed := 0
	for i, p := range pts {
		if p.Z > pts[seed].Z {
			seed = i
		}
	}
	if normals[seed].Z < 0 {
		normals[seed] = r3.Scale(-1, normals[seed])
	}

	visited := make([]bool, len(pts))
	visited[seed] = true
	queue := []int{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range idx.Nearest(pts[cur], k+1) {
			j, ok := byPos[nb.Pos]
			if !ok || visited[j] {
				continue
			}
			if r3.Dot(normals[cur], normals[j]) < 0 {
				normals[j] = r3.Scale(-1, normals[j])
			}
			visited[j] = true
			queue = append(queue, j)
		}
	}
	return nil
}
