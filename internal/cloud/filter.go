package cloud

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// RemoveDuplicates drops points that are exactly equal to an earlier
// point. Order of first occurrence is preserved.
func RemoveDuplicates(pts []r3.Vec) []r3.Vec {
	seen := make(map[r3.Vec]struct{}, len(pts))
	out := make([]r3.Vec, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// VoxelDownsample replaces the points falling into each cubic voxel of
// the given size with their centroid. Output order follows the first
// point seen in each voxel.
func VoxelDownsample(pts []r3.Vec, voxel float64) []r3.Vec {
	if voxel <= 0 {
		return pts
	}
	type cell struct{ x, y, z int64 }
	type acc struct {
		sum   r3.Vec
		count int
		order int
	}
	cells := make(map[cell]*acc)
	var ordered []*acc
	for _, p := range pts {
		c := cell{
			x: int64(math.Floor(p.X / voxel)),
			y: int64(math.Floor(p.Y / voxel)),
			z: int64(math.Floor(p.Z / voxel)),
		}
		a, ok := cells[c]
		if !ok {
			a = &acc{order: len(ordered)}
			cells[c] = a
			ordered = append(ordered, a)
		}
		a.sum = r3.Add(a.sum, p)
		a.count++
	}
	out := make([]r3.Vec, len(ordered))
	for i, a := range ordered {
		out[i] = r3.Scale(1/float64(a.count), a.sum)
	}
	return out
}

// RemoveStatisticalOutliers drops points whose mean distance to their
// nbNeighbors nearest neighbours exceeds the global mean by more than
// stdRatio standard deviations. It returns the kept points and the
// number removed.
func RemoveStatisticalOutliers(pts []r3.Vec, nbNeighbors int, stdRatio float64) ([]r3.Vec, int) {
	if len(pts) <= nbNeighbors+1 || nbNeighbors < 1 {
		return pts, 0
	}
	idx := NewNeighborIndex(pts)

	means := make([]float64, len(pts))
	for i, p := range pts {
		// +1 because the query point itself comes back at distance 0.
		nbs := idx.Nearest(p, nbNeighbors+1)
		var sum float64
		n := 0
		for _, nb := range nbs {
			if nb.Dist == 0 {
				continue
			}
			sum += nb.Dist
			n++
		}
		if n > 0 {
			means[i] = sum / float64(n)
		}
	}

	mean, std := stat.MeanStdDev(means, nil)
	limit := mean + stdRatio*std

	out := make([]r3.Vec, 0, len(pts))
	for i, p := range pts {
		if means[i] <= limit {
			out = append(out, p)
		}
	}
	return out, len(pts) - len(out)
}
