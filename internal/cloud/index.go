// Package cloud provides point-cloud containers, TXT loading and the
// preprocessing steps run before surface reconstruction.
package cloud

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Neighbor is one result of a spatial query: a point position and its
// Euclidean distance from the query point.
type Neighbor struct {
	Pos  r3.Vec
	Dist float64
}

// NeighborIndex is a k-d tree over a fixed point set supporting
// k-nearest and radius queries. The index does not track point
// identity; queries return positions, which is what every consumer
// (spacing estimation, outlier removal, normal PCA, reconstruction)
// needs.
type NeighborIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewNeighborIndex builds an index over pts. Non-finite points are
// skipped.
func NewNeighborIndex(pts []r3.Vec) *NeighborIndex {
	data := make(kdtree.Points, 0, len(pts))
	for _, p := range pts {
		if math.IsNaN(p.X+p.Y+p.Z) || math.IsInf(p.X+p.Y+p.Z, 0) {
			continue
		}
		data = append(data, kdtree.Point{p.X, p.Y, p.Z})
	}
	return &NeighborIndex{tree: kdtree.New(data, false), n: len(data)}
}

// Len returns the number of indexed points.
func (x *NeighborIndex) Len() int { return x.n }

// Nearest returns up to k indexed points closest to q, ordered by
// increasing distance. The query point itself is included when it is
// part of the indexed set.
func (x *NeighborIndex) Nearest(q r3.Vec, k int) []Neighbor {
	if x.n == 0 || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	x.tree.NearestSet(keep, kdtree.Point{q.X, q.Y, q.Z})
	return collect(keep.Heap)
}

// InRadius returns all indexed points within r of q, ordered by
// increasing distance.
func (x *NeighborIndex) InRadius(q r3.Vec, r float64) []Neighbor {
	if x.n == 0 || r <= 0 {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	x.tree.NearestSet(keep, kdtree.Point{q.X, q.Y, q.Z})
	return collect(keep.Heap)
}

// collect converts keeper heap entries to Neighbors, dropping the
// unfilled sentinel and converting squared distances.
func collect(heap kdtree.Heap) []Neighbor {
	out := make([]Neighbor, 0, len(heap))
	for _, cd := range heap {
		if cd.Comparable == nil || math.IsInf(cd.Dist, 0) {
			continue
		}
		p := cd.Comparable.(kdtree.Point)
		out = append(out, Neighbor{
			Pos:  r3.Vec{X: p[0], Y: p[1], Z: p[2]},
			Dist: math.Sqrt(cd.Dist),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dist < out[j].Dist })
	return out
}
