// Package geom provides the vector, bounding-box and triangle-mesh
// primitives shared by the reconstruction pipeline.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// IsFinite reports whether all three components of v are finite.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// FilterFinite returns the subset of pts with all-finite coordinates.
// The input slice is not modified.
func FilterFinite(pts []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, 0, len(pts))
	for _, p := range pts {
		if IsFinite(p) {
			out = append(out, p)
		}
	}
	return out
}

// Centroid returns the arithmetic mean of pts. The zero vector is
// returned for an empty slice.
func Centroid(pts []r3.Vec) r3.Vec {
	if len(pts) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vec
}

// Bounds returns the axis-aligned bounding box of pts and whether at
// least one finite point contributed to it.
func Bounds(pts []r3.Vec) (Box, bool) {
	b := Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	any := false
	for _, p := range pts {
		if !IsFinite(p) {
			continue
		}
		any = true
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b, any
}

// Extent returns the per-axis size of the box.
func (b Box) Extent() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Expand returns the box scaled by factor about its center. A factor
// of 1.1 grows each extent by 10%.
func (b Box) Expand(factor float64) Box {
	c := b.Center()
	half := r3.Scale(0.5*factor, b.Extent())
	return Box{Min: r3.Sub(c, half), Max: r3.Add(c, half)}
}

// Contains reports whether p lies inside the box (inclusive).
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
