package recon

import (
	"fmt"

	"github.com/banshee-data/meshforge/internal/geom"
)

// MergeMeshes composes independently indexed partial meshes into one:
// vertex lists are concatenated in input order with triangle indices
// shifted by the running vertex offset, then vertices within eps of
// each other are welded to close the seams where a plane quad edge
// meets the residual mesh boundary. A single input is returned
// unchanged.
func MergeMeshes(meshes []*geom.Mesh, eps float64) (*geom.Mesh, error) {
	nonNil := make([]*geom.Mesh, 0, len(meshes))
	for _, m := range meshes {
		if m != nil {
			nonNil = append(nonNil, m)
		}
	}
	if len(nonNil) == 0 {
		return nil, fmt.Errorf("no meshes to merge")
	}
	if len(nonNil) == 1 {
		return nonNil[0], nil
	}

	merged := geom.Concat(nonNil)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("merge produced invalid indices: %w", err)
	}
	merged.MergeCloseVertices(eps)
	return merged, nil
}
