package recon

import (
	"log"

	"github.com/banshee-data/meshforge/internal/geom"
)

// degenerateAreaEps is the area at or below which a triangle counts as
// degenerate.
const degenerateAreaEps = 1e-12

// PostProcess cleans a merged mesh for export: duplicated triangles,
// degenerate triangles and non-manifold edges are removed, floating
// fragments outside the largest connected component are discarded
// (best effort) and vertex normals are recomputed. The component prune
// is an optimisation; its failure keeps the mesh as-is.
func PostProcess(m *geom.Mesh) *geom.Mesh {
	if m == nil {
		return nil
	}

	if n := m.RemoveDuplicatedTriangles(); n > 0 {
		log.Printf("[PostProcess] removed %d duplicated triangles", n)
	}
	if n := m.RemoveDegenerateTriangles(degenerateAreaEps); n > 0 {
		log.Printf("[PostProcess] removed %d degenerate triangles", n)
	}
	if n := m.RemoveNonManifoldEdges(); n > 0 {
		log.Printf("[PostProcess] removed %d triangles on non-manifold edges", n)
	}

	if err := m.KeepLargestComponent(); err != nil {
		log.Printf("[PostProcess] component pruning skipped: %v", err)
	}

	m.ComputeVertexNormals()
	return m
}
