package recon

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/cloud"
	"github.com/banshee-data/meshforge/internal/geom"
)

// spacingFloor keeps reconstruction radii sane when the spacing
// estimate collapses.
const spacingFloor = 1e-3

// residualMethod is one strategy in the reconstruction chain.
type residualMethod struct {
	name string
	run  func() (*geom.Mesh, error)
}

// ReconstructResidual meshes the leftover non-planar points through a
// fixed fallback chain: alpha shape, then ball pivoting, then the
// implicit Poisson-style surface. The first method returning a
// non-empty mesh wins; each failure is logged and the chain moves on.
// A residual smaller than minPoints returns (nil, nil): no mesh is not
// a failure, the pipeline can still succeed on plane quads alone.
func ReconstructResidual(pts []r3.Vec, spacing float64, minPoints, poissonDepth int, alphaFactor float64) (*geom.Mesh, error) {
	if len(pts) < minPoints {
		log.Printf("[Residual] %d points below minimum %d, skipping residual mesh", len(pts), minPoints)
		return nil, nil
	}

	base := math.Max(spacing, spacingFloor)
	alpha := math.Max(alphaFactor*spacing, spacingFloor)

	// Normals are shared by ball pivoting and the implicit surface;
	// estimate once, lazily.
	var normals []r3.Vec
	ensureNormals := func() error {
		if normals != nil {
			return nil
		}
		var err error
		normals, err = cloud.EstimateNormals(pts, 3*base, 30)
		if err != nil {
			return err
		}
		if err := cloud.OrientNormalsConsistently(pts, normals, 10); err != nil {
			log.Printf("[Residual] normal orientation failed, keeping raw normals: %v", err)
		}
		return nil
	}

	chain := []residualMethod{
		{
			name: "alpha shape",
			run: func() (*geom.Mesh, error) {
				return AlphaShape(pts, alpha)
			},
		},
		{
			name: "ball pivoting",
			run: func() (*geom.Mesh, error) {
				if err := ensureNormals(); err != nil {
					return nil, err
				}
				return BallPivot(pts, normals, []float64{0.8 * base, 1.2 * base, 2.0 * base})
			},
		},
		{
			name: "implicit surface",
			run: func() (*geom.Mesh, error) {
				if err := ensureNormals(); err != nil {
					return nil, err
				}
				return ImplicitSurface(pts, normals, poissonDepth)
			},
		},
	}

	mesh := runResidualChain(chain)
	if mesh == nil {
		return nil, fmt.Errorf("all residual reconstruction methods failed for %d points", len(pts))
	}
	return mesh, nil
}

// runResidualChain tries each method in order and returns the first
// non-empty mesh, or nil when the whole chain comes up empty. Later
// methods are not invoked once one succeeds.
func runResidualChain(chain []residualMethod) *geom.Mesh {
	for _, method := range chain {
		mesh, err := method.run()
		if err != nil {
			log.Printf("[Residual] %s failed: %v", method.name, err)
			continue
		}
		if mesh == nil || len(mesh.Triangles) == 0 {
			log.Printf("[Residual] %s produced an empty mesh", method.name)
			continue
		}
		log.Printf("[Residual] %s succeeded with %d triangles", method.name, len(mesh.Triangles))
		return mesh
	}
	return nil
}
