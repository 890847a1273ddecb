// Package recon implements the hybrid surface-reconstruction pipeline:
// spacing estimation, greedy multi-plane extraction with per-plane
// quadrangulation, a fallback chain for the residual surface, and mesh
// composition and cleanup.
package recon

import "log"

// Params are the tuning knobs of a conversion run. Zero values select
// the adaptive defaults derived from the estimated point spacing.
type Params struct {
	// SpacingSampleSize caps the random sample used for the median
	// nearest-neighbour spacing estimate.
	SpacingSampleSize int

	// PlaneDistanceFactor scales the estimated spacing into the RANSAC
	// inlier distance threshold.
	PlaneDistanceFactor float64
	// MinPlanePoints is the smallest inlier set accepted as a plane.
	MinPlanePoints int
	// RANSACIterations is the candidate count per plane fit.
	RANSACIterations int
	// MaxPlanes caps the greedy peeling loop.
	MaxPlanes int

	// MinResidualPoints is the residual size below which no residual
	// mesh is attempted.
	MinResidualPoints int
	// AlphaFactor scales spacing into the alpha-shape radius.
	AlphaFactor float64
	// PoissonDepth is the implicit-grid depth for the last-resort
	// reconstruction (grid resolution 2^depth per axis).
	PoissonDepth int

	// MergeEpsilon is the vertex-welding distance used when composing
	// partial meshes. Expressed in the data's native units.
	MergeEpsilon float64

	// Seed seeds the run's random generator when non-zero; zero keeps
	// time-based seeding.
	Seed int64
}

// DefaultParams returns the defaults used by the CLI.
func DefaultParams() Params {
	return Params{
		SpacingSampleSize:   5000,
		PlaneDistanceFactor: 1.5,
		MinPlanePoints:      200,
		RANSACIterations:    250,
		MaxPlanes:           6,
		MinResidualPoints:   100,
		AlphaFactor:         2.0,
		PoissonDepth:        6,
		MergeEpsilon:        1e-3,
	}
}

// ProgressFunc receives pipeline milestones as a percentage and a
// human-readable message.
type ProgressFunc func(pct int, msg string)

// LogProgress is the default sink: it writes milestones to the
// standard logger.
func LogProgress(pct int, msg string) {
	log.Printf("[Convert] %3d%% %s", pct, msg)
}
