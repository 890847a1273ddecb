// Package config loads optional JSON tuning files for the converter.
// All fields are pointers so a file can override any subset of the
// code defaults; CLI flags override the file in turn.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/meshforge/internal/recon"
)

// TuningConfig mirrors recon.Params with optional fields.
type TuningConfig struct {
	SpacingSampleSize   *int     `json:"spacing_sample_size,omitempty"`
	PlaneDistanceFactor *float64 `json:"plane_distance_factor,omitempty"`
	MinPlanePoints      *int     `json:"min_plane_points,omitempty"`
	RANSACIterations    *int     `json:"ransac_iterations,omitempty"`
	MaxPlanes           *int     `json:"max_planes,omitempty"`
	MinResidualPoints   *int     `json:"min_residual_points,omitempty"`
	AlphaFactor         *float64 `json:"alpha_factor,omitempty"`
	PoissonDepth        *int     `json:"poisson_depth,omitempty"`
	MergeEpsilon        *float64 `json:"merge_epsilon,omitempty"`
	Seed                *int64   `json:"seed,omitempty"`
}

// LoadTuningConfig reads and parses a tuning file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning config: %w", err)
	}
	var tc TuningConfig
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("parse tuning config %s: %w", path, err)
	}
	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning config %s: %w", path, err)
	}
	return &tc, nil
}

// Validate rejects values that would wedge the pipeline.
func (tc *TuningConfig) Validate() error {
	if tc.PlaneDistanceFactor != nil && *tc.PlaneDistanceFactor <= 0 {
		return fmt.Errorf("plane_distance_factor must be positive")
	}
	if tc.MinPlanePoints != nil && *tc.MinPlanePoints < 3 {
		return fmt.Errorf("min_plane_points must be at least 3")
	}
	if tc.RANSACIterations != nil && *tc.RANSACIterations < 1 {
		return fmt.Errorf("ransac_iterations must be at least 1")
	}
	if tc.MaxPlanes != nil && *tc.MaxPlanes < 0 {
		return fmt.Errorf("max_planes must not be negative")
	}
	if tc.AlphaFactor != nil && *tc.AlphaFactor <= 0 {
		return fmt.Errorf("alpha_factor must be positive")
	}
	if tc.PoissonDepth != nil && (*tc.PoissonDepth < 3 || *tc.PoissonDepth > 7) {
		return fmt.Errorf("poisson_depth must be between 3 and 7")
	}
	if tc.MergeEpsilon != nil && *tc.MergeEpsilon < 0 {
		return fmt.Errorf("merge_epsilon must not be negative")
	}
	return nil
}

// Apply overlays the configured values onto params.
func (tc *TuningConfig) Apply(params *recon.Params) {
	if tc == nil {
		return
	}
	if tc.SpacingSampleSize != nil {
		params.SpacingSampleSize = *tc.SpacingSampleSize
	}
	if tc.PlaneDistanceFactor != nil {
		params.PlaneDistanceFactor = *tc.PlaneDistanceFactor
	}
	if tc.MinPlanePoints != nil {
		params.MinPlanePoints = *tc.MinPlanePoints
	}
	if tc.RANSACIterations != nil {
		params.RANSACIterations = *tc.RANSACIterations
	}
	if tc.MaxPlanes != nil {
		params.MaxPlanes = *tc.MaxPlanes
	}
	if tc.MinResidualPoints != nil {
		params.MinResidualPoints = *tc.MinResidualPoints
	}
	if tc.AlphaFactor != nil {
		params.AlphaFactor = *tc.AlphaFactor
	}
	if tc.PoissonDepth != nil {
		params.PoissonDepth = *tc.PoissonDepth
	}
	if tc.MergeEpsilon != nil {
		params.MergeEpsilon = *tc.MergeEpsilon
	}
	if tc.Seed != nil {
		params.Seed = *tc.Seed
	}
}
