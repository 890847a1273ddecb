package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/meshforge/internal/recon"
)

func writeTuning(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	return path
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	path := writeTuning(t, `{
		"max_planes": 3,
		"plane_distance_factor": 2.5,
		"seed": 99
	}`)
	tc, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	params := recon.DefaultParams()
	tc.Apply(&params)
	if params.MaxPlanes != 3 {
		t.Fatalf("max planes = %d, want 3", params.MaxPlanes)
	}
	if params.PlaneDistanceFactor != 2.5 {
		t.Fatalf("plane distance factor = %v, want 2.5", params.PlaneDistanceFactor)
	}
	if params.Seed != 99 {
		t.Fatalf("seed = %d, want 99", params.Seed)
	}
	// Untouched fields keep their defaults.
	def := recon.DefaultParams()
	if params.MinPlanePoints != def.MinPlanePoints || params.PoissonDepth != def.PoissonDepth {
		t.Fatalf("unset fields were changed: %+v", params)
	}
}

func TestLoadTuningConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative factor": `{"plane_distance_factor": -1}`,
		"tiny min points": `{"min_plane_points": 2}`,
		"zero iterations": `{"ransac_iterations": 0}`,
		"depth too deep":  `{"poisson_depth": 9}`,
		"depth too flat":  `{"poisson_depth": 2}`,
		"negative eps":    `{"merge_epsilon": -0.5}`,
		"not json":        `{max_planes: 3}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeTuning(t, content)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Fatalf("config %s should be rejected", content)
			}
		})
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig("/nonexistent/tuning.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyNil(t *testing.T) {
	params := recon.DefaultParams()
	var tc *TuningConfig
	tc.Apply(&params)
	if params != recon.DefaultParams() {
		t.Fatal("nil config must not modify params")
	}
}
