package recon

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/cloud"
	"github.com/banshee-data/meshforge/internal/debugplot"
	"github.com/banshee-data/meshforge/internal/geom"
	"github.com/banshee-data/meshforge/internal/stl"
)

// downsampleAbove is the point count past which voxel downsampling is
// applied during preprocessing.
const downsampleAbove = 300_000

// Result is the stable outward-facing outcome of a conversion run.
// CLI, API and batch drivers all depend on this shape.
type Result struct {
	Success        bool   `json:"success"`
	OutputPath     string `json:"output_path,omitempty"`
	Error          string `json:"error,omitempty"`
	OriginalPoints int    `json:"original_points"`
	FinalTriangles int    `json:"final_triangles"`
	FinalVertices  int    `json:"final_vertices"`
	PlanesDetected int    `json:"planes_detected"`
	DurationMillis int64  `json:"duration_ms"`
}

// Converter runs the full point-cloud-to-STL pipeline. One Converter
// serves one conversion at a time; each run owns its buffers and no
// state is shared across runs. The random generator drives RANSAC
// sampling and spacing estimation and can be seeded for deterministic
// tests.
type Converter struct {
	Params   Params
	Progress ProgressFunc
	// DebugPlotDir, when set, receives a PNG snapshot of each plane's
	// 2D projection and extracted quad.
	DebugPlotDir string
	rng          *rand.Rand
}

// NewConverter builds a converter with the given parameters. A zero
// Params.Seed selects time-based seeding; Progress defaults to the
// standard-logger sink.
func NewConverter(params Params, progress ProgressFunc) *Converter {
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if progress == nil {
		progress = LogProgress
	}
	return &Converter{
		Params:   params,
		Progress: progress,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Convert loads the input files, reconstructs a surface and writes a
// binary STL under outDir. An empty name derives a timestamped file
// name. The returned Result always distinguishes success from failure
// and never reports success with a partial output file on disk.
func (c *Converter) Convert(inputs []string, outDir, name string) Result {
	start := time.Now()

	c.Progress(5, fmt.Sprintf("loading %d input file(s)", len(inputs)))
	points, err := cloud.LoadTXTFiles(inputs)
	if err != nil {
		return c.fail(start, 0, err)
	}
	c.Progress(20, fmt.Sprintf("loaded %d points", len(points)))

	mesh, planes, err := c.Reconstruct(points)
	if err != nil {
		return c.fail(start, len(points), err)
	}

	if name == "" {
		name = fmt.Sprintf("pointcloud_%s.stl", start.Format("20060102_150405"))
	}
	if outDir == "" {
		outDir = "."
	}
	outPath := filepath.Join(outDir, name)

	c.Progress(90, fmt.Sprintf("saving STL to %s", outPath))
	if err := stl.Write(outPath, mesh); err != nil {
		return c.fail(start, len(points), fmt.Errorf("save STL: %w", err))
	}
	c.Progress(100, "conversion complete")

	return Result{
		Success:        true,
		OutputPath:     outPath,
		OriginalPoints: len(points),
		FinalTriangles: len(mesh.Triangles),
		FinalVertices:  len(mesh.Vertices),
		PlanesDetected: planes,
		DurationMillis: time.Since(start).Milliseconds(),
	}
}

// Reconstruct runs the in-memory pipeline: preprocessing, plane
// peeling, quadrangulation, residual reconstruction, merge and
// cleanup. It returns the export-ready mesh and the number of planes
// detected.
func (c *Converter) Reconstruct(points []r3.Vec) (*geom.Mesh, int, error) {
	finite := geom.FilterFinite(points)
	if len(finite) == 0 {
		return nil, 0, fmt.Errorf("no finite points in input")
	}

	c.Progress(30, "preprocessing point cloud")
	pts, spacing := c.preprocess(finite)
	log.Printf("[Convert] estimated spacing %.6g over %d points", spacing, len(pts))

	c.Progress(50, "extracting planar regions")
	distThresh := c.Params.PlaneDistanceFactor * spacing
	planes, residual := SegmentPlanes(pts, distThresh,
		c.Params.MinPlanePoints, c.Params.RANSACIterations, c.Params.MaxPlanes, c.rng)

	var parts []*geom.Mesh
	for i := range planes {
		quad, err := ExtractQuad(&planes[i])
		if err != nil {
			log.Printf("[Convert] quad extraction failed for plane %d: %v", i+1, err)
			continue
		}
		parts = append(parts, quad.Mesh())
		if c.DebugPlotDir != "" {
			c.snapshotPlane(i+1, &planes[i])
		}
	}

	c.Progress(60, fmt.Sprintf("meshing %d residual points", len(residual)))
	residualMesh, err := ReconstructResidual(residual, spacing,
		c.Params.MinResidualPoints, c.Params.PoissonDepth, c.Params.AlphaFactor)
	if err != nil {
		// Degradation, not fatal: plane quads may still carry the run.
		log.Printf("[Convert] residual reconstruction failed: %v", err)
	}
	if residualMesh != nil {
		parts = append(parts, residualMesh)
	}

	if len(parts) == 0 {
		return nil, len(planes), fmt.Errorf("reconstruction produced no triangles: no planes detected and every residual method failed")
	}

	c.Progress(70, fmt.Sprintf("merging %d partial mesh(es)", len(parts)))
	merged, err := MergeMeshes(parts, c.Params.MergeEpsilon)
	if err != nil {
		return nil, len(planes), fmt.Errorf("merge meshes: %w", err)
	}

	c.Progress(75, "postprocessing mesh")
	final := PostProcess(merged)
	if len(final.Triangles) == 0 {
		return nil, len(planes), fmt.Errorf("mesh empty after postprocessing")
	}
	return final, len(planes), nil
}

// preprocess cleans the cloud ahead of segmentation: optional voxel
// downsampling for very dense captures, duplicate removal, statistical
// outlier removal. Returns the cleaned points and the spacing estimate
// the later stages scale their thresholds with.
func (c *Converter) preprocess(pts []r3.Vec) ([]r3.Vec, float64) {
	spacing := EstimateSpacing(pts, c.Params.SpacingSampleSize, c.rng)

	if len(pts) > downsampleAbove {
		voxel := math.Max(0.8*spacing, 1e-4)
		pts = cloud.VoxelDownsample(pts, voxel)
		log.Printf("[Preprocess] voxel downsample at %.5g left %d points", voxel, len(pts))
	}

	pts = cloud.RemoveDuplicates(pts)

	nbNeighbors, stdRatio := 20, 1.5
	if len(pts) > 200_000 {
		nbNeighbors, stdRatio = 30, 2.0
	}
	pts, removed := cloud.RemoveStatisticalOutliers(pts, nbNeighbors, stdRatio)
	if removed > 0 {
		log.Printf("[Preprocess] removed %d statistical outliers", removed)
	}

	// Re-estimate after cleanup so downstream thresholds track the
	// cloud that segmentation actually sees.
	spacing = EstimateSpacing(pts, c.Params.SpacingSampleSize, c.rng)
	return pts, spacing
}

// snapshotPlane writes a debug plot of one plane's projection.
// Plot failures never affect the conversion.
func (c *Converter) snapshotPlane(n int, p *Plane) {
	pts2, rect, err := ProjectPlane(p)
	if err != nil {
		log.Printf("[Convert] skipping plot for plane %d: %v", n, err)
		return
	}
	if err := debugplot.SavePlaneProjection(c.DebugPlotDir, n, pts2, rect); err != nil {
		log.Printf("[Convert] plot for plane %d failed: %v", n, err)
	}
}

func (c *Converter) fail(start time.Time, points int, err error) Result {
	log.Printf("[Convert] conversion failed: %v", err)
	return Result{
		Success:        false,
		Error:          err.Error(),
		OriginalPoints: points,
		DurationMillis: time.Since(start).Milliseconds(),
	}
}
