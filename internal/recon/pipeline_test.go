package recon

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/stl"
)

func testParams() Params {
	p := DefaultParams()
	p.Seed = 42
	return p
}

func writeCloudFile(t *testing.T, dir string, pts []r3.Vec) string {
	t.Helper()
	var sb strings.Builder
	for _, p := range pts {
		fmt.Fprintf(&sb, "%g %g %g\n", p.X, p.Y, p.Z)
	}
	path := filepath.Join(dir, "cloud.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("write cloud: %v", err)
	}
	return path
}

func flatSquare(side int, pitch float64) []r3.Vec {
	pts := make([]r3.Vec, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			pts = append(pts, r3.Vec{X: float64(i) * pitch, Y: float64(j) * pitch})
		}
	}
	return pts
}

func TestConvertFlatSquare(t *testing.T) {
	dir := t.TempDir()
	pts := flatSquare(100, 0.1) // 10k points on z=0, extent 9.9
	input := writeCloudFile(t, dir, pts)

	var progress []int
	conv := NewConverter(testParams(), func(pct int, msg string) {
		progress = append(progress, pct)
	})
	res := conv.Convert([]string{input}, dir, "square.stl")
	if !res.Success {
		t.Fatalf("conversion failed: %s", res.Error)
	}
	if res.OriginalPoints != len(pts) {
		t.Fatalf("original points = %d, want %d", res.OriginalPoints, len(pts))
	}
	if res.PlanesDetected != 1 {
		t.Fatalf("detected %d planes, want 1", res.PlanesDetected)
	}
	// A single flat plane quadrangulates to exactly two triangles.
	if res.FinalTriangles != 2 || res.FinalVertices != 4 {
		t.Fatalf("final mesh %d triangles / %d vertices, want 2 / 4",
			res.FinalTriangles, res.FinalVertices)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("progress should end at 100, got %v", progress)
	}

	mesh, err := stl.Read(res.OutputPath)
	if err != nil {
		t.Fatalf("read back STL: %v", err)
	}
	if len(mesh.Triangles) != 2 {
		t.Fatalf("STL holds %d triangles, want 2", len(mesh.Triangles))
	}
	// The quad corners span the sampled square.
	for _, v := range mesh.Vertices {
		if math.Abs(v.Z) > 1e-3 {
			t.Fatalf("vertex off the z=0 plane: %v", v)
		}
		if v.X < -0.1 || v.X > 10 || v.Y < -0.1 || v.Y > 10 {
			t.Fatalf("vertex outside the square footprint: %v", v)
		}
	}
	// Outlier removal may trim the outermost grid rows, so the footprint
	// can come out slightly under the sampled 9.9 x 9.9 square.
	if area := mesh.SurfaceArea(); area < 85 || area > 100 {
		t.Fatalf("reconstructed area = %v, want close to %v", area, 9.9*9.9)
	}
}

func TestReconstructSphereResidualOnly(t *testing.T) {
	pts := fibonacciSphere(2000, 1)

	params := testParams()
	// No band of a sphere this sparse reaches 400 coplanar points, so
	// the whole cloud goes down the residual chain.
	params.MinPlanePoints = 400

	conv := NewConverter(params, func(int, string) {})
	mesh, planes, err := conv.Reconstruct(pts)
	if err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}
	if planes != 0 {
		t.Fatalf("detected %d planes on a sphere, want 0", planes)
	}
	if len(mesh.Triangles) == 0 {
		t.Fatal("residual chain produced no triangles")
	}
	if !mesh.HasVertexNormals() {
		t.Fatal("final mesh missing vertex normals")
	}
	for _, v := range mesh.Vertices {
		if d := math.Abs(r3.Norm(v) - 1); d > 0.2 {
			t.Fatalf("vertex %v is %v off the unit sphere", v, d)
		}
	}
}

func TestReconstructRejectsEmptyCloud(t *testing.T) {
	conv := NewConverter(testParams(), func(int, string) {})
	if _, _, err := conv.Reconstruct(nil); err == nil {
		t.Fatal("expected error on empty cloud")
	}
	if _, _, err := conv.Reconstruct([]r3.Vec{{X: math.NaN()}}); err == nil {
		t.Fatal("expected error when no point is finite")
	}
}

func TestConvertFailsWithoutPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "comments.txt")
	if err := os.WriteFile(path, []byte("# nothing here\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	conv := NewConverter(testParams(), func(int, string) {})
	res := conv.Convert([]string{path}, dir, "out.stl")
	if res.Success {
		t.Fatal("conversion of an empty cloud should fail")
	}
	if res.Error == "" {
		t.Fatal("failed result must carry an error message")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.stl")); !os.IsNotExist(err) {
		t.Fatal("failed conversion must not leave an output file")
	}
}

func TestConvertDefaultOutputName(t *testing.T) {
	dir := t.TempDir()
	input := writeCloudFile(t, dir, flatSquare(40, 0.1))

	conv := NewConverter(testParams(), func(int, string) {})
	res := conv.Convert([]string{input}, dir, "")
	if !res.Success {
		t.Fatalf("conversion failed: %s", res.Error)
	}
	base := filepath.Base(res.OutputPath)
	if !strings.HasPrefix(base, "pointcloud_") || !strings.HasSuffix(base, ".stl") {
		t.Fatalf("derived name %q, want pointcloud_<timestamp>.stl", base)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}
