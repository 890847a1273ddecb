package stl

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

// Read loads a binary STL file back into an indexed mesh, welding
// exactly equal vertices. Used by round-trip tests and the run
// inspection tooling; ASCII STL is not supported.
func Read(path string) (*geom.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var header [headerSize]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var count uint32
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read triangle count: %w", err)
	}

	mesh := &geom.Mesh{}
	vertIdx := make(map[[3]float32]int)
	addVert := func(v [3]float32) int {
		if i, ok := vertIdx[v]; ok {
			return i
		}
		mesh.Vertices = append(mesh.Vertices, r3.Vec{
			X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2]),
		})
		i := len(mesh.Vertices) - 1
		vertIdx[v] = i
		return i
	}

	buf := make([]byte, 50)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read triangle %d: %w", i, err)
		}
		var tri [3]int
		for v := 0; v < 3; v++ {
			off := 12 + v*12
			tri[v] = addVert([3]float32{
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])),
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:])),
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:])),
			})
		}
		mesh.Triangles = append(mesh.Triangles, tri)
	}
	return mesh, nil
}
