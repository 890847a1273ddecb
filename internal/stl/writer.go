// Package stl writes triangle meshes as binary STL files.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/meshforge/internal/geom"
)

const headerSize = 80

// Write saves mesh to path as binary STL. Vertex normals must be
// present (the converter guarantees this before export); per-face
// normals are taken from the triangle normals, computed on the fly
// when missing. The file is written to a temporary sibling and renamed
// into place so a failed write never leaves a partial output file.
func Write(path string, mesh *geom.Mesh) error {
	if mesh == nil || len(mesh.Triangles) == 0 {
		return fmt.Errorf("refusing to write empty mesh to %s", path)
	}
	if !mesh.HasVertexNormals() {
		return fmt.Errorf("mesh has no vertex normals, cannot export %s", path)
	}
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("invalid mesh: %w", err)
	}
	if len(mesh.TriangleNormals) != len(mesh.Triangles) {
		mesh.ComputeTriangleNormals()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, mesh); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func encode(f *os.File, mesh *geom.Mesh) error {
	w := bufio.NewWriter(f)

	var header [headerSize]byte
	copy(header[:], "meshforge binary STL")
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(mesh.Triangles))); err != nil {
		return fmt.Errorf("write triangle count: %w", err)
	}

	buf := make([]byte, 50) // 12 floats + attribute byte count
	for i, t := range mesh.Triangles {
		putVec(buf[0:], mesh.TriangleNormals[i])
		putVec(buf[12:], mesh.Vertices[t[0]])
		putVec(buf[24:], mesh.Vertices[t[1]])
		putVec(buf[36:], mesh.Vertices[t[2]])
		buf[48], buf[49] = 0, 0
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
	}
	return w.Flush()
}

func putVec(b []byte, v r3.Vec) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}
