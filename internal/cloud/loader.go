package cloud

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// LoadTXTFile parses one coordinate table. Lines may be delimited by
// spaces, tabs or commas in any mix; `#` and `//` lines are comments.
// Rows with two columns are padded with z=0, columns beyond the third
// are ignored, and rows that do not parse as numbers are skipped.
func LoadTXTFile(path string) ([]r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var pts []r3.Vec
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if len(fields) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		z := 0.0
		if len(fields) >= 3 {
			if v, err := strconv.ParseFloat(fields[2], 64); err == nil {
				z = v
			} else {
				continue
			}
		}
		pts = append(pts, r3.Vec{X: x, Y: y, Z: z})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return pts, nil
}

// LoadTXTFiles concatenates the points of all input files in order.
// Per-file failures are logged and skipped; an error is returned only
// when no points could be loaded from any file.
func LoadTXTFiles(paths []string) ([]r3.Vec, error) {
	var all []r3.Vec
	for _, path := range paths {
		pts, err := LoadTXTFile(path)
		if err != nil {
			log.Printf("[Loader] skipping %s: %v", path, err)
			continue
		}
		if len(pts) == 0 {
			log.Printf("[Loader] no parsable points in %s", path)
			continue
		}
		all = append(all, pts...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no point data could be loaded from %d input file(s)", len(paths))
	}
	return all, nil
}
