// STL (stereolithography) mesh format parser, binary and ASCII variants.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// STL format errors.
var (
	ErrTruncatedSTLData = errors.New("truncated STL data")
	ErrInvalidSTLASCII  = errors.New("invalid ASCII STL")
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal + 3 vertices (12 float32) + attribute word
)

// STLTriangle is one facet of an STL mesh.
type STLTriangle struct {
	Normal   [3]float32
	Vertices [3][3]float32
}

// STL represents a parsed STL mesh.
type STL struct {
	Name      string // Solid name (ASCII) or trimmed header (binary)
	Binary    bool
	Triangles []STLTriangle
}

// Bounds returns the axis-aligned bounding box of all vertices.
// Returns zero vectors for an empty mesh.
func (s *STL) Bounds() (min, max [3]float32) {
	if len(s.Triangles) == 0 {
		return min, max
	}
	min = s.Triangles[0].Vertices[0]
	max = min
	for _, tri := range s.Triangles {
		for _, v := range tri.Vertices {
			for i := 0; i < 3; i++ {
				if v[i] < min[i] {
					min[i] = v[i]
				}
				if v[i] > max[i] {
					max[i] = v[i]
				}
			}
		}
	}
	return min, max
}

// ParseSTL parses STL data, detecting the binary or ASCII variant.
func ParseSTL(data []byte) (*STL, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	return parseASCIISTL(data)
}

// ParseSTLFile reads and parses an STL file from disk.
func ParseSTLFile(path string) (*STL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseSTL(data)
}

// isBinarySTL checks the size implied by the triangle count. Some exporters write
// binary files whose header starts with "solid", so the prefix alone is not enough.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid"))
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if uint64(len(data)) == uint64(stlHeaderSize+4)+uint64(count)*stlTriangleSize {
		return true
	}
	return !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid"))
}

func parseBinarySTL(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTLData
	}

	r := bytes.NewReader(data)

	header := make([]byte, stlHeaderSize)
	if _, err := r.Read(header); err != nil {
		return nil, ErrTruncatedSTLData
	}

	var count uint32
	binary.Read(r, binary.LittleEndian, &count)

	if uint64(r.Len()) < uint64(count)*stlTriangleSize {
		return nil, fmt.Errorf("%w: %d triangles declared, %d bytes left", ErrTruncatedSTLData, count, r.Len())
	}

	stl := &STL{
		Name:      strings.TrimRight(string(header), "\x00 "),
		Binary:    true,
		Triangles: make([]STLTriangle, count),
	}

	for i := uint32(0); i < count; i++ {
		tri := &stl.Triangles[i]
		binary.Read(r, binary.LittleEndian, &tri.Normal)
		binary.Read(r, binary.LittleEndian, &tri.Vertices)

		// Attribute byte count, unused
		r.Seek(2, 1)
	}

	return stl, nil
}

func parseASCIISTL(data []byte) (*STL, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	stl := &STL{}

	var (
		tri     STLTriangle
		nVerts  int
		inFacet bool
		sawHead bool
	)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			sawHead = true
			if len(fields) > 1 {
				stl.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: bad facet line %q", ErrInvalidSTLASCII, scanner.Text())
			}
			n, err := parseSTLVec(fields[2:])
			if err != nil {
				return nil, err
			}
			tri = STLTriangle{Normal: n}
			nVerts = 0
			inFacet = true
		case "vertex":
			if !inFacet || nVerts >= 3 || len(fields) != 4 {
				return nil, fmt.Errorf("%w: unexpected vertex %q", ErrInvalidSTLASCII, scanner.Text())
			}
			v, err := parseSTLVec(fields[1:])
			if err != nil {
				return nil, err
			}
			tri.Vertices[nVerts] = v
			nVerts++
		case "endfacet":
			if !inFacet || nVerts != 3 {
				return nil, fmt.Errorf("%w: facet with %d vertices", ErrInvalidSTLASCII, nVerts)
			}
			stl.Triangles = append(stl.Triangles, tri)
			inFacet = false
		case "outer", "endloop", "endsolid":
			// structural keywords
		default:
			return nil, fmt.Errorf("%w: unknown keyword %q", ErrInvalidSTLASCII, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawHead {
		return nil, fmt.Errorf("%w: missing solid header", ErrInvalidSTLASCII)
	}
	if inFacet {
		return nil, fmt.Errorf("%w: unterminated facet", ErrTruncatedSTLData)
	}

	return stl, nil
}

func parseSTLVec(fields []string) ([3]float32, error) {
	var v [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, fmt.Errorf("%w: %q", ErrInvalidSTLASCII, fields[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}
