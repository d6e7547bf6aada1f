package urdf

import (
	"path"
	"strings"
)

// ResolveMeshPath joins a mesh filename from a description with the mesh base
// directory. ROS "package://<name>/" and "file://" prefixes are stripped so that
// meshDir plays the role of the package root. Absolute filenames are kept as-is.
func ResolveMeshPath(meshDir, filename string) string {
	switch {
	case strings.HasPrefix(filename, "package://"):
		rest := strings.TrimPrefix(filename, "package://")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[i+1:]
		}
		filename = rest
	case strings.HasPrefix(filename, "file://"):
		filename = strings.TrimPrefix(filename, "file://")
	}
	if path.IsAbs(filename) || meshDir == "" {
		return filename
	}
	return path.Join(meshDir, filename)
}
