package urdf

import "testing"

func TestResolveMeshPath(t *testing.T) {
	tests := []struct {
		meshDir  string
		filename string
		want     string
	}{
		{"robots/meshes", "base.stl", "robots/meshes/base.stl"},
		{"robots/meshes", "sub/arm.stl", "robots/meshes/sub/arm.stl"},
		{"robots", "package://arm/meshes/base.stl", "robots/meshes/base.stl"},
		{"robots", "file:///opt/meshes/base.stl", "/opt/meshes/base.stl"},
		{"", "base.stl", "base.stl"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ResolveMeshPath(tt.meshDir, tt.filename); got != tt.want {
				t.Errorf("ResolveMeshPath(%q, %q) = %q, want %q", tt.meshDir, tt.filename, got, tt.want)
			}
		})
	}
}
