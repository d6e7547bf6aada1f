package render

import gomath "math"

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// SRGB returns an opaque color from sRGB components in [0, 1].
func SRGB(r, g, b float32) Color {
	return Color{R: srgbToLinear(r), G: srgbToLinear(g), B: srgbToLinear(b), A: 1}
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(gomath.Pow((float64(c)+0.055)/1.055, 2.4))
}

// Material is a flat surface description.
type Material struct {
	BaseColor Color
}

// MaterialHandle references a material in a Materials store.
type MaterialHandle struct {
	id uint32
}

// IsValid reports whether the handle was issued by a store.
func (h MaterialHandle) IsValid() bool { return h.id != 0 }

// Materials stores materials by handle.
type Materials struct {
	materials []Material
}

// Add stores a material and returns its handle.
func (m *Materials) Add(mat Material) MaterialHandle {
	m.materials = append(m.materials, mat)
	return MaterialHandle{id: uint32(len(m.materials))}
}

// Get returns the material for a handle.
func (m *Materials) Get(h MaterialHandle) (Material, bool) {
	if h.id == 0 || int(h.id) > len(m.materials) {
		return Material{}, false
	}
	return m.materials[h.id-1], true
}

// Len returns the number of stored materials.
func (m *Materials) Len() int {
	return len(m.materials)
}
