package render

import "github.com/Faultbox/urdfsim/pkg/math"

// Bounds returns the world-space box around every visible entity with a
// ready mesh. ok is false when there is nothing to frame.
func (s *Scene) Bounds(meshes *Meshes) (lo, hi math.Vec3, ok bool) {
	s.Each(func(e *Entity) {
		if !e.Mesh.IsValid() || !s.IsVisible(e.ID) {
			return
		}
		mesh, found := meshes.Get(e.Mesh)
		if !found || !mesh.Ready {
			return
		}

		world := s.WorldMatrix(e.ID)
		b := mesh.Bounds
		for i := 0; i < 8; i++ {
			corner := b.Min
			if i&1 != 0 {
				corner[0] = b.Max[0]
			}
			if i&2 != 0 {
				corner[1] = b.Max[1]
			}
			if i&4 != 0 {
				corner[2] = b.Max[2]
			}
			p := world.TransformPoint(corner)
			v := math.Vec3{X: p[0], Y: p[1], Z: p[2]}
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo, hi = lo.Min(v), hi.Max(v)
		}
	})
	return lo, hi, ok
}
