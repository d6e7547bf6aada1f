package robot

import "github.com/Faultbox/urdfsim/internal/render"

// SyncGeometry copies the pose of every linked physics body onto its entity.
// Entities whose body no longer exists, or that belong to another simulation
// context, are left as they are. Entity scale is preserved.
func SyncGeometry(src PoseSource, scene *render.Scene) {
	ctx := src.ID()
	render.Query(scene, func(e *render.Entity, link BodyLink) {
		if link.Context != ctx {
			return
		}
		pose, ok := src.Pose(link.Body)
		if !ok {
			return
		}
		scale := e.Transform.Scale
		e.Transform = ToRenderer(pose)
		e.Transform.Scale = scale
	})
}
