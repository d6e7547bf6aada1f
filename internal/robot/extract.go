package robot

import (
	"fmt"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/pkg/urdf"
)

// LinkGeometry is what instantiation needs to know about one link.
type LinkGeometry struct {
	Index int
	// Geometry of the first visual, or nil when the link has none.
	Geometry       urdf.Geometry
	InertialOrigin urdf.Pose
	// Collider is set only when the template link has exactly one collider.
	Collider *physics.ColliderTemplate
}

// ExtractGeometry lists, in link order, the visual geometry, inertial origin
// and sole collider of every link of a loaded robot.
func ExtractGeometry(asset *assets.RobotAsset) ([]LinkGeometry, error) {
	links := asset.Robot.Links
	tmpl := asset.Template.Links
	if len(links) != len(tmpl) {
		return nil, fmt.Errorf("%w: %d links in description, %d in template", ErrShapeMismatch, len(links), len(tmpl))
	}

	out := make([]LinkGeometry, len(links))
	for i := range links {
		out[i] = LinkGeometry{Index: i, InertialOrigin: links[i].Inertial.Origin}
		if len(links[i].Visual) > 0 {
			out[i].Geometry = links[i].Visual[0].Geometry
		}
		// More than one collider is ambiguous, so none is reported.
		if len(tmpl[i].Colliders) == 1 {
			out[i].Collider = &tmpl[i].Colliders[0]
		}
	}
	return out, nil
}
