package urdf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// URDF parse errors.
var (
	ErrNoRobot         = errors.New("urdf: missing <robot> element")
	ErrMissingGeometry = errors.New("urdf: geometry element has no shape")
	ErrDuplicateLink   = errors.New("urdf: duplicate link name")
	ErrUnknownLink     = errors.New("urdf: joint references unknown link")
	ErrInvalidNumber   = errors.New("urdf: invalid numeric attribute")
)

type xmlRobot struct {
	XMLName   xml.Name      `xml:"robot"`
	Name      string        `xml:"name,attr"`
	Links     []xmlLink     `xml:"link"`
	Joints    []xmlJoint    `xml:"joint"`
	Materials []xmlMaterial `xml:"material"`
}

type xmlPose struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type xmlGeometry struct {
	Box *struct {
		Size string `xml:"size,attr"`
	} `xml:"box"`
	Cylinder *struct {
		Radius string `xml:"radius,attr"`
		Length string `xml:"length,attr"`
	} `xml:"cylinder"`
	Capsule *struct {
		Radius string `xml:"radius,attr"`
		Length string `xml:"length,attr"`
	} `xml:"capsule"`
	Sphere *struct {
		Radius string `xml:"radius,attr"`
	} `xml:"sphere"`
	Mesh *struct {
		Filename string `xml:"filename,attr"`
		Scale    string `xml:"scale,attr"`
	} `xml:"mesh"`
}

type xmlMaterial struct {
	Name  string `xml:"name,attr"`
	Color *struct {
		RGBA string `xml:"rgba,attr"`
	} `xml:"color"`
	Texture *struct {
		Filename string `xml:"filename,attr"`
	} `xml:"texture"`
}

type xmlVisual struct {
	Name     string       `xml:"name,attr"`
	Origin   *xmlPose     `xml:"origin"`
	Geometry xmlGeometry  `xml:"geometry"`
	Material *xmlMaterial `xml:"material"`
}

type xmlCollision struct {
	Name     string      `xml:"name,attr"`
	Origin   *xmlPose    `xml:"origin"`
	Geometry xmlGeometry `xml:"geometry"`
}

type xmlLink struct {
	Name     string `xml:"name,attr"`
	Inertial *struct {
		Origin *xmlPose `xml:"origin"`
		Mass   struct {
			Value string `xml:"value,attr"`
		} `xml:"mass"`
		Inertia struct {
			IXX string `xml:"ixx,attr"`
			IXY string `xml:"ixy,attr"`
			IXZ string `xml:"ixz,attr"`
			IYY string `xml:"iyy,attr"`
			IYZ string `xml:"iyz,attr"`
			IZZ string `xml:"izz,attr"`
		} `xml:"inertia"`
	} `xml:"inertial"`
	Visual    []xmlVisual    `xml:"visual"`
	Collision []xmlCollision `xml:"collision"`
}

type xmlJoint struct {
	Name   string   `xml:"name,attr"`
	Type   string   `xml:"type,attr"`
	Origin *xmlPose `xml:"origin"`
	Parent struct {
		Link string `xml:"link,attr"`
	} `xml:"parent"`
	Child struct {
		Link string `xml:"link,attr"`
	} `xml:"child"`
	Axis *struct {
		XYZ string `xml:"xyz,attr"`
	} `xml:"axis"`
	Limit *struct {
		Lower    string `xml:"lower,attr"`
		Upper    string `xml:"upper,attr"`
		Effort   string `xml:"effort,attr"`
		Velocity string `xml:"velocity,attr"`
	} `xml:"limit"`
}

// Parse parses a URDF document.
func Parse(data []byte) (*Robot, error) {
	var doc xmlRobot
	if err := xml.Unmarshal(data, &doc); err != nil {
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "expected element type <robot>") {
			return nil, fmt.Errorf("%w: %v", ErrNoRobot, err)
		}
		return nil, fmt.Errorf("decoding urdf: %w", err)
	}

	robot := &Robot{Name: doc.Name}

	for _, xm := range doc.Materials {
		m, err := convertMaterial(&xm)
		if err != nil {
			return nil, err
		}
		robot.Materials = append(robot.Materials, *m)
	}

	seen := make(map[string]bool, len(doc.Links))
	for i := range doc.Links {
		link, err := convertLink(&doc.Links[i])
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", doc.Links[i].Name, err)
		}
		if seen[link.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLink, link.Name)
		}
		seen[link.Name] = true
		robot.Links = append(robot.Links, link)
	}

	for i := range doc.Joints {
		joint, err := convertJoint(&doc.Joints[i])
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", doc.Joints[i].Name, err)
		}
		if !seen[joint.Parent] || !seen[joint.Child] {
			return nil, fmt.Errorf("%w: %s (%s -> %s)", ErrUnknownLink, joint.Name, joint.Parent, joint.Child)
		}
		robot.Joints = append(robot.Joints, joint)
	}

	return robot, nil
}

// ParseFile reads and parses a URDF file from disk.
func ParseFile(path string) (*Robot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Parse(data)
}

func convertLink(xl *xmlLink) (Link, error) {
	link := Link{Name: xl.Name}

	if xl.Inertial != nil {
		origin, err := convertPose(xl.Inertial.Origin)
		if err != nil {
			return link, err
		}
		link.Inertial.Origin = origin

		in := &xl.Inertial.Inertia
		values := []struct {
			src string
			dst *float64
		}{
			{xl.Inertial.Mass.Value, &link.Inertial.Mass},
			{in.IXX, &link.Inertial.Inertia.IXX},
			{in.IXY, &link.Inertial.Inertia.IXY},
			{in.IXZ, &link.Inertial.Inertia.IXZ},
			{in.IYY, &link.Inertial.Inertia.IYY},
			{in.IYZ, &link.Inertial.Inertia.IYZ},
			{in.IZZ, &link.Inertial.Inertia.IZZ},
		}
		for _, v := range values {
			if *v.dst, err = parseFloat(v.src); err != nil {
				return link, err
			}
		}
	}

	for i := range xl.Visual {
		xv := &xl.Visual[i]
		origin, err := convertPose(xv.Origin)
		if err != nil {
			return link, err
		}
		geom, err := convertGeometry(&xv.Geometry)
		if err != nil {
			return link, fmt.Errorf("visual %d: %w", i, err)
		}
		visual := Visual{Name: xv.Name, Origin: origin, Geometry: geom}
		if xv.Material != nil {
			if visual.Material, err = convertMaterial(xv.Material); err != nil {
				return link, err
			}
		}
		link.Visual = append(link.Visual, visual)
	}

	for i := range xl.Collision {
		xc := &xl.Collision[i]
		origin, err := convertPose(xc.Origin)
		if err != nil {
			return link, err
		}
		geom, err := convertGeometry(&xc.Geometry)
		if err != nil {
			return link, fmt.Errorf("collision %d: %w", i, err)
		}
		link.Collision = append(link.Collision, Collision{Name: xc.Name, Origin: origin, Geometry: geom})
	}

	return link, nil
}

func convertJoint(xj *xmlJoint) (Joint, error) {
	joint := Joint{
		Name:   xj.Name,
		Type:   JointType(xj.Type),
		Parent: xj.Parent.Link,
		Child:  xj.Child.Link,
		Axis:   [3]float64{1, 0, 0},
	}

	var err error
	if joint.Origin, err = convertPose(xj.Origin); err != nil {
		return joint, err
	}
	if xj.Axis != nil && xj.Axis.XYZ != "" {
		if joint.Axis, err = parseVec3(xj.Axis.XYZ); err != nil {
			return joint, err
		}
	}
	if xj.Limit != nil {
		values := []struct {
			src string
			dst *float64
		}{
			{xj.Limit.Lower, &joint.Limit.Lower},
			{xj.Limit.Upper, &joint.Limit.Upper},
			{xj.Limit.Effort, &joint.Limit.Effort},
			{xj.Limit.Velocity, &joint.Limit.Velocity},
		}
		for _, v := range values {
			if *v.dst, err = parseFloat(v.src); err != nil {
				return joint, err
			}
		}
	}
	return joint, nil
}

func convertGeometry(xg *xmlGeometry) (Geometry, error) {
	switch {
	case xg.Box != nil:
		size, err := parseVec3(xg.Box.Size)
		if err != nil {
			return nil, err
		}
		return &Box{Size: size}, nil
	case xg.Cylinder != nil:
		r, err := parseFloat(xg.Cylinder.Radius)
		if err != nil {
			return nil, err
		}
		l, err := parseFloat(xg.Cylinder.Length)
		if err != nil {
			return nil, err
		}
		return &Cylinder{Radius: r, Length: l}, nil
	case xg.Capsule != nil:
		r, err := parseFloat(xg.Capsule.Radius)
		if err != nil {
			return nil, err
		}
		l, err := parseFloat(xg.Capsule.Length)
		if err != nil {
			return nil, err
		}
		return &Capsule{Radius: r, Length: l}, nil
	case xg.Sphere != nil:
		r, err := parseFloat(xg.Sphere.Radius)
		if err != nil {
			return nil, err
		}
		return &Sphere{Radius: r}, nil
	case xg.Mesh != nil:
		mesh := &Mesh{Filename: xg.Mesh.Filename}
		if xg.Mesh.Scale != "" {
			scale, err := parseVec3(xg.Mesh.Scale)
			if err != nil {
				return nil, err
			}
			mesh.Scale = &scale
		}
		return mesh, nil
	default:
		return nil, ErrMissingGeometry
	}
}

func convertMaterial(xm *xmlMaterial) (*Material, error) {
	m := &Material{Name: xm.Name}
	if xm.Color != nil {
		values, err := parseFloats(xm.Color.RGBA, 4)
		if err != nil {
			return nil, err
		}
		c := Color{values[0], values[1], values[2], values[3]}
		m.Color = &c
	}
	if xm.Texture != nil {
		m.Texture = xm.Texture.Filename
	}
	return m, nil
}

func convertPose(xp *xmlPose) (Pose, error) {
	var pose Pose
	if xp == nil {
		return pose, nil
	}
	var err error
	if xp.XYZ != "" {
		if pose.XYZ, err = parseVec3(xp.XYZ); err != nil {
			return pose, err
		}
	}
	if xp.RPY != "" {
		if pose.RPY, err = parseVec3(xp.RPY); err != nil {
			return pose, err
		}
	}
	return pose, nil
}

// parseFloat parses a single number. Empty attributes read as zero.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}

func parseVec3(s string) ([3]float64, error) {
	var out [3]float64
	values, err := parseFloats(s, 3)
	if err != nil {
		return out, err
	}
	copy(out[:], values)
	return out, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%w: expected %d values in %q", ErrInvalidNumber, n, s)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, f)
		}
		out[i] = v
	}
	return out, nil
}
