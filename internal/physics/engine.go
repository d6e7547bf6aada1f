package physics

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/pkg/math"
)

var nextEngineID atomic.Uint32

// MultibodyOptions controls multibody insertion.
type MultibodyOptions struct {
	// DisableSelfContacts filters contacts between links of the same multibody.
	DisableSelfContacts bool
}

// LinkHandles are the engine handles created for one template link.
type LinkHandles struct {
	Body      BodyHandle
	Colliders []ColliderHandle
}

// MultibodyHandles are the engine handles created by InsertMultibody.
// Links is in template link order.
type MultibodyHandles struct {
	Multibody MultibodyHandle
	Links     []LinkHandles
	Joints    []MultibodyJointHandle
}

// Engine is one simulation context: the body, collider and multibody joint
// tables plus the stepping routine. It is not safe for concurrent use.
type Engine struct {
	id uint32

	Bodies      RigidBodySet
	Colliders   ColliderSet
	Multibodies MultibodyJointSet

	// Gravity is applied to dynamic bodies that are not driven by a parent joint.
	Gravity math.Vec3

	time float64
}

// NewEngine creates an empty simulation context.
func NewEngine() *Engine {
	return &Engine{id: nextEngineID.Add(1)}
}

// ID returns an identifier unique to this engine within the process.
func (e *Engine) ID() uint32 {
	return e.id
}

// Time returns the simulated time in seconds.
func (e *Engine) Time() float64 {
	return e.time
}

// InsertMultibody creates the bodies, colliders and multibody joints described
// by t. The template is validated before anything is inserted, so a failed
// insertion leaves the engine unchanged.
func (e *Engine) InsertMultibody(t *Template, opts MultibodyOptions) (MultibodyHandles, error) {
	order, parents, err := treeOrder(len(t.Links), t.Joints)
	if err != nil {
		return MultibodyHandles{}, err
	}

	mb := &Multibody{
		Name:                t.Name,
		Links:               make([]MultibodyLink, len(t.Links)),
		DisableSelfContacts: opts.DisableSelfContacts,
		order:               order,
	}
	mbHandle := e.Multibodies.Insert(mb)

	handles := MultibodyHandles{
		Multibody: mbHandle,
		Links:     make([]LinkHandles, len(t.Links)),
	}

	for i := range t.Links {
		lt := &t.Links[i]
		body := &RigidBody{
			Type:              lt.Body.Type,
			Position:          lt.Body.Position,
			Mass:              lt.Body.Mass,
			LocalCenterOfMass: lt.Body.LocalCenterOfMass,
			multibody:         mbHandle,
			linkIndex:         i,
		}
		bh := e.Bodies.Insert(body)
		handles.Links[i].Body = bh

		for _, ct := range lt.Colliders {
			ch := e.Colliders.Insert(&Collider{
				Name:     ct.Name,
				Shape:    ct.Shape,
				Position: ct.Position,
				Parent:   bh,
			})
			body.colliders = append(body.colliders, ch)
			handles.Links[i].Colliders = append(handles.Links[i].Colliders, ch)
		}

		mb.Links[i] = MultibodyLink{Name: lt.Name, Body: bh, Parent: parents[i]}
	}

	for ji := range t.Joints {
		j := &t.Joints[ji]
		mb.Links[j.Child].Joint = j
		handles.Joints = append(handles.Joints, MultibodyJointHandle{Multibody: mbHandle, Link: j.Child})
	}

	logger.Debug("multibody inserted",
		zap.String("name", t.Name),
		zap.Stringer("handle", mbHandle),
		zap.Int("links", len(t.Links)),
		zap.Int("joints", len(t.Joints)),
		zap.Bool("disableSelfContacts", opts.DisableSelfContacts))

	return handles, nil
}

// RemoveMultibody removes everything InsertMultibody created for h.
func (e *Engine) RemoveMultibody(h MultibodyHandles) {
	for _, link := range h.Links {
		for _, ch := range link.Colliders {
			e.Colliders.Remove(ch)
		}
		e.Bodies.Remove(link.Body)
	}
	e.Multibodies.Remove(h.Multibody)
}

// Pose returns the current world pose of a body, or false if it no longer exists.
func (e *Engine) Pose(h BodyHandle) (Isometry, bool) {
	b, ok := e.Bodies.Get(h)
	if !ok {
		return Isometry{}, false
	}
	return b.Position, true
}

// Joint returns the link state behind a multibody joint handle.
func (e *Engine) Joint(h MultibodyJointHandle) (*MultibodyLink, bool) {
	mb, ok := e.Multibodies.Get(h.Multibody)
	if !ok || h.Link < 0 || h.Link >= len(mb.Links) || mb.Links[h.Link].Joint == nil {
		return nil, false
	}
	return &mb.Links[h.Link], true
}

// SetJointState sets the coordinate and rate of a joint. The pose of the
// affected bodies is updated on the next Step.
func (e *Engine) SetJointState(h MultibodyJointHandle, position, velocity float32) bool {
	link, ok := e.Joint(h)
	if !ok {
		return false
	}
	link.Position = position
	link.Velocity = velocity
	return true
}

// Step advances the simulation by dt seconds: free bodies and multibody roots
// integrate their velocities, joint coordinates integrate their rates, and
// multibody link poses are recomputed from the tree.
func (e *Engine) Step(dt float32) {
	e.Bodies.Each(func(_ BodyHandle, b *RigidBody) {
		if b.Type == BodyFixed {
			return
		}
		if _, link, ok := b.Multibody(); ok {
			if mb, found := e.Multibodies.Get(b.multibody); found && mb.Links[link].Parent >= 0 {
				return
			}
		}
		if b.Type == BodyDynamic {
			b.LinVel = b.LinVel.Add(e.Gravity.Scale(dt))
		}
		b.Position = b.Position.integrate(b.LinVel, b.AngVel, dt)
	})

	e.Multibodies.Each(func(_ MultibodyHandle, mb *Multibody) {
		for _, i := range mb.order {
			link := &mb.Links[i]
			if link.Parent < 0 || link.Joint == nil {
				continue
			}
			j := link.Joint
			link.Position += link.Velocity * dt
			if j.Kind.limited() && j.Lower < j.Upper {
				link.Position = max(j.Lower, min(j.Upper, link.Position))
			}

			parent, ok := e.Bodies.Get(mb.Links[link.Parent].Body)
			if !ok {
				continue
			}
			body, ok := e.Bodies.Get(link.Body)
			if !ok {
				continue
			}
			body.Position = parent.Position.Mul(j.Origin).Mul(j.Kind.motion(j.Axis, link.Position))
		}
	})

	e.time += float64(dt)
}

// ContactPair is a pair of colliders whose bounds overlap.
type ContactPair struct {
	A, B ColliderHandle
}

// Contacts returns all collider pairs with overlapping world bounds. Pairs on
// the same body are skipped, as are pairs within a multibody inserted with
// DisableSelfContacts.
func (e *Engine) Contacts() []ContactPair {
	type entry struct {
		handle ColliderHandle
		parent *RigidBody
		lo, hi [3]float32
	}
	var entries []entry
	e.Colliders.Each(func(h ColliderHandle, c *Collider) {
		parent, ok := e.Bodies.Get(c.Parent)
		if !ok {
			return
		}
		lo, hi := worldAABB(c.Shape, parent.Position.Mul(c.Position))
		entries = append(entries, entry{handle: h, parent: parent, lo: lo.Array(), hi: hi.Array()})
	})

	var pairs []ContactPair
	for i := 0; i < len(entries); i++ {
		for k := i + 1; k < len(entries); k++ {
			a, b := &entries[i], &entries[k]
			if a.parent == b.parent {
				continue
			}
			if a.parent.multibody.valid() && a.parent.multibody == b.parent.multibody {
				if mb, ok := e.Multibodies.Get(a.parent.multibody); ok && mb.DisableSelfContacts {
					continue
				}
			}
			if overlap(a.lo, a.hi, b.lo, b.hi) {
				pairs = append(pairs, ContactPair{A: a.handle, B: b.handle})
			}
		}
	}
	return pairs
}

func overlap(alo, ahi, blo, bhi [3]float32) bool {
	for i := 0; i < 3; i++ {
		if alo[i] > bhi[i] || ahi[i] < blo[i] {
			return false
		}
	}
	return true
}
