package sim

import (
	"github.com/Faultbox/urdfsim/internal/config"
	"github.com/Faultbox/urdfsim/pkg/math"
)

// FromConfig maps application settings onto a simulation Config. Robot
// descriptions resolve against the working directory, meshes against the
// asset root.
func FromConfig(c *config.Config) Config {
	g := c.Simulation.Gravity
	return Config{
		TickRate:            c.Simulation.TickRate,
		DisableSelfContacts: c.Simulation.DisableSelfContacts,
		MaxSpawnAttempts:    c.Simulation.MaxSpawnAttempts,
		FixedRoots:          c.Simulation.FixedRoots,
		Gravity:             math.Vec3{X: g[0], Y: g[1], Z: g[2]},
		MeshRoot:            c.Assets.Root,
		Watch:               c.Assets.Watch,
	}
}

// LoadConfigured requests every robot listed in c.
func (a *App) LoadConfigured(c *config.Config) {
	for _, r := range c.Robots {
		a.Load(r.URDFPath, r.MeshDir)
	}
}
