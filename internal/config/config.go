// Package config handles simulator configuration loading and management.
package config

// Config holds all simulator settings.
type Config struct {
	Window     WindowConfig     `yaml:"window" toml:"window"`
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Assets     AssetsConfig     `yaml:"assets" toml:"assets"`
	Robots     []RobotConfig    `yaml:"robots" toml:"robots"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// WindowConfig holds viewer display settings.
type WindowConfig struct {
	Width         int    `yaml:"width" toml:"width"`
	Height        int    `yaml:"height" toml:"height"`
	Fullscreen    bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync         bool   `yaml:"vsync" toml:"vsync"`
	ScreenshotDir string `yaml:"screenshot_dir" toml:"screenshot_dir"`
}

// SimulationConfig holds physics and tick loop settings.
type SimulationConfig struct {
	TickRate            float64    `yaml:"tick_rate" toml:"tick_rate"` // Hz
	Ticks               int        `yaml:"ticks" toml:"ticks"`         // 0 runs until interrupted
	DisableSelfContacts bool       `yaml:"disable_self_contacts" toml:"disable_self_contacts"`
	MaxSpawnAttempts    int        `yaml:"max_spawn_attempts" toml:"max_spawn_attempts"` // 0 retries forever
	FixedRoots          bool       `yaml:"fixed_roots" toml:"fixed_roots"`
	Gravity             [3]float32 `yaml:"gravity" toml:"gravity"`
}

// AssetsConfig holds asset server settings. Robot description paths are
// relative to the working directory; visual meshes are relative to Root.
type AssetsConfig struct {
	Root  string `yaml:"root" toml:"root"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// RobotConfig is one robot to load at startup.
type RobotConfig struct {
	URDFPath string `yaml:"urdf_path" toml:"urdf_path"`
	MeshDir  string `yaml:"mesh_dir" toml:"mesh_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:         1280,
			Height:        720,
			Fullscreen:    false,
			VSync:         true,
			ScreenshotDir: "screenshots",
		},
		Simulation: SimulationConfig{
			TickRate:            60,
			Ticks:               0,
			DisableSelfContacts: true,
			MaxSpawnAttempts:    0,
			FixedRoots:          true,
			Gravity:             [3]float32{0, 0, -9.81},
		},
		Assets: AssetsConfig{
			Root:  "assets",
			Watch: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
