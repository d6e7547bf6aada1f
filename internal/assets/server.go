// Package assets loads robot descriptions and meshes in the background and
// exposes them through handles that resolve once loading completes.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/pkg/formats"
	"github.com/Faultbox/urdfsim/pkg/urdf"
)

// ErrUnknownHandle is returned for handles the server never issued.
var ErrUnknownHandle = errors.New("assets: unknown handle")

// Handle references an asset that may still be loading. The zero Handle is invalid.
// Handles are comparable and cheap to copy.
type Handle struct {
	id uint64
}

// IsValid reports whether the handle was issued by a server.
func (h Handle) IsValid() bool { return h.id != 0 }

// String returns a printable form of the handle.
func (h Handle) String() string { return fmt.Sprintf("asset(%d)", h.id) }

// LoadState is the progress of an asset behind a handle.
type LoadState int

const (
	StateNotLoaded LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

// String returns a human-readable state name.
func (s LoadState) String() string {
	switch s {
	case StateNotLoaded:
		return "NotLoaded"
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Settings are per-load options for robot descriptions.
type Settings struct {
	// MeshDir is the base directory for relative mesh references inside the
	// description, relative to the server root.
	MeshDir string
}

// RobotAsset is a loaded robot description together with its physics template.
type RobotAsset struct {
	Path     string
	Settings Settings
	Robot    *urdf.Robot
	Template *physics.Template
}

type assetKind int

const (
	kindRobot assetKind = iota
	kindMesh
)

type entry struct {
	kind     assetKind
	path     string
	settings Settings
	state    LoadState
	robot    *RobotAsset
	mesh     *formats.STL
	err      error
}

// Options configures a Server.
type Options struct {
	// Root is prepended to relative robot description paths and the mesh
	// directories used for collision shapes.
	Root string
	// MeshRoot is prepended to relative visual mesh paths passed to LoadMesh.
	MeshRoot string
	// FixedRoots builds templates whose root links are fixed bodies.
	FixedRoots bool
}

// Server loads assets on background goroutines. All methods are safe for
// concurrent use; results are observed by polling State and Get.
type Server struct {
	opts  Options
	cache *Cache
	log   *zap.Logger

	mu      sync.RWMutex
	nextID  uint64
	entries map[Handle]*entry
	meshes  map[string]Handle

	wg sync.WaitGroup

	// Set while Watch runs.
	watcher *fsnotify.Watcher
	watched map[string]bool
}

// NewServer creates an asset server.
func NewServer(opts Options) *Server {
	return &Server{
		opts:    opts,
		cache:   NewCache(),
		log:     logger.Named("assets"),
		entries: make(map[Handle]*entry),
		meshes:  make(map[string]Handle),
	}
}

// Load starts loading a robot description and returns its handle immediately.
// Every call issues a new handle, even for a path already loaded.
func (s *Server) Load(path string, settings Settings) Handle {
	s.mu.Lock()
	h := s.newHandle()
	s.entries[h] = &entry{kind: kindRobot, path: path, settings: settings, state: StateLoading}
	s.mu.Unlock()

	s.watchFile(s.resolve(path))
	s.spawn(h)
	return h
}

// LoadMesh starts loading an STL mesh. Repeated calls with the same path
// return the same handle.
func (s *Server) LoadMesh(path string) Handle {
	s.mu.Lock()
	if h, ok := s.meshes[path]; ok {
		s.mu.Unlock()
		return h
	}
	h := s.newHandle()
	s.entries[h] = &entry{kind: kindMesh, path: path, state: StateLoading}
	s.meshes[path] = h
	s.mu.Unlock()

	s.spawn(h)
	return h
}

// newHandle must be called with mu held.
func (s *Server) newHandle() Handle {
	s.nextID++
	return Handle{id: s.nextID}
}

func (s *Server) spawn(h Handle) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.load(h)
	}()
}

// State returns the load state of a handle.
func (s *Server) State(h Handle) LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[h]; ok {
		return e.state
	}
	return StateNotLoaded
}

// Err returns the load error of a failed handle.
func (s *Server) Err(h Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[h]
	if !ok {
		return ErrUnknownHandle
	}
	return e.err
}

// Get returns the robot behind a handle once it has loaded.
func (s *Server) Get(h Handle) (*RobotAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[h]
	if !ok || e.kind != kindRobot || e.robot == nil {
		return nil, false
	}
	return e.robot, true
}

// GetMesh returns the mesh behind a handle once it has loaded.
func (s *Server) GetMesh(h Handle) (*formats.STL, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[h]
	if !ok || e.kind != kindMesh || e.mesh == nil {
		return nil, false
	}
	return e.mesh, true
}

// Wait blocks until every load started so far has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Cache returns the file cache shared by all loads.
func (s *Server) Cache() *Cache {
	return s.cache
}

func (s *Server) load(h Handle) {
	s.mu.RLock()
	e := *s.entries[h]
	s.mu.RUnlock()

	var (
		robot *RobotAsset
		mesh  *formats.STL
		err   error
	)
	switch e.kind {
	case kindRobot:
		robot, err = s.loadRobot(e.path, e.settings)
	case kindMesh:
		mesh, err = s.loadMesh(e.path)
	}

	s.mu.Lock()
	cur := s.entries[h]
	if err != nil {
		cur.err = err
		// A failed reload keeps serving the previous asset.
		if cur.robot == nil && cur.mesh == nil {
			cur.state = StateFailed
		}
	} else {
		cur.err = nil
		cur.robot = robot
		cur.mesh = mesh
		cur.state = StateLoaded
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("asset load failed", zap.String("path", e.path), zap.Stringer("handle", h), zap.Error(err))
		return
	}
	s.log.Debug("asset loaded", zap.String("path", e.path), zap.Stringer("handle", h))
}

func (s *Server) loadRobot(path string, settings Settings) (*RobotAsset, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	robot, err := urdf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	tmpl, err := physics.FromURDF(robot, physics.TemplateOptions{
		MeshDir:    settings.MeshDir,
		FixedRoots: s.opts.FixedRoots,
		ReadFile:   s.read,
	})
	if err != nil {
		return nil, fmt.Errorf("building physics template for %s: %w", path, err)
	}
	for _, w := range tmpl.Warnings {
		s.log.Warn("physics template", zap.String("path", path), zap.String("warning", w))
	}
	return &RobotAsset{Path: path, Settings: settings, Robot: robot, Template: tmpl}, nil
}

func (s *Server) loadMesh(path string) (*formats.STL, error) {
	data, err := s.readFile(join(s.opts.MeshRoot, path))
	if err != nil {
		return nil, err
	}
	stl, err := formats.ParseSTL(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return stl, nil
}

// read returns file contents relative to the root, going through the cache.
func (s *Server) read(path string) ([]byte, error) {
	return s.readFile(s.resolve(path))
}

func (s *Server) readFile(full string) ([]byte, error) {
	if data, ok := s.cache.Get(full); ok {
		return data, nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	s.cache.Set(full, data)
	return data, nil
}

func (s *Server) resolve(path string) string {
	return join(s.opts.Root, path)
}

func join(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// Reload re-reads every robot description loaded from path. Handles keep
// their identity; the stored asset is replaced once the new load succeeds.
// It returns the number of handles scheduled for reload.
func (s *Server) Reload(path string) int {
	return s.reload(s.resolve(path))
}

func (s *Server) reload(full string) int {
	s.cache.Delete(full)

	s.mu.Lock()
	var handles []Handle
	for h, e := range s.entries {
		if e.kind == kindRobot && s.resolve(e.path) == full {
			handles = append(handles, h)
		}
	}
	s.mu.Unlock()

	for _, h := range handles {
		s.spawn(h)
	}
	if len(handles) > 0 {
		s.log.Info("reloading robot description", zap.String("path", full), zap.Int("handles", len(handles)))
	}
	return len(handles)
}

// robotFiles returns the resolved paths of all loaded robot descriptions.
func (s *Server) robotFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var files []string
	for _, e := range s.entries {
		if e.kind != kindRobot {
			continue
		}
		full := s.resolve(e.path)
		if !seen[full] {
			seen[full] = true
			files = append(files, full)
		}
	}
	return files
}
