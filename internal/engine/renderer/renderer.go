// Package renderer draws a render.Scene with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/engine/lighting"
	"github.com/Faultbox/urdfsim/internal/engine/shader"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// gpuMesh is an uploaded mesh.
type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	program *shader.Program
	meshes  map[render.MeshHandle]*gpuMesh

	Sun lighting.Sun
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		meshes: make(map[render.MeshHandle]*gpuMesh),
		Sun:    lighting.DefaultSun(),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.program, err = shader.NewProgram(shader.MeshVertex, shader.MeshFragment)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.log.Debug("shader program created", zap.Uint32("program", r.program.ID))

	return r, nil
}

// Close frees GPU resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for h, m := range r.meshes {
		m.delete()
		delete(r.meshes, h)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// DrawScene draws every visible entity that has a ready mesh. Meshes are
// uploaded the first frame they are ready.
func (r *Renderer) DrawScene(scene *render.Scene, meshes *render.Meshes, materials *render.Materials, view, projection math.Mat4) {
	r.program.Use()
	gl.UniformMatrix4fv(r.program.Uniform("uView"), 1, false, view.Ptr())
	gl.UniformMatrix4fv(r.program.Uniform("uProjection"), 1, false, projection.Ptr())
	light := r.Sun.Direction().Array()
	gl.Uniform3fv(r.program.Uniform("uLightDir"), 1, &light[0])
	ambient := r.Sun.Ambient.Array()
	gl.Uniform3fv(r.program.Uniform("uAmbient"), 1, &ambient[0])

	modelLoc := r.program.Uniform("uModel")
	colorLoc := r.program.Uniform("uColor")

	scene.Each(func(e *render.Entity) {
		if !e.Mesh.IsValid() || !scene.IsVisible(e.ID) {
			return
		}
		gm := r.upload(e.Mesh, meshes)
		if gm == nil {
			return
		}

		color := render.Color{R: 1, G: 1, B: 1, A: 1}
		if mat, ok := materials.Get(e.Material); ok {
			color = mat.BaseColor
		}
		gl.Uniform4f(colorLoc, color.R, color.G, color.B, color.A)

		model := scene.WorldMatrix(e.ID)
		gl.UniformMatrix4fv(modelLoc, 1, false, model.Ptr())

		gl.BindVertexArray(gm.vao)
		gl.DrawElements(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, nil)
	})
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

func (r *Renderer) upload(h render.MeshHandle, meshes *render.Meshes) *gpuMesh {
	if gm, ok := r.meshes[h]; ok {
		return gm
	}
	mesh, ok := meshes.Get(h)
	if !ok || !mesh.Ready || len(mesh.Indices) == 0 {
		return nil
	}

	gm := &gpuMesh{count: int32(len(mesh.Indices))}
	stride := int32(unsafe.Sizeof(render.Vertex{}))

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, unsafe.Offsetof(render.Vertex{}.Normal))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)

	r.meshes[h] = gm
	r.log.Debug("mesh uploaded",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("indices", len(mesh.Indices)),
	)
	return gm
}

func (m *gpuMesh) delete() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}
