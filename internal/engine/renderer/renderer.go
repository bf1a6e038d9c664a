// Package renderer draws point clouds with OpenGL.
//
// Every point carries a one-byte draw state next to its position. The
// vertex stage drops points whose state is zero, so changing the drawn
// set is a single buffer upload instead of an index rebuild.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/splatlod/internal/engine/shader"
	"github.com/Faultbox/splatlod/internal/logger"
	"github.com/Faultbox/splatlod/pkg/math"
)

// Draw states stored per point.
const (
	StateHidden uint8 = 0
	StateDrawn  uint8 = 1
	StateMarker uint8 = 2

	// Cell overlay line colours by distance bucket.
	StateNearCell uint8 = 3
	StateMidCell  uint8 = 4
	StateFarCell  uint8 = 5
)

const vertexSrc = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in uint aState;

uniform mat4 uMVP;
uniform float uPointSize;
uniform bool uShowAll;
uniform vec3 uBoundsMin;
uniform vec3 uBoundsMax;

flat out uint vState;
out vec3 vColor;

void main() {
	vState = aState;
	if (aState == 0u && !uShowAll) {
		gl_Position = vec4(2.0, 2.0, 2.0, 1.0);
		gl_PointSize = 0.0;
		return;
	}
	vec3 extent = max(uBoundsMax - uBoundsMin, vec3(1e-6));
	vec3 t = clamp((aPos - uBoundsMin) / extent, 0.0, 1.0);
	vColor = mix(vec3(0.15, 0.35, 0.9), vec3(0.95, 0.8, 0.3), t.y);
	gl_Position = uMVP * vec4(aPos, 1.0);
	gl_PointSize = aState == 2u ? uPointSize * 4.0 : uPointSize;
}
`

const fragmentSrc = `#version 410 core
flat in uint vState;
in vec3 vColor;
out vec4 FragColor;

void main() {
	switch (vState) {
	case 2u: FragColor = vec4(1.0, 0.2, 0.2, 1.0); return;
	case 3u: FragColor = vec4(0.2, 1.0, 0.3, 0.6); return;
	case 4u: FragColor = vec4(1.0, 0.85, 0.2, 0.5); return;
	case 5u: FragColor = vec4(0.5, 0.5, 0.6, 0.35); return;
	}
	FragColor = vec4(vColor, 1.0);
}
`

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	PointSize float32
}

// Renderer owns the GL objects for one point cloud.
type Renderer struct {
	config  Config
	program *shader.Program

	cloudVAO   uint32
	posVBO     uint32
	stateVBO   uint32
	pointCount int
	bounds     math.AABB

	markerVAO uint32
	markerVBO [2]uint32

	lineVAO uint32
	lineVBO uint32
	lineCap int
}

// New initialises OpenGL and compiles the point program. It must be called
// after the GL context exists.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	if cfg.PointSize <= 0 {
		cfg.PointSize = 2
	}
	r := &Renderer{config: cfg, bounds: math.EmptyAABB()}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.ClearColor(0.06, 0.06, 0.09, 1.0)

	var err error
	r.program, err = shader.New(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("point program: %w", err)
	}
	r.createMarker()
	r.createLines()
	return r, nil
}

// Close releases GL resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.releaseCloud()
	if r.markerVAO != 0 {
		gl.DeleteVertexArrays(1, &r.markerVAO)
		gl.DeleteBuffers(2, &r.markerVBO[0])
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

func (r *Renderer) releaseCloud() {
	if r.cloudVAO != 0 {
		gl.DeleteVertexArrays(1, &r.cloudVAO)
		gl.DeleteBuffers(1, &r.posVBO)
		gl.DeleteBuffers(1, &r.stateVBO)
		r.cloudVAO, r.posVBO, r.stateVBO = 0, 0, 0
	}
	r.pointCount = 0
}

// Upload replaces the cloud with positions (flat xyz). All points start
// hidden.
func (r *Renderer) Upload(positions []float32, bounds math.AABB) {
	r.releaseCloud()
	n := len(positions) / 3
	r.bounds = bounds
	if n == 0 {
		return
	}

	gl.GenVertexArrays(1, &r.cloudVAO)
	gl.BindVertexArray(r.cloudVAO)

	gl.GenBuffers(1, &r.posVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 3*n*4, unsafe.Pointer(&positions[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &r.stateVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.stateVBO)
	gl.BufferData(gl.ARRAY_BUFFER, n, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribIPointer(1, 1, gl.UNSIGNED_BYTE, 1, nil)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	r.pointCount = n

	logger.Debug("point cloud uploaded",
		zap.Int("points", n),
		zap.Uint32("vao", r.cloudVAO),
	)
}

// PointCount returns the number of uploaded points.
func (r *Renderer) PointCount() int {
	return r.pointCount
}

// UpdateState uploads per-point draw states. Extra or missing entries
// beyond the uploaded cloud are ignored.
func (r *Renderer) UpdateState(state []uint8) {
	n := min(len(state), r.pointCount)
	if n == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.stateVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, n, unsafe.Pointer(&state[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (r *Renderer) createMarker() {
	gl.GenVertexArrays(1, &r.markerVAO)
	gl.BindVertexArray(r.markerVAO)
	gl.GenBuffers(2, &r.markerVBO[0])

	gl.BindBuffer(gl.ARRAY_BUFFER, r.markerVBO[0])
	gl.BufferData(gl.ARRAY_BUFFER, 3*4, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	state := []uint8{StateMarker}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.markerVBO[1])
	gl.BufferData(gl.ARRAY_BUFFER, 1, unsafe.Pointer(&state[0]), gl.STATIC_DRAW)
	gl.VertexAttribIPointer(1, 1, gl.UNSIGNED_BYTE, 1, nil)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (r *Renderer) createLines() {
	gl.GenVertexArrays(1, &r.lineVAO)
	gl.BindVertexArray(r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// DrawLines draws line-list vertices (flat xyz) in the colour of state.
func (r *Renderer) DrawLines(mvp math.Mat4, vertices []float32, state uint8) {
	n := len(vertices) / 3
	if n < 2 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	if len(vertices) > r.lineCap {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STREAM_DRAW)
		r.lineCap = len(vertices)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, unsafe.Pointer(&vertices[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.setCommon(mvp, true, 1)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(r.lineVAO)
	gl.VertexAttribI1ui(1, uint32(state))
	gl.DrawArrays(gl.LINES, 0, int32(n))
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

// ReadPixels returns the current framebuffer as RGBA rows, bottom row
// first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin clears the frame.
func (r *Renderer) Begin() {
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	gl.Disable(gl.SCISSOR_TEST)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (r *Renderer) setCommon(mvp math.Mat4, showAll bool, pointSize float32) {
	r.program.Use()
	gl.UniformMatrix4fv(r.program.Uniform("uMVP"), 1, false, mvp.Ptr())
	gl.Uniform1f(r.program.Uniform("uPointSize"), pointSize)
	var all int32
	if showAll {
		all = 1
	}
	gl.Uniform1i(r.program.Uniform("uShowAll"), all)
	gl.Uniform3f(r.program.Uniform("uBoundsMin"), float32(r.bounds.Min.X), float32(r.bounds.Min.Y), float32(r.bounds.Min.Z))
	gl.Uniform3f(r.program.Uniform("uBoundsMax"), float32(r.bounds.Max.X), float32(r.bounds.Max.Y), float32(r.bounds.Max.Z))
}

// DrawPoints draws the points whose state is non-zero.
func (r *Renderer) DrawPoints(mvp math.Mat4) {
	if r.pointCount == 0 {
		return
	}
	r.setCommon(mvp, false, r.config.PointSize)
	gl.BindVertexArray(r.cloudVAO)
	gl.DrawArrays(gl.POINTS, 0, int32(r.pointCount))
	gl.BindVertexArray(0)
}

// DrawOverview draws every point into the w x h viewport whose top-left
// corner is (x, y) in drawable pixels, then the camera marker at markerNDC
// (normalised device coordinates inside that viewport).
func (r *Renderer) DrawOverview(x, y, w, h int, mvp math.Mat4, markerNDC [2]float32, showMarker bool) {
	if w <= 0 || h <= 0 {
		return
	}
	glY := int32(r.config.Height - y - h)
	gl.Viewport(int32(x), glY, int32(w), int32(h))
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(x), glY, int32(w), int32(h))
	gl.ClearColor(0.02, 0.02, 0.03, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.ClearColor(0.06, 0.06, 0.09, 1.0)

	if r.pointCount > 0 {
		r.setCommon(mvp, true, 1)
		gl.BindVertexArray(r.cloudVAO)
		gl.DrawArrays(gl.POINTS, 0, int32(r.pointCount))
	}

	if showMarker {
		pos := []float32{markerNDC[0], markerNDC[1], -1}
		gl.BindBuffer(gl.ARRAY_BUFFER, r.markerVBO[0])
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, 3*4, unsafe.Pointer(&pos[0]))
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)

		gl.Disable(gl.DEPTH_TEST)
		r.setCommon(math.Identity(), true, r.config.PointSize)
		gl.BindVertexArray(r.markerVAO)
		gl.DrawArrays(gl.POINTS, 0, 1)
		gl.Enable(gl.DEPTH_TEST)
	}

	gl.BindVertexArray(0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
}
