package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"shading-engine/gfx"
	"shading-engine/internal/logger"
	"shading-engine/materials"
	"shading-engine/scene"
	"shading-engine/textures"
)

// ErrNoFrame is returned by Draw outside BeginFrame/EndFrame.
var ErrNoFrame = errors.New("draw outside frame")

// materialEntry pairs a compiled material with its own materialBuffer.
type materialEntry struct {
	mat      *materials.Material
	buf      gfx.BufferID
	version  uint64
	uploaded bool
}

// Stats are the counters of the most recent Render.
type Stats struct {
	Objects   int
	Triangles int
	Culled    int
}

// RenderEngine drives the shading core on an injected gfx.Device. It owns
// the shared uniform buffers, one materialBuffer per material, and the GPU
// copies of every mesh it has drawn.
type RenderEngine struct {
	dev      gfx.Device
	textures *textures.Manager

	Scene          *scene.Scene
	FrustumCulling bool

	sceneBuf gfx.BufferID
	modelBuf gfx.BufferID
	pointBuf gfx.BufferID
	dirBuf   gfx.BufferID

	materials map[*materials.MaterialData]*materialEntry
	meshes    map[*scene.Mesh]gfx.MeshID
	fallback  *materials.MaterialData

	inFrame    bool
	pointCount int
	dirCount   int

	displayNormalMap   bool
	displaySpecularMap bool

	stats Stats
}

// NewRenderEngine allocates the scene, model and light buffers and binds
// them to their fixed binding points.
func NewRenderEngine(dev gfx.Device, cache *textures.Manager) (*RenderEngine, error) {
	re := &RenderEngine{
		dev:            dev,
		textures:       cache,
		FrustumCulling: true,
		materials:      make(map[*materials.MaterialData]*materialEntry),
		meshes:         make(map[*scene.Mesh]gfx.MeshID),
		fallback:       materials.DefaultMaterialData(),
	}
	bufs := []struct {
		dst     *gfx.BufferID
		size    int
		binding uint32
	}{
		{&re.sceneBuf, materials.MatrixBlockSize, materials.BindingScene},
		{&re.modelBuf, materials.MatrixBlockSize, materials.BindingModel},
		{&re.pointBuf, scene.PointLightsBufferSize, materials.BindingPointLights},
		{&re.dirBuf, scene.DirectionalLightsBufferSize, materials.BindingDirectionalLights},
	}
	for _, b := range bufs {
		id, err := dev.CreateUniformBuffer(b.size)
		if err != nil {
			re.Destroy()
			return nil, fmt.Errorf("uniform buffer for binding %d: %w", b.binding, err)
		}
		*b.dst = id
		dev.BindUniformBuffer(b.binding, id)
	}
	logger.Log.Info("render engine initialized")
	return re, nil
}

func (re *RenderEngine) SetScene(s *scene.Scene) {
	re.Scene = s
}

// Material returns the compiled material for data, building it on first use.
func (re *RenderEngine) Material(data *materials.MaterialData) (*materials.Material, error) {
	e, err := re.entry(data)
	if err != nil {
		return nil, err
	}
	return e.mat, nil
}

func (re *RenderEngine) entry(data *materials.MaterialData) (*materialEntry, error) {
	if e, ok := re.materials[data]; ok {
		return e, nil
	}
	mat, err := materials.NewMaterial(re.dev, re.textures, data)
	if err != nil {
		return nil, err
	}
	if re.displayNormalMap {
		mat.SetDisplayNormalMap(true)
	}
	if re.displaySpecularMap {
		mat.SetDisplaySpecularMap(true)
	}
	buf, err := re.dev.CreateUniformBuffer(materials.MaterialUniformSize)
	if err != nil {
		_ = mat.Destroy()
		return nil, fmt.Errorf("material %q buffer: %w", data.Name, err)
	}
	e := &materialEntry{mat: mat, buf: buf}
	re.materials[data] = e
	return e, nil
}

func (re *RenderEngine) mesh(m *scene.Mesh) (gfx.MeshID, error) {
	if id, ok := re.meshes[m]; ok {
		return id, nil
	}
	id, err := re.dev.CreateMesh(m.Interleave(), m.Indices)
	if err != nil {
		return 0, fmt.Errorf("upload mesh %q: %w", m.Name, err)
	}
	re.meshes[m] = id
	return id, nil
}

// BeginFrame uploads the camera matrices and the view-space lights shared
// by every draw of the frame. The camera's matrices must be current.
func (re *RenderEngine) BeginFrame(cam *scene.PerspectiveCamera, lights *scene.LightSet) error {
	view := cam.GetViewMatrix()
	block, err := lights.ToViewSpace(view)
	if err != nil {
		return err
	}
	points, err := scene.MarshalPointLights(block.Point)
	if err != nil {
		return err
	}
	dirs, err := scene.MarshalDirectionalLights(block.Directional)
	if err != nil {
		return err
	}

	re.dev.UpdateUniformBuffer(re.sceneBuf, materials.MarshalMatrices(view, cam.GetProjectionMatrix()))
	re.dev.UpdateUniformBuffer(re.pointBuf, points)
	re.dev.UpdateUniformBuffer(re.dirBuf, dirs)
	re.dev.BindUniformBuffer(materials.BindingScene, re.sceneBuf)
	re.dev.BindUniformBuffer(materials.BindingPointLights, re.pointBuf)
	re.dev.BindUniformBuffer(materials.BindingDirectionalLights, re.dirBuf)

	re.pointCount = len(block.Point)
	re.dirCount = len(block.Directional)
	re.inFrame = true
	return nil
}

func (re *RenderEngine) EndFrame() {
	re.inFrame = false
}

// Draw renders mesh with its material (or the default one) at model.
// The sequence per draw is: activate program, bind uniform blocks, set
// light counts, bind textures, draw.
func (re *RenderEngine) Draw(mesh *scene.Mesh, model mgl32.Mat4) error {
	if !re.inFrame {
		return ErrNoFrame
	}
	data := mesh.Material
	if data == nil {
		data = re.fallback
	}
	e, err := re.entry(data)
	if err != nil {
		return err
	}
	meshID, err := re.mesh(mesh)
	if err != nil {
		return err
	}

	e.mat.Activate()

	re.dev.UpdateUniformBuffer(re.modelBuf, materials.MarshalMatrices(model, model.Inv().Transpose()))
	re.dev.BindUniformBuffer(materials.BindingModel, re.modelBuf)
	if !e.uploaded || e.version != e.mat.Version() {
		re.dev.UpdateUniformBuffer(e.buf, e.mat.Uniform().Marshal())
		e.version = e.mat.Version()
		e.uploaded = true
	}
	re.dev.BindUniformBuffer(materials.BindingMaterial, e.buf)

	if err := e.mat.SetLightCounts(re.pointCount, re.dirCount); err != nil {
		return err
	}
	e.mat.BindTextures()
	re.dev.DrawMesh(meshID)
	return nil
}

// Render draws every visible node of the scene, culling against the
// camera frustum when FrustumCulling is set.
func (re *RenderEngine) Render() error {
	if re.Scene == nil || re.Scene.Camera == nil {
		return fmt.Errorf("no scene or camera")
	}
	cam := re.Scene.Camera
	cam.Update()

	c := re.Scene.ClearColor
	re.dev.Clear(c.R, c.G, c.B, c.A)

	if err := re.BeginFrame(cam, &re.Scene.Lights); err != nil {
		return err
	}
	defer re.EndFrame()

	frustum := scene.FrustumFromVP(cam.GetViewProjectionMatrix())
	var stats Stats
	for _, node := range re.Scene.GetVisibleNodes() {
		model := node.GetWorldMatrix()
		if re.FrustumCulling && !node.Mesh.LocalAABB.Transform(model).IntersectsFrustum(&frustum) {
			stats.Culled++
			continue
		}
		if err := re.Draw(node.Mesh, model); err != nil {
			logger.Log.Error("draw failed", zap.String("node", node.Name), zap.Error(err))
			return fmt.Errorf("node %q: %w", node.Name, err)
		}
		stats.Objects++
		stats.Triangles += node.Mesh.TriangleCount()
	}
	re.stats = stats
	return nil
}

// DrawStats returns the counters of the most recent Render.
func (re *RenderEngine) DrawStats() Stats { return re.stats }

// Resize updates the viewport and the scene camera's aspect ratio.
// Zero sizes from minimised windows are ignored.
func (re *RenderEngine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	re.dev.Viewport(0, 0, int32(width), int32(height))
	if re.Scene != nil && re.Scene.Camera != nil {
		re.Scene.Camera.UpdateAspectRatio(float32(width), float32(height))
	}
}

// SetDisplayNormalMap toggles the normal-map debug view on every material,
// including ones built later.
func (re *RenderEngine) SetDisplayNormalMap(on bool) {
	re.displayNormalMap = on
	for _, e := range re.materials {
		e.mat.SetDisplayNormalMap(on)
	}
}

// SetDisplaySpecularMap toggles the specular-map debug view on every material,
// including ones built later.
func (re *RenderEngine) SetDisplaySpecularMap(on bool) {
	re.displaySpecularMap = on
	for _, e := range re.materials {
		e.mat.SetDisplaySpecularMap(on)
	}
}

// Destroy releases every material, mesh and buffer the engine created.
func (re *RenderEngine) Destroy() {
	for data, e := range re.materials {
		if err := e.mat.Destroy(); err != nil {
			logger.Log.Warn("material destroy", zap.String("material", data.Name), zap.Error(err))
		}
		re.dev.DeleteBuffer(e.buf)
	}
	re.materials = make(map[*materials.MaterialData]*materialEntry)

	for _, id := range re.meshes {
		re.dev.DeleteMesh(id)
	}
	re.meshes = make(map[*scene.Mesh]gfx.MeshID)

	for _, id := range []gfx.BufferID{re.sceneBuf, re.modelBuf, re.pointBuf, re.dirBuf} {
		if id != 0 {
			re.dev.DeleteBuffer(id)
		}
	}
	re.sceneBuf, re.modelBuf, re.pointBuf, re.dirBuf = 0, 0, 0, 0
}
