package renderer

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shading-engine/core"
	"shading-engine/gfx"
	"shading-engine/gfx/gfxtest"
	"shading-engine/materials"
	"shading-engine/scene"
	"shading-engine/textures"
)

func newEngine(t *testing.T) (*RenderEngine, *gfxtest.Recorder, *textures.Manager) {
	t.Helper()
	rec := gfxtest.NewRecorder()
	cache := textures.NewManager(rec)
	re, err := NewRenderEngine(rec, cache)
	require.NoError(t, err)
	return re, rec, cache
}

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.NewScene()
	cam, err := scene.NewPerspectiveCamera(math.Pi/3, 1, 0.1, 100)
	require.NoError(t, err)
	cam.Position = mgl32.Vec3{0, 0, 10}
	s.SetCamera(cam)
	require.NoError(t, s.AddPointLight(scene.PointLight{Position: mgl32.Vec3{0, 5, 0}, Color: core.ColorWhite, Intensity: 1}))
	return s
}

func texturedQuad(name string) *scene.Mesh {
	m := scene.CreateQuad(2)
	m.Material = materials.TexturedMaterialData(name, textures.NewSolidImage(name+"_kd", color.RGBA{255, 255, 255, 255}))
	m.Material.MapBump = textures.NewSolidImage(name+"_n", color.RGBA{128, 128, 255, 255})
	return m
}

func callIndex(t *testing.T, calls []string, prefix string, from int) int {
	t.Helper()
	for i := from; i < len(calls); i++ {
		if strings.HasPrefix(calls[i], prefix) {
			return i
		}
	}
	t.Fatalf("no call %q after %d in %v", prefix, from, calls)
	return -1
}

func TestDrawSequence(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	s.Camera.Update()
	mesh := texturedQuad("seq")

	require.NoError(t, re.BeginFrame(s.Camera, &s.Lights))
	// Build the material first so only per-draw calls are recorded.
	_, err := re.Material(mesh.Material)
	require.NoError(t, err)
	rec.Calls = nil
	require.NoError(t, re.Draw(mesh, mgl32.Ident4()))

	use := callIndex(t, rec.Calls, "UseProgram", 0)
	block := callIndex(t, rec.Calls, "BindUniformBuffer", use)
	counts := callIndex(t, rec.Calls, "Uniform1i", block)
	unit := callIndex(t, rec.Calls, "ActiveTexture", counts)
	draw := callIndex(t, rec.Calls, "DrawMesh", unit)
	assert.Less(t, use, draw)

	require.Len(t, rec.Draws, 1)
	d := rec.Draws[0]
	for _, b := range []uint32{materials.BindingModel, materials.BindingScene, materials.BindingMaterial, materials.BindingPointLights, materials.BindingDirectionalLights} {
		assert.NotZero(t, d.Bindings[b], "binding %d", b)
	}
	assert.NotZero(t, d.Units[0])
	assert.NotZero(t, d.Units[1])

	mat, err := re.Material(mesh.Material)
	require.NoError(t, err)
	n, ok := rec.Int(mat.Program().ID(), materials.UniformNumLights)
	require.True(t, ok)
	assert.Equal(t, int32(1), n)
}

func TestBeginFrameUploadsSceneAndLights(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	s.Camera.Update()

	require.NoError(t, re.BeginFrame(s.Camera, &s.Lights))

	sceneBuf := rec.Buffers[rec.Bindings[materials.BindingScene]]
	assert.Equal(t, materials.MarshalMatrices(s.Camera.GetViewMatrix(), s.Camera.GetProjectionMatrix()), sceneBuf)

	block, err := s.Lights.ToViewSpace(s.Camera.GetViewMatrix())
	require.NoError(t, err)
	want, err := scene.MarshalPointLights(block.Point)
	require.NoError(t, err)
	assert.Equal(t, want, rec.Buffers[rec.Bindings[materials.BindingPointLights]])
}

func TestBeginFrameRejectsTooManyLights(t *testing.T) {
	re, _, _ := newEngine(t)
	s := testScene(t)
	for i := 0; i < scene.MaxPointLights; i++ {
		s.Lights.Point = append(s.Lights.Point, scene.PointLight{})
	}
	assert.ErrorIs(t, re.BeginFrame(s.Camera, &s.Lights), scene.ErrTooManyLights)
	assert.ErrorIs(t, re.Draw(scene.CreateQuad(1), mgl32.Ident4()), ErrNoFrame)
}

func TestMaterialBufferRefreshedOnVersionChange(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	s.Camera.Update()
	mesh := texturedQuad("dbg")

	countUpdates := func(id gfx.BufferID) int {
		n := 0
		for _, c := range rec.Calls {
			if c == fmt.Sprintf("UpdateUniformBuffer %d", id) {
				n++
			}
		}
		return n
	}

	require.NoError(t, re.BeginFrame(s.Camera, &s.Lights))
	require.NoError(t, re.Draw(mesh, mgl32.Ident4()))
	require.NoError(t, re.Draw(mesh, mgl32.Ident4()))
	matBuf := rec.Bindings[materials.BindingMaterial]
	assert.Equal(t, 1, countUpdates(matBuf))

	re.SetDisplayNormalMap(true)
	require.NoError(t, re.Draw(mesh, mgl32.Ident4()))
	assert.Equal(t, 2, countUpdates(matBuf))

	u, err := materials.UnmarshalMaterialUniform(rec.Buffers[matBuf])
	require.NoError(t, err)
	assert.True(t, u.DisplayNormalMap)
	assert.True(t, u.HasNormalMap)
}

func TestMaterialsAndMeshesCached(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	a := texturedQuad("shared")
	b := scene.CreateCube(1)
	b.Material = a.Material
	s.AddNode(scene.NewMeshNode("a", a))
	s.AddNode(scene.NewMeshNode("b", b))
	s.AddNode(scene.NewMeshNode("a2", a))
	re.SetScene(s)

	require.NoError(t, re.Render())
	require.NoError(t, re.Render())

	assert.Len(t, rec.Programs, 1)
	assert.Len(t, rec.Meshes, 2)
	assert.Len(t, rec.Draws, 6)
	assert.Equal(t, Stats{Objects: 3, Triangles: 2 + 12 + 2}, re.DrawStats())
}

func TestRenderCullsOutsideFrustum(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	inside := scene.NewMeshNode("inside", scene.CreateQuad(1))
	behind := scene.NewMeshNode("behind", scene.CreateQuad(1))
	behind.SetPosition(mgl32.Vec3{0, 0, 50})
	s.AddNode(inside)
	s.AddNode(behind)
	re.SetScene(s)

	require.NoError(t, re.Render())
	assert.Equal(t, 1, re.DrawStats().Objects)
	assert.Equal(t, 1, re.DrawStats().Culled)
	assert.Len(t, rec.Draws, 1)

	re.FrustumCulling = false
	require.NoError(t, re.Render())
	assert.Equal(t, 2, re.DrawStats().Objects)
}

func TestRenderWithoutCamera(t *testing.T) {
	re, _, _ := newEngine(t)
	assert.Error(t, re.Render())
	re.SetScene(scene.NewScene())
	assert.Error(t, re.Render())
}

func TestResizeUpdatesAspect(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	re.SetScene(s)

	re.Resize(1600, 900)
	assert.InDelta(t, 1600.0/900.0, s.Camera.AspectRatio(), 1e-6)
	assert.Contains(t, rec.Calls, "Viewport 0 0 1600 900")

	re.Resize(0, 0)
	assert.InDelta(t, 1600.0/900.0, s.Camera.AspectRatio(), 1e-6)
}

func TestDestroyReleasesEverything(t *testing.T) {
	re, rec, cache := newEngine(t)
	s := testScene(t)
	s.AddNode(scene.NewMeshNode("q", texturedQuad("gone")))
	re.SetScene(s)
	require.NoError(t, re.Render())
	require.NotEmpty(t, rec.LiveTextures())

	re.Destroy()
	assert.Empty(t, rec.LiveTextures())
	assert.Zero(t, cache.Uploaded())
	assert.Empty(t, rec.Buffers)
	for id, p := range rec.Programs {
		assert.True(t, p.Deleted, "program %d", id)
	}
	for id, m := range rec.Meshes {
		assert.True(t, m.Deleted, "mesh %d", id)
	}
}

func TestMaterialCompileFailureSurfaces(t *testing.T) {
	re, rec, _ := newEngine(t)
	rec.FailLink = "boom"
	s := testScene(t)
	s.AddNode(scene.NewMeshNode("q", texturedQuad("bad")))
	re.SetScene(s)

	err := re.Render()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, rec.LiveTextures())
}

func TestDebugToggleReachesLaterMaterials(t *testing.T) {
	re, rec, _ := newEngine(t)
	s := testScene(t)
	s.Camera.Update()

	re.SetDisplaySpecularMap(true)
	require.NoError(t, re.BeginFrame(s.Camera, &s.Lights))
	for _, mesh := range []*scene.Mesh{texturedQuad("late"), scene.CreateQuad(1)} {
		require.NoError(t, re.Draw(mesh, mgl32.Ident4()))
		u, err := materials.UnmarshalMaterialUniform(rec.Buffers[rec.Bindings[materials.BindingMaterial]])
		require.NoError(t, err)
		assert.True(t, u.DisplaySpecularMap)
		assert.False(t, u.DisplayNormalMap)
	}
}
