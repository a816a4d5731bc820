package materials

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shading-engine/core"
	"shading-engine/gfx"
	"shading-engine/gfx/gfxtest"
	"shading-engine/textures"
)

func texturedData(t *testing.T, name string, diffuse, normal, specular, dissolve bool) *MaterialData {
	t.Helper()
	m := NewMaterialData(name, core.ColorWhite)
	if diffuse {
		m.MapDiffuse = textures.NewSolidImage(name+"_kd", color.RGBA{200, 100, 50, 255})
	}
	if normal {
		m.MapBump = textures.NewSolidImage(name+"_bump", color.RGBA{128, 128, 255, 255})
	}
	if specular {
		m.MapSpecular = textures.NewSolidImage(name+"_ks", color.RGBA{255, 255, 255, 255})
	}
	if dissolve {
		m.MapDissolve = textures.NewSolidImage(name+"_d", color.RGBA{255, 255, 255, 255})
	}
	return m
}

func newTestMaterial(t *testing.T, rec *gfxtest.Recorder, cache *textures.Manager, data *MaterialData) *Material {
	t.Helper()
	m, err := NewMaterial(rec, cache, data)
	require.NoError(t, err)
	return m
}

func handle(t *testing.T, cache *textures.Manager, img *textures.Image) gfx.TextureID {
	t.Helper()
	id, ok := cache.Handle(img)
	require.True(t, ok, "no texture for %s", img.Name)
	return id
}

func TestTextureUnitsStableAcrossMaterials(t *testing.T) {
	rec := gfxtest.NewRecorder()
	cache := textures.NewManager(rec)

	dataA := texturedData(t, "a", true, false, false, true)
	dataB := texturedData(t, "b", true, true, true, false)
	a := newTestMaterial(t, rec, cache, dataA)
	b := newTestMaterial(t, rec, cache, dataB)

	a.Activate()
	a.BindTextures()
	assert.Equal(t, handle(t, cache, dataA.MapDiffuse), rec.Units[0])
	assert.Equal(t, handle(t, cache, dataA.MapDissolve), rec.Units[3])
	_, bound := rec.Units[1]
	assert.False(t, bound, "absent normal map must not bind unit 1")

	b.Activate()
	b.BindTextures()
	assert.Equal(t, handle(t, cache, dataB.MapDiffuse), rec.Units[0])
	assert.Equal(t, handle(t, cache, dataB.MapBump), rec.Units[1])
	assert.Equal(t, handle(t, cache, dataB.MapSpecular), rec.Units[2])
	// b has no dissolve map, so a's stays on unit 3.
	assert.Equal(t, handle(t, cache, dataA.MapDissolve), rec.Units[3])

	for _, m := range []*Material{a, b} {
		for slot := SlotDiffuse; slot < NumSlots; slot++ {
			if !m.HasMap(slot) {
				continue
			}
			v, ok := rec.Int(m.Program().ID(), slot.SamplerName())
			require.True(t, ok, "%s sampler of %s not set", slot, m.Name())
			assert.Equal(t, int32(slot), v)
		}
	}
}

func TestNewMaterialCompileFailure(t *testing.T) {
	rec := gfxtest.NewRecorder()
	rec.FailCompile[gfx.StageFragment] = "0:42: 'mdiffuse' : undeclared identifier"
	cache := textures.NewManager(rec)

	m, err := NewMaterial(rec, cache, texturedData(t, "broken", true, true, false, false))
	require.Error(t, err)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, gfx.ErrShaderCompile)
	assert.Contains(t, err.Error(), "undeclared identifier")

	assert.Empty(t, rec.LiveTextures())
	assert.Zero(t, cache.Uploaded())
	for id, s := range rec.Shaders {
		assert.True(t, s.Deleted, "shader %d leaked", id)
	}
}

func TestNewMaterialLinkFailure(t *testing.T) {
	rec := gfxtest.NewRecorder()
	rec.FailLink = "error: vertex output TBN not consumed"
	cache := textures.NewManager(rec)

	_, err := NewMaterial(rec, cache, texturedData(t, "unlinked", true, false, true, true))
	require.Error(t, err)
	assert.ErrorIs(t, err, gfx.ErrProgramLink)
	assert.Contains(t, err.Error(), "TBN not consumed")
	assert.Empty(t, rec.LiveTextures())
	assert.Empty(t, rec.Programs)
}

func TestMissingUniformsAreNotFatal(t *testing.T) {
	rec := gfxtest.NewRecorder()
	rec.Missing[UniformNumDirectionalLights] = true
	rec.Missing["dissolveMap"] = true
	rec.Missing[BlockDirectionalLights] = true
	cache := textures.NewManager(rec)

	m := newTestMaterial(t, rec, cache, texturedData(t, "partial", true, false, false, true))
	m.Activate()
	require.NoError(t, m.SetLightCounts(2, 3))
	m.BindTextures()

	prog := m.Program().ID()
	n, ok := rec.Int(prog, UniformNumLights)
	require.True(t, ok)
	assert.Equal(t, int32(2), n)
	_, ok = rec.Int(prog, UniformNumDirectionalLights)
	assert.False(t, ok)

	assert.Equal(t, gfx.InvalidIndex, m.Program().BlockIndex(BlockDirectionalLights))
	assert.Len(t, rec.Programs[prog].BlockBindings, len(blockBindings)-1)
	for _, c := range rec.Calls {
		assert.NotEqual(t, "Uniform1i -1 3", c)
	}
}

func TestLocationsResolvedOnce(t *testing.T) {
	rec := gfxtest.NewRecorder()
	cache := textures.NewManager(rec)
	m := newTestMaterial(t, rec, cache, texturedData(t, "cached", true, true, true, true))

	for i := 0; i < 3; i++ {
		m.Activate()
		require.NoError(t, m.SetLightCounts(1, 1))
		m.BindTextures()
	}

	names := append([]string{UniformNumLights, UniformNumDirectionalLights}, SamplerNames()...)
	names = append(names, BlockModelMatrices, BlockSceneMatrices, BlockMaterial, BlockPointLights, BlockDirectionalLights)
	for _, name := range names {
		assert.Equal(t, 1, rec.LocationQueries[name], name)
	}
}

func TestUniformBlocksBoundToFixedPoints(t *testing.T) {
	rec := gfxtest.NewRecorder()
	m := newTestMaterial(t, rec, textures.NewManager(rec), DefaultMaterialData())

	p := m.Program()
	bindings := rec.Programs[p.ID()].BlockBindings
	assert.Equal(t, BindingModel, bindings[p.BlockIndex(BlockModelMatrices)])
	assert.Equal(t, BindingScene, bindings[p.BlockIndex(BlockSceneMatrices)])
	assert.Equal(t, BindingMaterial, bindings[p.BlockIndex(BlockMaterial)])
	assert.Equal(t, BindingPointLights, bindings[p.BlockIndex(BlockPointLights)])
	assert.Equal(t, BindingDirectionalLights, bindings[p.BlockIndex(BlockDirectionalLights)])
}

func TestActivateOnlySwitchesProgram(t *testing.T) {
	rec := gfxtest.NewRecorder()
	m := newTestMaterial(t, rec, textures.NewManager(rec), texturedData(t, "act", true, true, false, false))

	rec.Calls = nil
	m.Activate()
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, m.Program().ID(), rec.ActiveProgram)
	assert.Empty(t, rec.Units)
	assert.Empty(t, rec.Bindings)
}

func TestSetLightCountsRejectsOverflow(t *testing.T) {
	rec := gfxtest.NewRecorder()
	m := newTestMaterial(t, rec, textures.NewManager(rec), DefaultMaterialData())
	m.Activate()

	assert.ErrorIs(t, m.SetLightCounts(MaxPointLights+1, 0), ErrTooManyLights)
	assert.ErrorIs(t, m.SetLightCounts(0, MaxDirectionalLights+1), ErrTooManyLights)
	assert.NoError(t, m.SetLightCounts(MaxPointLights, MaxDirectionalLights))
}

func TestDestroyReleasesOnce(t *testing.T) {
	rec := gfxtest.NewRecorder()
	cache := textures.NewManager(rec)
	shared := textures.NewSolidImage("shared", color.RGBA{1, 2, 3, 255})

	a := newTestMaterial(t, rec, cache, TexturedMaterialData("a", shared))
	b := newTestMaterial(t, rec, cache, TexturedMaterialData("b", shared))
	assert.Len(t, rec.LiveTextures(), 1)

	require.NoError(t, a.Destroy())
	assert.True(t, rec.Programs[a.Program().ID()].Deleted)
	assert.Len(t, rec.LiveTextures(), 1, "b still references the shared map")

	assert.ErrorIs(t, a.Destroy(), ErrDestroyed)
	assert.Len(t, rec.LiveTextures(), 1)

	require.NoError(t, b.Destroy())
	assert.Empty(t, rec.LiveTextures())
}

func TestDisplayTogglesBumpVersion(t *testing.T) {
	rec := gfxtest.NewRecorder()
	m := newTestMaterial(t, rec, textures.NewManager(rec), texturedData(t, "dbg", true, true, true, false))

	v := m.Version()
	m.SetDisplayNormalMap(true)
	assert.Greater(t, m.Version(), v)
	assert.True(t, m.Uniform().DisplayNormalMap)

	v = m.Version()
	m.SetDisplayNormalMap(true)
	assert.Equal(t, v, m.Version())

	m.SetDisplaySpecularMap(true)
	assert.Greater(t, m.Version(), v)
	assert.True(t, m.Uniform().DisplaySpecularMap)
}

func TestUniformFlagsFollowBoundMaps(t *testing.T) {
	rec := gfxtest.NewRecorder()
	cache := textures.NewManager(rec)
	data := texturedData(t, "late", true, false, false, false)
	m := newTestMaterial(t, rec, cache, data)

	data.MapSpecular = textures.NewSolidImage("late_ks", color.RGBA{255, 255, 255, 255})
	data.MapDiffuse = nil
	m.Invalidate()

	u := m.Uniform()
	assert.True(t, u.HasDiffuseMap, "diffuse map stays bound")
	assert.False(t, u.HasSpecularMap, "specular map was never bound")
	assert.Equal(t, m.HasMap(SlotSpecular), u.HasSpecularMap)

	m.Activate()
	m.BindTextures()
	_, bound := rec.Units[SlotSpecular.Unit()]
	assert.False(t, bound)
}
