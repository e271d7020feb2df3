package block

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxelgine/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryFlags(t *testing.T) {
	r := NewRegistry()

	nonOpaque := []BlockID{AirBlockID, WaterBlockID, GlassBlockID, IceBlockID, LeafBlockID, CampfireBlockID, TorchBlockID, FoliageBlockID}
	for _, id := range nonOpaque {
		assert.False(t, r.IsOpaque(id), "%s не должен быть непрозрачным", r.Name(id))
	}
	for _, id := range []BlockID{StoneBlockID, GrassBlockID, GlowstoneBlockID, BarrelBlockID, GravelBlockID} {
		assert.True(t, r.IsOpaque(id), "%s должен быть непрозрачным", r.Name(id))
	}

	assert.Equal(t, uint8(15), r.Emission(GlowstoneBlockID))
	assert.Equal(t, uint8(14), r.Emission(CampfireBlockID))
	assert.Equal(t, uint8(10), r.Emission(TorchBlockID))
	assert.Equal(t, uint8(0), r.Emission(StoneBlockID))

	assert.True(t, r.IsDoubleSided(GlassBlockID))
	assert.True(t, r.IsDoubleSided(IceBlockID))
	assert.False(t, r.IsDoubleSided(WaterBlockID))

	for _, id := range []BlockID{BarrelBlockID, CampfireBlockID, TorchBlockID, FoliageBlockID} {
		assert.True(t, r.IsCustomModel(id))
		require.NotNil(t, r.Model(id), "нет модели для %s", r.Name(id))
		assert.Zero(t, len(r.Model(id).Vertices)%3)
	}

	for _, id := range []BlockID{AirBlockID, WaterBlockID, FoliageBlockID, TorchBlockID} {
		assert.False(t, r.IsSolid(id))
	}
	assert.True(t, r.IsSolid(GlassBlockID))
}

func TestAtlasCells(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 240, r.AtlasID(GrassBlockID, FaceYPos))
	assert.Equal(t, 1, r.AtlasID(GrassBlockID, FaceYNeg))
	assert.Equal(t, 241, r.AtlasID(GrassBlockID, FaceZNeg))
	assert.Equal(t, 242, r.AtlasID(WoodBlockID, FaceXPos))
	assert.Equal(t, 243, r.AtlasID(WoodBlockID, FaceYPos))
	assert.Equal(t, 244, r.AtlasID(CraftingTableBlockID, FaceYPos))
	assert.Equal(t, 247, r.AtlasID(CraftingTableBlockID, FaceYNeg))
	assert.Equal(t, 245, r.AtlasID(CraftingTableBlockID, FaceXNeg))
	assert.Equal(t, 246, r.AtlasID(CraftingTableBlockID, FaceZPos))
	assert.Equal(t, 8, r.AtlasID(BarrelBlockID, FaceXPos))
	assert.Equal(t, int(StoneBlockID)-1, r.AtlasID(StoneBlockID, FaceXPos))

	pos, size := r.TexCoords(GrassBlockID, FaceYPos)
	assert.InDelta(t, 1.0/16, size[0], 1e-6)
	assert.InDelta(t, 0.0, pos[0], 1e-6)
	assert.InDelta(t, 15.0/16, pos[1], 1e-6)
}

func TestUnknownBlockIsOpaque(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsOpaque(BlockID(500)))
	assert.Equal(t, uint8(0), r.Emission(BlockID(500)))
}

func TestWithBlockOverride(t *testing.T) {
	r := NewRegistry(WithBlock(TestBlockID, Info{Name: "lamp", Opaque: false, Emission: 14}))
	assert.False(t, r.IsOpaque(TestBlockID))
	assert.Equal(t, uint8(14), r.Emission(TestBlockID))

	r = NewRegistry(WithBlock(BlockID(40), Info{Name: "extra", Opaque: true}))
	assert.Equal(t, "extra", r.Name(40))
	assert.Len(t, r.Kinds(), 41)
}

func TestFaceHelpers(t *testing.T) {
	for _, f := range Faces {
		assert.Equal(t, f, FaceFromNormal(f.Normal()))
		assert.Equal(t, f.Normal().Neg(), f.Opposite().Normal())
	}
	assert.Equal(t, FaceYPos, FaceFromNormal(vec.Vec3{Y: 3}))
}

func TestLoadModels(t *testing.T) {
	dir := t.TempDir()
	body := `{"block":"torch","scale":0.5,"offset":[0.25,0,0.25],"vertices":[
		{"pos":[0,0,0],"uv":[0,0],"normal":[0,1,0]},
		{"pos":[1,0,0],"uv":[1,0],"normal":[0,1,0]},
		{"pos":[1,1,0],"uv":[1,1],"normal":[0,1,0]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "torch.json"), []byte(body), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0644))

	models, err := LoadModels(dir)
	require.NoError(t, err)
	require.Contains(t, models, TorchBlockID)

	m := models[TorchBlockID]
	assert.Equal(t, [3]float32{0.75, 0.5, 0.25}, m.Transform(m.Vertices[2]))

	r := NewRegistry(WithModels(models))
	assert.Same(t, m, r.Model(TorchBlockID))
}

func TestLoadModelsRejectsUnknownBlock(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte(`{"block":"nope","vertices":[]}`), 0644))
	_, err := LoadModels(dir)
	assert.Error(t, err)
}
