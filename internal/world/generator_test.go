package world

import (
	"testing"

	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := newTestMap(t)
	b := newTestMap(t)
	NewWorldGenerator(7, 2, 3).Generate(a)
	NewWorldGenerator(7, 2, 3).Generate(b)
	require.Greater(t, a.Len(), 0)
	assert.Equal(t, blocksOf(a), blocksOf(b))

	c := newTestMap(t)
	NewWorldGenerator(8, 2, 3).Generate(c)
	assert.NotEqual(t, blocksOf(a), blocksOf(c), "другой сид дает другой остров")
}

func TestGeneratorShape(t *testing.T) {
	wg := NewWorldGenerator(42, 2, 3)
	assert.Equal(t, 24, wg.WaterLevel())

	m := newTestMap(t)
	wg.Generate(m)

	counts := make(map[block.BlockID]int)
	for _, c := range m.Chunks() {
		assert.GreaterOrEqual(t, c.Coords.X, -wg.Radius-1)
		assert.Less(t, c.Coords.X, wg.Radius+1)
		assert.GreaterOrEqual(t, c.Coords.Y, 0)
		for _, id := range c.Blocks() {
			counts[id]++
		}
	}
	assert.Greater(t, counts[block.StoneBlockID], 0)
	assert.Greater(t, counts[block.DirtBlockID], 0)
	assert.Greater(t, counts[block.StoneBlockID]+counts[block.GrassBlockID]+counts[block.SandBlockID], counts[block.WaterBlockID])
}

func TestGeneratorDefaults(t *testing.T) {
	wg := NewWorldGenerator(1, 0, -1)
	assert.Equal(t, 4, wg.Radius)
	assert.Equal(t, 4, wg.Height)
	assert.Equal(t, int64(1), wg.Seed)
}
