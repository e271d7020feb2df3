package world

import (
	"testing"

	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightLevelCombine(t *testing.T) {
	s := DefaultLightSettings()

	// Берется максимум каналов
	assert.Equal(t, 12, s.Level(BlockLight{Sky: 12, Block: 3}))
	assert.Equal(t, 9, s.Level(BlockLight{Sky: 4, Block: 9}))

	// Минимальная подсветка
	assert.Equal(t, 2, s.Level(BlockLight{}))
	assert.Equal(t, 2, s.Level(BlockLight{Sky: 1}))

	// Ночь: небесный свет ослаблен, блочный нет
	night := LightSettings{SkyMultiplier: 0.5, Ambient: 2}
	assert.Equal(t, 7, night.Level(BlockLight{Sky: 15}))
	assert.Equal(t, 10, night.Level(BlockLight{Sky: 15, Block: 10}))

	// Множитель больше единицы не выводит за 15
	bright := LightSettings{SkyMultiplier: 3, Ambient: 2}
	assert.Equal(t, 15, bright.Level(BlockLight{Sky: 15}))
}

func TestLightBrightnessKeepsFraction(t *testing.T) {
	night := LightSettings{SkyMultiplier: 0.5, Ambient: 2}

	// Уровень для цвета округляется, освещенность нет
	assert.Equal(t, 7, night.Level(BlockLight{Sky: 15}))
	assert.InDelta(t, 7.5, night.Brightness(BlockLight{Sky: 15}), 1e-6)
	assert.InDelta(t, 10, night.Brightness(BlockLight{Sky: 15, Block: 10}), 1e-6)
	assert.InDelta(t, 2, night.Brightness(BlockLight{Sky: 3}), 1e-6)

	bright := LightSettings{SkyMultiplier: 3, Ambient: 2}
	assert.InDelta(t, 15, bright.Brightness(BlockLight{Sky: 15}), 1e-6)
}

func TestGetLightLevelUsesFractionalSky(t *testing.T) {
	m := newTestMap(t, func(o *Options) {
		o.Light = LightSettings{SkyMultiplier: 0.5, Ambient: 2}
	})
	m.GetOrCreateChunk(vec.Vec3{}).Fill(block.AirBlockID)
	m.ComputeLighting()

	pos := vec.Vec3{X: 8, Y: 8, Z: 8}
	require.Equal(t, 15, m.GetPlacedBlock(pos).SkyLight())
	assert.InDelta(t, 7.5/15, m.GetLightLevel(pos), 1e-6)
	assert.Equal(t, render.Color{R: 119, G: 119, B: 119, A: 255}, m.GetLightColor(pos))
}

func TestLightColor(t *testing.T) {
	s := DefaultLightSettings()

	assert.Equal(t, render.White, s.Color(BlockLight{Sky: 15}))
	assert.Equal(t, render.Color{R: 34, G: 34, B: 34, A: 255}, s.Color(BlockLight{}))
	assert.Equal(t, render.Color{R: 170, G: 170, B: 170, A: 255}, s.Color(BlockLight{Block: 10}))

	s.Fullbright = true
	assert.Equal(t, render.White, s.Color(BlockLight{}))
}

func TestPlacedBlockClampsLight(t *testing.T) {
	var p PlacedBlock

	p.SetSkyLight(20)
	assert.Equal(t, 15, p.SkyLight())
	p.SetSkyLight(-3)
	assert.Equal(t, 0, p.SkyLight())

	p.SetBlockLight(7)
	assert.Equal(t, 7, p.BlockLight())
	p.SetBlockLight(99)
	assert.Equal(t, 15, p.BlockLight())
}
