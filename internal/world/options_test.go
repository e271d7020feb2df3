package world

import (
	"testing"

	"github.com/annel0/voxelgine/internal/config"
	"github.com/annel0/voxelgine/internal/render"
	"github.com/stretchr/testify/assert"
)

func TestOptionsFromConfig(t *testing.T) {
	assert.Equal(t, DefaultOptions(), OptionsFromConfig(nil))
	assert.Equal(t, DefaultOptions(), OptionsFromConfig(&config.Config{}))

	half := float32(0.5)
	zero := 0
	cfg := &config.Config{
		Lighting: config.LightingConfig{SkyMultiplier: &half, AmbientLight: &zero, Workers: 2},
		Render:   config.RenderConfig{RenderDistance: 64, ChunkTint: []int{10, 20, 30, 40}},
	}
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, LightSettings{SkyMultiplier: 0.5}, opts.Light)
	assert.Equal(t, float32(64), opts.RenderDistance)
	assert.Equal(t, render.Color{R: 10, G: 20, B: 30, A: 40}, opts.ChunkTint)
	assert.Equal(t, 2, opts.Workers)
}
