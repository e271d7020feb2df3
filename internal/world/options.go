package world

import (
	"github.com/annel0/voxelgine/internal/config"
	"github.com/annel0/voxelgine/internal/render"
)

// OptionsFromConfig переносит секции lighting и render конфигурации в параметры карты.
// Observer и Logger не заполняются.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	tint := cfg.Render.GetChunkTint()
	return Options{
		Light: LightSettings{
			SkyMultiplier: cfg.Lighting.GetSkyMultiplier(),
			Ambient:       cfg.Lighting.GetAmbientLight(),
			Fullbright:    cfg.Lighting.Fullbright,
		},
		RenderDistance:         cfg.Render.GetRenderDistance(),
		AOApproxDistance:       cfg.Render.GetAOApproxDistance(),
		ChunkTint:              render.Color{R: tint[0], G: tint[1], B: tint[2], A: tint[3]},
		SkyScanHeight:          cfg.Lighting.GetSkyScanHeight(),
		Workers:                cfg.Lighting.Workers,
		TransparentMinCapacity: cfg.Render.GetTransparentMinCapacity(),
	}
}
