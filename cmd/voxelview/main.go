package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/annel0/voxelgine/internal/config"
	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/render/rlbackend"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world"
	"github.com/annel0/voxelgine/internal/world/block"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	windowWidth  = 1280
	windowHeight = 720
	reach        = 8
)

type viewer struct {
	cfg     *config.Config
	m       *world.ChunkMap
	backend *rlbackend.Backend
	cam     rl.Camera3D
	placing block.BlockID
	last    world.DrawStats
}

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if err := logging.InitDefaultLogger("voxelview"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	if err := logging.ConfigureComponents(cfg.Logging.GetLevel(), cfg.Logging.Components); err != nil {
		logging.Warn("⚠️ %v", err)
	}
	defer logging.CloseComponents()

	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(windowWidth, windowHeight, "voxelgine")
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetTargetFPS(60)
	defer rl.CloseWindow()

	v := &viewer{cfg: cfg, backend: rlbackend.New(), placing: block.StoneBlockID}
	defer v.backend.Close()
	v.backend.RegisterTexture(render.DefaultMaterial.Texture, loadAtlas())

	opts := world.OptionsFromConfig(cfg)
	opts.Logger = logging.GetWorldLogger()
	v.m = world.NewChunkMap(block.NewRegistry(), opts)
	v.loadWorld()

	height := float32(cfg.World.GetHeight() * world.ChunkSize)
	v.cam = rl.Camera3D{
		Position:   rl.NewVector3(0, height, float32(cfg.World.GetRadius()*world.ChunkSize)),
		Target:     rl.NewVector3(0, height/2, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       70,
		Projection: rl.CameraPerspective,
	}
	rl.DisableCursor()

	for !rl.WindowShouldClose() {
		v.update()
		v.draw()
	}
	v.m.Release(v.backend)
}

// loadWorld читает сохраненный поток карты или генерирует остров
func (v *viewer) loadWorld() {
	path := v.cfg.Storage.GetStreamPath()
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := v.m.Load(f); err == nil {
			v.m.ComputeLighting()
			return
		}
		logging.Warn("не удалось прочитать %s: %v", path, err)
	}
	world.NewWorldGenerator(v.cfg.World.Seed, v.cfg.World.GetRadius(), v.cfg.World.GetHeight()).Generate(v.m)
	v.m.ComputeLighting()
}

// loadAtlas загружает атлас блоков или строит клетчатую заглушку
func loadAtlas() rl.Texture2D {
	if _, err := os.Stat("assets/atlas.png"); err == nil {
		return rl.LoadTexture("assets/atlas.png")
	}
	logging.GetRenderLogger().Info("assets/atlas.png не найден, используется клетчатый атлас")
	img := rl.GenImageChecked(256, 256, 16, 16, rl.LightGray, rl.Gray)
	defer rl.UnloadImage(img)
	return rl.LoadTextureFromImage(img)
}

func (v *viewer) worldCamera() world.Camera {
	cam := world.NewCamera(
		mgl32.Vec3{v.cam.Position.X, v.cam.Position.Y, v.cam.Position.Z},
		mgl32.Vec3{v.cam.Target.X, v.cam.Target.Y, v.cam.Target.Z},
	)
	cam.FovY = v.cam.Fovy
	cam.Aspect = float32(rl.GetScreenWidth()) / float32(rl.GetScreenHeight())
	return cam
}

func (v *viewer) update() {
	rl.UpdateCamera(&v.cam, rl.CameraFree)

	for key, id := range map[int32]block.BlockID{
		rl.KeyOne:   block.StoneBlockID,
		rl.KeyTwo:   block.GlassBlockID,
		rl.KeyThree: block.WaterBlockID,
		rl.KeyFour:  block.GlowstoneBlockID,
		rl.KeyFive:  block.TorchBlockID,
	} {
		if rl.IsKeyPressed(key) {
			v.placing = id
		}
	}

	left, right := rl.IsMouseButtonPressed(rl.MouseButtonLeft), rl.IsMouseButtonPressed(rl.MouseButtonRight)
	if !left && !right {
		return
	}
	cam := v.worldCamera()
	hit, ok := v.m.Raycast(cam.Position, cam.Target.Sub(cam.Position), reach)
	if !ok {
		return
	}
	var pos vec.Vec3
	var id block.BlockID
	if left {
		pos, id = hit.Pos, block.AirBlockID
	} else {
		if hit.Normal == (vec.Vec3{}) {
			return
		}
		pos, id = hit.Pos.Add(hit.Normal), v.placing
	}
	v.m.SetBlock(pos, id)
	v.m.ComputeLightingNear(cam.Position)
}

func (v *viewer) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(135, 180, 235, 255))

	cam := v.worldCamera()
	rl.BeginMode3D(v.cam)
	v.last = v.m.Draw(v.backend, cam)
	v.last.TransparentFaces = v.m.DrawTransparent(v.backend, cam)
	rl.EndMode3D()

	rl.DrawFPS(10, 10)
	rl.DrawText(fmt.Sprintf("чанки: %d видно, %d отсечено, %d далеко", v.last.Visible, v.last.Culled, v.last.OutOfRange), 10, 34, 18, rl.Black)
	rl.DrawText(fmt.Sprintf("полупрозрачных граней: %d", v.last.TransparentFaces), 10, 56, 18, rl.Black)
	rl.DrawText(fmt.Sprintf("блок: %s", v.m.Registry().Name(v.placing)), 10, 78, 18, rl.Black)
	rl.EndDrawing()
}
