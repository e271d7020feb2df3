package world

import (
	"math"
	"math/rand"

	"github.com/annel0/voxelgine/internal/util"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
)

// Константы формы острова (доли радиуса)
const (
	BeachMax     = 0.15 // Высота над водой, ниже которой поверхность песчаная
	IceRingStart = 0.92 // Внешнее кольцо острова покрывается льдом
	TopSoilDepth = 3    // Толщина слоя земли под травой
)

// WorldGenerator генерирует парящий остров
type WorldGenerator struct {
	Seed         int64   // Сид для генерации шума
	NoiseScale   float64 // Масштаб шума поверхности
	DetailScale  float64 // Масштаб шума нижней части острова
	Radius       int     // Радиус острова в чанках
	Height       int     // Высота мира в чанках
	SurfaceAmp   float64 // Амплитуда рельефа поверхности в блоках
	TreeDensity  float64 // Вероятность дерева на траве
	TorchDensity float64 // Вероятность факела на траве

	noise *util.Noise
}

// NewWorldGenerator создаёт генератор острова радиусом radius и высотой height чанков
func NewWorldGenerator(seed int64, radius, height int) *WorldGenerator {
	if radius <= 0 {
		radius = 4
	}
	if height <= 0 {
		height = 4
	}
	return &WorldGenerator{
		Seed:         seed,
		NoiseScale:   0.04,
		DetailScale:  0.09,
		Radius:       radius,
		Height:       height,
		SurfaceAmp:   10,
		TreeDensity:  0.02,
		TorchDensity: 0.01,
		noise:        util.NewNoise(seed),
	}
}

// WaterLevel высота плоскости воды
func (wg *WorldGenerator) WaterLevel() int {
	return wg.Height * ChunkSize / 2
}

// Generate заполняет карту островом. Результат зависит только от сида и размеров.
func (wg *WorldGenerator) Generate(m *ChunkMap) {
	for cx := -wg.Radius; cx < wg.Radius; cx++ {
		for cz := -wg.Radius; cz < wg.Radius; cz++ {
			wg.generateColumn(m, cx, cz)
		}
	}
}

// generateColumn заполняет колонну чанков (cx, cz) по всей высоте мира
func (wg *WorldGenerator) generateColumn(m *ChunkMap, cx, cz int) {
	// Локальный генератор случайных чисел для детерминированности
	rng := rand.New(rand.NewSource(wg.Seed + int64(cx*31) + int64(cz*17)))

	islandRadius := float64(wg.Radius*ChunkSize) * 0.85
	water := wg.WaterLevel()
	maxY := wg.Height*ChunkSize - 1

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			wx := cx*ChunkSize + x
			wz := cz*ChunkSize + z

			r := math.Hypot(float64(wx), float64(wz)) / islandRadius
			if r >= 1 {
				continue
			}

			// Рельеф поверхности поднимается к центру острова
			surfaceNoise := wg.noise.Noise2D(float64(wx)*wg.NoiseScale, float64(wz)*wg.NoiseScale)
			top := water + int((1-r*r)*wg.SurfaceAmp*(surfaceNoise*2-0.4))
			if top > maxY-8 {
				top = maxY - 8
			}

			// Нижняя часть острова сужается конусом
			detail := wg.noise.Noise3D(float64(wx)*wg.DetailScale, float64(wz)*wg.DetailScale, 0.5)
			depth := int((1 - r) * float64(wg.Height*ChunkSize) * 0.35 * (0.6 + detail))
			bottom := water - depth
			if bottom < 1 {
				bottom = 1
			}
			if bottom > top {
				bottom = top
			}

			for wy := bottom; wy <= top; wy++ {
				id := block.StoneBlockID
				switch {
				case wy == top && r > IceRingStart:
					id = block.IceBlockID
				case wy == top && top <= water+int(BeachMax*wg.SurfaceAmp):
					id = block.SandBlockID
				case wy == top:
					id = block.GrassBlockID
				case wy > top-TopSoilDepth:
					id = block.DirtBlockID
				case wy == bottom && rng.Float64() < 0.05:
					id = block.GlowstoneBlockID
				case wy < bottom+3 && rng.Float64() < 0.1:
					id = block.GravelBlockID
				}
				m.SetBlock(vec.Vec3{X: wx, Y: wy, Z: wz}, id)
			}

			// Впадины ниже уровня воды заполняются водой
			for wy := top + 1; wy <= water; wy++ {
				m.SetBlock(vec.Vec3{X: wx, Y: wy, Z: wz}, block.WaterBlockID)
			}

			if top <= water || r > IceRingStart {
				continue
			}
			surface := m.GetBlock(vec.Vec3{X: wx, Y: top, Z: wz})
			if surface != block.GrassBlockID {
				continue
			}
			above := vec.Vec3{X: wx, Y: top + 1, Z: wz}
			roll := rng.Float64()
			switch {
			case roll < wg.TreeDensity:
				wg.placeTree(m, above, rng)
			case roll < wg.TreeDensity+wg.TorchDensity:
				m.SetBlock(above, block.TorchBlockID)
			case roll < wg.TreeDensity+wg.TorchDensity+0.08:
				m.SetBlock(above, block.FoliageBlockID)
			case roll < wg.TreeDensity+wg.TorchDensity+0.083:
				wg.placeGlassPillar(m, above, rng)
			}
		}
	}
}

// placeTree ставит ствол и крону из листвы
func (wg *WorldGenerator) placeTree(m *ChunkMap, base vec.Vec3, rng *rand.Rand) {
	trunk := 3 + rng.Intn(3) // Высота ствола 3-5 блоков
	for i := 0; i < trunk; i++ {
		m.SetBlock(base.Add(vec.Vec3{Y: i}), block.WoodBlockID)
	}
	crown := base.Add(vec.Vec3{Y: trunk})
	for dx := -2; dx <= 2; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -2; dz <= 2; dz++ {
				if dx*dx+dy*dy*2+dz*dz > 5 {
					continue
				}
				p := crown.Add(vec.Vec3{X: dx, Y: dy, Z: dz})
				if m.GetBlock(p) == block.AirBlockID {
					m.SetBlock(p, block.LeafBlockID)
				}
			}
		}
	}
	m.SetBlock(crown, block.WoodBlockID)
}

// placeGlassPillar ставит стеклянную колонну с источником света наверху
func (wg *WorldGenerator) placeGlassPillar(m *ChunkMap, base vec.Vec3, rng *rand.Rand) {
	h := 2 + rng.Intn(3)
	for i := 0; i < h; i++ {
		m.SetBlock(base.Add(vec.Vec3{Y: i}), block.GlassBlockID)
	}
	m.SetBlock(base.Add(vec.Vec3{Y: h}), block.GlowstoneBlockID)
}
