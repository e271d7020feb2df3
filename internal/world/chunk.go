package world

import (
	"sync/atomic"

	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
)

const (
	// ChunkSize длина ребра чанка в блоках
	ChunkSize = vec.ChunkSize
	// ChunkVolume число клеток в чанке
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize

	paddedSize   = ChunkSize + 2
	paddedVolume = paddedSize * paddedSize * paddedSize
)

// CustomModelBlock позиция блока с пользовательской моделью внутри чанка
type CustomModelBlock struct {
	X, Y, Z int
	ID      block.BlockID
}

// Chunk куб 16x16x16 блоков.
//
// Чанк не защищен мьютексом: изменения и перестройка мешей выполняются
// из потока рендера, а во время параллельного освещения чанки одной фазы
// пишут в непересекающиеся клетки (см. ChunkMap.ComputeLighting).
type Chunk struct {
	Coords vec.Vec3 // Индекс чанка в карте

	blocks [ChunkVolume]PlacedBlock
	world  *ChunkMap
	reg    *block.Registry

	nonAir        int
	changeCounter int // Изменения блоков с последнего сохранения

	dirty           atomic.Bool
	needsRelighting bool
	// borderLit сосед улучшил свет граничной клетки после прохода этого чанка
	borderLit atomic.Bool

	skyExposed     [ChunkSize * ChunkSize]bool
	skyExposedOK   bool
	lightQueue     []int32
	padded         []PlacedBlock
	customBlocks   []CustomModelBlock
	meshValid      bool
	opaque         render.Geometry
	transparent    render.Geometry
	faces          []TransparentFace
	opaqueFaces    int
	bounds         AABB
	opaqueHandle   render.MeshHandle
	transpHandle   render.MeshHandle
	uploadedMeshes bool
}

// NewChunk создает пустой (заполненный воздухом) чанк, принадлежащий карте m
func NewChunk(coords vec.Vec3, m *ChunkMap) *Chunk {
	c := &Chunk{
		Coords: coords,
		world:  m,
		reg:    m.reg,
	}
	c.dirty.Store(true)
	return c
}

func index(x, y, z int) int {
	return x + ChunkSize*(y+ChunkSize*z)
}

func inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// Origin возвращает мировую координату угла чанка
func (c *Chunk) Origin() vec.Vec3 {
	return c.Coords.ChunkOrigin()
}

// worldPos переводит локальные координаты (возможно вне чанка) в мировые
func (c *Chunk) worldPos(x, y, z int) vec.Vec3 {
	o := c.Origin()
	return vec.Vec3{X: o.X + x, Y: o.Y + y, Z: o.Z + z}
}

// GetPlaced возвращает клетку по локальным координатам. Координаты вне
// чанка перенаправляются через карту; незагруженные области дают воздух.
func (c *Chunk) GetPlaced(x, y, z int) PlacedBlock {
	if inBounds(x, y, z) {
		return c.blocks[index(x, y, z)]
	}
	return c.world.GetPlacedBlock(c.worldPos(x, y, z))
}

// GetBlock возвращает тип блока по локальным координатам
func (c *Chunk) GetBlock(x, y, z int) block.BlockID {
	return c.GetPlaced(x, y, z).ID
}

// SetBlock заменяет тип блока внутри чанка и сбрасывает кэши.
// Свет не пересчитывается; соседние чанки не помечаются (это делает ChunkMap.SetBlock).
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) {
	if !inBounds(x, y, z) {
		c.world.SetBlock(c.worldPos(x, y, z), id)
		return
	}
	cell := &c.blocks[index(x, y, z)]
	if cell.ID == id {
		return
	}
	if cell.ID == block.AirBlockID {
		c.nonAir++
	} else if id == block.AirBlockID {
		c.nonAir--
	}
	cell.ID = id
	c.changeCounter++
	c.invalidate()
}

// Fill заполняет весь чанк одним типом блока
func (c *Chunk) Fill(id block.BlockID) {
	for i := range c.blocks {
		c.blocks[i] = PlacedBlock{ID: id}
	}
	if id == block.AirBlockID {
		c.nonAir = 0
	} else {
		c.nonAir = ChunkVolume
	}
	c.changeCounter++
	c.invalidate()
}

func (c *Chunk) invalidate() {
	c.skyExposedOK = false
	c.customBlocks = nil
	c.MarkDirty()
}

// ChangeCounter возвращает число изменений блоков с последнего сохранения
func (c *Chunk) ChangeCounter() int { return c.changeCounter }

// ClearChanges сбрасывает счетчик изменений после сохранения
func (c *Chunk) ClearChanges() { c.changeCounter = 0 }

// NonAirBlockCount возвращает число непустых клеток
func (c *Chunk) NonAirBlockCount() int { return c.nonAir }

// MarkDirty требует перестройки мешей при следующем обращении
func (c *Chunk) MarkDirty() { c.dirty.Store(true) }

// IsDirty сообщает, устарели ли меши
func (c *Chunk) IsDirty() bool { return c.dirty.Load() }

// NeedsRelighting сообщает, отложен ли пересчет освещения чанка
func (c *Chunk) NeedsRelighting() bool { return c.needsRelighting }

// Blocks возвращает копию типов блоков в линейном порядке x + 16*(y + 16*z)
func (c *Chunk) Blocks() []block.BlockID {
	out := make([]block.BlockID, ChunkVolume)
	for i := range c.blocks {
		out[i] = c.blocks[i].ID
	}
	return out
}

// SetBlocks загружает типы блоков из линейного массива без сброса света соседей
func (c *Chunk) SetBlocks(ids []block.BlockID) {
	c.nonAir = 0
	for i := range c.blocks {
		var id block.BlockID
		if i < len(ids) {
			id = ids[i]
		}
		c.blocks[i] = PlacedBlock{ID: id}
		if id != block.AirBlockID {
			c.nonAir++
		}
	}
	c.invalidate()
}

// CustomModelBlocks возвращает блоки с пользовательскими моделями
func (c *Chunk) CustomModelBlocks() []CustomModelBlock {
	if c.customBlocks != nil {
		return c.customBlocks
	}
	list := make([]CustomModelBlock, 0)
	if c.nonAir > 0 {
		for z := 0; z < ChunkSize; z++ {
			for y := 0; y < ChunkSize; y++ {
				for x := 0; x < ChunkSize; x++ {
					id := c.blocks[index(x, y, z)].ID
					if c.reg.IsCustomModel(id) {
						list = append(list, CustomModelBlock{X: x, Y: y, Z: z, ID: id})
					}
				}
			}
		}
	}
	c.customBlocks = list
	return list
}
