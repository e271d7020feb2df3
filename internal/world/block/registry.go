package block

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockID представляет идентификатор типа блока
type BlockID uint16

// Константы ID блоков. Порядок совпадает с номерами ячеек атласа (id-1).
const (
	AirBlockID           BlockID = iota // 0, пустота
	StoneBlockID                        // 1
	DirtBlockID                         // 2
	StoneBrickBlockID                   // 3
	SandBlockID                         // 4
	BricksBlockID                       // 5
	PlankBlockID                        // 6
	EndStoneBrickBlockID                // 7
	IceBlockID                          // 8
	TestBlockID                         // 9
	LeafBlockID                         // 10
	WaterBlockID                        // 11
	GlassBlockID                        // 12
	GlowstoneBlockID                    // 13
	Test2BlockID                        // 14
	GrassBlockID                        // 15
	WoodBlockID                         // 16
	CraftingTableBlockID                // 17
	BarrelBlockID                       // 18
	CampfireBlockID                     // 19
	TorchBlockID                        // 20
	FoliageBlockID                      // 21
	GravelBlockID                       // 22

	blockKindCount
)

// AtlasSize количество ячеек атласа по каждой оси
const AtlasSize = 16

// MaxLight максимальная интенсивность света
const MaxLight = 15

// Info описывает свойства типа блока
type Info struct {
	Name        string
	Opaque      bool
	Solid       bool
	Emission    uint8
	DoubleSided bool
	CustomModel bool
	// Atlas хранит ячейку атласа для каждой грани в порядке Face
	Atlas [6]int
}

// Registry неизменяемая таблица свойств блоков.
// Создается один раз и передается в ChunkMap; после создания только читается,
// поэтому безопасна для параллельного освещения.
type Registry struct {
	infos  []Info
	models map[BlockID]*CustomModel
}

// Option настраивает реестр при создании
type Option func(*Registry)

// WithBlock переопределяет или добавляет описание блока
func WithBlock(id BlockID, info Info) Option {
	return func(r *Registry) {
		for int(id) >= len(r.infos) {
			next := BlockID(len(r.infos))
			r.infos = append(r.infos, unknownInfo(next))
		}
		r.infos[id] = info
	}
}

// WithModel задает модель для блока с пользовательской геометрией
func WithModel(id BlockID, model *CustomModel) Option {
	return func(r *Registry) {
		r.models[id] = model
	}
}

// WithModels подключает набор моделей (например, загруженных LoadModels)
func WithModels(models map[BlockID]*CustomModel) Option {
	return func(r *Registry) {
		for id, m := range models {
			r.models[id] = m
		}
	}
}

// NewRegistry создает реестр со стандартным набором блоков
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		infos:  defaultInfos(),
		models: defaultModels(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func uniform(cell int) [6]int {
	return [6]int{cell, cell, cell, cell, cell, cell}
}

func unknownInfo(id BlockID) Info {
	return Info{
		Name:   fmt.Sprintf("block_%d", id),
		Opaque: true,
		Solid:  true,
		Atlas:  uniform(int(id) - 1),
	}
}

func defaultInfos() []Info {
	infos := make([]Info, blockKindCount)
	for id := BlockID(0); id < blockKindCount; id++ {
		infos[id] = unknownInfo(id)
	}

	infos[AirBlockID] = Info{Name: "none", Atlas: uniform(-1)}
	infos[StoneBlockID].Name = "stone"
	infos[DirtBlockID].Name = "dirt"
	infos[StoneBrickBlockID].Name = "stone_brick"
	infos[SandBlockID].Name = "sand"
	infos[BricksBlockID].Name = "bricks"
	infos[PlankBlockID].Name = "plank"
	infos[EndStoneBrickBlockID].Name = "end_stone_brick"
	infos[TestBlockID].Name = "test"
	infos[Test2BlockID].Name = "test2"
	infos[GravelBlockID].Name = "gravel"

	infos[IceBlockID] = Info{Name: "ice", Solid: true, DoubleSided: true, Atlas: uniform(int(IceBlockID) - 1)}
	infos[LeafBlockID] = Info{Name: "leaf", Solid: true, Atlas: uniform(int(LeafBlockID) - 1)}
	infos[WaterBlockID] = Info{Name: "water", Atlas: uniform(int(WaterBlockID) - 1)}
	infos[GlassBlockID] = Info{Name: "glass", Solid: true, DoubleSided: true, Atlas: uniform(int(GlassBlockID) - 1)}

	infos[GlowstoneBlockID].Name = "glowstone"
	infos[GlowstoneBlockID].Emission = 15

	// +X, -X, +Y, -Y, +Z, -Z
	infos[GrassBlockID].Name = "grass"
	infos[GrassBlockID].Atlas = [6]int{241, 241, 240, 1, 241, 241}
	infos[WoodBlockID].Name = "wood"
	infos[WoodBlockID].Atlas = [6]int{242, 242, 243, 243, 242, 242}
	infos[CraftingTableBlockID].Name = "crafting_table"
	infos[CraftingTableBlockID].Atlas = [6]int{245, 245, 244, 247, 246, 246}

	infos[BarrelBlockID].Name = "barrel"
	infos[BarrelBlockID].CustomModel = true
	infos[BarrelBlockID].Atlas = uniform(8)

	infos[CampfireBlockID] = Info{Name: "campfire", Solid: true, Emission: 14, CustomModel: true, Atlas: uniform(int(CampfireBlockID) - 1)}
	infos[TorchBlockID] = Info{Name: "torch", Emission: 10, CustomModel: true, Atlas: uniform(int(TorchBlockID) - 1)}
	infos[FoliageBlockID] = Info{Name: "foliage", CustomModel: true, Atlas: uniform(int(FoliageBlockID) - 1)}

	return infos
}

// Info возвращает описание блока. Неизвестные ID считаются непрозрачными.
func (r *Registry) Info(id BlockID) Info {
	if int(id) < len(r.infos) {
		return r.infos[id]
	}
	return unknownInfo(id)
}

// Kinds возвращает все зарегистрированные ID
func (r *Registry) Kinds() []BlockID {
	ids := make([]BlockID, len(r.infos))
	for i := range r.infos {
		ids[i] = BlockID(i)
	}
	return ids
}

// Name возвращает имя блока
func (r *Registry) Name(id BlockID) string { return r.Info(id).Name }

// IsOpaque сообщает, перекрывает ли блок свет и соседние грани
func (r *Registry) IsOpaque(id BlockID) bool {
	if int(id) < len(r.infos) {
		return r.infos[id].Opaque
	}
	return true
}

// IsSolid сообщает, участвует ли блок в столкновениях и лучах
func (r *Registry) IsSolid(id BlockID) bool { return r.Info(id).Solid }

// Emission возвращает уровень собственного свечения (0..15)
func (r *Registry) Emission(id BlockID) uint8 {
	if int(id) < len(r.infos) {
		return r.infos[id].Emission
	}
	return 0
}

// IsDoubleSided сообщает, нужна ли блоку обратная сторона граней
func (r *Registry) IsDoubleSided(id BlockID) bool { return r.Info(id).DoubleSided }

// IsCustomModel сообщает, рисуется ли блок внешней моделью
func (r *Registry) IsCustomModel(id BlockID) bool { return r.Info(id).CustomModel }

// Model возвращает модель блока или nil
func (r *Registry) Model(id BlockID) *CustomModel {
	return r.models[id]
}

// AtlasID возвращает ячейку атласа для грани блока
func (r *Registry) AtlasID(id BlockID, face Face) int {
	return r.Info(id).Atlas[face]
}

// TexCoords возвращает позицию и размер ячейки атласа в UV-пространстве
func (r *Registry) TexCoords(id BlockID, face Face) (pos, size mgl32.Vec2) {
	cell := r.AtlasID(id, face)
	if cell < 0 {
		cell = 0
	}
	size = mgl32.Vec2{1.0 / AtlasSize, 1.0 / AtlasSize}
	pos = mgl32.Vec2{float32(cell%AtlasSize) * size[0], float32(cell/AtlasSize) * size[1]}
	return pos, size
}
