package world

import (
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
)

// Observer получает события движка для метрик. Вызовы идут из потока рендера,
// кроме LightingDone, который вызывается после барьера последней фазы.
type Observer interface {
	LightingDone(chunks int, elapsed time.Duration)
	MeshRebuilt(opaqueFaces, transparentFaces int)
	FrameDrawn(stats DrawStats)
}

type noopObserver struct{}

func (noopObserver) LightingDone(int, time.Duration) {}
func (noopObserver) MeshRebuilt(int, int)            {}
func (noopObserver) FrameDrawn(DrawStats)            {}

// Options параметры карты чанков
type Options struct {
	Light LightSettings
	// RenderDistance радиус отрисовки в блоках от камеры до центра чанка
	RenderDistance float32
	// AOApproxDistance расстояние в чанках, дальше которого AO упрощается
	AOApproxDistance int
	// ChunkTint множитель цвета всех граней
	ChunkTint render.Color
	// SkyScanHeight высота проверки открытости неба над чанком
	SkyScanHeight int
	// Workers ограничение параллелизма фазы освещения; 0 - GOMAXPROCS
	Workers int
	// TransparentMinCapacity минимальная емкость общего буфера полупрозрачных граней (вершины)
	TransparentMinCapacity int

	Observer Observer
	Logger   *logging.Logger
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Light:                  DefaultLightSettings(),
		RenderDistance:         256,
		AOApproxDistance:       6,
		ChunkTint:              render.White,
		SkyScanHeight:          64,
		TransparentMinCapacity: 6144,
	}
}

// DrawStats итоги одного вызова Draw / DrawTransparent
type DrawStats struct {
	Visible          int `json:"visible"`
	Culled           int `json:"culled"`
	OutOfRange       int `json:"out_of_range"`
	DrawCalls        int `json:"draw_calls"`
	Rebuilt          int `json:"rebuilt"`
	Relit            int `json:"relit"`
	TransparentFaces int `json:"transparent_faces"`
}

// MapStats сводка по карте
type MapStats struct {
	Chunks          int       `json:"chunks"`
	NonAirBlocks    int       `json:"non_air_blocks"`
	DirtyChunks     int       `json:"dirty_chunks"`
	NeedsRelighting int       `json:"needs_relighting"`
	LastLighting    string    `json:"last_lighting"`
	LastDraw        DrawStats `json:"last_draw"`
}

// ChunkMap разреженная карта чанков по целочисленным координатам.
//
// Структура карты (добавление чанков) защищена мьютексом, содержимое чанков - нет:
// изменения блоков и отрисовка должны выполняться из одного потока и не
// пересекаться с расчетом освещения.
type ChunkMap struct {
	mu     sync.RWMutex
	chunks map[vec.Vec3]*Chunk

	reg      *block.Registry
	opts     Options
	observer Observer
	log      *logging.Logger

	camera cameraView

	dynHandle   render.MeshHandle
	dynCapacity int
	dynGeom     render.Geometry
	faceRefs    []*TransparentFace

	lastLighting time.Duration
	lastDraw     DrawStats
}

// NewChunkMap создает пустую карту. Реестр блоков только читается.
func NewChunkMap(reg *block.Registry, opts Options) *ChunkMap {
	def := DefaultOptions()
	if opts.RenderDistance <= 0 {
		opts.RenderDistance = def.RenderDistance
	}
	if opts.AOApproxDistance <= 0 {
		opts.AOApproxDistance = def.AOApproxDistance
	}
	if opts.ChunkTint == (render.Color{}) {
		opts.ChunkTint = def.ChunkTint
	}
	if opts.SkyScanHeight <= 0 {
		opts.SkyScanHeight = def.SkyScanHeight
	}
	if opts.TransparentMinCapacity <= 0 {
		opts.TransparentMinCapacity = def.TransparentMinCapacity
	}
	if opts.Light == (LightSettings{}) {
		opts.Light = def.Light
	}

	m := &ChunkMap{
		chunks:   make(map[vec.Vec3]*Chunk),
		reg:      reg,
		opts:     opts,
		observer: opts.Observer,
		log:      opts.Logger,
	}
	if m.observer == nil {
		m.observer = noopObserver{}
	}
	if m.log == nil {
		m.log = logging.GetWorldLogger()
	}
	return m
}

// Registry возвращает реестр блоков карты
func (m *ChunkMap) Registry() *block.Registry { return m.reg }

// Options возвращает параметры карты
func (m *ChunkMap) Options() Options { return m.opts }

// SetLightSettings меняет параметры перевода света в цвет и помечает все чанки грязными
func (m *ChunkMap) SetLightSettings(s LightSettings) {
	m.opts.Light = s
	m.MarkAllDirty()
}

// GetChunk возвращает чанк по его координатам или nil
func (m *ChunkMap) GetChunk(coords vec.Vec3) *Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chunks[coords]
}

// GetOrCreateChunk возвращает чанк, создавая пустой при отсутствии
func (m *ChunkMap) GetOrCreateChunk(coords vec.Vec3) *Chunk {
	m.mu.RLock()
	c, ok := m.chunks[coords]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.chunks[coords]; ok {
		return c
	}
	c = NewChunk(coords, m)
	m.chunks[coords] = c
	m.log.Trace("создан чанк %v", coords)
	return c
}

// RemoveChunk удаляет чанк из карты, освобождая его меши
func (m *ChunkMap) RemoveChunk(coords vec.Vec3, b render.Backend) {
	m.mu.Lock()
	c, ok := m.chunks[coords]
	delete(m.chunks, coords)
	m.mu.Unlock()
	if ok && b != nil {
		c.Release(b)
	}
}

// Chunks возвращает все чанки, упорядоченные по (x, y, z)
func (m *ChunkMap) Chunks() []*Chunk {
	m.mu.RLock()
	list := make([]*Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		list = append(list, c)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Coords, list[j].Coords
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return list
}

// Len возвращает число загруженных чанков
func (m *ChunkMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// GetPlacedBlock возвращает клетку по мировым координатам; вне загруженных чанков - воздух
func (m *ChunkMap) GetPlacedBlock(pos vec.Vec3) PlacedBlock {
	c := m.GetChunk(pos.ToChunkCoords())
	if c == nil {
		return PlacedBlock{}
	}
	l := pos.LocalInChunk()
	return c.blocks[index(l.X, l.Y, l.Z)]
}

// GetBlock возвращает тип блока по мировым координатам
func (m *ChunkMap) GetBlock(pos vec.Vec3) block.BlockID {
	return m.GetPlacedBlock(pos).ID
}

// IsSolid сообщает, есть ли в клетке твердый блок
func (m *ChunkMap) IsSolid(pos vec.Vec3) bool {
	return m.reg.IsSolid(m.GetBlock(pos))
}

// SetBlock ставит блок по мировым координатам, создавая чанк при необходимости.
// Грязными помечаются чанк клетки и все соседи, делящие с ней грань, ребро или угол.
// Свет не пересчитывается.
func (m *ChunkMap) SetBlock(pos vec.Vec3, id block.BlockID) {
	coords := pos.ToChunkCoords()
	c := m.GetChunk(coords)
	if c == nil {
		if id == block.AirBlockID {
			return
		}
		c = m.GetOrCreateChunk(coords)
	}
	l := pos.LocalInChunk()
	c.SetBlock(l.X, l.Y, l.Z, id)

	for _, dx := range borderOffsets(l.X) {
		for _, dy := range borderOffsets(l.Y) {
			for _, dz := range borderOffsets(l.Z) {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				if n := m.GetChunk(coords.Add(vec.Vec3{X: dx, Y: dy, Z: dz})); n != nil {
					n.MarkDirty()
				}
			}
		}
	}

	// Чанки ниже теряют кэш открытости неба
	below := (m.opts.SkyScanHeight + ChunkSize - 1) / ChunkSize
	for dy := 1; dy <= below; dy++ {
		if n := m.GetChunk(vec.Vec3{X: coords.X, Y: coords.Y - dy, Z: coords.Z}); n != nil {
			n.InvalidateSkyExposure()
		}
	}
}

// borderOffsets возвращает смещения соседних чанков по оси для локальной координаты
func borderOffsets(local int) []int {
	switch local {
	case 0:
		return []int{0, -1}
	case ChunkSize - 1:
		return []int{0, 1}
	default:
		return []int{0}
	}
}

// GetLightLevel возвращает освещенность клетки 0..1
func (m *ChunkMap) GetLightLevel(pos vec.Vec3) float32 {
	if m.opts.Light.Fullbright {
		return 1
	}
	return m.opts.Light.Brightness(m.GetPlacedBlock(pos).Light) / MaxLight
}

// GetLightColor возвращает цвет освещения клетки
func (m *ChunkMap) GetLightColor(pos vec.Vec3) render.Color {
	return m.opts.Light.Color(m.GetPlacedBlock(pos).Light)
}

// relaxForeign записывает свет в граничную клетку соседнего чанка при строгом
// улучшении. Клетка не ставится в очередь; соседний чанк помечается грязным
// и попадает в следующий раунд досчета (borderLit).
func (m *ChunkMap) relaxForeign(pos vec.Vec3, ch lightChannel, candidate uint8) {
	c := m.GetChunk(pos.ToChunkCoords())
	if c == nil {
		return
	}
	l := pos.LocalInChunk()
	cell := &c.blocks[index(l.X, l.Y, l.Z)]
	if m.reg.IsOpaque(cell.ID) {
		return
	}
	if candidate > cell.Light.get(ch) {
		cell.Light.set(ch, candidate)
		c.MarkDirty()
		c.borderLit.Store(true)
	}
}

// MarkAllDirty требует перестройки мешей всех чанков
func (m *ChunkMap) MarkAllDirty() {
	for _, c := range m.Chunks() {
		c.MarkDirty()
	}
}

// cameraView возвращает параметры последней камеры, переданной в Draw
func (m *ChunkMap) cameraView() cameraView {
	return m.camera
}

// SetCamera запоминает положение камеры для генерации мешей без отрисовки
func (m *ChunkMap) SetCamera(cam Camera) {
	m.camera = cameraView{chunk: vec.FloorVec3(cam.Position).ToChunkCoords(), valid: true}
}

// Stats возвращает сводку по карте
func (m *ChunkMap) Stats() MapStats {
	s := MapStats{
		LastLighting: m.lastLighting.String(),
		LastDraw:     m.lastDraw,
	}
	for _, c := range m.Chunks() {
		s.Chunks++
		s.NonAirBlocks += c.NonAirBlockCount()
		if c.IsDirty() {
			s.DirtyChunks++
		}
		if c.NeedsRelighting() {
			s.NeedsRelighting++
		}
	}
	return s
}
