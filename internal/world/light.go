package world

import (
	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/world/block"
)

// BlockLight интенсивность небесного и блочного света клетки, каждая 0..15
type BlockLight struct {
	Sky   uint8
	Block uint8
}

// LightSettings глобальные параметры перевода света в цвет
type LightSettings struct {
	// SkyMultiplier множитель небесного света (смена дня и ночи)
	SkyMultiplier float32
	// Ambient минимальный уровень освещенности
	Ambient uint8
	// Fullbright отключает освещение: все грани белые
	Fullbright bool
}

// DefaultLightSettings дневной свет с минимальной подсветкой 2
func DefaultLightSettings() LightSettings {
	return LightSettings{SkyMultiplier: 1, Ambient: 2}
}

func clampLight(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > block.MaxLight {
		return block.MaxLight
	}
	return uint8(v)
}

// Level объединяет каналы: max(sky*multiplier, block), не ниже ambient, не выше 15
func (s LightSettings) Level(l BlockLight) int {
	sky := int(float32(l.Sky) * s.SkyMultiplier)
	level := sky
	if int(l.Block) > level {
		level = int(l.Block)
	}
	if level < int(s.Ambient) {
		level = int(s.Ambient)
	}
	return int(clampLight(level))
}

// Brightness то же, что Level, без округления небесного канала: при
// множителе 0.5 и небе 15 дает 7.5. Используется для освещенности 0..1.
func (s LightSettings) Brightness(l BlockLight) float32 {
	level := float32(l.Sky) * s.SkyMultiplier
	if b := float32(l.Block); b > level {
		level = b
	}
	if a := float32(s.Ambient); level < a {
		level = a
	}
	return min(max(level, 0), MaxLight)
}

// Color переводит свет в цвет вершины: уровень 0..15 растягивается на 0..255
func (s LightSettings) Color(l BlockLight) render.Color {
	if s.Fullbright {
		return render.White
	}
	v := uint8(s.Level(l) * 17)
	return render.Color{R: v, G: v, B: v, A: 255}
}

// PlacedBlock содержимое одной клетки чанка: тип блока и его текущий свет
type PlacedBlock struct {
	ID    block.BlockID
	Light BlockLight
}

// Kind возвращает тип блока
func (p PlacedBlock) Kind() block.BlockID { return p.ID }

// SkyLight возвращает интенсивность небесного света
func (p PlacedBlock) SkyLight() int { return int(p.Light.Sky) }

// SetSkyLight заменяет небесный свет, ограничивая значение 0..15
func (p *PlacedBlock) SetSkyLight(v int) { p.Light.Sky = clampLight(v) }

// BlockLight возвращает интенсивность света от источников
func (p PlacedBlock) BlockLight() int { return int(p.Light.Block) }

// SetBlockLight заменяет блочный свет, ограничивая значение 0..15
func (p *PlacedBlock) SetBlockLight(v int) { p.Light.Block = clampLight(v) }

// lightChannel выбирает канал для распространения
type lightChannel uint8

const (
	skyChannel lightChannel = iota
	blockChannel
)

func (l *BlockLight) get(ch lightChannel) uint8 {
	if ch == skyChannel {
		return l.Sky
	}
	return l.Block
}

func (l *BlockLight) set(ch lightChannel, v uint8) {
	if ch == skyChannel {
		l.Sky = v
	} else {
		l.Block = v
	}
}
