package block

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModelVertex вершина внешней модели в пространстве клетки [0,1]^3
type ModelVertex struct {
	Pos    [3]float32 `json:"pos"`
	UV     [2]float32 `json:"uv"`
	Normal [3]float32 `json:"normal"`
}

// CustomModel непроиндексированный список треугольников для блока
// с пользовательской геометрией
type CustomModel struct {
	Block    string        `json:"block"`
	Scale    float32       `json:"scale"`
	Offset   [3]float32    `json:"offset"`
	Vertices []ModelVertex `json:"vertices"`
}

// Transform переводит вершину модели в координаты клетки с учетом масштаба и смещения
func (m *CustomModel) Transform(v ModelVertex) [3]float32 {
	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	return [3]float32{
		v.Pos[0]*scale + m.Offset[0],
		v.Pos[1]*scale + m.Offset[1],
		v.Pos[2]*scale + m.Offset[2],
	}
}

// IDByName ищет стандартный блок по имени
func IDByName(name string) (BlockID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, info := range defaultInfos() {
		if info.Name == name {
			return BlockID(id), true
		}
	}
	return 0, false
}

// LoadModels читает JSON-описания моделей из каталога.
// Каждый *.json файл описывает одну модель; поле block задает имя блока.
func LoadModels(dir string) (map[BlockID]*CustomModel, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	models := make(map[BlockID]*CustomModel)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения модели %s: %w", path, err)
		}

		var m CustomModel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("ошибка разбора модели %s: %w", path, err)
		}
		if len(m.Vertices)%3 != 0 {
			return nil, fmt.Errorf("модель %s: число вершин %d не кратно 3", path, len(m.Vertices))
		}

		id, ok := IDByName(m.Block)
		if !ok {
			return nil, fmt.Errorf("модель %s: неизвестный блок %q", path, m.Block)
		}
		models[id] = &m
	}
	return models, nil
}

// box строит шесть граней параллелепипеда, нормали наружу
func box(min, max [3]float32) []ModelVertex {
	x0, y0, z0 := min[0], min[1], min[2]
	x1, y1, z1 := max[0], max[1], max[2]

	quad := func(a, b, c, d [3]float32, n [3]float32) []ModelVertex {
		return []ModelVertex{
			{Pos: a, UV: [2]float32{0, 1}, Normal: n},
			{Pos: b, UV: [2]float32{1, 1}, Normal: n},
			{Pos: c, UV: [2]float32{1, 0}, Normal: n},
			{Pos: a, UV: [2]float32{0, 1}, Normal: n},
			{Pos: c, UV: [2]float32{1, 0}, Normal: n},
			{Pos: d, UV: [2]float32{0, 0}, Normal: n},
		}
	}

	var out []ModelVertex
	out = append(out, quad([3]float32{x1, y1, z0}, [3]float32{x1, y1, z1}, [3]float32{x1, y0, z1}, [3]float32{x1, y0, z0}, [3]float32{1, 0, 0})...)
	out = append(out, quad([3]float32{x0, y1, z1}, [3]float32{x0, y1, z0}, [3]float32{x0, y0, z0}, [3]float32{x0, y0, z1}, [3]float32{-1, 0, 0})...)
	out = append(out, quad([3]float32{x0, y1, z0}, [3]float32{x1, y1, z0}, [3]float32{x1, y1, z1}, [3]float32{x0, y1, z1}, [3]float32{0, 1, 0})...)
	out = append(out, quad([3]float32{x0, y0, z1}, [3]float32{x1, y0, z1}, [3]float32{x1, y0, z0}, [3]float32{x0, y0, z0}, [3]float32{0, -1, 0})...)
	out = append(out, quad([3]float32{x1, y1, z1}, [3]float32{x0, y1, z1}, [3]float32{x0, y0, z1}, [3]float32{x1, y0, z1}, [3]float32{0, 0, 1})...)
	out = append(out, quad([3]float32{x0, y1, z0}, [3]float32{x1, y1, z0}, [3]float32{x1, y0, z0}, [3]float32{x0, y0, z0}, [3]float32{0, 0, -1})...)
	return out
}

// cross строит две пересекающиеся диагональные плоскости, видимые с обеих сторон
func cross(height float32) []ModelVertex {
	plane := func(a, b [2]float32, n [3]float32) []ModelVertex {
		p0 := [3]float32{a[0], 0, a[1]}
		p1 := [3]float32{b[0], 0, b[1]}
		p2 := [3]float32{b[0], height, b[1]}
		p3 := [3]float32{a[0], height, a[1]}
		back := [3]float32{-n[0], -n[1], -n[2]}
		return []ModelVertex{
			{Pos: p0, UV: [2]float32{0, 0}, Normal: n},
			{Pos: p1, UV: [2]float32{1, 0}, Normal: n},
			{Pos: p2, UV: [2]float32{1, 1}, Normal: n},
			{Pos: p0, UV: [2]float32{0, 0}, Normal: n},
			{Pos: p2, UV: [2]float32{1, 1}, Normal: n},
			{Pos: p3, UV: [2]float32{0, 1}, Normal: n},
			{Pos: p2, UV: [2]float32{1, 1}, Normal: back},
			{Pos: p1, UV: [2]float32{1, 0}, Normal: back},
			{Pos: p0, UV: [2]float32{0, 0}, Normal: back},
			{Pos: p3, UV: [2]float32{0, 1}, Normal: back},
			{Pos: p2, UV: [2]float32{1, 1}, Normal: back},
			{Pos: p0, UV: [2]float32{0, 0}, Normal: back},
		}
	}
	const d = 0.7071
	out := plane([2]float32{0, 0}, [2]float32{1, 1}, [3]float32{d, 0, -d})
	return append(out, plane([2]float32{1, 0}, [2]float32{0, 1}, [3]float32{d, 0, d})...)
}

func defaultModels() map[BlockID]*CustomModel {
	return map[BlockID]*CustomModel{
		BarrelBlockID: {
			Block:    "barrel",
			Vertices: box([3]float32{0.0625, 0, 0.0625}, [3]float32{0.9375, 1, 0.9375}),
		},
		CampfireBlockID: {
			Block:    "campfire",
			Vertices: box([3]float32{0, 0, 0}, [3]float32{1, 0.4375, 1}),
		},
		TorchBlockID: {
			Block:    "torch",
			Vertices: box([3]float32{0.4375, 0, 0.4375}, [3]float32{0.5625, 0.625, 0.5625}),
		},
		FoliageBlockID: {
			Block:    "foliage",
			Vertices: cross(0.875),
		},
	}
}
