package render

import "github.com/go-gl/mathgl/mgl32"

// Vertex вершина меша
type Vertex struct {
	Pos    mgl32.Vec3
	UV     mgl32.Vec2
	Normal mgl32.Vec3
	Color  Color
}

// Geometry непроиндексированные буферы вершин, готовые к загрузке на GPU.
// Каждые три вершины образуют треугольник.
type Geometry struct {
	Vertices []float32
	Normals  []float32
	UVs      []float32
	Colors   []uint8
}

// VertexCount возвращает число вершин
func (g *Geometry) VertexCount() int {
	return len(g.Vertices) / 3
}

// Empty сообщает, что геометрия пуста
func (g *Geometry) Empty() bool {
	return len(g.Vertices) == 0
}

// Append добавляет вершину в буферы
func (g *Geometry) Append(v Vertex) {
	g.Vertices = append(g.Vertices, v.Pos[0], v.Pos[1], v.Pos[2])
	g.Normals = append(g.Normals, v.Normal[0], v.Normal[1], v.Normal[2])
	g.UVs = append(g.UVs, v.UV[0], v.UV[1])
	g.Colors = append(g.Colors, v.Color.R, v.Color.G, v.Color.B, v.Color.A)
}

// Vertex восстанавливает вершину по индексу
func (g *Geometry) Vertex(i int) Vertex {
	return Vertex{
		Pos:    mgl32.Vec3{g.Vertices[i*3], g.Vertices[i*3+1], g.Vertices[i*3+2]},
		Normal: mgl32.Vec3{g.Normals[i*3], g.Normals[i*3+1], g.Normals[i*3+2]},
		UV:     mgl32.Vec2{g.UVs[i*2], g.UVs[i*2+1]},
		Color:  Color{g.Colors[i*4], g.Colors[i*4+1], g.Colors[i*4+2], g.Colors[i*4+3]},
	}
}

// Reset обнуляет длину буферов, сохраняя емкость
func (g *Geometry) Reset() {
	g.Vertices = g.Vertices[:0]
	g.Normals = g.Normals[:0]
	g.UVs = g.UVs[:0]
	g.Colors = g.Colors[:0]
}

// Clone создает глубокую копию буферов
func (g Geometry) Clone() Geometry {
	clone := Geometry{}
	if len(g.Vertices) > 0 {
		clone.Vertices = append([]float32(nil), g.Vertices...)
	}
	if len(g.Normals) > 0 {
		clone.Normals = append([]float32(nil), g.Normals...)
	}
	if len(g.UVs) > 0 {
		clone.UVs = append([]float32(nil), g.UVs...)
	}
	if len(g.Colors) > 0 {
		clone.Colors = append([]uint8(nil), g.Colors...)
	}
	return clone
}

// Bounds возвращает AABB вершин; ok=false для пустой геометрии
func (g *Geometry) Bounds() (min, max mgl32.Vec3, ok bool) {
	n := g.VertexCount()
	if n == 0 {
		return min, max, false
	}
	min = mgl32.Vec3{g.Vertices[0], g.Vertices[1], g.Vertices[2]}
	max = min
	for i := 1; i < n; i++ {
		for a := 0; a < 3; a++ {
			v := g.Vertices[i*3+a]
			if v < min[a] {
				min[a] = v
			}
			if v > max[a] {
				max[a] = v
			}
		}
	}
	return min, max, true
}
