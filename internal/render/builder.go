package render

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshBuilder накапливает вершины относительно текущего смещения позиции
// и текущей ячейки текстурного атласа.
type MeshBuilder struct {
	geom      Geometry
	posOffset mgl32.Vec3
	uvPos     mgl32.Vec2
	uvSize    mgl32.Vec2
}

var builderPool = sync.Pool{
	New: func() interface{} {
		return &MeshBuilder{
			geom: Geometry{
				Vertices: make([]float32, 0, 4096),
				Normals:  make([]float32, 0, 4096),
				UVs:      make([]float32, 0, 2048),
				Colors:   make([]uint8, 0, 4096),
			},
			uvSize: mgl32.Vec2{1, 1},
		}
	},
}

// GetBuilder берет пустой builder из пула
func GetBuilder() *MeshBuilder {
	return builderPool.Get().(*MeshBuilder)
}

// PutBuilder сбрасывает builder и возвращает его в пул.
// Геометрия, полученная через Build, остается валидной.
func PutBuilder(b *MeshBuilder) {
	if b == nil {
		return
	}
	b.Reset()
	builderPool.Put(b)
}

// NewMeshBuilder создает builder вне пула
func NewMeshBuilder() *MeshBuilder {
	return &MeshBuilder{uvSize: mgl32.Vec2{1, 1}}
}

// SetPositionOffset задает смещение, прибавляемое к позициям вершин
func (b *MeshBuilder) SetPositionOffset(offset mgl32.Vec3) {
	b.posOffset = offset
}

// SetUVOffsetSize задает ячейку атласа: итоговый UV = pos + uv*size
func (b *MeshBuilder) SetUVOffsetSize(pos, size mgl32.Vec2) {
	b.uvPos = pos
	b.uvSize = size
}

// Add добавляет вершину с учетом текущих смещений
func (b *MeshBuilder) Add(pos mgl32.Vec3, uv mgl32.Vec2, normal mgl32.Vec3, color Color) {
	b.geom.Append(Vertex{
		Pos:    pos.Add(b.posOffset),
		UV:     mgl32.Vec2{b.uvPos[0] + uv[0]*b.uvSize[0], b.uvPos[1] + uv[1]*b.uvSize[1]},
		Normal: normal,
		Color:  color,
	})
}

// AddVertex добавляет уже преобразованную вершину как есть
func (b *MeshBuilder) AddVertex(v Vertex) {
	b.geom.Append(v)
}

// Len возвращает число накопленных вершин
func (b *MeshBuilder) Len() int {
	return b.geom.VertexCount()
}

// Build возвращает копию накопленной геометрии
func (b *MeshBuilder) Build() Geometry {
	return b.geom.Clone()
}

// Reset очищает буферы и смещения
func (b *MeshBuilder) Reset() {
	b.geom.Reset()
	b.posOffset = mgl32.Vec3{}
	b.uvPos = mgl32.Vec2{}
	b.uvSize = mgl32.Vec2{1, 1}
}
