package render

import "github.com/go-gl/mathgl/mgl32"

// MeshHandle идентификатор меша, загруженного в backend. Ноль означает «нет меша».
type MeshHandle uint32

// Material связывает меш с текстурой и шейдером по именам ресурсов
type Material struct {
	Texture string
	Shader  string
}

// DefaultMaterial атлас блоков со стандартным шейдером
var DefaultMaterial = Material{Texture: "atlas", Shader: "default"}

// BlendMode режим смешивания при отрисовке
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
)

// Backend графический слой, в который выгружается геометрия чанков.
// Все методы вызываются из потока рендера.
type Backend interface {
	// UploadMesh загружает статический меш и возвращает его handle
	UploadMesh(g *Geometry, mat Material) MeshHandle
	// UnloadMesh освобождает ранее загруженный меш
	UnloadMesh(h MeshHandle)
	// DrawMesh рисует статический меш со смещением и оттенком
	DrawMesh(h MeshHandle, position mgl32.Vec3, tint Color)

	// CreateDynamicMesh создает изменяемый буфер на capacity вершин
	CreateDynamicMesh(capacity int, mat Material) MeshHandle
	// UpdateDynamicMesh перезаписывает начало буфера вершинами g
	UpdateDynamicMesh(h MeshHandle, g *Geometry)
	// DrawDynamicMesh рисует первые vertexCount вершин буфера
	DrawDynamicMesh(h MeshHandle, vertexCount int, blend BlendMode)
}
