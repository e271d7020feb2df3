package world

import (
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// faceCorner угол грани: позиция в клетке, UV и три клетки для ambient occlusion
type faceCorner struct {
	pos mgl32.Vec3
	uv  mgl32.Vec2
	ao  [3]vec.Vec3
}

func v3(x, y, z int) vec.Vec3 { return vec.Vec3{X: x, Y: y, Z: z} }

// faceCorners четыре угла каждой грани в порядке block.Faces
var faceCorners = [6][4]faceCorner{
	block.FaceXPos: {
		{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{1, 1}, [3]vec.Vec3{v3(1, 0, -1), v3(1, 1, -1), v3(1, 1, 0)}},
		{mgl32.Vec3{1, 1, 1}, mgl32.Vec2{0, 1}, [3]vec.Vec3{v3(1, 1, 0), v3(1, 1, 1), v3(1, 0, 1)}},
		{mgl32.Vec3{1, 0, 1}, mgl32.Vec2{0, 0}, [3]vec.Vec3{v3(1, -1, 0), v3(1, -1, 1), v3(1, 0, 1)}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec2{1, 0}, [3]vec.Vec3{v3(1, 0, -1), v3(1, -1, -1), v3(1, -1, 0)}},
	},
	block.FaceXNeg: {
		{mgl32.Vec3{0, 1, 1}, mgl32.Vec2{1, 1}, [3]vec.Vec3{v3(-1, 1, 0), v3(-1, 1, 1), v3(-1, 0, 1)}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0, 1}, [3]vec.Vec3{v3(-1, 0, -1), v3(-1, 1, -1), v3(-1, 1, 0)}},
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec2{0, 0}, [3]vec.Vec3{v3(-1, 0, -1), v3(-1, -1, -1), v3(-1, -1, 0)}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec2{1, 0}, [3]vec.Vec3{v3(-1, -1, 0), v3(-1, -1, 1), v3(-1, 0, 1)}},
	},
	block.FaceYPos: {
		{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{1, 1}, [3]vec.Vec3{v3(0, 1, -1), v3(1, 1, -1), v3(1, 1, 0)}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0, 1}, [3]vec.Vec3{v3(0, 1, -1), v3(-1, 1, -1), v3(-1, 1, 0)}},
		{mgl32.Vec3{0, 1, 1}, mgl32.Vec2{0, 0}, [3]vec.Vec3{v3(-1, 1, 0), v3(-1, 1, 1), v3(0, 1, 1)}},
		{mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 0}, [3]vec.Vec3{v3(1, 1, 0), v3(1, 1, 1), v3(0, 1, 1)}},
	},
	block.FaceYNeg: {
		{mgl32.Vec3{1, 0, 1}, mgl32.Vec2{0, 0}, [3]vec.Vec3{v3(0, -1, 1), v3(1, -1, 1), v3(1, -1, 0)}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec2{1, 0}, [3]vec.Vec3{v3(0, -1, 1), v3(-1, -1, 1), v3(-1, -1, 0)}},
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec2{1, 1}, [3]vec.Vec3{v3(-1, -1, 0), v3(-1, -1, -1), v3(0, -1, -1)}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec2{0, 1}, [3]vec.Vec3{v3(1, -1, 0), v3(1, -1, -1), v3(0, -1, -1)}},
	},
	block.FaceZPos: {
		{mgl32.Vec3{1, 0, 1}, mgl32.Vec2{1, 0}, [3]vec.Vec3{v3(0, -1, 1), v3(1, -1, 1), v3(1, 0, 1)}},
		{mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1}, [3]vec.Vec3{v3(0, 1, 1), v3(1, 1, 1), v3(1, 0, 1)}},
		{mgl32.Vec3{0, 1, 1}, mgl32.Vec2{0, 1}, [3]vec.Vec3{v3(0, 1, 1), v3(-1, 1, 1), v3(-1, 0, 1)}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec2{0, 0}, [3]vec.Vec3{v3(-1, 0, 1), v3(-1, -1, 1), v3(0, -1, 1)}},
	},
	block.FaceZNeg: {
		{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{0, 1}, [3]vec.Vec3{v3(0, 1, -1), v3(1, 1, -1), v3(1, 0, -1)}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec2{0, 0}, [3]vec.Vec3{v3(0, -1, -1), v3(1, -1, -1), v3(1, 0, -1)}},
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec2{1, 0}, [3]vec.Vec3{v3(0, -1, -1), v3(-1, -1, -1), v3(-1, 0, -1)}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{1, 1}, [3]vec.Vec3{v3(-1, 0, -1), v3(-1, 1, -1), v3(0, 1, -1)}},
	},
}

// Два треугольника грани: прямой обход и обратный для двусторонних блоков
var (
	frontWinding = [6]int{0, 1, 2, 3, 0, 2}
	backWinding  = [6]int{2, 1, 0, 2, 0, 3}
)

// faceCenters смещение центра грани относительно угла клетки
var faceCenters = [6]mgl32.Vec3{
	block.FaceXPos: {1, 0.5, 0.5},
	block.FaceXNeg: {0, 0.5, 0.5},
	block.FaceYPos: {0.5, 1, 0.5},
	block.FaceYNeg: {0.5, 0, 0.5},
	block.FaceZPos: {0.5, 0.5, 1},
	block.FaceZNeg: {0.5, 0.5, 0},
}

func faceNormal(f block.Face) mgl32.Vec3 {
	return f.Normal().Vec3f()
}

// atlasUV возвращает смещение и размер UV для MeshBuilder. Ось V
// переворачивается: атлас хранится сверху вниз.
func atlasUV(reg *block.Registry, id block.BlockID, f block.Face) (pos, size mgl32.Vec2) {
	p, s := reg.TexCoords(id, f)
	return mgl32.Vec2{p[0], p[1] + s[1]}, mgl32.Vec2{s[0], -s[1]}
}
