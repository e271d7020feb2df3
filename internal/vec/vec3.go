package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkSize длина ребра чанка в блоках
const ChunkSize = 16

// Vec3 представляет трехмерный вектор с целочисленными координатами
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Шесть осевых направлений в порядке +X, -X, +Y, -Y, +Z, -Z
var (
	Right    = Vec3{X: 1}
	Left     = Vec3{X: -1}
	Up       = Vec3{Y: 1}
	Down     = Vec3{Y: -1}
	Forward  = Vec3{Z: 1}
	Backward = Vec3{Z: -1}
)

// Directions перечисляет соседей по граням
var Directions = [6]Vec3{Right, Left, Up, Down, Forward, Backward}

// ToChunkCoords преобразует мировые координаты блока в индекс чанка.
// Арифметический сдвиг дает деление с округлением вниз и для отрицательных координат.
func (v Vec3) ToChunkCoords() Vec3 {
	return Vec3{X: v.X >> 4, Y: v.Y >> 4, Z: v.Z >> 4}
}

// LocalInChunk возвращает локальные координаты внутри чанка (0..15)
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y & 0xF, Z: v.Z & 0xF}
}

// ChunkOrigin возвращает мировую координату угла чанка с данным индексом
func (v Vec3) ChunkOrigin() Vec3 {
	return Vec3{X: v.X * ChunkSize, Y: v.Y * ChunkSize, Z: v.Z * ChunkSize}
}

// InChunkBounds проверяет, что локальная координата лежит в [0,16)
func (v Vec3) InChunkBounds() bool {
	return v.X >= 0 && v.X < ChunkSize && v.Y >= 0 && v.Y < ChunkSize && v.Z >= 0 && v.Z < ChunkSize
}

// DistanceSquared возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceSquared(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// DistanceTo возвращает евклидово расстояние до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	return math.Sqrt(float64(v.DistanceSquared(other)))
}

// Manhattan возвращает манхэттенское расстояние
func (v Vec3) Manhattan(other Vec3) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y) + abs(v.Z-other.Z)
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Neg возвращает противоположный вектор
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Vec3f переводит вектор в mgl32
func (v Vec3) Vec3f() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// FloorVec3 возвращает блок, содержащий точку
func FloorVec3(p mgl32.Vec3) Vec3 {
	return Vec3{
		X: int(math.Floor(float64(p[0]))),
		Y: int(math.Floor(float64(p[1]))),
		Z: int(math.Floor(float64(p[2]))),
	}
}

// Parity возвращает остаток деления на 2 в диапазоне {0,1} для любого знака
func Parity(c int) int {
	return ((c % 2) + 2) % 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
