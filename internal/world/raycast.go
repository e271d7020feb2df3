package world

import (
	"math"

	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// RaycastHit результат трассировки луча по сетке блоков
type RaycastHit struct {
	Pos      vec.Vec3      `json:"pos"`
	Normal   vec.Vec3      `json:"normal"` // нормаль грани, через которую вошел луч; ноль, если луч начался внутри блока
	Block    block.BlockID `json:"block"`
	Distance float32       `json:"distance"`
}

// Face возвращает грань попадания. ok=false, если луч начался внутри блока.
func (h RaycastHit) Face() (block.Face, bool) {
	if h.Normal == (vec.Vec3{}) {
		return 0, false
	}
	return block.FaceFromNormal(h.Normal), true
}

// Raycast проходит луч от origin в направлении dir по клеткам (алгоритм
// Amanatides-Woo) и возвращает первый непустой блок не дальше maxDist.
func (m *ChunkMap) Raycast(origin, dir mgl32.Vec3, maxDist float32) (RaycastHit, bool) {
	if dir.Len() == 0 || maxDist <= 0 {
		return RaycastHit{}, false
	}
	dir = dir.Normalize()

	cell := vec.FloorVec3(origin)
	if id := m.GetBlock(cell); id != block.AirBlockID {
		return RaycastHit{Pos: cell, Block: id}, true
	}

	var step [3]int
	var tMax, tDelta [3]float64
	pos := [3]int{cell.X, cell.Y, cell.Z}
	for i := 0; i < 3; i++ {
		d := float64(dir[i])
		o := float64(origin[i])
		switch {
		case d > 0:
			step[i] = 1
			tDelta[i] = 1 / d
			tMax[i] = (math.Floor(o) + 1 - o) / d
		case d < 0:
			step[i] = -1
			tDelta[i] = -1 / d
			tMax[i] = (o - math.Floor(o)) / -d
		default:
			tDelta[i] = math.Inf(1)
			tMax[i] = math.Inf(1)
		}
	}

	for {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t := tMax[axis]
		if t > float64(maxDist) {
			return RaycastHit{}, false
		}
		pos[axis] += step[axis]
		tMax[axis] += tDelta[axis]

		p := vec.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}
		if id := m.GetBlock(p); id != block.AirBlockID {
			var n [3]int
			n[axis] = -step[axis]
			return RaycastHit{
				Pos:      p,
				Normal:   vec.Vec3{X: n[0], Y: n[1], Z: n[2]},
				Block:    id,
				Distance: float32(t),
			}, true
		}
	}
}
