package block

import "github.com/annel0/voxelgine/internal/vec"

// Face грань куба
type Face uint8

const (
	FaceXPos Face = iota
	FaceXNeg
	FaceYPos
	FaceYNeg
	FaceZPos
	FaceZNeg
)

// Faces все грани в каноническом порядке
var Faces = [6]Face{FaceXPos, FaceXNeg, FaceYPos, FaceYNeg, FaceZPos, FaceZNeg}

// Normal возвращает нормаль грани
func (f Face) Normal() vec.Vec3 {
	return vec.Directions[f]
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	return f ^ 1
}

func (f Face) String() string {
	switch f {
	case FaceXPos:
		return "+X"
	case FaceXNeg:
		return "-X"
	case FaceYPos:
		return "+Y"
	case FaceYNeg:
		return "-Y"
	case FaceZPos:
		return "+Z"
	case FaceZNeg:
		return "-Z"
	}
	return "?"
}

// FaceFromNormal находит грань по осевой нормали. Для неосевых векторов
// выбирается доминирующая ось.
func FaceFromNormal(n vec.Vec3) Face {
	ax, ay, az := absInt(n.X), absInt(n.Y), absInt(n.Z)
	switch {
	case ax >= ay && ax >= az:
		if n.X >= 0 {
			return FaceXPos
		}
		return FaceXNeg
	case ay >= az:
		if n.Y >= 0 {
			return FaceYPos
		}
		return FaceYNeg
	default:
		if n.Z >= 0 {
			return FaceZPos
		}
		return FaceZNeg
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
