package world

import (
	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// TransparentFace грань полупрозрачного блока в мировых координатах.
// DistanceSquared заполняется при глобальной сортировке кадра.
type TransparentFace struct {
	Center          mgl32.Vec3
	Vertices        [6]render.Vertex
	DistanceSquared float32
}

// genTransparentMesh строит меш и список граней полупрозрачных блоков.
// Грань между двумя блоками одного типа не создается. Двусторонние блоки
// (стекло, лед) получают копию грани с обратным обходом и нормалью.
func (c *Chunk) genTransparentMesh() (render.Geometry, []TransparentFace) {
	b := render.GetBuilder()
	defer render.PutBuilder(b)

	var faces []TransparentFace
	if c.nonAir == 0 {
		return b.Build(), faces
	}

	light := c.world.opts.Light
	tint := c.world.opts.ChunkTint
	origin := c.Origin().Vec3f()

	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				cur := c.paddedGet(x, y, z)
				if cur.ID == block.AirBlockID || c.reg.IsOpaque(cur.ID) || c.reg.IsCustomModel(cur.ID) {
					continue
				}

				doubleSided := c.reg.IsDoubleSided(cur.ID)
				cell := mgl32.Vec3{float32(x), float32(y), float32(z)}
				worldCell := origin.Add(cell)
				color := light.Color(cur.Light).Mul(tint)
				b.SetPositionOffset(cell)

				for _, f := range block.Faces {
					d := f.Normal()
					if c.paddedGet(x+d.X, y+d.Y, z+d.Z).ID == cur.ID {
						continue
					}

					uvPos, uvSize := atlasUV(c.reg, cur.ID, f)
					b.SetUVOffsetSize(uvPos, uvSize)
					normal := faceNormal(f)
					corners := &faceCorners[f]

					for _, k := range frontWinding {
						b.Add(corners[k].pos, corners[k].uv, normal, color)
					}
					faces = append(faces, makeFace(worldCell, f, corners, frontWinding, normal, color, uvPos, uvSize))

					if doubleSided {
						back := normal.Mul(-1)
						for _, k := range backWinding {
							b.Add(corners[k].pos, corners[k].uv, back, color)
						}
						faces = append(faces, makeFace(worldCell, f, corners, backWinding, back, color, uvPos, uvSize))
					}
				}
			}
		}
	}

	return b.Build(), faces
}

func makeFace(cell mgl32.Vec3, f block.Face, corners *[4]faceCorner, winding [6]int, normal mgl32.Vec3, color render.Color, uvPos, uvSize mgl32.Vec2) TransparentFace {
	face := TransparentFace{Center: cell.Add(faceCenters[f])}
	for i, k := range winding {
		uv := corners[k].uv
		face.Vertices[i] = render.Vertex{
			Pos:    cell.Add(corners[k].pos),
			UV:     mgl32.Vec2{uvPos[0] + uv[0]*uvSize[0], uvPos[1] + uv[1]*uvSize[1]},
			Normal: normal,
			Color:  color,
		}
	}
	return face
}
