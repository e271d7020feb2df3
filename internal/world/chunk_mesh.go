package world

import (
	"math"

	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// approxAO яркость, подставляемая вместо AO для удаленных чанков
const approxAO = 0.8

// buildPaddedCache копирует чанк и слой толщиной в одну клетку вокруг него
// в массив 18^3, чтобы проверки соседей не ходили через карту.
func (c *Chunk) buildPaddedCache() {
	if c.padded == nil {
		c.padded = make([]PlacedBlock, paddedVolume)
	}
	for z := -1; z <= ChunkSize; z++ {
		for y := -1; y <= ChunkSize; y++ {
			for x := -1; x <= ChunkSize; x++ {
				var pb PlacedBlock
				if inBounds(x, y, z) {
					pb = c.blocks[index(x, y, z)]
				} else {
					pb = c.world.GetPlacedBlock(c.worldPos(x, y, z))
				}
				c.padded[paddedIndex(x, y, z)] = pb
			}
		}
	}
}

func paddedIndex(x, y, z int) int {
	return (x + 1) + paddedSize*((y+1)+paddedSize*(z+1))
}

func (c *Chunk) paddedGet(x, y, z int) PlacedBlock {
	return c.padded[paddedIndex(x, y, z)]
}

// cameraView параметры камеры, влияющие на генерацию меша
type cameraView struct {
	chunk vec.Vec3
	valid bool
}

// useApproxAO сообщает, что чанк достаточно далеко от камеры для упрощенного AO
func (c *Chunk) useApproxAO(cam cameraView) bool {
	if !cam.valid {
		return false
	}
	return c.Coords.DistanceTo(cam.chunk) > float64(c.world.opts.AOApproxDistance)
}

// aoFactor считает затенение вершины по трем клеткам: 1 - 0.2 за каждую непрозрачную
func (c *Chunk) aoFactor(x, y, z int, probes [3]vec.Vec3) float32 {
	hits := 0
	for _, p := range probes {
		if c.reg.IsOpaque(c.paddedGet(x+p.X, y+p.Y, z+p.Z).ID) {
			hits++
		}
	}
	f := 1 - 0.2*float32(hits)
	if f < 0.4 {
		f = 0.4
	}
	return f
}

// genOpaqueMesh строит меш непрозрачных блоков. Ожидает заполненный padded-кэш.
func (c *Chunk) genOpaqueMesh(cam cameraView) (render.Geometry, int) {
	b := render.GetBuilder()
	defer render.PutBuilder(b)

	if c.nonAir == 0 {
		return b.Build(), 0
	}

	light := c.world.opts.Light
	tint := c.world.opts.ChunkTint
	approx := c.useApproxAO(cam)
	faces := 0

	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				cur := c.paddedGet(x, y, z)
				if cur.ID == block.AirBlockID || !c.reg.IsOpaque(cur.ID) || c.reg.IsCustomModel(cur.ID) {
					continue
				}

				var neighbors [6]PlacedBlock
				enclosed := true
				for _, f := range block.Faces {
					d := f.Normal()
					neighbors[f] = c.paddedGet(x+d.X, y+d.Y, z+d.Z)
					if !c.reg.IsOpaque(neighbors[f].ID) {
						enclosed = false
					}
				}
				if enclosed {
					continue
				}

				b.SetPositionOffset(mgl32.Vec3{float32(x), float32(y), float32(z)})
				for _, f := range block.Faces {
					if c.reg.IsOpaque(neighbors[f].ID) {
						continue
					}
					faceColor := light.Color(neighbors[f].Light).Mul(tint)
					b.SetUVOffsetSize(atlasUV(c.reg, cur.ID, f))
					normal := faceNormal(f)
					corners := &faceCorners[f]

					var cornerColors [4]render.Color
					for k := range corners {
						ao := float32(approxAO)
						if !approx {
							ao = c.aoFactor(x, y, z, corners[k].ao)
						}
						cornerColors[k] = faceColor.Mul(render.Gray(ao))
					}
					for _, k := range frontWinding {
						b.Add(corners[k].pos, corners[k].uv, normal, cornerColors[k])
					}
					faces++
				}
			}
		}
	}

	c.appendCustomModels(b)
	return b.Build(), faces
}

// appendCustomModels вставляет внешнюю геометрию блоков с пользовательскими
// моделями, если хотя бы одна соседняя грань открыта.
func (c *Chunk) appendCustomModels(b *render.MeshBuilder) {
	light := c.world.opts.Light
	tint := c.world.opts.ChunkTint

	for _, cb := range c.CustomModelBlocks() {
		model := c.reg.Model(cb.ID)
		if model == nil {
			continue
		}

		visible := false
		best := 0
		var brightest BlockLight
		if !c.reg.IsOpaque(cb.ID) {
			brightest = c.paddedGet(cb.X, cb.Y, cb.Z).Light
			best = light.Level(brightest)
		}
		for _, f := range block.Faces {
			d := f.Normal()
			n := c.paddedGet(cb.X+d.X, cb.Y+d.Y, cb.Z+d.Z)
			if c.reg.IsOpaque(n.ID) {
				continue
			}
			visible = true
			if lvl := light.Level(n.Light); lvl > best {
				best = lvl
				brightest = n.Light
			}
		}
		if !visible {
			continue
		}

		color := light.Color(brightest).Mul(tint)
		cell := mgl32.Vec3{float32(cb.X), float32(cb.Y), float32(cb.Z)}
		b.SetPositionOffset(mgl32.Vec3{})
		for _, mv := range model.Vertices {
			p := model.Transform(mv)
			n := mgl32.Vec3{mv.Normal[0], mv.Normal[1], mv.Normal[2]}
			uvPos, uvSize := atlasUV(c.reg, cb.ID, dominantFace(n))
			b.AddVertex(render.Vertex{
				Pos:    cell.Add(mgl32.Vec3{p[0], p[1], p[2]}),
				UV:     mgl32.Vec2{uvPos[0] + mv.UV[0]*uvSize[0], uvPos[1] + mv.UV[1]*uvSize[1]},
				Normal: n,
				Color:  color,
			})
		}
	}
}

// dominantFace выбирает грань по наибольшей компоненте нормали
func dominantFace(n mgl32.Vec3) block.Face {
	ax, ay, az := math.Abs(float64(n[0])), math.Abs(float64(n[1])), math.Abs(float64(n[2]))
	switch {
	case ax >= ay && ax >= az:
		if n[0] >= 0 {
			return block.FaceXPos
		}
		return block.FaceXNeg
	case ay >= az:
		if n[1] >= 0 {
			return block.FaceYPos
		}
		return block.FaceYNeg
	default:
		if n[2] >= 0 {
			return block.FaceZPos
		}
		return block.FaceZNeg
	}
}
