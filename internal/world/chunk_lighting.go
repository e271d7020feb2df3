package world

import "github.com/annel0/voxelgine/internal/vec"

// ResetLighting обнуляет оба канала света во всех клетках чанка
func (c *Chunk) ResetLighting() {
	for i := range c.blocks {
		c.blocks[i].Light = BlockLight{}
	}
}

// ComputeLighting полностью пересчитывает свет чанка и помечает его грязным.
// Свет, записанный соседними чанками в клетки этого чанка, сбрасывается.
func (c *Chunk) ComputeLighting() {
	c.ResetLighting()
	c.propagateLight()
	c.MarkDirty()
}

// InvalidateSkyExposure сбрасывает кэш открытости колонн небу.
// Нужен, когда меняются блоки над чанком в другом чанке.
func (c *Chunk) InvalidateSkyExposure() {
	c.skyExposedOK = false
}

// propagateLight выполняет небесный и блочный проходы без предварительного сброса
func (c *Chunk) propagateLight() {
	c.computeSkyExposure()

	queue := c.lightQueue[:0]

	// Небесный проход: колонны сверху вниз до первого непрозрачного блока
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			if !c.skyExposed[x+z*ChunkSize] {
				continue
			}
			for y := ChunkSize - 1; y >= 0; y-- {
				i := index(x, y, z)
				if c.reg.IsOpaque(c.blocks[i].ID) {
					break
				}
				c.blocks[i].Light.Sky = MaxLight
				queue = append(queue, int32(i))
			}
		}
	}
	queue = c.seedFromBorder(queue, skyChannel)
	queue = c.relax(queue, skyChannel)

	// Блочный проход: источники света внутри чанка
	queue = queue[:0]
	for i := range c.blocks {
		emission := c.reg.Emission(c.blocks[i].ID)
		if emission == 0 {
			continue
		}
		if emission > c.blocks[i].Light.Block {
			c.blocks[i].Light.Block = emission
		}
		queue = append(queue, int32(i))
	}
	queue = c.seedFromBorder(queue, blockChannel)
	c.lightQueue = c.relax(queue, blockChannel)
}

// MaxLight максимальная интенсивность канала
const MaxLight = 15

// computeSkyExposure вычисляет для каждой колонны, нет ли непрозрачных
// блоков на высоте до SkyScanHeight над верхней гранью чанка.
func (c *Chunk) computeSkyExposure() {
	if c.skyExposedOK {
		return
	}
	origin := c.Origin()
	top := origin.Y + ChunkSize
	height := c.world.opts.SkyScanHeight

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			exposed := true
			for wy := top; wy < top+height; wy++ {
				id := c.world.GetBlock(vec.Vec3{X: origin.X + x, Y: wy, Z: origin.Z + z})
				if c.reg.IsOpaque(id) {
					exposed = false
					break
				}
			}
			c.skyExposed[x+z*ChunkSize] = exposed
		}
	}
	c.skyExposedOK = true
}

// seedFromBorder подтягивает свет из граничных клеток соседних чанков
// (уровень соседа минус 1) и ставит в очередь все освещенные граничные клетки.
// Свет, записанный соседями через relaxForeign, тоже продолжает путь отсюда.
func (c *Chunk) seedFromBorder(queue []int32, ch lightChannel) []int32 {
	var neighbors [len(vec.Directions)]*Chunk
	for k, d := range vec.Directions {
		neighbors[k] = c.world.GetChunk(c.Coords.Add(d))
	}

	for z := 0; z < ChunkSize; z++ {
		for y := 0; y < ChunkSize; y++ {
			for x := 0; x < ChunkSize; x++ {
				if x != 0 && x != ChunkSize-1 && y != 0 && y != ChunkSize-1 && z != 0 && z != ChunkSize-1 {
					x = ChunkSize - 2
					continue
				}
				i := index(x, y, z)
				cell := &c.blocks[i]
				if c.reg.IsOpaque(cell.ID) {
					continue
				}
				for k, d := range vec.Directions {
					n := neighbors[k]
					nx, ny, nz := x+d.X, y+d.Y, z+d.Z
					if n == nil || inBounds(nx, ny, nz) {
						continue
					}
					outer := n.blocks[index(wrapLocal(nx), wrapLocal(ny), wrapLocal(nz))].Light.get(ch)
					if outer > 1 && outer-1 > cell.Light.get(ch) {
						cell.Light.set(ch, outer-1)
					}
				}
				if cell.Light.get(ch) > 1 {
					queue = append(queue, int32(i))
				}
			}
		}
	}
	return queue
}

// relaxFromBorder досчитывает свет без сброса, начиная с граничных клеток.
// Используется, когда соседи улучшили свет на границе после прохода чанка.
func (c *Chunk) relaxFromBorder() {
	queue := c.seedFromBorder(c.lightQueue[:0], skyChannel)
	queue = c.relax(queue, skyChannel)
	queue = c.seedFromBorder(queue[:0], blockChannel)
	c.lightQueue = c.relax(queue, blockChannel)
}

func wrapLocal(v int) int {
	return (v + ChunkSize) % ChunkSize
}

// relax распространяет свет поиском в ширину: каждый шаг уменьшает уровень на 1,
// клетка обновляется только при строгом улучшении. Соседи за границей чанка
// записываются через карту, но в очередь не попадают.
func (c *Chunk) relax(queue []int32, ch lightChannel) []int32 {
	for head := 0; head < len(queue); head++ {
		i := int(queue[head])
		cur := c.blocks[i].Light.get(ch)
		if cur <= 1 {
			continue
		}
		candidate := cur - 1

		x := i % ChunkSize
		y := (i / ChunkSize) % ChunkSize
		z := i / (ChunkSize * ChunkSize)

		for _, d := range vec.Directions {
			nx, ny, nz := x+d.X, y+d.Y, z+d.Z
			if !inBounds(nx, ny, nz) {
				c.world.relaxForeign(c.worldPos(nx, ny, nz), ch, candidate)
				continue
			}
			ni := index(nx, ny, nz)
			nb := &c.blocks[ni]
			if c.reg.IsOpaque(nb.ID) {
				continue
			}
			if candidate > nb.Light.get(ch) {
				nb.Light.set(ch, candidate)
				queue = append(queue, int32(ni))
			}
		}
	}
	return queue
}
