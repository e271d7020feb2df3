package world

import (
	"context"
	"sort"

	"github.com/annel0/voxelgine/internal/render"
	"github.com/go-gl/mathgl/mgl32"
)

// chunkCenter возвращает центр чанка в мировых координатах
func chunkCenter(c *Chunk) mgl32.Vec3 {
	half := float32(ChunkSize) / 2
	return c.Origin().Vec3f().Add(mgl32.Vec3{half, half, half})
}

func (m *ChunkMap) inRange(c *Chunk, pos mgl32.Vec3) bool {
	d := m.opts.RenderDistance
	return chunkCenter(c).Sub(pos).LenSqr() <= d*d
}

// Draw рисует непрозрачные меши чанков в радиусе отрисовки, прошедших
// отсечение пирамидой видимости. Отложенное освещение чанков, вошедших в
// радиус, пересчитывается перед отрисовкой.
func (m *ChunkMap) Draw(b render.Backend, cam Camera) DrawStats {
	m.SetCamera(cam)
	fr := NewFrustum(cam)
	var stats DrawStats

	chunks := m.Chunks()
	var pending []*Chunk
	for _, c := range chunks {
		if c.needsRelighting && m.inRange(c, cam.Position) {
			pending = append(pending, c)
		}
	}
	if len(pending) > 0 {
		m.relight(context.Background(), pending, true)
		stats.Relit = len(pending)
	}

	for _, c := range chunks {
		if !m.inRange(c, cam.Position) {
			stats.OutOfRange++
			continue
		}
		if c.RecalcModel() {
			stats.Rebuilt++
		}
		visible, drawn := c.draw(b, &fr)
		if !visible {
			stats.Culled++
			continue
		}
		stats.Visible++
		if drawn {
			stats.DrawCalls++
		}
	}

	m.lastDraw = stats
	m.observer.FrameDrawn(stats)
	return stats
}

// DrawTransparent собирает полупрозрачные грани видимых чанков, сортирует их
// от дальних к ближним и рисует одним вызовом со смешиванием из общего буфера.
// Возвращает число нарисованных граней.
func (m *ChunkMap) DrawTransparent(b render.Backend, cam Camera) int {
	fr := NewFrustum(cam)
	refs := m.faceRefs[:0]

	for _, c := range m.Chunks() {
		if !m.inRange(c, cam.Position) || !c.visible(&fr) {
			continue
		}
		faces := c.TransparentFaces()
		for i := range faces {
			f := &faces[i]
			f.DistanceSquared = f.Center.Sub(cam.Position).LenSqr()
			refs = append(refs, f)
		}
	}

	m.lastDraw.TransparentFaces = len(refs)
	if len(refs) == 0 {
		m.faceRefs = refs[:0]
		return 0
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].DistanceSquared > refs[j].DistanceSquared
	})

	vertexCount := len(refs) * 6
	m.ensureDynamicCapacity(b, vertexCount)

	m.dynGeom.Reset()
	for _, f := range refs {
		for _, v := range f.Vertices {
			m.dynGeom.Append(v)
		}
	}
	b.UpdateDynamicMesh(m.dynHandle, &m.dynGeom)
	b.DrawDynamicMesh(m.dynHandle, vertexCount, render.BlendAlpha)
	m.lastDraw.DrawCalls++

	// Ссылки указывают в срезы граней чанков: между кадрами их не держим
	clear(refs)
	m.faceRefs = refs[:0]
	return len(refs)
}

// ensureDynamicCapacity пересоздает общий буфер, удваивая емкость, пока она
// меньше нужной. Минимальная емкость TransparentMinCapacity.
func (m *ChunkMap) ensureDynamicCapacity(b render.Backend, vertices int) {
	if m.dynHandle != 0 && vertices <= m.dynCapacity {
		return
	}
	capacity := m.dynCapacity * 2
	if capacity < m.opts.TransparentMinCapacity {
		capacity = m.opts.TransparentMinCapacity
	}
	for capacity < vertices {
		capacity *= 2
	}
	if m.dynHandle != 0 {
		b.UnloadMesh(m.dynHandle)
	}
	m.dynHandle = b.CreateDynamicMesh(capacity, render.DefaultMaterial)
	m.dynCapacity = capacity
	m.log.Debug("буфер полупрозрачных граней увеличен до %d вершин", capacity)
}

// Release освобождает все меши карты в backend
func (m *ChunkMap) Release(b render.Backend) {
	for _, c := range m.Chunks() {
		c.Release(b)
	}
	if m.dynHandle != 0 {
		b.UnloadMesh(m.dynHandle)
		m.dynHandle = 0
		m.dynCapacity = 0
	}
}
