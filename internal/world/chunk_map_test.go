package world

import (
	"testing"
	"time"

	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cleanCube создает куб 3x3x3 чанков вокруг начала координат с актуальными мешами
func cleanCube(t *testing.T, m *ChunkMap) {
	t.Helper()
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				m.GetOrCreateChunk(vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	for _, c := range m.Chunks() {
		c.RecalcModel()
		require.False(t, c.IsDirty())
	}
}

func dirtyChunks(m *ChunkMap) []vec.Vec3 {
	var out []vec.Vec3
	for _, c := range m.Chunks() {
		if c.IsDirty() {
			out = append(out, c.Coords)
		}
	}
	return out
}

func TestSetBlockMarksBorderNeighbors(t *testing.T) {
	tests := []struct {
		name string
		pos  vec.Vec3
		want int
	}{
		{"внутренняя клетка", vec.Vec3{X: 8, Y: 8, Z: 8}, 1},
		{"грань", vec.Vec3{X: 15, Y: 8, Z: 8}, 2},
		{"ребро", vec.Vec3{X: 0, Y: 15, Z: 8}, 4},
		{"угол", vec.Vec3{X: 0, Y: 0, Z: 0}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMap(t)
			cleanCube(t, m)

			m.SetBlock(tt.pos, block.StoneBlockID)
			dirty := dirtyChunks(m)
			assert.Len(t, dirty, tt.want)
			assert.Contains(t, dirty, vec.Vec3{})
		})
	}
}

func TestSetBlockCornerNeighbors(t *testing.T) {
	m := newTestMap(t)
	cleanCube(t, m)

	m.SetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}, block.StoneBlockID)
	dirty := dirtyChunks(m)
	for _, want := range []vec.Vec3{
		{}, {X: -1}, {Y: -1}, {Z: -1},
		{X: -1, Y: -1}, {X: -1, Z: -1}, {Y: -1, Z: -1}, {X: -1, Y: -1, Z: -1},
	} {
		assert.Contains(t, dirty, want)
	}
	assert.NotContains(t, dirty, vec.Vec3{X: 1})
}

func TestSetBlockCreatesChunk(t *testing.T) {
	m := newTestMap(t)

	// Запись воздуха в незагруженную область ничего не создает
	m.SetBlock(vec.Vec3{X: 100, Y: 0, Z: 0}, block.AirBlockID)
	assert.Equal(t, 0, m.Len())

	m.SetBlock(vec.Vec3{X: -1, Y: -17, Z: 40}, block.SandBlockID)
	require.Equal(t, 1, m.Len())
	c := m.GetChunk(vec.Vec3{X: -1, Y: -2, Z: 2})
	require.NotNil(t, c)
	assert.Equal(t, block.SandBlockID, c.GetBlock(15, 15, 8))
	assert.Equal(t, block.SandBlockID, m.GetBlock(vec.Vec3{X: -1, Y: -17, Z: 40}))
	assert.Equal(t, 1, c.NonAirBlockCount())
	assert.Equal(t, 1, c.ChangeCounter())
}

func TestOutOfBoundsQueriesRedirect(t *testing.T) {
	m := newTestMap(t)
	a := m.GetOrCreateChunk(vec.Vec3{})
	m.SetBlock(vec.Vec3{X: 16, Y: 3, Z: 3}, block.BricksBlockID)

	// Координата за пределами чанка читается через карту
	assert.Equal(t, block.BricksBlockID, a.GetBlock(16, 3, 3))
	// Незагруженная область - воздух без света
	assert.Equal(t, PlacedBlock{}, a.GetPlaced(-1, 0, 0))
	assert.Equal(t, PlacedBlock{}, m.GetPlacedBlock(vec.Vec3{X: 1000, Y: -1000, Z: 5}))

	// Запись за пределами чанка тоже идет через карту
	a.SetBlock(-1, 0, 0, block.PlankBlockID)
	assert.Equal(t, block.PlankBlockID, m.GetBlock(vec.Vec3{X: -1}))
}

func TestGetLightLevelAndColor(t *testing.T) {
	m := newTestMap(t)
	m.GetOrCreateChunk(vec.Vec3{}).Fill(block.AirBlockID)
	m.ComputeLighting()

	pos := vec.Vec3{X: 4, Y: 4, Z: 4}
	assert.InDelta(t, 1.0, m.GetLightLevel(pos), 1e-6)
	assert.Equal(t, render.White, m.GetLightColor(pos))

	// Незагруженная клетка получает минимальную подсветку
	assert.InDelta(t, 2.0/15.0, m.GetLightLevel(vec.Vec3{X: 500}), 1e-6)
}

type recordingObserver struct {
	lighting int
	rebuilt  int
	frames   []DrawStats
}

func (r *recordingObserver) LightingDone(int, time.Duration) { r.lighting++ }
func (r *recordingObserver) MeshRebuilt(int, int)            { r.rebuilt++ }
func (r *recordingObserver) FrameDrawn(s DrawStats)          { r.frames = append(r.frames, s) }

func TestDrawCullsAndDraws(t *testing.T) {
	obs := &recordingObserver{}
	m := newTestMap(t, func(o *Options) {
		o.RenderDistance = 100
		o.Observer = obs
	})
	m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: 8}, block.StoneBlockID)     // перед камерой
	m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: -40}, block.StoneBlockID)   // за камерой
	m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: 40 * 16}, block.StoneBlockID) // вне радиуса
	m.ComputeLighting()

	b := render.NewMemoryBackend()
	cam := NewCamera(mgl32.Vec3{8, 8, -20}, mgl32.Vec3{8, 8, 8})
	stats := m.Draw(b, cam)

	assert.Equal(t, 1, stats.Visible)
	assert.Equal(t, 1, stats.Culled)
	assert.Equal(t, 1, stats.OutOfRange)
	assert.Equal(t, 1, stats.DrawCalls)

	calls := b.DrawCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, calls[0].Position)
	assert.Equal(t, render.White, calls[0].Tint)
	assert.Equal(t, 36, calls[0].VertexCount)

	assert.Equal(t, 1, obs.lighting)
	require.Len(t, obs.frames, 1)
	assert.Equal(t, stats, obs.frames[0])

	// Повторный кадр не перезагружает меш
	uploads := b.Uploads
	b.ResetFrame()
	stats = m.Draw(b, cam)
	assert.Equal(t, 0, stats.Rebuilt)
	assert.Equal(t, uploads, b.Uploads)

	// Изменение блока перестраивает меш и заменяет его в backend
	m.SetBlock(vec.Vec3{X: 9, Y: 8, Z: 8}, block.StoneBlockID)
	stats = m.Draw(b, cam)
	assert.Equal(t, 1, stats.Rebuilt)
	assert.Equal(t, uploads+1, b.Uploads)
	assert.Equal(t, 1, b.Unloads)
}

func TestDrawRelightsDeferredChunks(t *testing.T) {
	m := newTestMap(t, func(o *Options) { o.RenderDistance = 40 })
	far := m.GetOrCreateChunk(vec.Vec3{X: 10})
	far.Fill(block.AirBlockID)
	far.SetBlock(8, 0, 8, block.StoneBlockID)
	m.MarkNeedsRelighting()
	require.True(t, far.NeedsRelighting())

	b := render.NewMemoryBackend()

	// Камера далеко: чанк не освещается
	stats := m.Draw(b, NewCamera(mgl32.Vec3{0, 8, 0}, mgl32.Vec3{1, 8, 0}))
	assert.Equal(t, 0, stats.Relit)
	assert.True(t, far.NeedsRelighting())

	// Камера рядом: отложенный пересчет выполняется перед отрисовкой
	stats = m.Draw(b, NewCamera(mgl32.Vec3{168, 8, -10}, mgl32.Vec3{168, 8, 8}))
	assert.Equal(t, 1, stats.Relit)
	assert.False(t, far.NeedsRelighting())
	assert.Equal(t, 15, far.GetPlaced(8, 1, 8).SkyLight())
}

func TestDrawTransparentSortsBackToFront(t *testing.T) {
	m := newTestMap(t)
	for z := 2; z <= 12; z += 2 {
		m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: z}, block.WaterBlockID)
	}
	m.ComputeLighting()

	b := render.NewMemoryBackend()
	cam := NewCamera(mgl32.Vec3{8.5, 8.5, -20}, mgl32.Vec3{8.5, 8.5, 8})
	drawn := m.DrawTransparent(b, cam)
	assert.Equal(t, 6*6, drawn)

	calls := b.DrawCalls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Dynamic)
	assert.Equal(t, render.BlendAlpha, calls[0].Blend)
	assert.Equal(t, drawn*6, calls[0].VertexCount)

	g, ok := b.Geometry(calls[0].Handle)
	require.True(t, ok)
	assert.Equal(t, drawn*6, g.VertexCount())
	assert.Equal(t, 6144, b.Capacity(calls[0].Handle))

	// Центр грани: среднее шести вершин двух треугольников квада
	centers := make([]mgl32.Vec3, drawn)
	for f := range centers {
		var sum mgl32.Vec3
		for k := 0; k < 6; k++ {
			sum = sum.Add(g.Vertex(f*6 + k).Pos)
		}
		centers[f] = sum.Mul(1.0 / 6)
	}
	for i := 1; i < len(centers); i++ {
		prev := centers[i-1].Sub(cam.Position).LenSqr()
		cur := centers[i].Sub(cam.Position).LenSqr()
		assert.GreaterOrEqual(t, prev, cur-1e-3, "грань %d", i)
	}
	assert.InDelta(t, 13, centers[0][2], 1e-5, "первой рисуется дальняя грань")
}

func TestDrawTransparentDropsFaceRefs(t *testing.T) {
	m := newTestMap(t)
	m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: 8}, block.WaterBlockID)

	b := render.NewMemoryBackend()
	cam := NewCamera(mgl32.Vec3{8, 8, -20}, mgl32.Vec3{8, 8, 8})
	require.Equal(t, 6, m.DrawTransparent(b, cam))

	// После загрузки в буфер карта не держит указатели на грани чанков
	assert.Empty(t, m.faceRefs)
	for _, f := range m.faceRefs[:cap(m.faceRefs)] {
		assert.Nil(t, f)
	}

	// Повторный кадр переиспользует срез и рисует то же
	b.ResetFrame()
	assert.Equal(t, 6, m.DrawTransparent(b, cam))
	assert.Equal(t, 6, m.Stats().LastDraw.TransparentFaces)
}

func TestDrawTransparentGrowsSharedBuffer(t *testing.T) {
	m := newTestMap(t)
	m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: 8}, block.WaterBlockID)

	b := render.NewMemoryBackend()
	cam := NewCamera(mgl32.Vec3{8, 8, -20}, mgl32.Vec3{8, 8, 8})
	require.Equal(t, 6, m.DrawTransparent(b, cam))
	assert.Equal(t, 1, b.Recreate)
	first := b.DrawCalls()[0].Handle

	// Шахматный порядок воды и стекла: все грани видимы
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < 4; z++ {
				id := block.WaterBlockID
				if (x+y+z)%2 == 1 {
					id = block.GlassBlockID
				}
				m.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, id)
			}
		}
	}
	b.ResetFrame()
	drawn := m.DrawTransparent(b, cam)
	require.Greater(t, drawn*6, 6144)

	calls := b.DrawCalls()
	require.Len(t, calls, 1)
	assert.NotEqual(t, first, calls[0].Handle)
	assert.Equal(t, 2, b.Recreate)
	assert.Equal(t, 1, b.Unloads, "старый буфер освобожден")

	capacity := b.Capacity(calls[0].Handle)
	assert.GreaterOrEqual(t, capacity, drawn*6)
	assert.Zero(t, capacity%6144)
	assert.Less(t, capacity/2, drawn*6, "емкость растет удвоением")
}

func TestDrawTransparentWithoutFaces(t *testing.T) {
	m := newTestMap(t)
	m.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID)
	b := render.NewMemoryBackend()
	assert.Equal(t, 0, m.DrawTransparent(b, NewCamera(mgl32.Vec3{1, 1, -10}, mgl32.Vec3{1, 1, 1})))
	assert.Empty(t, b.DrawCalls())
	assert.Equal(t, 0, b.Recreate)
}

func TestReleaseFreesMeshes(t *testing.T) {
	m := newTestMap(t)
	m.SetBlock(vec.Vec3{X: 8, Y: 8, Z: 8}, block.StoneBlockID)
	m.SetBlock(vec.Vec3{X: 9, Y: 8, Z: 8}, block.GlassBlockID)
	b := render.NewMemoryBackend()
	cam := NewCamera(mgl32.Vec3{8, 8, -20}, mgl32.Vec3{8, 8, 8})
	m.Draw(b, cam)
	m.DrawTransparent(b, cam)
	require.Equal(t, 3, b.LiveMeshes())

	m.Release(b)
	assert.Equal(t, 0, b.LiveMeshes())
}

func TestStats(t *testing.T) {
	m := newTestMap(t)
	m.SetBlock(vec.Vec3{X: 1}, block.StoneBlockID)
	m.SetBlock(vec.Vec3{X: 17}, block.StoneBlockID)
	m.MarkNeedsRelighting()

	s := m.Stats()
	assert.Equal(t, 2, s.Chunks)
	assert.Equal(t, 2, s.NonAirBlocks)
	assert.Equal(t, 2, s.DirtyChunks)
	assert.Equal(t, 2, s.NeedsRelighting)
}
