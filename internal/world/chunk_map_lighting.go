package world

import (
	"context"
	"runtime"
	"time"

	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/annel0/voxelgine/internal/world")

// lightPhases число фаз освещения: по одной на каждую комбинацию четностей координат
const lightPhases = 8

// lightPhase возвращает номер фазы чанка. Чанки одной фазы отстоят друг от
// друга минимум на 2 по каждой оси, в которой различаются, поэтому их записи
// в соседей (радиус 1 клетка) не пересекаются.
func lightPhase(c vec.Vec3) int {
	return vec.Parity(c.X) + vec.Parity(c.Y)*2 + vec.Parity(c.Z)*4
}

// ComputeLighting пересчитывает свет всех чанков в 8 параллельных фазах
func (m *ChunkMap) ComputeLighting() {
	m.ComputeLightingContext(context.Background())
}

// ComputeLightingContext то же, что ComputeLighting, с трассировкой от ctx.
// Отмена ctx не прерывает расчет.
func (m *ChunkMap) ComputeLightingContext(ctx context.Context) {
	m.relight(ctx, m.Chunks(), true)
}

// ComputeLightingSequential выполняет те же фазы в одном потоке
func (m *ChunkMap) ComputeLightingSequential() {
	m.relight(context.Background(), m.Chunks(), false)
}

// ComputeLightingNear пересчитывает свет чанков в радиусе отрисовки от pos,
// остальные помечаются для отложенного пересчета в Draw.
func (m *ChunkMap) ComputeLightingNear(pos mgl32.Vec3) {
	var near []*Chunk
	for _, c := range m.Chunks() {
		if m.inRange(c, pos) {
			near = append(near, c)
		} else {
			c.needsRelighting = true
		}
	}
	m.relight(context.Background(), near, true)
}

// MarkNeedsRelighting откладывает пересчет света всех чанков до их появления в радиусе отрисовки
func (m *ChunkMap) MarkNeedsRelighting() {
	for _, c := range m.Chunks() {
		c.needsRelighting = true
	}
}

func (m *ChunkMap) workers() int {
	if m.opts.Workers > 0 {
		return m.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// relight сбрасывает свет переданных чанков и распространяет его по фазам.
// Между фазами полный барьер. Затем чанки, которым соседи дописали свет на
// границу, досчитываются раундами (тоже по фазам), пока запись через границу
// что-то улучшает.
func (m *ChunkMap) relight(ctx context.Context, chunks []*Chunk, parallel bool) {
	if len(chunks) == 0 {
		return
	}
	_, span := tracer.Start(ctx, "ChunkMap.ComputeLighting")
	defer span.End()

	start := time.Now()
	for _, c := range m.Chunks() {
		c.borderLit.Store(false)
	}
	var phases [lightPhases][]*Chunk
	for _, c := range chunks {
		c.ResetLighting()
		c.needsRelighting = false
		p := lightPhase(c.Coords)
		phases[p] = append(phases[p], c)
	}
	m.runPhases(&phases, parallel, (*Chunk).propagateLight)

	rounds := 0
	for {
		var pending [lightPhases][]*Chunk
		n := 0
		for _, c := range m.Chunks() {
			if c.borderLit.Swap(false) {
				p := lightPhase(c.Coords)
				pending[p] = append(pending[p], c)
				n++
			}
		}
		if n == 0 {
			break
		}
		rounds++
		m.runPhases(&pending, parallel, (*Chunk).relaxFromBorder)
	}

	for _, c := range chunks {
		c.MarkDirty()
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int("chunks", len(chunks)),
		attribute.Int("border_rounds", rounds),
		attribute.Bool("parallel", parallel),
	)
	m.lastLighting = elapsed
	m.observer.LightingDone(len(chunks), elapsed)
	if m.log.Enabled(logging.DEBUG) {
		m.log.Debug("освещение пересчитано: %d чанков, %d раундов досчета за %v (параллельно: %v)", len(chunks), rounds, elapsed, parallel)
	}
}

// runPhases выполняет fn для чанков фаза за фазой
func (m *ChunkMap) runPhases(phases *[lightPhases][]*Chunk, parallel bool, fn func(*Chunk)) {
	for p := range phases {
		if !parallel {
			for _, c := range phases[p] {
				fn(c)
			}
			continue
		}
		var g errgroup.Group
		g.SetLimit(m.workers())
		for _, c := range phases[p] {
			c := c
			g.Go(func() error {
				fn(c)
				return nil
			})
		}
		_ = g.Wait()
	}
}
