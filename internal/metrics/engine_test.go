package metrics

import (
	"testing"
	"time"

	"github.com/annel0/voxelgine/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverCallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	em := NewEngineMetrics(reg)

	em.LightingDone(12, 30*time.Millisecond)
	em.LightingDone(3, 10*time.Millisecond)
	assert.Equal(t, float64(15), testutil.ToFloat64(em.lightingChunks))
	assert.Equal(t, 1, testutil.CollectAndCount(em.lightingDuration))

	em.MeshRebuilt(100, 4)
	em.MeshRebuilt(50, 0)
	assert.Equal(t, float64(2), testutil.ToFloat64(em.meshRebuilds))
	assert.Equal(t, float64(150), testutil.ToFloat64(em.meshFaces.WithLabelValues("opaque")))
	assert.Equal(t, float64(4), testutil.ToFloat64(em.meshFaces.WithLabelValues("transparent")))

	em.FrameDrawn(world.DrawStats{Visible: 7, Culled: 2, DrawCalls: 6, TransparentFaces: 40})
	em.FrameDrawn(world.DrawStats{Visible: 5, Culled: 4, DrawCalls: 5})
	assert.Equal(t, float64(2), testutil.ToFloat64(em.frames))
	assert.Equal(t, float64(11), testutil.ToFloat64(em.drawCalls))
	assert.Equal(t, float64(5), testutil.ToFloat64(em.visibleChunks))
	assert.Equal(t, float64(4), testutil.ToFloat64(em.culledChunks))
	assert.Equal(t, float64(0), testutil.ToFloat64(em.transparentFaces))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

type fixedStats struct{ s world.MapStats }

func (f fixedStats) Stats() world.MapStats { return f.s }

func TestUpdateLoop(t *testing.T) {
	em := NewEngineMetrics(prometheus.NewRegistry())
	em.StartHTTP("127.0.0.1:0", fixedStats{world.MapStats{Chunks: 9, DirtyChunks: 2, NonAirBlocks: 500}}, 5*time.Millisecond)
	defer em.Stop()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(em.loadedChunks) == 9
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(2), testutil.ToFloat64(em.dirtyChunks))
	assert.Equal(t, float64(500), testutil.ToFloat64(em.nonAirBlocks))
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewEngineMetrics(reg)
	assert.Panics(t, func() { NewEngineMetrics(reg) })
}
