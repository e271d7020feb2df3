package world

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/annel0/voxelgine/internal/storage"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	calls [][]storage.ChunkData
	err   error
}

func (r *recordingSaver) SaveMap(_ context.Context, chunks []storage.ChunkData) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, chunks)
	return nil
}

func blocksOf(m *ChunkMap) map[vec.Vec3][]block.BlockID {
	out := make(map[vec.Vec3][]block.BlockID)
	for _, c := range m.Chunks() {
		out[c.Coords] = c.Blocks()
	}
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := generatedMap(t)
	src.SetBlock(vec.Vec3{X: -40, Y: -5, Z: 3}, block.BarrelBlockID)
	src.ComputeLighting()

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := newTestMap(t)
	require.NoError(t, dst.Load(&buf))
	assert.Equal(t, blocksOf(src), blocksOf(dst))

	for _, c := range dst.Chunks() {
		assert.Equal(t, 0, c.ChangeCounter(), "загруженный чанк не считается измененным")
		assert.True(t, c.IsDirty())
	}

	// Свет не хранится, но пересчитывается в то же состояние
	dst.ComputeLighting()
	assert.Equal(t, lightSnapshot(src), lightSnapshot(dst))
}

func TestLoadCorruptStream(t *testing.T) {
	m := newTestMap(t)
	err := m.Load(bytes.NewReader([]byte("не gzip")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCorruptStream))
	assert.Equal(t, 0, m.Len())
}

func TestLoadReplacesExistingChunks(t *testing.T) {
	src := newTestMap(t)
	src.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID)
	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := newTestMap(t)
	dst.GetOrCreateChunk(vec.Vec3{}).Fill(block.SandBlockID)
	dst.SetBlock(vec.Vec3{X: 20}, block.SandBlockID)
	require.NoError(t, dst.Load(&buf))

	assert.Equal(t, 2, dst.Len())
	c := dst.GetChunk(vec.Vec3{})
	assert.Equal(t, 1, c.NonAirBlockCount())
	assert.Equal(t, block.StoneBlockID, c.GetBlock(1, 1, 1))
	assert.Equal(t, block.SandBlockID, dst.GetBlock(vec.Vec3{X: 20}))
}

func TestSaveChangedOnlyWritesModifiedChunks(t *testing.T) {
	m := newTestMap(t)
	m.SetBlock(vec.Vec3{X: 1}, block.StoneBlockID)
	m.SetBlock(vec.Vec3{X: 17}, block.StoneBlockID)

	saver := &recordingSaver{}
	require.NoError(t, m.SaveTo(context.Background(), saver))
	require.Len(t, saver.calls, 1)
	assert.Len(t, saver.calls[0], 2)

	n, err := m.SaveChanged(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, saver.calls, 1, "нечего сохранять")

	m.SetBlock(vec.Vec3{X: 18}, block.DirtBlockID)
	n, err = m.SaveChanged(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, saver.calls, 2)
	assert.Equal(t, vec.Vec3{X: 1}, saver.calls[1][0].Coords)

	// При ошибке счетчики не сбрасываются
	m.SetBlock(vec.Vec3{X: 2}, block.DirtBlockID)
	saver.err = errors.New("диск заполнен")
	_, err = m.SaveChanged(context.Background(), saver)
	require.Error(t, err)
	assert.Equal(t, 1, m.GetChunk(vec.Vec3{}).ChangeCounter())
}

func TestChunkStoreRoundTrip(t *testing.T) {
	store, err := storage.OpenInMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	src := generatedMap(t)
	ctx := context.Background()
	require.NoError(t, src.SaveTo(ctx, store))

	dst := newTestMap(t)
	n, err := dst.LoadFrom(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, src.Len(), n)
	assert.Equal(t, blocksOf(src), blocksOf(dst))
}
