package world

import (
	"context"
	"fmt"
	"io"

	"github.com/annel0/voxelgine/internal/storage"
)

// ChunkSaver принимает снимок типов блоков карты
type ChunkSaver interface {
	SaveMap(ctx context.Context, chunks []storage.ChunkData) error
}

// ChunkLoader отдает сохраненные чанки
type ChunkLoader interface {
	LoadMap(ctx context.Context) ([]storage.ChunkData, error)
}

// Snapshot возвращает типы блоков всех чанков в порядке Chunks()
func (m *ChunkMap) Snapshot() []storage.ChunkData {
	chunks := m.Chunks()
	out := make([]storage.ChunkData, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, storage.ChunkData{Coords: c.Coords, Blocks: c.Blocks()})
	}
	return out
}

// Restore добавляет чанки из снимка, заменяя существующие с теми же координатами.
// Свет не восстанавливается: после загрузки нужен ComputeLighting.
func (m *ChunkMap) Restore(chunks []storage.ChunkData) {
	for _, data := range chunks {
		c := m.GetOrCreateChunk(data.Coords)
		c.SetBlocks(data.Blocks)
		c.ClearChanges()
	}
	for _, c := range m.Chunks() {
		c.InvalidateSkyExposure()
		c.MarkDirty()
	}
}

// Save пишет карту в сжатый поток
func (m *ChunkMap) Save(w io.Writer) error {
	if err := storage.WriteMap(w, m.Snapshot()); err != nil {
		return fmt.Errorf("ошибка сохранения карты: %w", err)
	}
	return nil
}

// Load читает карту из сжатого потока
func (m *ChunkMap) Load(r io.Reader) error {
	chunks, err := storage.ReadMap(r)
	if err != nil {
		return fmt.Errorf("ошибка загрузки карты: %w", err)
	}
	m.Restore(chunks)
	m.log.Info("загружено %d чанков", len(chunks))
	return nil
}

// SaveTo сохраняет карту в хранилище
func (m *ChunkMap) SaveTo(ctx context.Context, s ChunkSaver) error {
	ctx, span := tracer.Start(ctx, "ChunkMap.SaveTo")
	defer span.End()
	if err := s.SaveMap(ctx, m.Snapshot()); err != nil {
		return err
	}
	for _, c := range m.Chunks() {
		c.ClearChanges()
	}
	return nil
}

// SaveChanged сохраняет только чанки, измененные после последнего сохранения.
// Возвращает число сохраненных чанков.
func (m *ChunkMap) SaveChanged(ctx context.Context, s ChunkSaver) (int, error) {
	ctx, span := tracer.Start(ctx, "ChunkMap.SaveChanged")
	defer span.End()

	var changed []*Chunk
	var data []storage.ChunkData
	for _, c := range m.Chunks() {
		if c.ChangeCounter() == 0 {
			continue
		}
		changed = append(changed, c)
		data = append(data, storage.ChunkData{Coords: c.Coords, Blocks: c.Blocks()})
	}
	if len(data) == 0 {
		return 0, nil
	}
	if err := s.SaveMap(ctx, data); err != nil {
		return 0, err
	}
	for _, c := range changed {
		c.ClearChanges()
	}
	return len(changed), nil
}

// LoadFrom загружает карту из хранилища
func (m *ChunkMap) LoadFrom(ctx context.Context, s ChunkLoader) (int, error) {
	ctx, span := tracer.Start(ctx, "ChunkMap.LoadFrom")
	defer span.End()
	chunks, err := s.LoadMap(ctx)
	if err != nil {
		return 0, err
	}
	m.Restore(chunks)
	return len(chunks), nil
}
