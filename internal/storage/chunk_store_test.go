package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
)

func setupTestStorage(t *testing.T) (*ChunkStore, string) {
	// Создаем временную директорию для тестов
	tempDir, err := os.MkdirTemp("", "chunk-store-test")
	if err != nil {
		t.Fatalf("Не удалось создать временную директорию: %v", err)
	}

	// Инициализируем хранилище
	store, err := OpenChunkStore(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}

	return store, tempDir
}

func cleanupTestStorage(store *ChunkStore, tempDir string) {
	if store != nil {
		store.Close()
	}
	if tempDir != "" {
		os.RemoveAll(tempDir)
	}
}

func testChunk(coords vec.Vec3) ChunkData {
	blocks := make([]block.BlockID, CellsPerChunk)
	for i := range blocks {
		if i%7 == 0 {
			blocks[i] = block.StoneBlockID
		}
	}
	blocks[CellsPerChunk-1] = block.GlowstoneBlockID
	return ChunkData{Coords: coords, Blocks: blocks}
}

func equalBlocks(a, b []block.BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSaveAndLoadChunk(t *testing.T) {
	store, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(store, tempDir)
	ctx := context.Background()

	// Создаем тестовый чанк с отрицательными координатами
	chunk := testChunk(vec.Vec3{X: -3, Y: 2, Z: -10})

	if err := store.SaveChunk(ctx, chunk); err != nil {
		t.Fatalf("Ошибка сохранения чанка: %v", err)
	}

	loaded, err := store.LoadChunk(ctx, chunk.Coords)
	if err != nil {
		t.Fatalf("Ошибка загрузки чанка: %v", err)
	}
	if loaded.Coords != chunk.Coords {
		t.Errorf("Неверные координаты: %v, ожидалось %v", loaded.Coords, chunk.Coords)
	}
	if !equalBlocks(loaded.Blocks, chunk.Blocks) {
		t.Errorf("Блоки загруженного чанка не совпадают с сохраненными")
	}
}

func TestLoadMissingChunk(t *testing.T) {
	store, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(store, tempDir)

	_, err := store.LoadChunk(context.Background(), vec.Vec3{X: 1})
	if !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("Ожидалась ErrChunkNotFound, получено: %v", err)
	}
}

func TestDeleteChunk(t *testing.T) {
	store, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(store, tempDir)
	ctx := context.Background()

	chunk := testChunk(vec.Vec3{Y: 4})
	if err := store.SaveChunk(ctx, chunk); err != nil {
		t.Fatalf("Ошибка сохранения чанка: %v", err)
	}
	if err := store.DeleteChunk(chunk.Coords); err != nil {
		t.Fatalf("Ошибка удаления чанка: %v", err)
	}
	if _, err := store.LoadChunk(ctx, chunk.Coords); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("Чанк должен быть удален, получено: %v", err)
	}
}

func TestSaveAndLoadMap(t *testing.T) {
	store, err := OpenInMemoryStore()
	if err != nil {
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	chunks := []ChunkData{
		testChunk(vec.Vec3{}),
		testChunk(vec.Vec3{X: -1, Y: -1, Z: -1}),
		testChunk(vec.Vec3{X: 100, Z: 7}),
	}
	chunks[1].Blocks[0] = block.WaterBlockID

	if err := store.SaveMap(ctx, chunks); err != nil {
		t.Fatalf("Ошибка сохранения карты: %v", err)
	}
	// Метаданные не должны попадать в выборку чанков
	if _, err := store.EnsureWorldMeta(5); err != nil {
		t.Fatalf("Ошибка записи метаданных: %v", err)
	}

	loaded, err := store.LoadMap(ctx)
	if err != nil {
		t.Fatalf("Ошибка загрузки карты: %v", err)
	}
	if len(loaded) != len(chunks) {
		t.Fatalf("Загружено %d чанков, ожидалось %d", len(loaded), len(chunks))
	}

	byCoords := make(map[vec.Vec3]ChunkData)
	for _, c := range loaded {
		byCoords[c.Coords] = c
	}
	for _, want := range chunks {
		got, ok := byCoords[want.Coords]
		if !ok {
			t.Errorf("Чанк %v не загружен", want.Coords)
			continue
		}
		if !equalBlocks(got.Blocks, want.Blocks) {
			t.Errorf("Блоки чанка %v не совпадают", want.Coords)
		}
	}
}

func TestWorldMeta(t *testing.T) {
	store, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(store, tempDir)

	if _, ok, err := store.WorldMeta(); err != nil || ok {
		t.Fatalf("Новое хранилище не должно содержать метаданных: ok=%v, err=%v", ok, err)
	}

	meta, err := store.EnsureWorldMeta(42)
	if err != nil {
		t.Fatalf("Ошибка создания метаданных: %v", err)
	}
	if meta.ID == "" || meta.Seed != 42 {
		t.Errorf("Неверные метаданные: %+v", meta)
	}

	// Повторный вызов возвращает тот же мир даже с другим сидом
	again, err := store.EnsureWorldMeta(7)
	if err != nil {
		t.Fatalf("Ошибка чтения метаданных: %v", err)
	}
	if again.ID != meta.ID || again.Seed != 42 {
		t.Errorf("Метаданные изменились: %+v, ожидалось %+v", again, meta)
	}

	again.Chunks = 12
	if err := store.PutWorldMeta(again); err != nil {
		t.Fatalf("Ошибка записи метаданных: %v", err)
	}
	stored, ok, err := store.WorldMeta()
	if err != nil || !ok || stored.Chunks != 12 {
		t.Errorf("Неверные сохраненные метаданные: %+v, ok=%v, err=%v", stored, ok, err)
	}
}

func TestClosedStore(t *testing.T) {
	store, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(nil, tempDir)

	if err := store.Close(); err != nil {
		t.Fatalf("Ошибка закрытия хранилища: %v", err)
	}
	// Повторное закрытие безопасно
	if err := store.Close(); err != nil {
		t.Fatalf("Повторное закрытие вернуло ошибку: %v", err)
	}

	ctx := context.Background()
	if err := store.SaveChunk(ctx, testChunk(vec.Vec3{})); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("SaveChunk: ожидалась ErrStorageClosed, получено %v", err)
	}
	if _, err := store.LoadMap(ctx); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("LoadMap: ожидалась ErrStorageClosed, получено %v", err)
	}
	if _, _, err := store.WorldMeta(); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("WorldMeta: ожидалась ErrStorageClosed, получено %v", err)
	}
}
