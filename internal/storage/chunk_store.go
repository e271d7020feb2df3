package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/annel0/voxelgine/internal/storage")

const (
	chunkPrefix = "chunk:"
	metaKey     = "meta:world"
)

// WorldMeta сведения о сохраненном мире
type WorldMeta struct {
	ID        string    `json:"id"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	SavedAt   time.Time `json:"saved_at"`
	Chunks    int       `json:"chunks"`
}

// ChunkStore хранилище чанков в BadgerDB. Значение ключа chunk:x:y:z -
// RLE-тело чанка в том же формате, что и в потоке карты.
type ChunkStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	log     *logging.Logger
}

// OpenChunkStore открывает хранилище в каталоге dataPath/world
func OpenChunkStore(dataPath string) (*ChunkStore, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openStore(opts, dbPath)
}

// OpenInMemoryStore открывает хранилище без записи на диск
func OpenInMemoryStore() (*ChunkStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openStore(opts, "")
}

func openStore(opts badger.Options, dbPath string) (*ChunkStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &ChunkStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		log:     logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище данных
func (s *ChunkStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	return s.db.Close()
}

func chunkKey(c vec.Vec3) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", chunkPrefix, c.X, c.Y, c.Z))
}

func parseChunkKey(key []byte) (vec.Vec3, error) {
	var c vec.Vec3
	if _, err := fmt.Sscanf(string(key), chunkPrefix+"%d:%d:%d", &c.X, &c.Y, &c.Z); err != nil {
		return c, fmt.Errorf("некорректный ключ '%s': %w", key, err)
	}
	return c, nil
}

// SaveChunk сохраняет типы блоков чанка
func (s *ChunkStore) SaveChunk(ctx context.Context, c ChunkData) error {
	_, span := tracer.Start(ctx, "ChunkStore.SaveChunk")
	defer span.End()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStorageClosed
	}

	body, err := AppendChunk(nil, c.Blocks)
	if err != nil {
		return fmt.Errorf("чанк %v: %w", c.Coords, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(c.Coords), body)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// LoadChunk загружает чанк; отсутствующий чанк дает ErrChunkNotFound
func (s *ChunkStore) LoadChunk(ctx context.Context, coords vec.Vec3) (ChunkData, error) {
	_, span := tracer.Start(ctx, "ChunkStore.LoadChunk")
	defer span.End()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ChunkData{}, ErrStorageClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ChunkData{}, fmt.Errorf("%w: %v", ErrChunkNotFound, coords)
	}
	if err != nil {
		return ChunkData{}, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	blocks, err := DecodeChunk(bytes.NewReader(data))
	if err != nil {
		return ChunkData{}, fmt.Errorf("чанк %v: %w", coords, err)
	}
	return ChunkData{Coords: coords, Blocks: blocks}, nil
}

// DeleteChunk удаляет чанк из хранилища
func (s *ChunkStore) DeleteChunk(coords vec.Vec3) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStorageClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(coords))
	})
}

// SaveMap сохраняет все чанки одним пакетом
func (s *ChunkStore) SaveMap(ctx context.Context, chunks []ChunkData) error {
	_, span := tracer.Start(ctx, "ChunkStore.SaveMap")
	defer span.End()
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStorageClosed
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, c := range chunks {
		// Значение принадлежит пакету до Flush
		body, err := AppendChunk(nil, c.Blocks)
		if err != nil {
			return fmt.Errorf("чанк %v: %w", c.Coords, err)
		}
		if err := wb.Set(chunkKey(c.Coords), body); err != nil {
			return fmt.Errorf("ошибка записи чанка %v: %w", c.Coords, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	s.log.Debug("сохранено %d чанков", len(chunks))
	return nil
}

// LoadMap загружает все сохраненные чанки
func (s *ChunkStore) LoadMap(ctx context.Context) ([]ChunkData, error) {
	_, span := tracer.Start(ctx, "ChunkStore.LoadMap")
	defer span.End()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrStorageClosed
	}

	var chunks []ChunkData
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			coords, err := parseChunkKey(item.Key())
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCorruptStream, err)
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			decoded, err := DecodeChunk(bytes.NewReader(raw))
			if err != nil {
				return fmt.Errorf("чанк %v: %w", coords, err)
			}
			chunks = append(chunks, ChunkData{Coords: coords, Blocks: decoded})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки карты: %w", err)
	}
	span.SetAttributes(attribute.Int("chunks", len(chunks)))
	return chunks, nil
}

// WorldMeta возвращает сведения о мире; ok=false, если мир еще не сохранялся
func (s *ChunkStore) WorldMeta() (meta WorldMeta, ok bool, err error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return meta, false, ErrStorageClosed
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return WorldMeta{}, false, nil
	}
	if err != nil {
		return WorldMeta{}, false, fmt.Errorf("ошибка чтения метаданных мира: %w", err)
	}
	return meta, true, nil
}

// EnsureWorldMeta возвращает сохраненные сведения о мире или создает новые с
// уникальным идентификатором.
func (s *ChunkStore) EnsureWorldMeta(seed int64) (WorldMeta, error) {
	meta, ok, err := s.WorldMeta()
	if err != nil {
		return meta, err
	}
	if ok {
		return meta, nil
	}
	meta = WorldMeta{
		ID:        uuid.NewString(),
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.PutWorldMeta(meta); err != nil {
		return meta, err
	}
	s.log.Info("создан новый мир %s (сид %d)", meta.ID, seed)
	return meta, nil
}

// PutWorldMeta сохраняет сведения о мире
func (s *ChunkStore) PutWorldMeta(meta WorldMeta) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStorageClosed
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaKey), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения метаданных: %w", err)
	}
	return nil
}
