package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/klauspost/compress/gzip"
)

var (
	// ErrCorruptStream поток поврежден: неверная серия, обрыв данных или отрицательный счетчик
	ErrCorruptStream = errors.New("поврежденный поток данных мира")
	// ErrChunkNotFound чанк отсутствует в хранилище
	ErrChunkNotFound = errors.New("чанк не найден")
	// ErrStorageClosed хранилище уже закрыто
	ErrStorageClosed = errors.New("хранилище закрыто")
)

// CellsPerChunk число клеток чанка в линейном порядке x + 16*(y + 16*z)
const CellsPerChunk = vec.ChunkSize * vec.ChunkSize * vec.ChunkSize

// maxPrealloc ограничивает предварительное выделение по счетчику из заголовка
const maxPrealloc = 1 << 12

// ChunkData типы блоков одного чанка; свет не сохраняется
type ChunkData struct {
	Coords vec.Vec3
	Blocks []block.BlockID
}

var order = binary.LittleEndian

// AppendChunk дописывает RLE-представление чанка в dst: пары (uint16 длина серии, uint16 тип)
func AppendChunk(dst []byte, blocks []block.BlockID) ([]byte, error) {
	if len(blocks) != CellsPerChunk {
		return dst, fmt.Errorf("ожидалось %d клеток, получено %d", CellsPerChunk, len(blocks))
	}
	var pair [4]byte
	for i := 0; i < len(blocks); {
		id := blocks[i]
		run := 1
		for i+run < len(blocks) && blocks[i+run] == id && run < 0xFFFF {
			run++
		}
		order.PutUint16(pair[0:], uint16(run))
		order.PutUint16(pair[2:], uint16(id))
		dst = append(dst, pair[:]...)
		i += run
	}
	return dst, nil
}

// EncodeChunk пишет RLE-представление чанка в w
func EncodeChunk(w io.Writer, blocks []block.BlockID) error {
	buf, err := AppendChunk(nil, blocks)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// DecodeChunk читает серии, пока они не покроют ровно 4096 клеток.
// Серия нулевой длины, выход за 4096 клеток и обрыв данных дают ErrCorruptStream.
func DecodeChunk(r io.Reader) ([]block.BlockID, error) {
	blocks := make([]block.BlockID, CellsPerChunk)
	var pair [4]byte
	for filled := 0; filled < CellsPerChunk; {
		if _, err := io.ReadFull(r, pair[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: данные оборвались на клетке %d", ErrCorruptStream, filled)
			}
			return nil, fmt.Errorf("ошибка чтения серии: %w", err)
		}
		run := int(order.Uint16(pair[0:]))
		id := block.BlockID(order.Uint16(pair[2:]))
		if run == 0 {
			return nil, fmt.Errorf("%w: серия нулевой длины на клетке %d", ErrCorruptStream, filled)
		}
		if filled+run > CellsPerChunk {
			return nil, fmt.Errorf("%w: серия длиной %d выходит за пределы чанка на клетке %d", ErrCorruptStream, run, filled)
		}
		for i := 0; i < run; i++ {
			blocks[filled+i] = id
		}
		filled += run
	}
	return blocks, nil
}

// WriteMap пишет сжатый поток: int32 число чанков, затем для каждого
// int32 x, y, z и RLE-тело.
func WriteMap(w io.Writer, chunks []ChunkData) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	if err := binary.Write(bw, order, int32(len(chunks))); err != nil {
		return fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	var body []byte
	for _, c := range chunks {
		header := [3]int32{int32(c.Coords.X), int32(c.Coords.Y), int32(c.Coords.Z)}
		if err := binary.Write(bw, order, header); err != nil {
			return fmt.Errorf("ошибка записи координат чанка %v: %w", c.Coords, err)
		}
		var err error
		body, err = AppendChunk(body[:0], c.Blocks)
		if err != nil {
			return fmt.Errorf("чанк %v: %w", c.Coords, err)
		}
		if _, err := bw.Write(body); err != nil {
			return fmt.Errorf("ошибка записи чанка %v: %w", c.Coords, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ошибка записи потока: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("ошибка завершения сжатия: %w", err)
	}
	return nil
}

// ReadMap читает поток, записанный WriteMap
func ReadMap(r io.Reader) ([]ChunkData, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	defer zr.Close()
	br := bufio.NewReader(zr)

	var count int32
	if err := binary.Read(br, order, &count); err != nil {
		return nil, fmt.Errorf("%w: нет заголовка: %v", ErrCorruptStream, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: отрицательное число чанков %d", ErrCorruptStream, count)
	}

	chunks := make([]ChunkData, 0, min(int(count), maxPrealloc))
	for i := 0; i < int(count); i++ {
		var header [3]int32
		if err := binary.Read(br, order, &header); err != nil {
			return nil, fmt.Errorf("%w: заголовок чанка %d оборван: %v", ErrCorruptStream, i, err)
		}
		coords := vec.Vec3{X: int(header[0]), Y: int(header[1]), Z: int(header[2])}
		blocks, err := DecodeChunk(br)
		if err != nil {
			return nil, fmt.Errorf("чанк %v: %w", coords, err)
		}
		chunks = append(chunks, ChunkData{Coords: coords, Blocks: blocks})
	}
	return chunks, nil
}
