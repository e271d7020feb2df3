package render

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawCall запись об одном вызове отрисовки
type DrawCall struct {
	Handle      MeshHandle
	Position    mgl32.Vec3
	Tint        Color
	VertexCount int
	Blend       BlendMode
	Dynamic     bool
}

type memoryMesh struct {
	geom     Geometry
	material Material
	capacity int
	dynamic  bool
}

// MemoryBackend хранит меши в памяти и записывает вызовы отрисовки.
// Используется в headless-режиме и в тестах.
type MemoryBackend struct {
	mu     sync.Mutex
	nextID MeshHandle
	meshes map[MeshHandle]*memoryMesh
	calls  []DrawCall

	Uploads  int
	Unloads  int
	Updates  int
	Recreate int
}

// NewMemoryBackend создает пустой backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{meshes: make(map[MeshHandle]*memoryMesh)}
}

func (m *MemoryBackend) alloc(mesh *memoryMesh) MeshHandle {
	m.nextID++
	m.meshes[m.nextID] = mesh
	return m.nextID
}

// UploadMesh реализует Backend
func (m *MemoryBackend) UploadMesh(g *Geometry, mat Material) MeshHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads++
	return m.alloc(&memoryMesh{geom: g.Clone(), material: mat})
}

// UnloadMesh реализует Backend
func (m *MemoryBackend) UnloadMesh(h MeshHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.meshes[h]; ok {
		delete(m.meshes, h)
		m.Unloads++
	}
}

// DrawMesh реализует Backend
func (m *MemoryBackend) DrawMesh(h MeshHandle, position mgl32.Vec3, tint Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mesh, ok := m.meshes[h]
	if !ok {
		return
	}
	m.calls = append(m.calls, DrawCall{
		Handle:      h,
		Position:    position,
		Tint:        tint,
		VertexCount: mesh.geom.VertexCount(),
		Blend:       BlendOpaque,
	})
}

// CreateDynamicMesh реализует Backend
func (m *MemoryBackend) CreateDynamicMesh(capacity int, mat Material) MeshHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recreate++
	return m.alloc(&memoryMesh{material: mat, capacity: capacity, dynamic: true})
}

// UpdateDynamicMesh реализует Backend
func (m *MemoryBackend) UpdateDynamicMesh(h MeshHandle, g *Geometry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mesh, ok := m.meshes[h]
	if !ok || !mesh.dynamic {
		return
	}
	if g.VertexCount() > mesh.capacity {
		panic("render: dynamic mesh overflow")
	}
	mesh.geom = g.Clone()
	m.Updates++
}

// DrawDynamicMesh реализует Backend
func (m *MemoryBackend) DrawDynamicMesh(h MeshHandle, vertexCount int, blend BlendMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.meshes[h]; !ok {
		return
	}
	m.calls = append(m.calls, DrawCall{
		Handle:      h,
		VertexCount: vertexCount,
		Blend:       blend,
		Dynamic:     true,
	})
}

// DrawCalls возвращает копию журнала вызовов отрисовки
func (m *MemoryBackend) DrawCalls() []DrawCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DrawCall(nil), m.calls...)
}

// ResetFrame очищает журнал вызовов
func (m *MemoryBackend) ResetFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = m.calls[:0]
}

// Geometry возвращает копию содержимого меша
func (m *MemoryBackend) Geometry(h MeshHandle) (Geometry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mesh, ok := m.meshes[h]
	if !ok {
		return Geometry{}, false
	}
	return mesh.geom.Clone(), true
}

// Capacity возвращает емкость динамического меша
func (m *MemoryBackend) Capacity(h MeshHandle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mesh, ok := m.meshes[h]; ok {
		return mesh.capacity
	}
	return 0
}

// LiveMeshes возвращает число загруженных мешей
func (m *MemoryBackend) LiveMeshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.meshes)
}
