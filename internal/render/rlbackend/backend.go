// Package rlbackend реализует render.Backend поверх raylib.
package rlbackend

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/annel0/voxelgine/internal/render"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

type mesh struct {
	mesh     rl.Mesh
	material rl.Material
	capacity int
	dynamic  bool
}

// Backend хранит меши чанков в видеопамяти raylib.
// Должен использоваться только из потока, владеющего OpenGL контекстом.
type Backend struct {
	nextID   render.MeshHandle
	meshes   map[render.MeshHandle]*mesh
	textures map[string]rl.Texture2D
	shaders  map[string]rl.Shader
	// материалы общие для всех мешей с одинаковыми ресурсами
	materials map[render.Material]rl.Material
}

// New создает backend. Окно raylib уже должно быть открыто.
func New() *Backend {
	return &Backend{
		meshes:    make(map[render.MeshHandle]*mesh),
		textures:  make(map[string]rl.Texture2D),
		shaders:   make(map[string]rl.Shader),
		materials: make(map[render.Material]rl.Material),
	}
}

// RegisterTexture связывает имя ресурса с загруженной текстурой.
// Регистрировать ресурсы нужно до загрузки первого меша.
func (b *Backend) RegisterTexture(name string, tex rl.Texture2D) {
	b.textures[name] = tex
}

// RegisterShader связывает имя ресурса с загруженным шейдером
func (b *Backend) RegisterShader(name string, sh rl.Shader) {
	b.shaders[name] = sh
}

func (b *Backend) material(mat render.Material) rl.Material {
	if m, ok := b.materials[mat]; ok {
		return m
	}
	m := rl.LoadMaterialDefault()
	if tex, ok := b.textures[mat.Texture]; ok {
		rl.SetMaterialTexture(&m, rl.MapDiffuse, tex)
	}
	if sh, ok := b.shaders[mat.Shader]; ok {
		m.Shader = sh
	}
	b.materials[mat] = m
	return m
}

func (b *Backend) alloc(m *mesh) render.MeshHandle {
	b.nextID++
	b.meshes[b.nextID] = m
	return b.nextID
}

// UploadMesh реализует render.Backend
func (b *Backend) UploadMesh(g *render.Geometry, mat render.Material) render.MeshHandle {
	m := geometryToMesh(g)
	rl.UploadMesh(&m, false)
	return b.alloc(&mesh{mesh: m, material: b.material(mat)})
}

// UnloadMesh реализует render.Backend
func (b *Backend) UnloadMesh(h render.MeshHandle) {
	m, ok := b.meshes[h]
	if !ok {
		return
	}
	// raylib освобождает и видеобуферы, и выделенные через malloc массивы
	rl.UnloadMesh(&m.mesh)
	delete(b.meshes, h)
}

// DrawMesh реализует render.Backend
func (b *Backend) DrawMesh(h render.MeshHandle, position mgl32.Vec3, tint render.Color) {
	m, ok := b.meshes[h]
	if !ok {
		return
	}
	m.material.GetMap(rl.MapDiffuse).Color = rl.NewColor(tint.R, tint.G, tint.B, tint.A)
	rl.DrawMesh(m.mesh, m.material, rl.MatrixTranslate(position[0], position[1], position[2]))
}

// CreateDynamicMesh реализует render.Backend
func (b *Backend) CreateDynamicMesh(capacity int, mat render.Material) render.MeshHandle {
	g := render.Geometry{
		Vertices: make([]float32, capacity*3),
		Normals:  make([]float32, capacity*3),
		UVs:      make([]float32, capacity*2),
		Colors:   make([]uint8, capacity*4),
	}
	m := geometryToMesh(&g)
	rl.UploadMesh(&m, true)
	return b.alloc(&mesh{mesh: m, material: b.material(mat), capacity: capacity, dynamic: true})
}

// UpdateDynamicMesh реализует render.Backend
func (b *Backend) UpdateDynamicMesh(h render.MeshHandle, g *render.Geometry) {
	m, ok := b.meshes[h]
	if !ok || !m.dynamic || g.Empty() {
		return
	}
	if g.VertexCount() > m.capacity {
		panic("rlbackend: dynamic mesh overflow")
	}
	// Индексы буферов raylib: 0 позиции, 1 UV, 2 нормали, 3 цвета
	rl.UpdateMeshBuffer(m.mesh, 0, floatBytes(g.Vertices), 0)
	rl.UpdateMeshBuffer(m.mesh, 1, floatBytes(g.UVs), 0)
	rl.UpdateMeshBuffer(m.mesh, 2, floatBytes(g.Normals), 0)
	rl.UpdateMeshBuffer(m.mesh, 3, g.Colors, 0)
}

// DrawDynamicMesh реализует render.Backend
func (b *Backend) DrawDynamicMesh(h render.MeshHandle, vertexCount int, blend render.BlendMode) {
	m, ok := b.meshes[h]
	if !ok || vertexCount <= 0 {
		return
	}
	if vertexCount > m.capacity {
		vertexCount = m.capacity
	}
	part := m.mesh
	part.VertexCount = int32(vertexCount)
	part.TriangleCount = int32(vertexCount / 3)

	if blend == render.BlendAlpha {
		rl.BeginBlendMode(rl.BlendAlpha)
		defer rl.EndBlendMode()
	}
	m.material.GetMap(rl.MapDiffuse).Color = rl.White
	rl.DrawMesh(part, m.material, rl.MatrixIdentity())
}

// Close выгружает все меши и зарегистрированные ресурсы
func (b *Backend) Close() {
	for h := range b.meshes {
		b.UnloadMesh(h)
	}
	for _, tex := range b.textures {
		rl.UnloadTexture(tex)
	}
	for _, sh := range b.shaders {
		rl.UnloadShader(sh)
	}
}

func geometryToMesh(g *render.Geometry) rl.Mesh {
	var m rl.Mesh
	n := int32(g.VertexCount())
	m.VertexCount = n
	m.TriangleCount = n / 3
	if len(g.Vertices) > 0 {
		m.Vertices = (*float32)(copyToC(unsafe.Pointer(&g.Vertices[0]), len(g.Vertices)*4))
	}
	if len(g.Normals) > 0 {
		m.Normals = (*float32)(copyToC(unsafe.Pointer(&g.Normals[0]), len(g.Normals)*4))
	}
	if len(g.Colors) > 0 {
		m.Colors = (*uint8)(copyToC(unsafe.Pointer(&g.Colors[0]), len(g.Colors)))
	}
	if len(g.UVs) > 0 {
		m.Texcoords = (*float32)(copyToC(unsafe.Pointer(&g.UVs[0]), len(g.UVs)*4))
	}
	return m
}

// copyToC копирует буфер в память C, которой затем владеет raylib
func copyToC(data unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 || data == nil {
		return nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil
	}
	copy(unsafe.Slice((*byte)(ptr), size), unsafe.Slice((*byte)(data), size))
	return ptr
}

func floatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}

var _ render.Backend = (*Backend)(nil)
