package world

import (
	"github.com/annel0/voxelgine/internal/render"
)

// RecalcModel перестраивает меши, если чанк грязный. Возвращает true при перестройке.
func (c *Chunk) RecalcModel() bool {
	return c.ensureMeshes(c.world.cameraView())
}

func (c *Chunk) ensureMeshes(cam cameraView) bool {
	if c.meshValid && !c.dirty.Load() {
		return false
	}
	c.dirty.Store(false)

	c.buildPaddedCache()
	c.opaque, c.opaqueFaces = c.genOpaqueMesh(cam)
	c.transparent, c.faces = c.genTransparentMesh()

	c.bounds = EmptyAABB()
	if min, max, ok := c.opaque.Bounds(); ok {
		c.bounds = c.bounds.Union(AABB{Min: min, Max: max})
	}
	if min, max, ok := c.transparent.Bounds(); ok {
		c.bounds = c.bounds.Union(AABB{Min: min, Max: max})
	}

	c.meshValid = true
	c.uploadedMeshes = false
	c.world.observer.MeshRebuilt(c.opaqueFaces, len(c.faces))
	return true
}

// OpaqueGeometry возвращает актуальный меш непрозрачных блоков (координаты чанка)
func (c *Chunk) OpaqueGeometry() *render.Geometry {
	c.RecalcModel()
	return &c.opaque
}

// TransparentGeometry возвращает актуальный меш полупрозрачных блоков
func (c *Chunk) TransparentGeometry() *render.Geometry {
	c.RecalcModel()
	return &c.transparent
}

// TransparentFaces возвращает грани для глобальной сортировки (мировые координаты)
func (c *Chunk) TransparentFaces() []TransparentFace {
	c.RecalcModel()
	return c.faces
}

// OpaqueFaceCount возвращает число процедурных непрозрачных граней
func (c *Chunk) OpaqueFaceCount() int {
	c.RecalcModel()
	return c.opaqueFaces
}

// AABB возвращает ограничивающий объем геометрии в мировых координатах.
// ok=false, если рисовать нечего.
func (c *Chunk) AABB() (AABB, bool) {
	c.RecalcModel()
	if c.bounds.IsEmpty() {
		return c.bounds, false
	}
	return c.bounds.Offset(c.Origin().Vec3f()), true
}

// upload выгружает перестроенные меши в backend, освобождая старые
func (c *Chunk) upload(b render.Backend) {
	if c.uploadedMeshes {
		return
	}
	c.Release(b)
	if !c.opaque.Empty() {
		c.opaqueHandle = b.UploadMesh(&c.opaque, render.DefaultMaterial)
	}
	if !c.transparent.Empty() {
		c.transpHandle = b.UploadMesh(&c.transparent, render.DefaultMaterial)
	}
	c.uploadedMeshes = true
}

// Release освобождает меши чанка в backend
func (c *Chunk) Release(b render.Backend) {
	if c.opaqueHandle != 0 {
		b.UnloadMesh(c.opaqueHandle)
		c.opaqueHandle = 0
	}
	if c.transpHandle != 0 {
		b.UnloadMesh(c.transpHandle)
		c.transpHandle = 0
	}
	c.uploadedMeshes = false
}

// draw рисует непрозрачный меш, если он пересекает пирамиду видимости.
// visible сообщает результат отсечения, drawn - был ли вызов отрисовки.
func (c *Chunk) draw(b render.Backend, fr *Frustum) (visible, drawn bool) {
	box, ok := c.AABB()
	if !ok || !fr.ContainsAABB(box) {
		return false, false
	}
	c.upload(b)
	if c.opaqueHandle == 0 {
		return true, false
	}
	b.DrawMesh(c.opaqueHandle, c.Origin().Vec3f(), render.White)
	return true, true
}

// visible проверяет чанк на попадание в пирамиду видимости
func (c *Chunk) visible(fr *Frustum) bool {
	box, ok := c.AABB()
	return ok && fr.ContainsAABB(box)
}
