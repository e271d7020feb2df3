package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB ограничивающий параллелепипед, выровненный по осям
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB возвращает «вывернутый» объем, нейтральный для Union
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty сообщает, что объем не содержит ни одной точки
func (a AABB) IsEmpty() bool {
	return a.Min[0] > a.Max[0] || a.Min[1] > a.Max[1] || a.Min[2] > a.Max[2]
}

// Union объединяет два объема
func (a AABB) Union(b AABB) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = float32(math.Min(float64(a.Min[i]), float64(b.Min[i])))
		a.Max[i] = float32(math.Max(float64(a.Max[i]), float64(b.Max[i])))
	}
	return a
}

// Offset сдвигает объем
func (a AABB) Offset(d mgl32.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Center возвращает центр объема
func (a AABB) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Camera перспективная камера
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // в градусах
	Aspect   float32
	Near     float32
	Far      float32
}

// NewCamera создает камеру со стандартными параметрами проекции
func NewCamera(position, target mgl32.Vec3) Camera {
	return Camera{
		Position: position,
		Target:   target,
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     70,
		Aspect:   16.0 / 9.0,
		Near:     0.01,
		Far:      1000,
	}
}

// ViewProjection возвращает произведение матриц проекции и вида
func (c Camera) ViewProjection() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
	view := mgl32.LookAtV(c.Position, c.Target, c.Up)
	return proj.Mul4(view)
}

// Frustum шесть плоскостей пирамиды видимости в виде (a, b, c, d): ax+by+cz+d >= 0 внутри
type Frustum struct {
	Planes [6]mgl32.Vec4
	CamPos mgl32.Vec3
}

// NewFrustum извлекает плоскости из матрицы вида-проекции камеры
func NewFrustum(cam Camera) Frustum {
	return FrustumFromMatrix(cam.ViewProjection(), cam.Position)
}

// FrustumFromMatrix извлекает плоскости из произвольной матрицы вида-проекции
func FrustumFromMatrix(vp mgl32.Mat4, camPos mgl32.Vec3) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	f := Frustum{
		Planes: [6]mgl32.Vec4{
			r3.Add(r0), // левая
			r3.Sub(r0), // правая
			r3.Add(r1), // нижняя
			r3.Sub(r1), // верхняя
			r3.Add(r2), // ближняя
			r3.Sub(r2), // дальняя
		},
		CamPos: camPos,
	}
	for i, p := range f.Planes {
		l := p.Vec3().Len()
		if l > 0 {
			f.Planes[i] = p.Mul(1 / l)
		}
	}
	return f
}

// ContainsAABB проверяет, пересекает ли объем пирамиду видимости.
// Для каждой плоскости берется вершина объема, дальняя вдоль нормали.
func (f *Frustum) ContainsAABB(box AABB) bool {
	for _, p := range f.Planes {
		var v mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p[i] >= 0 {
				v[i] = box.Max[i]
			} else {
				v[i] = box.Min[i]
			}
		}
		if p[0]*v[0]+p[1]*v[1]+p[2]*v[2]+p[3] < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint проверяет точку
func (f *Frustum) ContainsPoint(pt mgl32.Vec3) bool {
	return f.ContainsAABB(AABB{Min: pt, Max: pt})
}
