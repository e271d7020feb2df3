package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFrustumContainsPoint(t *testing.T) {
	fr := NewFrustum(NewCamera(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}))

	assert.True(t, fr.ContainsPoint(mgl32.Vec3{0, 0, -10}))
	assert.True(t, fr.ContainsPoint(mgl32.Vec3{1, 1, -10}))
	assert.False(t, fr.ContainsPoint(mgl32.Vec3{0, 0, 10}), "позади камеры")
	assert.False(t, fr.ContainsPoint(mgl32.Vec3{0, 0, -2000}), "дальше дальней плоскости")
	assert.False(t, fr.ContainsPoint(mgl32.Vec3{1000, 0, -10}), "правее пирамиды")
	assert.False(t, fr.ContainsPoint(mgl32.Vec3{0, -1000, -10}), "ниже пирамиды")
}

func TestFrustumContainsAABB(t *testing.T) {
	fr := NewFrustum(NewCamera(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}))

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"целиком внутри", AABB{Min: mgl32.Vec3{-1, -1, -12}, Max: mgl32.Vec3{1, 1, -10}}, true},
		{"вокруг камеры", AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, true},
		{"пересекает боковую плоскость", AABB{Min: mgl32.Vec3{5, -1, -11}, Max: mgl32.Vec3{500, 1, -10}}, true},
		{"позади", AABB{Min: mgl32.Vec3{-1, -1, 5}, Max: mgl32.Vec3{1, 1, 6}}, false},
		{"сбоку", AABB{Min: mgl32.Vec3{200, -1, -11}, Max: mgl32.Vec3{210, 1, -10}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fr.ContainsAABB(tt.box))
		})
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{3, 40, -7}, mgl32.Vec3{20, 10, 30})
	fr := NewFrustum(cam)
	for i, p := range fr.Planes {
		assert.InDelta(t, 1.0, p.Vec3().Len(), 1e-4, "плоскость %d", i)
	}
	assert.Equal(t, cam.Position, fr.CamPos)
	assert.True(t, fr.ContainsPoint(cam.Target))
}

func TestAABBHelpers(t *testing.T) {
	e := EmptyAABB()
	assert.True(t, e.IsEmpty())

	a := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 2, 3}}
	assert.Equal(t, a, e.Union(a))

	b := a.Union(AABB{Min: mgl32.Vec3{-1, 1, 1}, Max: mgl32.Vec3{0, 5, 2}})
	assert.Equal(t, AABB{Min: mgl32.Vec3{-1, 0, 0}, Max: mgl32.Vec3{1, 5, 3}}, b)
	assert.Equal(t, mgl32.Vec3{0, 2.5, 1.5}, b.Center())
	assert.Equal(t, AABB{Min: mgl32.Vec3{16, 0, 0}, Max: mgl32.Vec3{17, 2, 3}}, a.Offset(mgl32.Vec3{16, 0, 0}))
}
