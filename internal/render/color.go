package render

// Color RGBA-цвет вершины, 8 бит на канал
type Color struct {
	R, G, B, A uint8
}

var (
	White = Color{255, 255, 255, 255}
	Black = Color{0, 0, 0, 255}
)

// Gray возвращает оттенок серого для яркости f в диапазоне 0..1
func Gray(f float32) Color {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	v := uint8(f*255 + 0.5)
	return Color{v, v, v, 255}
}

// Mul покомпонентно перемножает цвета в нормализованном пространстве
func (c Color) Mul(o Color) Color {
	return Color{
		R: mul8(c.R, o.R),
		G: mul8(c.G, o.G),
		B: mul8(c.B, o.B),
		A: mul8(c.A, o.A),
	}
}

func mul8(a, b uint8) uint8 {
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}

// RGBA возвращает каналы массивом, удобным для конфигов и JSON
func (c Color) RGBA() [4]uint8 {
	return [4]uint8{c.R, c.G, c.B, c.A}
}
