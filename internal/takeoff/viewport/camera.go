// Package viewport отображает экранные пиксели в мировые координаты страницы и обратно.
package viewport

import (
	"math"

	"takeoff/internal/takeoff/geometry"
)

// ============================================================
// Camera
// ============================================================

// WheelStep: множитель масштаба за один шаг колеса мыши.
const WheelStep = 1.05

// Size: размеры области просмотра или страницы.
type Size struct {
	Width  float64
	Height float64
}

// Empty сообщает, что хотя бы одна сторона не положительна.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Camera: смещение и масштаб вида. Не сохраняется; Scale всегда > 0.
type Camera struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// Identity: камера без смещения и увеличения.
func Identity() Camera {
	return Camera{Scale: 1}
}

// ScreenToWorld переводит экранную точку в мировые координаты.
func (c Camera) ScreenToWorld(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: (p.X - c.OffsetX) / c.Scale,
		Y: (p.Y - c.OffsetY) / c.Scale,
	}
}

// WorldToScreen переводит мировую точку в экранные координаты.
func (c Camera) WorldToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: p.X*c.Scale + c.OffsetX,
		Y: p.Y*c.Scale + c.OffsetY,
	}
}

// ScreenToWorldDistance переводит экранное расстояние в мировые единицы.
func (c Camera) ScreenToWorldDistance(d float64) float64 {
	return d / c.Scale
}

// ZoomAt меняет масштаб так, что мировая точка под курсором остаётся под курсором.
// Неположительный или нечисловой масштаб игнорируется.
func (c Camera) ZoomAt(cursor geometry.Point, newScale float64) Camera {
	if !(newScale > 0) || math.IsInf(newScale, 0) {
		return c
	}
	world := c.ScreenToWorld(cursor)
	return Camera{
		OffsetX: cursor.X - world.X*newScale,
		OffsetY: cursor.Y - world.Y*newScale,
		Scale:   newScale,
	}
}

// Wheel применяет шаг колеса: deltaY > 0 уменьшает, иначе увеличивает.
// Масштаб не ограничивается; пределы есть только у плотности растра (render.ClampZoom).
func (c Camera) Wheel(cursor geometry.Point, deltaY float64) Camera {
	next := c.Scale * WheelStep
	if deltaY > 0 {
		next = c.Scale / WheelStep
	}
	return c.ZoomAt(cursor, next)
}

// WithOffset возвращает камеру с новым смещением и прежним масштабом.
func (c Camera) WithOffset(x, y float64) Camera {
	c.OffsetX, c.OffsetY = x, y
	return c
}

// ============================================================
// Fitting
// ============================================================

// FitPage вписывает страницу целиком и центрирует по обеим осям.
func FitPage(view, page Size) Camera {
	if view.Empty() || page.Empty() {
		return Identity()
	}
	s := math.Min(view.Width/page.Width, view.Height/page.Height)
	return Camera{
		OffsetX: center(view.Width, page.Width*s),
		OffsetY: center(view.Height, page.Height*s),
		Scale:   s,
	}
}

// FitWidth вписывает страницу по ширине и центрирует по вертикали.
func FitWidth(view, page Size) Camera {
	if view.Empty() || page.Empty() {
		return Identity()
	}
	s := view.Width / page.Width
	return Camera{
		OffsetX: 0,
		OffsetY: center(view.Height, page.Height*s),
		Scale:   s,
	}
}

func center(available, used float64) float64 {
	return math.Max(0, math.Floor((available-used)/2))
}
