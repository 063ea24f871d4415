// Package geometry содержит примитивы мировой системы координат страницы.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Point
// ============================================================

// Point: точка в мировых координатах (пространство страницы при масштабе 1).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Add возвращает сумму точек.
func (p Point) Add(other Point) Point {
	v := r2.Add(p.vec(), other.vec())
	return Point{X: v.X, Y: v.Y}
}

// Sub возвращает разность точек.
func (p Point) Sub(other Point) Point {
	v := r2.Sub(p.vec(), other.vec())
	return Point{X: v.X, Y: v.Y}
}

// Scale умножает обе координаты на коэффициент.
func (p Point) Scale(f float64) Point {
	v := r2.Scale(f, p.vec())
	return Point{X: v.X, Y: v.Y}
}

// Distance возвращает евклидово расстояние до другой точки.
func (p Point) Distance(other Point) float64 {
	return r2.Norm(r2.Sub(other.vec(), p.vec()))
}

// ============================================================
// Flat point lists
// ============================================================

// Points разворачивает плоский список [x1,y1,x2,y2,...] в точки.
// Непарный хвост отбрасывается.
func Points(flat []float64) []Point {
	n := len(flat) / 2
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{X: flat[2*i], Y: flat[2*i+1]}
	}
	return pts
}

// Flatten сворачивает точки в плоский список.
func Flatten(pts []Point) []float64 {
	flat := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// Translate сдвигает все координаты плоского списка на (dx, dy) и возвращает новый срез.
func Translate(flat []float64, dx, dy float64) []float64 {
	out := make([]float64, len(flat))
	for i, v := range flat {
		if i%2 == 0 {
			out[i] = v + dx
		} else {
			out[i] = v + dy
		}
	}
	return out
}

// PolylineLength: суммарная длина ломаной в пикселях мира.
func PolylineLength(flat []float64) float64 {
	pts := Points(flat)
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Distance(pts[i])
	}
	return total
}

// ShoelaceArea: площадь многоугольника по формуле шнурования.
// Многоугольник замкнут неявно; результат не зависит от направления обхода.
func ShoelaceArea(flat []float64) float64 {
	pts := Points(flat)
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r2.Cross(pts[i].vec(), pts[j].vec())
	}
	return math.Abs(sum) / 2
}

// ============================================================
// Snapping
// ============================================================

// SnapAngle поворачивает отрезок origin->p к ближайшему углу, кратному step (радианы),
// сохраняя его длину.
func SnapAngle(origin, p Point, step float64) Point {
	d := p.Sub(origin)
	length := r2.Norm(d.vec())
	if length == 0 || step <= 0 {
		return p
	}
	ang := math.Atan2(d.Y, d.X)
	snapped := math.Round(ang/step) * step
	return Point{
		X: origin.X + math.Cos(snapped)*length,
		Y: origin.Y + math.Sin(snapped)*length,
	}
}

// ============================================================
// Hit testing
// ============================================================

// DistanceToSegment возвращает расстояние от p до отрезка a-b.
func DistanceToSegment(p, a, b Point) float64 {
	ab := r2.Sub(b.vec(), a.vec())
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return p.Distance(a)
	}
	t := r2.Dot(r2.Sub(p.vec(), a.vec()), ab) / l2
	t = math.Max(0, math.Min(1, t))
	proj := r2.Add(a.vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.vec(), proj))
}

// NearPolyline сообщает, лежит ли p в пределах tol от ломаной.
// closed замыкает последнюю вершину с первой.
func NearPolyline(p Point, flat []float64, tol float64, closed bool) bool {
	pts := Points(flat)
	switch len(pts) {
	case 0:
		return false
	case 1:
		return p.Distance(pts[0]) <= tol
	}
	for i := 1; i < len(pts); i++ {
		if DistanceToSegment(p, pts[i-1], pts[i]) <= tol {
			return true
		}
	}
	if closed && len(pts) > 2 {
		return DistanceToSegment(p, pts[len(pts)-1], pts[0]) <= tol
	}
	return false
}

// PointInPolygon проверяет попадание точки внутрь многоугольника (ray casting).
func PointInPolygon(p Point, flat []float64) bool {
	polygon := Points(flat)
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}
	return inside
}
