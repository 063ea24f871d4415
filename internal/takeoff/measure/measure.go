// Package measure сворачивает штрихи в количества по позициям каталога.
package measure

import (
	"sort"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/models"
)

// ============================================================
// Per-stroke measurement
// ============================================================

// Measurement: вклад одного штриха в пикселях мира.
type Measurement struct {
	Count     int
	LengthPx  float64
	AreaPx2   float64
	HasLength bool
	HasArea   bool
}

// Of измеряет штрих. Некорректные штрихи ничего не дают.
func Of(s models.Stroke) Measurement {
	switch s.Kind {
	case models.KindCount:
		return Measurement{Count: 1}
	case models.KindLine:
		if len(s.Points) != 4 {
			return Measurement{}
		}
		return Measurement{LengthPx: geometry.PolylineLength(s.Points), HasLength: true}
	case models.KindArea:
		if !s.Valid() {
			return Measurement{}
		}
		return Measurement{AreaPx2: geometry.ShoelaceArea(s.Points), HasArea: true}
	default:
		// Старые штрихи без типа: длина только для отрезка из двух точек.
		if len(s.Points) == 4 {
			return Measurement{LengthPx: geometry.PolylineLength(s.Points), HasLength: true}
		}
		return Measurement{}
	}
}

// Length возвращает длину штриха в реальных единицах.
func Length(s models.Stroke, unitsPerPx float64) (float64, bool) {
	m := Of(s)
	if !m.HasLength {
		return 0, false
	}
	return m.LengthPx * unitsPerPx, true
}

// Area возвращает площадь штриха в квадратных реальных единицах.
func Area(s models.Stroke, unitsPerPx float64) (float64, bool) {
	m := Of(s)
	if !m.HasArea {
		return 0, false
	}
	return m.AreaPx2 * unitsPerPx * unitsPerPx, true
}

// ============================================================
// Aggregation
// ============================================================

// Scope: область подсчёта итогов.
type Scope string

const (
	ScopePage     Scope = "page"
	ScopeDocument Scope = "document"
)

// ParseScope разбирает область; "file" принимается как синоним документа.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "", string(ScopePage):
		return ScopePage, true
	case string(ScopeDocument), "file":
		return ScopeDocument, true
	}
	return "", false
}

// Query описывает, что считать.
type Query struct {
	Scope Scope
	Page  int
}

// ItemTotals: итоги по одной позиции. Length и Area равны nil, если масштаб не задан.
type ItemTotals struct {
	ItemID    string   `json:"itemId"`
	Name      string   `json:"name"`
	InCatalog bool     `json:"inCatalog"`
	Count     int      `json:"count"`
	Length    *float64 `json:"length"`
	Area      *float64 `json:"area"`
}

// Report: итоги выбранной области.
type Report struct {
	Scope      Scope             `json:"scope"`
	Page       int               `json:"page,omitempty"`
	UnitSystem models.UnitSystem `json:"unitSystem"`
	UnitsPerPx *float64          `json:"unitsPerPx"`
	Items      []ItemTotals      `json:"items"`
}

// Lookup возвращает итоги позиции.
func (r Report) Lookup(itemID string) (ItemTotals, bool) {
	for _, it := range r.Items {
		if it.ItemID == itemID {
			return it, true
		}
	}
	return ItemTotals{}, false
}

type bucket struct {
	count    int
	lengthPx float64
	areaPx2  float64
}

// Aggregate считает итоги по позициям. Отчёт всегда содержит "unassigned" и все позиции
// каталога; позиции, на которые ссылаются штрихи, но которых нет в каталоге, добавляются в конец.
func Aggregate(doc *models.Document, q Query, catalog []models.Item, unitsPerPx *float64) Report {
	by := make(map[string]*bucket)
	add := func(strokes []models.Stroke) {
		for _, s := range strokes {
			id := s.ItemID
			if id == "" {
				id = models.Unassigned
			}
			b, ok := by[id]
			if !ok {
				b = &bucket{}
				by[id] = b
			}
			m := Of(s)
			b.count += m.Count
			b.lengthPx += m.LengthPx
			b.areaPx2 += m.AreaPx2
		}
	}

	rep := Report{Scope: q.Scope, UnitSystem: doc.Scale.UnitSystem}
	if unitsPerPx != nil {
		v := *unitsPerPx
		rep.UnitsPerPx = &v
	}
	switch q.Scope {
	case ScopeDocument:
		for _, n := range doc.PageNumbers() {
			add(doc.Strokes(n))
		}
	default:
		rep.Scope = ScopePage
		rep.Page = q.Page
		add(doc.Strokes(q.Page))
	}

	seen := make(map[string]bool, len(catalog)+1)
	emit := func(id, name string, inCatalog bool) {
		if seen[id] {
			return
		}
		seen[id] = true
		t := ItemTotals{ItemID: id, Name: name, InCatalog: inCatalog}
		b := by[id]
		if b == nil {
			b = &bucket{}
		}
		t.Count = b.count
		if unitsPerPx != nil {
			u := *unitsPerPx
			length := b.lengthPx * u
			area := b.areaPx2 * u * u
			t.Length, t.Area = &length, &area
		}
		rep.Items = append(rep.Items, t)
	}

	emit(models.Unassigned, "Unassigned", false)
	for _, it := range catalog {
		emit(it.ID, it.DisplayName(), true)
	}
	var extra []string
	for id := range by {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		emit(id, id, false)
	}
	return rep
}
