package models

import (
	"fmt"
	"sort"
	"strings"

	"takeoff/internal/takeoff/geometry"
)

// ============================================================
// Strokes
// ============================================================

// Kind: тег варианта разметки.
type Kind string

const (
	KindLine  Kind = "line"
	KindArea  Kind = "area"
	KindCount Kind = "count"
	// KindLegacy: штрих без тега типа из старых документов; рисуется как ломаная.
	KindLegacy Kind = ""
)

// Unassigned: позиция-заглушка для штрихов без привязки к каталогу.
const Unassigned = "unassigned"

// Stroke: один сохраняемый примитив разметки.
// Для line/area/legacy используется Points, для count X и Y.
type Stroke struct {
	ID     string
	Kind   Kind
	Points []float64
	X, Y   float64
	ItemID string
}

// NewLine создаёт отрезок из двух точек.
func NewLine(a, b geometry.Point, itemID string) Stroke {
	return Stroke{ID: NewID(), Kind: KindLine, Points: []float64{a.X, a.Y, b.X, b.Y}, ItemID: normalizeItem(itemID)}
}

// NewArea создаёт замкнутый контур из плоского списка вершин.
func NewArea(flat []float64, itemID string) Stroke {
	pts := make([]float64, len(flat))
	copy(pts, flat)
	return Stroke{ID: NewID(), Kind: KindArea, Points: pts, ItemID: normalizeItem(itemID)}
}

// NewCount создаёт маркер счёта.
func NewCount(p geometry.Point, itemID string) Stroke {
	return Stroke{ID: NewID(), Kind: KindCount, X: p.X, Y: p.Y, ItemID: normalizeItem(itemID)}
}

// Valid сообщает, выполняет ли штрих инвариант своего варианта.
func (s Stroke) Valid() bool {
	switch s.Kind {
	case KindLine:
		return len(s.Points) == 4
	case KindArea:
		return len(s.Points) >= 6 && len(s.Points)%2 == 0
	case KindCount:
		return true
	default:
		return len(s.Points) >= 2
	}
}

// Clone возвращает глубокую копию, включая срез координат.
func (s Stroke) Clone() Stroke {
	out := s
	if s.Points != nil {
		out.Points = make([]float64, len(s.Points))
		copy(out.Points, s.Points)
	}
	return out
}

// Moved возвращает копию штриха, сдвинутую на (dx, dy).
func (s Stroke) Moved(dx, dy float64) Stroke {
	out := s.Clone()
	if s.Kind == KindCount {
		out.X += dx
		out.Y += dy
		return out
	}
	out.Points = geometry.Translate(s.Points, dx, dy)
	return out
}

// CloneStrokes глубоко копирует список штрихов.
func CloneStrokes(strokes []Stroke) []Stroke {
	if strokes == nil {
		return nil
	}
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}

func normalizeItem(itemID string) string {
	if strings.TrimSpace(itemID) == "" {
		return Unassigned
	}
	return itemID
}

// ============================================================
// Scale config
// ============================================================

// UnitSystem: система единиц: футы или метры.
type UnitSystem string

const (
	Imperial UnitSystem = "imperial"
	Metric   UnitSystem = "metric"
)

// Valid сообщает, является ли значение известной системой единиц.
func (u UnitSystem) Valid() bool {
	return u == Imperial || u == Metric
}

// LengthLabel возвращает обозначение единицы длины.
func (u UnitSystem) LengthLabel() string {
	if u == Metric {
		return "m"
	}
	return "ft"
}

// AreaLabel возвращает ASCII-обозначение единицы площади.
func (u UnitSystem) AreaLabel() string {
	return u.LengthLabel() + "^2"
}

const (
	PresetNone       = "none"
	PresetCalibrated = "calibrated"
)

// ScaleConfig: сохраняемая конфигурация масштаба чертежа.
// UnitsPerPx == nil означает «масштаб не задан».
type ScaleConfig struct {
	UnitSystem UnitSystem `json:"unitSystem"`
	Preset     string     `json:"preset"`
	UnitsPerPx *float64   `json:"unitsPerPx"`
}

// DefaultScale: масштаб нового документа.
func DefaultScale() ScaleConfig {
	return ScaleConfig{UnitSystem: Imperial, Preset: PresetNone}
}

// Clone копирует конфигурацию вместе с указателем на значение.
func (c ScaleConfig) Clone() ScaleConfig {
	out := c
	if c.UnitsPerPx != nil {
		v := *c.UnitsPerPx
		out.UnitsPerPx = &v
	}
	return out
}

// ============================================================
// Document
// ============================================================

// Page: упорядоченный список штрихов страницы.
type Page struct {
	Strokes []Stroke `json:"strokes"`
}

// Document: единица сохранения: масштаб и страницы.
type Document struct {
	Scale ScaleConfig
	Pages map[int]*Page
}

// NewDocument создаёт пустой документ с масштабом по умолчанию.
func NewDocument() *Document {
	return &Document{Scale: DefaultScale(), Pages: make(map[int]*Page)}
}

// Strokes возвращает штрихи страницы (nil, если страницы нет).
func (d *Document) Strokes(page int) []Stroke {
	if d == nil || d.Pages == nil {
		return nil
	}
	if p, ok := d.Pages[page]; ok && p != nil {
		return p.Strokes
	}
	return nil
}

// SetStrokes целиком заменяет список штрихов страницы.
func (d *Document) SetStrokes(page int, strokes []Stroke) {
	if d.Pages == nil {
		d.Pages = make(map[int]*Page)
	}
	d.Pages[page] = &Page{Strokes: strokes}
}

// PageNumbers возвращает номера страниц по возрастанию.
func (d *Document) PageNumbers() []int {
	nums := make([]int, 0, len(d.Pages))
	for n := range d.Pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Clone возвращает глубокую копию документа.
func (d *Document) Clone() *Document {
	out := &Document{Scale: d.Scale.Clone(), Pages: make(map[int]*Page, len(d.Pages))}
	for n, p := range d.Pages {
		if p == nil {
			continue
		}
		out.Pages[n] = &Page{Strokes: CloneStrokes(p.Strokes)}
	}
	return out
}

// ============================================================
// Keys & catalog
// ============================================================

// DocumentKey идентифицирует документ разметки пары (проект, файл).
type DocumentKey struct {
	ProjectID int64
	FileID    int64
}

func (k DocumentKey) String() string {
	return fmt.Sprintf("%d:%d", k.ProjectID, k.FileID)
}

// Item: позиция каталога.
type Item struct {
	ID         string `json:"id" yaml:"id"`
	SystemType string `json:"systemType" yaml:"system_type"`
	Category   string `json:"category" yaml:"category"`
	ItemName   string `json:"itemName" yaml:"item_name"`
	Size       string `json:"size" yaml:"size"`
	CreatedAt  string `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt  string `json:"updatedAt,omitempty" yaml:"-"`
}

// DisplayName: подпись позиции в итогах и экспорте.
func (it Item) DisplayName() string {
	name := strings.TrimSpace(it.ItemName)
	if size := strings.TrimSpace(it.Size); size != "" {
		name = strings.TrimSpace(name + " " + size)
	}
	if name == "" {
		return it.ID
	}
	return name
}
