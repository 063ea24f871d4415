package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// Wire format
// ============================================================

type wireStroke struct {
	ID     string    `json:"id"`
	Type   string    `json:"type,omitempty"`
	Points []float64 `json:"points,omitempty"`
	X      *float64  `json:"x,omitempty"`
	Y      *float64  `json:"y,omitempty"`
	ItemID string    `json:"itemId"`
}

type wirePage struct {
	Strokes []json.RawMessage `json:"strokes"`
}

type wireDocument struct {
	Scale json.RawMessage            `json:"scale,omitempty"`
	Pages map[string]json.RawMessage `json:"pages"`
}

// MarshalJSON кодирует штрих в формате своего варианта.
func (s Stroke) MarshalJSON() ([]byte, error) {
	w := wireStroke{ID: s.ID, Type: string(s.Kind), ItemID: normalizeItem(s.ItemID)}
	if s.Kind == KindCount {
		x, y := s.X, s.Y
		w.X, w.Y = &x, &y
	} else {
		w.Points = s.Points
		if w.Points == nil {
			w.Points = []float64{}
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON разбирает штрих; неизвестный или пустой тег даёт legacy-штрих.
func (s *Stroke) UnmarshalJSON(data []byte) error {
	var w wireStroke
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Stroke{ID: w.ID, ItemID: normalizeItem(w.ItemID)}
	if out.ID == "" {
		out.ID = NewID()
	}

	switch Kind(w.Type) {
	case KindLine, KindArea:
		out.Kind = Kind(w.Type)
		out.Points = w.Points
	case KindCount:
		out.Kind = KindCount
		if w.X != nil {
			out.X = *w.X
		}
		if w.Y != nil {
			out.Y = *w.Y
		}
	default:
		out.Kind = KindLegacy
		out.Points = w.Points
	}

	for _, v := range out.Points {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("stroke %s: non-finite coordinate", out.ID)
		}
	}

	*s = out
	return nil
}

// MarshalJSON кодирует документ: {"scale": {...}, "pages": {"1": {"strokes": [...]}}}.
func (d Document) MarshalJSON() ([]byte, error) {
	pages := make(map[string]Page, len(d.Pages))
	for n, p := range d.Pages {
		if p == nil {
			continue
		}
		strokes := p.Strokes
		if strokes == nil {
			strokes = []Stroke{}
		}
		pages[strconv.Itoa(n)] = Page{Strokes: strokes}
	}
	scale := d.Scale
	if !scale.UnitSystem.Valid() {
		scale.UnitSystem = Imperial
	}
	if scale.Preset == "" {
		scale.Preset = PresetNone
	}
	return json.Marshal(struct {
		Scale ScaleConfig     `json:"scale"`
		Pages map[string]Page `json:"pages"`
	}{Scale: scale, Pages: pages})
}

// UnmarshalJSON разбирает документ терпимо: битые страницы и штрихи отбрасываются,
// ошибка возвращается только для синтаксически неверного JSON верхнего уровня.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Decode(data)
	*d = *doc
	return err
}

// ============================================================
// Tolerant decoding
// ============================================================

// Decode разбирает сохранённый документ. Результат всегда пригоден к работе:
// при ошибке возвращается пустой документ с масштабом по умолчанию вместе с ошибкой.
func Decode(data []byte) (*Document, error) {
	doc := NewDocument()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return doc, nil
	}

	var w wireDocument
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return doc, fmt.Errorf("decode takeoff document: %w", err)
	}

	if len(w.Scale) > 0 {
		var sc ScaleConfig
		if err := json.Unmarshal(w.Scale, &sc); err == nil {
			doc.Scale = sanitizeScale(sc)
		}
	}

	for key, raw := range w.Pages {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			continue
		}
		var p wirePage
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		strokes := make([]Stroke, 0, len(p.Strokes))
		for _, rs := range p.Strokes {
			var s Stroke
			if err := json.Unmarshal(rs, &s); err != nil {
				continue
			}
			strokes = append(strokes, s)
		}
		doc.Pages[n] = &Page{Strokes: strokes}
	}

	return doc, nil
}

// DecodeOrDefault работает как Decode, но битый ввод даёт пустой документ.
func DecodeOrDefault(data []byte) *Document {
	doc, _ := Decode(data)
	return doc
}

func sanitizeScale(c ScaleConfig) ScaleConfig {
	out := DefaultScale()
	if c.UnitSystem.Valid() {
		out.UnitSystem = c.UnitSystem
	}
	if c.Preset != "" {
		out.Preset = c.Preset
	}
	if c.UnitsPerPx != nil {
		v := *c.UnitsPerPx
		if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
			out.UnitsPerPx = &v
		}
	}
	return out
}
