// Package overlay собирает SVG-слой разметки страницы поверх чертежа.
package overlay

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/models"
)

// CountRadius: радиус маркера счёта в мировых пикселях.
const CountRadius = 6

// ============================================================
// Renderer
// ============================================================

// Style: оформление элементов по типу штриха.
type Style struct {
	Line     string
	Area     string
	Count    string
	Legacy   string
	Selected string
	Width    float64
}

// DefaultStyle: цвета редактора.
func DefaultStyle() Style {
	return Style{
		Line:     "#1f77b4",
		Area:     "#2ca02c",
		Count:    "#d62728",
		Legacy:   "#7f7f7f",
		Selected: "#ff7f0e",
		Width:    2,
	}
}

type Renderer struct {
	style Style
}

func NewRenderer(style Style) *Renderer {
	if style.Width <= 0 {
		style.Width = 2
	}
	return &Renderer{style: style}
}

// Page описывает, что рисовать.
type Page struct {
	Width    float64
	Height   float64
	Strokes  []models.Stroke
	Selected string
}

// Render собирает SVG в мировых координатах страницы. Невалидные штрихи пропускаются.
func (r *Renderer) Render(p Page) (string, error) {
	if p.Width <= 0 || p.Height <= 0 || math.IsInf(p.Width, 0) || math.IsInf(p.Height, 0) {
		return "", fmt.Errorf("invalid page size %gx%g", p.Width, p.Height)
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(p.Width), formatFloat(p.Height), formatFloat(p.Width), formatFloat(p.Height)))
	builder.WriteString("\n")

	for _, st := range p.Strokes {
		elem, ok := r.element(st, st.ID != "" && st.ID == p.Selected)
		if !ok {
			continue
		}
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) element(st models.Stroke, selected bool) (string, bool) {
	if !st.Valid() {
		return "", false
	}
	attrs := fmt.Sprintf(`id="%s" data-item="%s" data-kind="%s"`,
		html.EscapeString(st.ID), html.EscapeString(st.ItemID), kindName(st.Kind))

	switch st.Kind {
	case models.KindCount:
		return fmt.Sprintf(`<circle %s cx="%s" cy="%s" r="%s" fill="%s" stroke="%s" stroke-width="%s" />`,
			attrs, formatFloat(st.X), formatFloat(st.Y), formatFloat(CountRadius),
			r.style.Count, r.outline(r.style.Count, selected), formatFloat(r.style.Width)), true

	case models.KindLine:
		pts := geometry.Points(st.Points)
		return fmt.Sprintf(`<line %s x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" />`,
			attrs, formatFloat(pts[0].X), formatFloat(pts[0].Y), formatFloat(pts[1].X), formatFloat(pts[1].Y),
			r.outline(r.style.Line, selected), formatFloat(r.style.Width)), true

	case models.KindArea:
		return fmt.Sprintf(`<path %s d="%s" fill="%s" fill-opacity="0.2" stroke="%s" stroke-width="%s" />`,
			attrs, pathData(st.Points, true), r.style.Area,
			r.outline(r.style.Area, selected), formatFloat(r.style.Width)), true

	default:
		return fmt.Sprintf(`<path %s d="%s" fill="none" stroke="%s" stroke-width="%s" />`,
			attrs, pathData(st.Points, false),
			r.outline(r.style.Legacy, selected), formatFloat(r.style.Width)), true
	}
}

func (r *Renderer) outline(base string, selected bool) string {
	if selected {
		return r.style.Selected
	}
	return base
}

func kindName(k models.Kind) string {
	if k == models.KindLegacy {
		return "legacy"
	}
	return string(k)
}

// ============================================================
// Formatting helpers
// ============================================================

func pathData(flat []float64, closed bool) string {
	pts := geometry.Points(flat)
	var path strings.Builder
	path.WriteString("M ")
	path.WriteString(formatPoint(pts[0]))
	for _, p := range pts[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	if closed {
		path.WriteString(" Z")
	}
	return path.String()
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p geometry.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
