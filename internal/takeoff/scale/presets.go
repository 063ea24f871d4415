// Package scale переводит пиксели чертежа в реальные единицы.
package scale

import (
	"takeoff/internal/takeoff/models"
)

// ============================================================
// Preset table
// ============================================================

// Family: группа стандартных масштабов.
type Family string

const (
	Architectural Family = "architectural"
	Engineering   Family = "engineering"
	MetricFamily  Family = "metric"
)

// Preset: стандартный масштаб чертежа. Ratio = реальные единицы / единицы на бумаге.
type Preset struct {
	Key    string  `json:"key" yaml:"key"`
	Label  string  `json:"label" yaml:"label"`
	Ratio  float64 `json:"ratio" yaml:"ratio"`
	Family Family  `json:"family" yaml:"family"`
}

var presets = []Preset{
	{Key: "1_8", Label: `1/8" = 1'-0"`, Ratio: 96, Family: Architectural},
	{Key: "1_4", Label: `1/4" = 1'-0"`, Ratio: 48, Family: Architectural},
	{Key: "3_8", Label: `3/8" = 1'-0"`, Ratio: 32, Family: Architectural},
	{Key: "1_2", Label: `1/2" = 1'-0"`, Ratio: 24, Family: Architectural},
	{Key: "3_4", Label: `3/4" = 1'-0"`, Ratio: 16, Family: Architectural},
	{Key: "1_1", Label: `1" = 1'-0"`, Ratio: 12, Family: Architectural},

	{Key: "1in_10ft", Label: `1" = 10'`, Ratio: 120, Family: Engineering},
	{Key: "1in_20ft", Label: `1" = 20'`, Ratio: 240, Family: Engineering},
	{Key: "1in_30ft", Label: `1" = 30'`, Ratio: 360, Family: Engineering},
	{Key: "1in_40ft", Label: `1" = 40'`, Ratio: 480, Family: Engineering},
	{Key: "1in_50ft", Label: `1" = 50'`, Ratio: 600, Family: Engineering},
	{Key: "1in_100ft", Label: `1" = 100'`, Ratio: 1200, Family: Engineering},

	{Key: "1_20", Label: "1:20", Ratio: 20, Family: MetricFamily},
	{Key: "1_25", Label: "1:25", Ratio: 25, Family: MetricFamily},
	{Key: "1_50", Label: "1:50", Ratio: 50, Family: MetricFamily},
	{Key: "1_75", Label: "1:75", Ratio: 75, Family: MetricFamily},
	{Key: "1_100", Label: "1:100", Ratio: 100, Family: MetricFamily},
	{Key: "1_150", Label: "1:150", Ratio: 150, Family: MetricFamily},
	{Key: "1_200", Label: "1:200", Ratio: 200, Family: MetricFamily},
}

// Presets возвращает копию таблицы масштабов в порядке отображения.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Lookup ищет масштаб по ключу.
func Lookup(key string) (Preset, bool) {
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// ============================================================
// Conversion
// ============================================================

const (
	pointsPerInch = 72.0
	inchesPerFoot = 12.0
	mmPerInch     = 25.4
	mmPerMeter    = 1000.0
)

// UnitsPerPxFromRatio вычисляет единицы на пиксель для масштаба ratio.
// renderScale: мировые пиксели на PDF-пункт; значения <= 0 считаются равными 1.
func UnitsPerPxFromRatio(ratio float64, sys models.UnitSystem, renderScale float64) float64 {
	if !(renderScale > 0) {
		renderScale = 1
	}
	paperInchesPerPx := 1 / (pointsPerInch * renderScale)
	if sys == models.Metric {
		return ratio * paperInchesPerPx * mmPerInch / mmPerMeter
	}
	return ratio * paperInchesPerPx / inchesPerFoot
}
