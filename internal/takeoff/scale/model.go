package scale

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/models"
)

var (
	ErrDegenerateCalibration = errors.New("calibration points coincide")
	ErrInvalidDistance       = errors.New("known distance must be a positive number")
	ErrUnknownPreset         = errors.New("unknown scale preset")
	ErrUnknownUnitSystem     = errors.New("unknown unit system")
)

// minCalibrationPx: расстояние между точками калибровки, ниже которого она отменяется.
const minCalibrationPx = 1e-6

// Calibrate вычисляет единицы на пиксель по двум мировым точкам и введённому расстоянию.
func Calibrate(a, b geometry.Point, input string) (float64, error) {
	d := a.Distance(b)
	if d < minCalibrationPx {
		return 0, ErrDegenerateCalibration
	}
	known, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistance, input)
	}
	if !(known > 0) || math.IsInf(known, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistance, input)
	}
	return known / d, nil
}

// ============================================================
// Model
// ============================================================

// Model хранит масштаб активного документа и пересчитывает его
// при смене пресета, системы единиц или плотности растра страницы.
type Model struct {
	cfg         models.ScaleConfig
	renderScale float64 // 0, пока страница не отрисована
}

// NewModel загружает сохранённую конфигурацию. Значение пресета из таблицы
// не используется до первого SetRenderScale.
func NewModel(cfg models.ScaleConfig) *Model {
	m := &Model{cfg: cfg.Clone()}
	if !m.cfg.UnitSystem.Valid() {
		m.cfg.UnitSystem = models.Imperial
	}
	if m.cfg.Preset == "" {
		m.cfg.Preset = models.PresetNone
	}
	switch m.cfg.Preset {
	case models.PresetNone:
		m.cfg.UnitsPerPx = nil
	case models.PresetCalibrated:
	default:
		if _, ok := Lookup(m.cfg.Preset); ok {
			m.cfg.UnitsPerPx = nil
		}
	}
	return m
}

// Config возвращает копию текущей конфигурации для сохранения.
func (m *Model) Config() models.ScaleConfig {
	return m.cfg.Clone()
}

// UnitsPerPx возвращает коэффициент и признак его наличия.
func (m *Model) UnitsPerPx() (float64, bool) {
	if m.cfg.UnitsPerPx == nil {
		return 0, false
	}
	return *m.cfg.UnitsPerPx, true
}

// UnitSystem возвращает текущую систему единиц.
func (m *Model) UnitSystem() models.UnitSystem {
	return m.cfg.UnitSystem
}

// RenderScale возвращает известную плотность растра (0, если неизвестна).
func (m *Model) RenderScale() float64 {
	return m.renderScale
}

// SetRenderScale запоминает плотность растра и пересчитывает пресет.
// Возвращает true, если конфигурация изменилась.
func (m *Model) SetRenderScale(rs float64) bool {
	if !(rs > 0) || math.IsInf(rs, 0) || rs == m.renderScale {
		return false
	}
	m.renderScale = rs
	return m.rederive()
}

// SelectPreset выбирает пресет: "none" сбрасывает коэффициент,
// "calibrated" оставляет последнее значение.
func (m *Model) SelectPreset(key string) error {
	switch key {
	case models.PresetNone:
		m.cfg.Preset = key
		m.cfg.UnitsPerPx = nil
		return nil
	case models.PresetCalibrated:
		m.cfg.Preset = key
		return nil
	}
	if _, ok := Lookup(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, key)
	}
	m.cfg.Preset = key
	m.cfg.UnitsPerPx = nil
	m.rederive()
	return nil
}

// SetUnitSystem меняет систему единиц. Пресет из таблицы пересчитывается,
// калиброванное значение и "none" меняют только подпись.
func (m *Model) SetUnitSystem(sys models.UnitSystem) error {
	if !sys.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownUnitSystem, sys)
	}
	m.cfg.UnitSystem = sys
	m.rederive()
	return nil
}

// Calibrate применяет ручную калибровку. При ошибке состояние не меняется.
func (m *Model) Calibrate(a, b geometry.Point, input string) error {
	upp, err := Calibrate(a, b, input)
	if err != nil {
		return err
	}
	m.cfg.Preset = models.PresetCalibrated
	m.cfg.UnitsPerPx = &upp
	return nil
}

// Describe: человекочитаемое значение коэффициента.
func (m *Model) Describe() string {
	upp, ok := m.UnitsPerPx()
	if !ok {
		return "(not set)"
	}
	return strconv.FormatFloat(upp, 'g', 6, 64) + " " + m.cfg.UnitSystem.LengthLabel() + "/px"
}

func (m *Model) rederive() bool {
	p, ok := Lookup(m.cfg.Preset)
	if !ok || m.renderScale == 0 {
		return false
	}
	next := UnitsPerPxFromRatio(p.Ratio, m.cfg.UnitSystem, m.renderScale)
	if m.cfg.UnitsPerPx != nil && math.Abs(*m.cfg.UnitsPerPx-next) <= 1e-12 {
		return false
	}
	m.cfg.UnitsPerPx = &next
	return true
}
