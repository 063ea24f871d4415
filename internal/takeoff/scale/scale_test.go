package scale

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/models"
)

func TestUnitsPerPxFromRatio(t *testing.T) {
	tests := []struct {
		name   string
		ratio  float64
		sys    models.UnitSystem
		render float64
		want   float64
	}{
		{"quarter inch", 48, models.Imperial, 1, 48.0 / 72 / 12},
		{"quarter inch at 2x", 48, models.Imperial, 2, 48.0 / 144 / 12},
		{"1:100", 100, models.Metric, 1, 100 * 25.4 / 72 / 1000},
		{"unknown render scale", 96, models.Imperial, 0, 96.0 / 72 / 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnitsPerPxFromRatio(tt.ratio, tt.sys, tt.render)
			if !scalar.EqualWithinAbs(got, tt.want, 1e-15) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("1in_100ft")
	if !ok || p.Ratio != 1200 || p.Family != Engineering {
		t.Fatalf("unexpected preset %+v (found=%v)", p, ok)
	}
	if _, ok := Lookup("calibrated"); ok {
		t.Fatal("calibrated is not a table preset")
	}
	if n := len(Presets()); n != 19 {
		t.Fatalf("expected 19 presets, got %d", n)
	}
}

func TestCalibrate(t *testing.T) {
	a := geometry.Point{X: 0, Y: 0}
	b := geometry.Point{X: 200, Y: 0}

	got, err := Calibrate(a, b, " 10 ")
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if !scalar.EqualWithinAbs(got, 0.05, 1e-15) {
		t.Fatalf("expected 0.05, got %v", got)
	}

	for _, in := range []string{"", "abc", "0", "-3", "NaN", "Inf"} {
		if _, err := Calibrate(a, b, in); !errors.Is(err, ErrInvalidDistance) {
			t.Errorf("input %q: expected ErrInvalidDistance, got %v", in, err)
		}
	}
	if _, err := Calibrate(a, a, "10"); !errors.Is(err, ErrDegenerateCalibration) {
		t.Errorf("expected ErrDegenerateCalibration, got %v", err)
	}
}

func TestModelCalibrationAbortKeepsState(t *testing.T) {
	m := NewModel(models.DefaultScale())
	m.SetRenderScale(1)
	if err := m.SelectPreset("1_4"); err != nil {
		t.Fatalf("SelectPreset: %v", err)
	}
	before := m.Config()

	if err := m.Calibrate(geometry.Point{}, geometry.Point{}, "10"); err == nil {
		t.Fatal("expected calibration on coincident points to fail")
	}
	after := m.Config()
	if after.Preset != before.Preset || *after.UnitsPerPx != *before.UnitsPerPx {
		t.Fatalf("aborted calibration changed state: %+v -> %+v", before, after)
	}

	if err := m.Calibrate(geometry.Point{}, geometry.Point{X: 200}, "10"); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if c := m.Config(); c.Preset != models.PresetCalibrated || *c.UnitsPerPx != 0.05 {
		t.Fatalf("unexpected config after calibration %+v", c)
	}
}

func TestPresetUnsetUntilRenderScaleKnown(t *testing.T) {
	v := 123.0
	m := NewModel(models.ScaleConfig{UnitSystem: models.Imperial, Preset: "1_8", UnitsPerPx: &v})
	if _, ok := m.UnitsPerPx(); ok {
		t.Fatal("preset must not yield a value before the render scale is known")
	}
	if m.Describe() != "(not set)" {
		t.Fatalf("unexpected description %q", m.Describe())
	}
	if !m.SetRenderScale(1) {
		t.Fatal("first render scale must change the config")
	}
	got, _ := m.UnitsPerPx()
	if !scalar.EqualWithinAbs(got, 96.0/72/12, 1e-15) {
		t.Fatalf("unexpected units per px %v", got)
	}
}

func TestRenderScaleChangeRecomputes(t *testing.T) {
	m := NewModel(models.ScaleConfig{UnitSystem: models.Imperial, Preset: "1_4"})
	m.SetRenderScale(1)
	first, _ := m.UnitsPerPx()
	m.SetRenderScale(2)
	second, _ := m.UnitsPerPx()
	if !scalar.EqualWithinAbs(second, first/2, 1e-15) {
		t.Fatalf("expected recomputation at 2x, got %v then %v", first, second)
	}
	if m.SetRenderScale(2) {
		t.Fatal("unchanged render scale must not report a change")
	}
}

func TestUnitSystemRoundTrip(t *testing.T) {
	m := NewModel(models.ScaleConfig{UnitSystem: models.Imperial, Preset: "1_100"})
	m.SetRenderScale(1.5)
	start, _ := m.UnitsPerPx()

	if err := m.SetUnitSystem(models.Metric); err != nil {
		t.Fatal(err)
	}
	metric, _ := m.UnitsPerPx()
	if scalar.EqualWithinAbs(metric, start, 1e-15) {
		t.Fatal("metric value must differ from imperial")
	}
	if err := m.SetUnitSystem(models.Imperial); err != nil {
		t.Fatal(err)
	}
	back, _ := m.UnitsPerPx()
	if !scalar.EqualWithinAbs(back, start, 1e-15) {
		t.Fatalf("round trip drifted: %v -> %v", start, back)
	}
}

func TestUnitSwitchOnCalibratedOnlyRelabels(t *testing.T) {
	m := NewModel(models.DefaultScale())
	if err := m.Calibrate(geometry.Point{}, geometry.Point{X: 10}, "1"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetUnitSystem(models.Metric); err != nil {
		t.Fatal(err)
	}
	got, _ := m.UnitsPerPx()
	if got != 0.1 || m.UnitSystem() != models.Metric {
		t.Fatalf("calibrated value must be kept, got %v %s", got, m.UnitSystem())
	}
	if err := m.SetUnitSystem("parsecs"); !errors.Is(err, ErrUnknownUnitSystem) {
		t.Fatalf("expected ErrUnknownUnitSystem, got %v", err)
	}
}

func TestSelectPreset(t *testing.T) {
	m := NewModel(models.DefaultScale())
	m.SetRenderScale(1)

	if err := m.SelectPreset("bogus"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	if err := m.Calibrate(geometry.Point{}, geometry.Point{X: 4}, "2"); err != nil {
		t.Fatal(err)
	}
	if err := m.SelectPreset(models.PresetCalibrated); err != nil {
		t.Fatal(err)
	}
	if v, ok := m.UnitsPerPx(); !ok || v != 0.5 {
		t.Fatalf("calibrated must keep the last value, got %v %v", v, ok)
	}
	if err := m.SelectPreset(models.PresetNone); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.UnitsPerPx(); ok {
		t.Fatal("none must clear the value")
	}
}
