package measure

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats/scalar"

	"takeoff/internal/takeoff/models"
)

func ptr(v float64) *float64 { return &v }

func lineStroke(item string, pts ...float64) models.Stroke {
	return models.Stroke{ID: "l", Kind: models.KindLine, Points: pts, ItemID: item}
}

func TestLineLength(t *testing.T) {
	got, ok := Length(lineStroke("x", 0, 0, 100, 0), 0.01)
	if !ok || !scalar.EqualWithinAbs(got, 1.0, 1e-12) {
		t.Fatalf("expected 1.00 ft, got %v (ok=%v)", got, ok)
	}
}

func TestAreaSquare(t *testing.T) {
	sq := models.Stroke{Kind: models.KindArea, Points: []float64{0, 0, 100, 0, 100, 100, 0, 100}}
	got, ok := Area(sq, 0.01)
	if !ok || !scalar.EqualWithinAbs(got, 1.0, 1e-12) {
		t.Fatalf("expected 1 ft², got %v (ok=%v)", got, ok)
	}
}

func TestOfVariants(t *testing.T) {
	tests := []struct {
		name string
		s    models.Stroke
		want Measurement
	}{
		{"count", models.Stroke{Kind: models.KindCount}, Measurement{Count: 1}},
		{"bad line", models.Stroke{Kind: models.KindLine, Points: []float64{0, 0}}, Measurement{}},
		{"bad area", models.Stroke{Kind: models.KindArea, Points: []float64{0, 0, 1, 1}}, Measurement{}},
		{"legacy segment", models.Stroke{Points: []float64{0, 0, 3, 4}}, Measurement{LengthPx: 5, HasLength: true}},
		{"legacy polyline", models.Stroke{Points: []float64{0, 0, 3, 4, 6, 0}}, Measurement{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Of(tt.s)); diff != "" {
				t.Errorf("measurement mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func sampleDoc() *models.Document {
	doc := models.NewDocument()
	doc.SetStrokes(1, []models.Stroke{
		{ID: "c1", Kind: models.KindCount, X: 1, Y: 1, ItemID: "7"},
		lineStroke("7", 0, 0, 100, 0),
		{ID: "ghost", Kind: models.KindCount, ItemID: "99"},
	})
	doc.SetStrokes(2, []models.Stroke{
		{ID: "c2", Kind: models.KindCount, X: 5, Y: 5, ItemID: "7"},
		{ID: "u", Kind: models.KindLine, Points: []float64{0, 0, 0, 50}, ItemID: models.Unassigned},
	})
	return doc
}

var catalog = []models.Item{
	{ID: "7", ItemName: "Copper Type L", Size: `1-1/4"`},
	{ID: "8", ItemName: "Gate valve"},
}

func TestAggregateScopes(t *testing.T) {
	doc := sampleDoc()

	page := Aggregate(doc, Query{Scope: ScopePage, Page: 1}, catalog, ptr(0.01))
	if it, _ := page.Lookup("7"); it.Count != 1 || !scalar.EqualWithinAbs(*it.Length, 1, 1e-12) {
		t.Fatalf("unexpected page totals for item 7: %+v", it)
	}

	whole := Aggregate(doc, Query{Scope: ScopeDocument}, catalog, ptr(0.01))
	if it, _ := whole.Lookup("7"); it.Count != 2 {
		t.Fatalf("expected 2 counts across pages, got %d", it.Count)
	}
	if it, _ := whole.Lookup(models.Unassigned); !scalar.EqualWithinAbs(*it.Length, 0.5, 1e-12) {
		t.Fatalf("unexpected unassigned length %v", *it.Length)
	}

	var ids []string
	for _, it := range whole.Items {
		ids = append(ids, it.ItemID)
	}
	if diff := cmp.Diff([]string{models.Unassigned, "7", "8", "99"}, ids); diff != "" {
		t.Fatalf("item order mismatch (-want +got):\n%s", diff)
	}
	if it, _ := whole.Lookup("8"); it.Count != 0 || *it.Length != 0 {
		t.Fatalf("empty catalog item must report zeros, got %+v", it)
	}
}

func TestAggregateWithoutScale(t *testing.T) {
	rep := Aggregate(sampleDoc(), Query{Scope: ScopeDocument}, catalog, nil)
	it, ok := rep.Lookup("7")
	if !ok {
		t.Fatal("missing item 7")
	}
	if it.Count != 2 {
		t.Errorf("counts must accumulate without a scale, got %d", it.Count)
	}
	if it.Length != nil || it.Area != nil {
		t.Errorf("length and area must be unavailable, got %v %v", it.Length, it.Area)
	}
}

func TestWriteCSV(t *testing.T) {
	rep := Aggregate(sampleDoc(), Query{Scope: ScopeDocument}, catalog, ptr(0.01))
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rep); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := [][]string{
		{"Item", "Count", "Length (ft)", "Area (ft^2)"},
		{`Copper Type L 1-1/4"`, "2", "1.00", "0.00"},
		{"Gate valve", "0", "0.00", "0.00"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVMetricAndUnscaled(t *testing.T) {
	doc := sampleDoc()
	doc.Scale.UnitSystem = models.Metric

	var buf bytes.Buffer
	if err := WriteCSV(&buf, Aggregate(doc, Query{Scope: ScopePage, Page: 1}, catalog, ptr(0.001))); err != nil {
		t.Fatal(err)
	}
	rows, _ := csv.NewReader(&buf).ReadAll()
	if rows[0][2] != "Length (m)" || rows[0][3] != "Area (m^2)" || rows[1][2] != "0.100" {
		t.Fatalf("unexpected metric csv %v", rows)
	}

	buf.Reset()
	if err := WriteCSV(&buf, Aggregate(doc, Query{Scope: ScopePage, Page: 1}, catalog, nil)); err != nil {
		t.Fatal(err)
	}
	rows, _ = csv.NewReader(&buf).ReadAll()
	if rows[1][2] != "" || rows[1][3] != "" {
		t.Fatalf("unavailable values must be empty fields, got %v", rows[1])
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopePage, "page": ScopePage, "document": ScopeDocument, "file": ScopeDocument} {
		if got, ok := ParseScope(in); !ok || got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, ok := ParseScope("galaxy"); ok {
		t.Error("unknown scope must be rejected")
	}
}

func TestFormatting(t *testing.T) {
	f := DefaultFormatter
	if got := f.Length(ptr(12.346), models.Imperial); got != "12.35 ft" {
		t.Errorf("imperial length: %q", got)
	}
	if got := f.Length(ptr(3.14159), models.Metric); got != "3.142 m" {
		t.Errorf("metric length: %q", got)
	}
	if got := f.Area(ptr(2), models.Metric); got != "2.00 m²" {
		t.Errorf("area: %q", got)
	}
	if got := f.Length(nil, models.Imperial); got != Unavailable {
		t.Errorf("missing length: %q", got)
	}
	if got := f.Count(1234567); got != "1,234,567" {
		t.Errorf("count grouping: %q", got)
	}
}

func TestFeetInches(t *testing.T) {
	tests := map[float64]string{
		0:             `0'-0"`,
		1.5:           `1'-6"`,
		10 + 3.25/12:  `10'-3 1/4"`,
		2 + 11.99/12:  `3'-0"`,
		0.375/12 + 4:  `4'-0 3/8"`,
		-(1 + 0.5/12): `-1'-0 1/2"`,
	}
	for in, want := range tests {
		if got := FeetInches(in); got != want {
			t.Errorf("FeetInches(%v): expected %q, got %q", in, want, got)
		}
	}
}

func TestMetricShort(t *testing.T) {
	if got := MetricShort(0.25); got != "250 mm" {
		t.Errorf("expected 250 mm, got %q", got)
	}
	if got := MetricShort(2.5); got != "2.50 m" {
		t.Errorf("expected 2.50 m, got %q", got)
	}
}
