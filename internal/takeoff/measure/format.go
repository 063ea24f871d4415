package measure

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"takeoff/internal/takeoff/models"
)

// ============================================================
// Display formatting
// ============================================================

// Unavailable: отображение отсутствующей величины.
const Unavailable = "—"

// Formatter печатает величины с разделителями разрядов выбранного языка.
type Formatter struct {
	p *message.Printer
}

// NewFormatter создаёт форматтер для языка tag.
func NewFormatter(tag language.Tag) Formatter {
	return Formatter{p: message.NewPrinter(tag)}
}

// DefaultFormatter: английская локаль.
var DefaultFormatter = NewFormatter(language.English)

// Length: "12.35 ft" или "3.142 m".
func (f Formatter) Length(v *float64, sys models.UnitSystem) string {
	if v == nil || math.IsNaN(*v) {
		return Unavailable
	}
	if sys == models.Metric {
		return f.p.Sprintf("%.3f %s", *v, sys.LengthLabel())
	}
	return f.p.Sprintf("%.2f %s", *v, sys.LengthLabel())
}

// Area: "1,024.00 ft²".
func (f Formatter) Area(v *float64, sys models.UnitSystem) string {
	if v == nil || math.IsNaN(*v) {
		return Unavailable
	}
	return f.p.Sprintf("%.2f %s²", *v, sys.LengthLabel())
}

// Count печатает число с разделителями разрядов.
func (f Formatter) Count(n int) string {
	return f.p.Sprintf("%d", n)
}

// FeetInches печатает длину в футах как F'-I n/8", округляя до восьмой доли дюйма.
func FeetInches(feet float64) string {
	const den = 8
	sign := ""
	if feet < 0 {
		sign = "-"
		feet = -feet
	}
	eighths := int64(math.Round(feet * 12 * den))
	ft := eighths / (12 * den)
	rem := eighths % (12 * den)
	in := rem / den
	num := rem % den

	out := DefaultFormatter.p.Sprintf("%s%d'-%d", sign, ft, in)
	if num != 0 {
		n, d := reduce(num, den)
		out += DefaultFormatter.p.Sprintf(" %d/%d", n, d)
	}
	return out + `"`
}

// MetricShort печатает метры как "N mm" до метра и "x.xx m" начиная с метра.
func MetricShort(meters float64) string {
	mm := meters * 1000
	if math.Abs(mm) >= 1000 {
		return DefaultFormatter.p.Sprintf("%.2f m", meters)
	}
	return DefaultFormatter.p.Sprintf("%.0f mm", mm)
}

func reduce(n, d int64) (int64, int64) {
	for d%2 == 0 && n%2 == 0 {
		n, d = n/2, d/2
	}
	return n, d
}
