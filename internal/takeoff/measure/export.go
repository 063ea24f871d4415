package measure

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"takeoff/internal/takeoff/models"
)

// ============================================================
// CSV export
// ============================================================

// Header возвращает строку заголовка CSV для системы единиц.
func Header(sys models.UnitSystem) []string {
	return []string{
		"Item",
		"Count",
		fmt.Sprintf("Length (%s)", sys.LengthLabel()),
		fmt.Sprintf("Area (%s)", sys.AreaLabel()),
	}
}

// WriteCSV пишет по строке на каждую позицию каталога; "unassigned" и позиции вне каталога пропускаются.
// Недоступные длина и площадь выводятся пустыми полями.
func WriteCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(rep.UnitSystem)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	lengthPrec := 2
	if rep.UnitSystem == models.Metric {
		lengthPrec = 3
	}
	for _, it := range rep.Items {
		if !it.InCatalog || it.ItemID == models.Unassigned {
			continue
		}
		row := []string{
			it.Name,
			strconv.Itoa(it.Count),
			fixed(it.Length, lengthPrec),
			fixed(it.Area, 2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", it.ItemID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename: имя файла выгрузки.
func Filename(key models.DocumentKey, scope Scope) string {
	return fmt.Sprintf("takeoff_project_%d_file_%d_%s.csv", key.ProjectID, key.FileID, scope)
}

func fixed(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
