package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"takeoff/internal/takeoff/measure"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/scale"
)

// reportFlags: общие параметры подсчёта итогов.
type reportFlags struct {
	scope       string
	page        int
	items       string
	renderScale float64
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scope, "scope", "page", "totals scope: page or document")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number for page scope")
	cmd.Flags().StringVar(&f.items, "items", "", "YAML file with the item catalog")
	cmd.Flags().Float64Var(&f.renderScale, "render-scale", 1, "render pixels per world pixel used by table presets")
}

func (f *reportFlags) build(path string) (measure.Report, error) {
	scope, ok := measure.ParseScope(f.scope)
	if !ok {
		return measure.Report{}, fmt.Errorf("unknown scope %q", f.scope)
	}
	if f.page < 1 {
		return measure.Report{}, fmt.Errorf("invalid page %d", f.page)
	}

	doc, err := loadDocument(path)
	if err != nil {
		return measure.Report{}, err
	}
	items, err := loadItems(f.items)
	if err != nil {
		return measure.Report{}, err
	}

	m := scale.NewModel(doc.Scale)
	m.SetRenderScale(f.renderScale)
	doc.Scale = m.Config()

	var u *float64
	if v, ok := m.UnitsPerPx(); ok {
		u = &v
	}
	return measure.Aggregate(doc, measure.Query{Scope: scope, Page: f.page}, items, u), nil
}

// ============================================================
// totals
// ============================================================

func newTotalsCmd() *cobra.Command {
	var flags reportFlags
	var lang string

	cmd := &cobra.Command{
		Use:   "totals <doc.json>",
		Short: "Print per-item totals of a takeoff document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := flags.build(args[0])
			if err != nil {
				return err
			}
			tag, err := language.Parse(lang)
			if err != nil {
				return fmt.Errorf("invalid --lang: %w", err)
			}
			return printTotals(cmd.OutOrStdout(), rep, measure.NewFormatter(tag))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&lang, "lang", "en", "language tag for number formatting")
	return cmd
}

func printTotals(w io.Writer, rep measure.Report, f measure.Formatter) error {
	scope := string(rep.Scope)
	if rep.Scope == measure.ScopePage {
		scope = fmt.Sprintf("page %d", rep.Page)
	}
	scaleLabel := "(not set)"
	if rep.UnitsPerPx != nil {
		scaleLabel = fmt.Sprintf("%.6g %s/px", *rep.UnitsPerPx, rep.UnitSystem.LengthLabel())
	}
	fmt.Fprintf(w, "Scope: %s\nScale: %s\n\n", scope, scaleLabel)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tCOUNT\tLENGTH\tAREA")
	for _, it := range rep.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Name, f.Count(it.Count),
			f.Length(it.Length, rep.UnitSystem), f.Area(it.Area, rep.UnitSystem))
	}
	return tw.Flush()
}

// ============================================================
// export
// ============================================================

func newExportCmd() *cobra.Command {
	var flags reportFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export <doc.json>",
		Short: "Export per-item totals as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := flags.build(args[0])
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return measure.WriteCSV(cmd.OutOrStdout(), rep)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := measure.WriteCSV(file, rep); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

// ============================================================
// Input files
// ============================================================

func loadDocument(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := models.Decode(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// loadItems читает каталог: YAML-список позиций либо объект с ключом items.
func loadItems(path string) ([]models.Item, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var list []models.Item
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Items []models.Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}
	return wrapped.Items, nil
}
