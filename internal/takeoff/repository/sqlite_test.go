package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/persist"
)

var _ persist.Store = (*Repository)(nil)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "takeoff.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return repo
}

func TestInitIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestTakeoffMissingLoadsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := models.DocumentKey{ProjectID: 1, FileID: 2}

	if _, err := repo.GetTakeoff(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetTakeoff err = %v, want ErrNotFound", err)
	}
	doc, err := repo.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Pages) != 0 || doc.Scale.Preset != models.PresetNone {
		t.Fatalf("Load = %+v, want empty default document", doc)
	}
}

func TestTakeoffSaveOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := models.DocumentKey{ProjectID: 3, FileID: 4}

	u := 0.05
	doc := models.NewDocument()
	doc.Scale = models.ScaleConfig{UnitSystem: models.Imperial, Preset: models.PresetCalibrated, UnitsPerPx: &u}
	doc.SetStrokes(1, []models.Stroke{
		models.NewLine(geometry.Point{}, geometry.Point{X: 100}, "pipe"),
		models.NewCount(geometry.Point{X: 5, Y: 5}, ""),
	})
	if err := repo.Save(ctx, key, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc.SetStrokes(2, []models.Stroke{models.NewCount(geometry.Point{X: 1, Y: 1}, "")})
	if err := repo.Save(ctx, key, doc); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.GetTakeoff(ctx, key)
	if err != nil {
		t.Fatalf("GetTakeoff: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	other, err := repo.Load(ctx, models.DocumentKey{ProjectID: 3, FileID: 5})
	if err != nil {
		t.Fatalf("Load other: %v", err)
	}
	if len(other.Pages) != 0 {
		t.Fatalf("other file sees %d pages", len(other.Pages))
	}
}

func TestTakeoffCorruptDataDegrades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO takeoffs (project_id, file_id, data_json) VALUES (?, ?, ?)`, 9, 9, "{not json")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	doc, err := repo.Load(ctx, models.DocumentKey{ProjectID: 9, FileID: 9})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Pages) != 0 || doc.Scale.UnitSystem != models.Imperial {
		t.Fatalf("corrupt row = %+v, want default document", doc)
	}
}

var ignoreTimestamps = cmpopts.IgnoreFields(models.Item{}, "CreatedAt", "UpdatedAt")

func TestItemsCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateItem(ctx, models.Item{SystemType: "Plumbing", Category: "Pipe", ItemName: " Copper ", Size: "3/4\""})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt == "" {
		t.Fatalf("created = %+v, want generated id and timestamp", created)
	}
	if created.ItemName != "Copper" {
		t.Fatalf("ItemName = %q, want trimmed", created.ItemName)
	}

	if _, err := repo.CreateItem(ctx, models.Item{ID: "fixed", SystemType: "HVAC", ItemName: "Duct"}); err != nil {
		t.Fatalf("create fixed: %v", err)
	}

	list, err := repo.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []models.Item{
		{ID: "fixed", SystemType: "HVAC", ItemName: "Duct"},
		{ID: created.ID, SystemType: "Plumbing", Category: "Pipe", ItemName: "Copper", Size: "3/4\""},
	}
	if diff := cmp.Diff(want, list, ignoreTimestamps); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	updated, err := repo.UpdateItem(ctx, "fixed", models.Item{SystemType: "HVAC", ItemName: "Duct", Size: "12x8"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Size != "12x8" {
		t.Fatalf("Size = %q", updated.Size)
	}

	if err := repo.DeleteItem(ctx, "fixed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetItem(ctx, "fixed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetItem after delete err = %v", err)
	}
	if err := repo.DeleteItem(ctx, "fixed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := repo.UpdateItem(ctx, "missing", models.Item{ItemName: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}
}

func TestItemsRejectInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []models.Item{
		{ItemName: "   "},
		{ID: models.Unassigned, ItemName: "Nope"},
	}
	for _, it := range cases {
		if _, err := repo.CreateItem(ctx, it); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("CreateItem(%+v) err = %v, want ErrInvalidInput", it, err)
		}
	}
}

func TestImportItemsUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.ImportItems(ctx, []models.Item{
		{ID: "a", ItemName: "Conduit"},
		{ID: "b", ItemName: "Box"},
		{ItemName: ""},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d, want 2", n)
	}

	if _, err := repo.ImportItems(ctx, []models.Item{{ID: "a", ItemName: "Conduit", Size: "1\""}}); err != nil {
		t.Fatalf("reimport: %v", err)
	}
	got, err := repo.GetItem(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Size != "1\"" {
		t.Fatalf("Size = %q, want updated", got.Size)
	}
}
