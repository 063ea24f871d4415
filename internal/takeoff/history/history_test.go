package history

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"takeoff/internal/takeoff/models"
)

var key = Key{Doc: "1:2", Page: 1}

func line(id string, x float64) models.Stroke {
	return models.Stroke{ID: id, Kind: models.KindLine, Points: []float64{0, 0, x, 0}, ItemID: models.Unassigned}
}

func appendStroke(list []models.Stroke, s models.Stroke) []models.Stroke {
	out := models.CloneStrokes(list)
	return append(out, s)
}

func TestCommitUndoRedoSequence(t *testing.T) {
	m := New(0)
	var current []models.Stroke

	var states [][]models.Stroke
	for i := 0; i < 3; i++ {
		m.Commit(key, current)
		current = appendStroke(current, line(fmt.Sprint(i), float64(i+1)))
		states = append(states, current)
	}

	for i := 0; i < 2; i++ {
		prev, ok := m.Undo(key, current)
		if !ok {
			t.Fatalf("undo %d failed", i)
		}
		current = prev
	}
	next, ok := m.Redo(key, current)
	if !ok {
		t.Fatal("redo failed")
	}
	current = next

	if diff := cmp.Diff(states[1], current); diff != "" {
		t.Fatalf("expected state after two commits (-want +got):\n%s", diff)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := New(0)
	s0 := []models.Stroke{line("a", 1)}
	m.Commit(key, s0)
	s1 := appendStroke(s0, line("b", 2))

	prev, _ := m.Undo(key, s1)
	if diff := cmp.Diff(s0, prev); diff != "" {
		t.Fatalf("undo mismatch (-want +got):\n%s", diff)
	}
	back, _ := m.Redo(key, prev)
	if diff := cmp.Diff(s1, back); diff != "" {
		t.Fatalf("redo mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitClearsRedo(t *testing.T) {
	m := New(0)
	m.Commit(key, nil)
	m.Undo(key, []models.Stroke{line("a", 1)})
	if !m.CanRedo(key) {
		t.Fatal("expected redo to be available")
	}
	m.Commit(key, nil)
	if m.CanRedo(key) {
		t.Fatal("commit must clear the redo stack")
	}
}

func TestEmptyStacks(t *testing.T) {
	m := New(0)
	if _, ok := m.Undo(key, nil); ok {
		t.Fatal("undo on empty history must be a no-op")
	}
	if _, ok := m.Redo(key, nil); ok {
		t.Fatal("redo on empty history must be a no-op")
	}
}

func TestLimitEvictsOldest(t *testing.T) {
	m := New(3)
	var current []models.Stroke
	for i := 0; i < 5; i++ {
		m.Commit(key, current)
		current = appendStroke(current, line(fmt.Sprint(i), 1))
	}
	if u, _ := m.Depth(key); u != 3 {
		t.Fatalf("expected depth 3, got %d", u)
	}
	for m.CanUndo(key) {
		current, _ = m.Undo(key, current)
	}
	if len(current) != 2 {
		t.Fatalf("oldest snapshots must be evicted, got %d strokes", len(current))
	}
}

func TestSnapshotsAreDeep(t *testing.T) {
	m := New(0)
	list := []models.Stroke{line("a", 5)}
	m.Commit(key, list)
	list[0].Points[2] = 999

	prev, _ := m.Undo(key, list)
	if prev[0].Points[2] != 5 {
		t.Fatalf("snapshot shares point storage, got %v", prev[0].Points)
	}
}

func TestPagesAreIndependent(t *testing.T) {
	m := New(0)
	other := Key{Doc: key.Doc, Page: 2}
	m.Commit(key, nil)
	if m.CanUndo(other) {
		t.Fatal("history leaked across pages")
	}
	m.Commit(Key{Doc: "9:9", Page: 1}, nil)
	m.Forget(key.Doc)
	if m.CanUndo(key) {
		t.Fatal("Forget must drop the document history")
	}
	if !m.CanUndo(Key{Doc: "9:9", Page: 1}) {
		t.Fatal("Forget must keep other documents")
	}
}
