package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"takeoff/internal/takeoff/editor"
	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/render"
)

var _ editor.Catalog = (*Client)(nil)

type fakeBackend struct {
	mu     sync.Mutex
	stored map[string][]byte
	auth   string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{stored: map[string][]byte{}}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/takeoffs/project/{p}/file/{f}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.auth = r.Header.Get("Authorization")
		data, ok := b.stored[r.PathValue("p")+":"+r.PathValue("f")]
		if !ok {
			data = []byte("null")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"takeoff":` + string(data) + `}`))
	})
	mux.HandleFunc("PUT /api/v1/takeoffs/project/{p}/file/{f}", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if r.PathValue("p") == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"disk full"}`))
			return
		}
		b.mu.Lock()
		b.stored[r.PathValue("p")+":"+r.PathValue("f")] = data
		b.mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("GET /api/v1/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []models.Item{{ID: "7", ItemName: "Pipe"}}})
	})
	mux.HandleFunc("GET /api/v1/files/project/{p}/file/{f}/pages", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("f") == "404" {
			http.Error(w, `{"error":"source drawing not found"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(PageSet{PageCount: 1, Pages: []render.PageInfo{{Page: 1, BaseWidth: 612, BaseHeight: 792, PixelsPerPoint: 1}}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func TestLoadMissingReturnsEmptyDocument(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := New(srv.URL + "/api/v1/")

	doc, err := c.Load(context.Background(), models.DocumentKey{ProjectID: 1, FileID: 2})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Pages) != 0 || doc.Scale.Preset != models.PresetNone {
		t.Fatalf("doc = %+v, want empty default", doc)
	}
}

func TestSaveThenLoad(t *testing.T) {
	b, srv := newFakeBackend(t)
	c := New(srv.URL+"/api/v1", WithToken("secret"))
	key := models.DocumentKey{ProjectID: 1, FileID: 2}

	doc := models.NewDocument()
	doc.SetStrokes(1, []models.Stroke{models.NewLine(geometry.Point{}, geometry.Point{X: 10}, "7")})
	if err := c.Save(context.Background(), key, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := c.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if b.auth != "Bearer secret" {
		t.Fatalf("Authorization = %q", b.auth)
	}
}

func TestSaveErrorCarriesStatus(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := New(srv.URL + "/api/v1")

	err := c.Save(context.Background(), models.DocumentKey{ProjectID: 500, FileID: 1}, models.NewDocument())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != http.StatusInternalServerError || se.Message != "disk full" {
		t.Fatalf("StatusError = %+v", se)
	}
}

func TestCatalogAndPages(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := New(srv.URL + "/api/v1")
	ctx := context.Background()

	items, err := c.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 || items[0].ItemName != "Pipe" {
		t.Fatalf("items = %+v", items)
	}

	src, err := c.Source(ctx, models.DocumentKey{ProjectID: 1, FileID: 2})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	info, err := src.PageInfo(ctx, 1)
	if err != nil || info.BaseWidth != 612 {
		t.Fatalf("PageInfo = %+v, %v", info, err)
	}

	if _, err := c.Pages(ctx, models.DocumentKey{ProjectID: 1, FileID: 404}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing pages err = %v, want ErrNotFound", err)
	}
}
