package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// slowSource блокирует отрисовку первой страницы до отмены контекста.
type slowSource struct {
	StaticSource

	mu     sync.Mutex
	scales []float64
}

func (s *slowSource) RenderPage(ctx context.Context, page int, scale float64) (Raster, error) {
	s.mu.Lock()
	s.scales = append(s.scales, scale)
	s.mu.Unlock()

	if page == 1 {
		<-ctx.Done()
		return Raster{}, ctx.Err()
	}
	return s.StaticSource.RenderPage(ctx, page, scale)
}

func (s *slowSource) calls() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.scales...)
}

func newSlowSource() *slowSource {
	return &slowSource{StaticSource: StaticSource{Pages: []PageInfo{
		{Page: 1, BaseWidth: 612, BaseHeight: 792, PixelsPerPoint: 1},
		{Page: 2, BaseWidth: 792, BaseHeight: 612, PixelsPerPoint: 1},
	}}}
}

func receive(t *testing.T, s *Scheduler) Result {
	t.Helper()
	select {
	case r := <-s.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a render result")
		return Result{}
	}
}

func TestNewRequestSupersedesOld(t *testing.T) {
	src := newSlowSource()
	s := NewScheduler(src)
	defer s.Close()

	old := s.Request(Request{Doc: "1:1", Page: 1, Scale: 1})
	cur := s.Request(Request{Doc: "1:1", Page: 2, Scale: 2})
	if cur <= old {
		t.Fatalf("generations must increase, got %d then %d", old, cur)
	}

	r := receive(t, s)
	if r.Generation != cur || r.Page != 2 || r.Err != nil {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Raster.Width != 1584 || r.Info.BaseWidth != 792 {
		t.Fatalf("unexpected raster geometry %+v", r.Raster)
	}

	select {
	case extra := <-s.Results():
		t.Fatalf("stale result delivered: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestZoomIsDebounced(t *testing.T) {
	src := newSlowSource()
	s := NewScheduler(src, WithDebounce(30*time.Millisecond))
	defer s.Close()

	var last uint64
	for _, z := range []float64{1.2, 2.5, 3.1, 40} {
		last = s.RequestZoom("1:1", 2, z)
	}

	r := receive(t, s)
	if r.Generation != last {
		t.Fatalf("expected generation %d, got %d", last, r.Generation)
	}
	if got := src.calls(); len(got) != 1 || got[0] != 6 {
		t.Fatalf("expected a single render at the clamped scale 6, got %v", got)
	}
}

func TestCancelDropsPending(t *testing.T) {
	src := newSlowSource()
	s := NewScheduler(src, WithDebounce(20*time.Millisecond))
	defer s.Close()

	s.RequestZoom("1:1", 2, 2)
	s.Cancel()

	select {
	case r := <-s.Results():
		t.Fatalf("cancelled request delivered %+v", r)
	case <-time.After(80 * time.Millisecond):
	}
	if got := src.calls(); len(got) != 0 {
		t.Fatalf("debounced render must not start after cancel, got %v", got)
	}
}

func TestRenderScaleForZoom(t *testing.T) {
	tests := map[float64]float64{0.1: 1, 0.5: 1, 1.5: 1.5, 7: 6, 100: 6}
	for z, want := range tests {
		if got := RenderScaleForZoom(z); got != want {
			t.Errorf("zoom %v: expected %v, got %v", z, want, got)
		}
	}
	if ClampZoom(0.01) != MinZoom || ClampZoom(50) != MaxZoom {
		t.Error("zoom must clamp to [MinZoom, MaxZoom]")
	}
}

func TestStaticSourceRange(t *testing.T) {
	src := newSlowSource().StaticSource
	if _, err := src.PageInfo(context.Background(), 3); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange, got %v", err)
	}
	if n, _ := src.PageCount(context.Background()); n != 2 {
		t.Fatalf("expected 2 pages, got %d", n)
	}
}
