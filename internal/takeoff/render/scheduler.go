package render

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"
)

var ErrPageOutOfRange = errors.New("page out of range")

// MinZoom и MaxZoom ограничивают только масштаб, по которому выбирается плотность растра.
// Масштаб самой камеры не ограничен.
const (
	MinZoom = 0.25
	MaxZoom = 8.0

	minRenderScale = 1.0
	maxRenderScale = 6.0

	// DefaultDebounce: пауза после последнего шага масштабирования перед перерисовкой.
	DefaultDebounce = 160 * time.Millisecond
)

// ClampZoom приводит масштаб камеры к диапазону растеризации.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// RenderScaleForZoom: плотность растра для масштаба камеры.
func RenderScaleForZoom(z float64) float64 {
	return math.Min(maxRenderScale, math.Max(minRenderScale, ClampZoom(z)))
}

// ============================================================
// Scheduler
// ============================================================

// Request: запрос страницы документа.
type Request struct {
	Doc   string
	Page  int
	Scale float64
}

// Result доставляется, только если поколение запроса всё ещё актуально.
// Получатель обязан повторно сверить документ, страницу и поколение.
type Result struct {
	Request
	Generation uint64
	Info       PageInfo
	Raster     Raster
	Err        error
}

// Scheduler запускает не более одной отрисовки: новый запрос отменяет предыдущий.
type Scheduler struct {
	src      PageSource
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	timer   *time.Timer
	closed  bool
	results chan Result
}

// SchedulerOption настраивает Scheduler.
type SchedulerOption func(*Scheduler)

func WithDebounce(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.debounce = d }
}

func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

func NewScheduler(src PageSource, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		src:      src,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		results:  make(chan Result, 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Results: канал актуальных результатов.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Current возвращает текущее поколение.
func (s *Scheduler) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// IsCurrent сообщает, актуально ли поколение.
func (s *Scheduler) IsCurrent(gen uint64) bool {
	return s.Current() == gen
}

// Request сразу запускает отрисовку и возвращает её поколение.
func (s *Scheduler) Request(req Request) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.bumpLocked()
	if s.closed {
		return gen
	}
	s.startLocked(gen, req)
	return gen
}

// RequestZoom откладывает перерисовку до окончания серии шагов масштабирования.
// Плотность растра вычисляется из масштаба камеры.
func (s *Scheduler) RequestZoom(doc string, page int, zoom float64) uint64 {
	req := Request{Doc: doc, Page: page, Scale: RenderScaleForZoom(zoom)}

	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.bumpLocked()
	if s.closed {
		return gen
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen || s.closed {
			return
		}
		s.startLocked(gen, req)
	})
	return gen
}

// Cancel отменяет отложенную и текущую отрисовку (смена документа).
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpLocked()
}

// Close останавливает планировщик. Канал результатов не закрывается.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpLocked()
	s.closed = true
}

// bumpLocked делает все прежние запросы устаревшими.
func (s *Scheduler) bumpLocked() uint64 {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.gen
}

func (s *Scheduler) startLocked(gen uint64, req Request) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer cancel()
		res := Result{Request: req, Generation: gen}
		res.Info, res.Err = s.src.PageInfo(ctx, req.Page)
		if res.Err == nil {
			res.Raster, res.Err = s.src.RenderPage(ctx, req.Page, req.Scale)
		}
		if ctx.Err() != nil || !s.IsCurrent(gen) {
			s.logger.Debug("render dropped", "doc", req.Doc, "page", req.Page, "gen", gen)
			return
		}
		select {
		case s.results <- res:
		case <-ctx.Done():
		}
	}()
}
