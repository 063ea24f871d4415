package editor

import (
	"context"
	"log/slog"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/history"
	"takeoff/internal/takeoff/measure"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/persist"
	"takeoff/internal/takeoff/render"
	"takeoff/internal/takeoff/scale"
	"takeoff/internal/takeoff/viewport"
)

// HitTolerance: допуск попадания по штриху в экранных пикселях.
const HitTolerance = 6.0

// Catalog: источник позиций каталога.
type Catalog interface {
	ListItems(ctx context.Context) ([]models.Item, error)
}

// DistancePrompter запрашивает у пользователя известное расстояние.
// ok == false означает отмену ввода.
type DistancePrompter func(pixelDistance float64, unit models.UnitSystem) (input string, ok bool)

// EventKind: тип сообщения об измерении.
type EventKind string

const (
	EventLine       EventKind = "line"
	EventArea       EventKind = "area"
	EventMeasure    EventKind = "measure"
	EventCalibrated EventKind = "calibrated"
)

// MeasureEvent сообщает результат измерения. При Scaled == false значение в мировых пикселях.
type MeasureEvent struct {
	Kind       EventKind
	Value      float64
	Scaled     bool
	UnitSystem models.UnitSystem
}

// FitMode: способ вписать страницу в область просмотра.
type FitMode int

const (
	FitPage FitMode = iota
	FitWidth
)

// Deps: внешние зависимости сессии. Без Store документы хранятся в памяти,
// без Scheduler страницы не отрисовываются. Остальные поля необязательны.
type Deps struct {
	Store     persist.Store
	Saver     *persist.Saver
	Scheduler *render.Scheduler
	Catalog   Catalog
	Prompt    DistancePrompter
	OnMeasure func(MeasureEvent)
	Logger    *slog.Logger
}

// ============================================================
// Session
// ============================================================

// Session владеет документом, масштабом, камерой и историей активного файла.
// Все методы вызываются из одного цикла событий.
type Session struct {
	deps   Deps
	logger *slog.Logger

	key     models.DocumentKey
	docID   string
	doc     *models.Document
	isOpen  bool
	scale   *scale.Model
	history *history.Manager
	items   []models.Item

	page      int
	pageGen   uint64
	pageReady bool
	base      viewport.Size
	raster    render.Raster

	view    viewport.Size
	camera  viewport.Camera
	fitMode FitMode

	tool       Tool
	activeItem string
	selected   string

	pan    *panDrag
	line   []geometry.Point
	area   []geometry.Point
	cursor *geometry.Point
	anchor *geometry.Point
	move   *moveDrag
}

type panDrag struct {
	start  geometry.Point
	origin viewport.Camera
}

type moveDrag struct {
	id    string
	start geometry.Point
	delta geometry.Point
}

// NewSession создаёт сессию без открытого документа.
func NewSession(deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Store == nil {
		deps.Store = persist.NewMemoryStore()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = render.NewScheduler(render.StaticSource{}, render.WithLogger(logger))
	}
	return &Session{
		deps:       deps,
		logger:     logger,
		doc:        models.NewDocument(),
		scale:      scale.NewModel(models.DefaultScale()),
		history:    history.New(history.DefaultLimit),
		camera:     viewport.Identity(),
		page:       1,
		activeItem: models.Unassigned,
	}
}

// Open делает документ key активным. Текущие черновики отбрасываются, отрисовка отменяется.
// История покинутого и открываемого документов сбрасывается: стеки относятся только
// к загруженному состоянию.
// Ошибка загрузки не блокирует работу: открывается пустой документ.
func (s *Session) Open(ctx context.Context, key models.DocumentKey) {
	s.deps.Scheduler.Cancel()
	s.resetInteraction()
	s.selected = ""
	if s.isOpen {
		s.history.Forget(s.docID)
	}
	s.history.Forget(key.String())

	doc, err := s.deps.Store.Load(ctx, key)
	if err != nil || doc == nil {
		s.logger.Warn("takeoff load failed, starting empty", "key", key.String(), "err", err)
		doc = models.NewDocument()
	}

	s.key, s.docID, s.doc, s.isOpen = key, key.String(), doc, true
	s.scale = scale.NewModel(doc.Scale)
	s.doc.Scale = s.scale.Config()
	s.page = 1
	s.pageReady = false
	s.requestPage()
}

// LoadCatalog обновляет позиции каталога для итогов.
func (s *Session) LoadCatalog(ctx context.Context) error {
	if s.deps.Catalog == nil {
		return nil
	}
	items, err := s.deps.Catalog.ListItems(ctx)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// SetPage переключает страницу; история других страниц сохраняется.
func (s *Session) SetPage(page int) bool {
	if page < 1 || page == s.page {
		return false
	}
	s.resetInteraction()
	s.selected = ""
	s.page = page
	s.pageReady = false
	s.requestPage()
	return true
}

func (s *Session) requestPage() {
	s.pageGen = s.deps.Scheduler.Request(render.Request{
		Doc:   s.docID,
		Page:  s.page,
		Scale: render.RenderScaleForZoom(s.camera.Scale),
	})
}

// ApplyRender применяет результат отрисовки, если он относится к текущим документу,
// странице и поколению. Возвращает false для устаревших результатов.
func (s *Session) ApplyRender(res render.Result) bool {
	if !s.isOpen || res.Doc != s.docID || res.Page != s.page || res.Generation != s.pageGen {
		return false
	}
	if !s.deps.Scheduler.IsCurrent(res.Generation) {
		return false
	}
	if res.Err != nil {
		s.logger.Warn("page render failed", "key", s.docID, "page", s.page, "err", res.Err)
		return false
	}

	first := !s.pageReady
	s.base = viewport.Size{Width: res.Info.BaseWidth, Height: res.Info.BaseHeight}
	s.raster = res.Raster
	s.pageReady = true

	if s.scale.SetRenderScale(res.Info.PixelsPerPoint) {
		s.doc.Scale = s.scale.Config()
	}
	if first {
		s.camera = s.fitted()
	}
	return true
}

// ============================================================
// Camera
// ============================================================

// Resize задаёт размер области просмотра и заново вписывает страницу.
func (s *Session) Resize(width, height float64) {
	s.view = viewport.Size{Width: width, Height: height}
	if s.pageReady {
		s.camera = s.fitted()
	}
}

// Fit вписывает страницу выбранным способом.
func (s *Session) Fit(mode FitMode) {
	s.fitMode = mode
	if !s.pageReady {
		return
	}
	s.camera = s.fitted()
	s.requestZoom()
}

func (s *Session) fitted() viewport.Camera {
	if s.fitMode == FitWidth {
		return viewport.FitWidth(s.view, s.base)
	}
	return viewport.FitPage(s.view, s.base)
}

// Wheel масштабирует вокруг курсора и откладывает перерисовку растра.
func (s *Session) Wheel(cursor geometry.Point, deltaY float64) {
	next := s.camera.Wheel(cursor, deltaY)
	if next == s.camera {
		return
	}
	s.camera = next
	if s.isOpen {
		s.requestZoom()
	}
}

func (s *Session) requestZoom() {
	s.pageGen = s.deps.Scheduler.RequestZoom(s.docID, s.page, s.camera.Scale)
}

// ============================================================
// Commits
// ============================================================

func (s *Session) historyKey() history.Key {
	return history.Key{Doc: s.docID, Page: s.page}
}

// commit заменяет список штрихов страницы и ставит документ в очередь сохранения.
func (s *Session) commit(next []models.Stroke, skipHistory bool) {
	if !s.isOpen {
		return
	}
	if !skipHistory {
		s.history.Commit(s.historyKey(), s.doc.Strokes(s.page))
	}
	s.doc.SetStrokes(s.page, next)
	s.selected = ""
	s.save()
}

func (s *Session) save() {
	if s.deps.Saver != nil {
		s.deps.Saver.Enqueue(s.key, s.doc)
	}
}

func (s *Session) withStroke(st models.Stroke) []models.Stroke {
	cur := s.doc.Strokes(s.page)
	next := make([]models.Stroke, 0, len(cur)+1)
	next = append(next, cur...)
	return append(next, st)
}

// Undo отменяет последнее изменение страницы.
func (s *Session) Undo() bool {
	prev, ok := s.history.Undo(s.historyKey(), s.doc.Strokes(s.page))
	if !ok {
		return false
	}
	s.commit(prev, true)
	return true
}

// Redo повторяет отменённое изменение страницы.
func (s *Session) Redo() bool {
	next, ok := s.history.Redo(s.historyKey(), s.doc.Strokes(s.page))
	if !ok {
		return false
	}
	s.commit(next, true)
	return true
}

// DeleteSelected удаляет выбранный штрих через историю.
func (s *Session) DeleteSelected() bool {
	if s.selected == "" {
		return false
	}
	cur := s.doc.Strokes(s.page)
	next := make([]models.Stroke, 0, len(cur))
	for _, st := range cur {
		if st.ID != s.selected {
			next = append(next, st)
		}
	}
	if len(next) == len(cur) {
		s.selected = ""
		return false
	}
	s.commit(next, false)
	return true
}

// ============================================================
// Scale
// ============================================================

// SelectPreset выбирает масштаб и сохраняет документ без записи в историю.
func (s *Session) SelectPreset(key string) error {
	if err := s.scale.SelectPreset(key); err != nil {
		return err
	}
	s.applyScale()
	return nil
}

// SetUnitSystem меняет систему единиц и сохраняет документ без записи в историю.
func (s *Session) SetUnitSystem(sys models.UnitSystem) error {
	if err := s.scale.SetUnitSystem(sys); err != nil {
		return err
	}
	s.applyScale()
	return nil
}

func (s *Session) applyScale() {
	s.doc.Scale = s.scale.Config()
	if s.isOpen {
		s.save()
	}
}

func (s *Session) unitsPerPx() *float64 {
	if v, ok := s.scale.UnitsPerPx(); ok {
		return &v
	}
	return nil
}

func (s *Session) report(ev MeasureEvent) {
	ev.UnitSystem = s.scale.UnitSystem()
	if s.deps.OnMeasure != nil {
		s.deps.OnMeasure(ev)
	}
}

// ============================================================
// Keyboard
// ============================================================

// HandleKey обрабатывает сочетания клавиш. Возвращает true, если клавиша использована.
func (s *Session) HandleKey(k Key) bool {
	name := k.Name
	if len(name) == 1 {
		name = string(toLower(name[0]))
	}

	if k.command() {
		switch name {
		case "z":
			if k.Shift {
				return s.Redo()
			}
			return s.Undo()
		case "y":
			return s.Redo()
		}
		return false
	}

	switch name {
	case "Escape":
		s.selected = ""
		s.move = nil
		if s.tool == ToolCalibrate {
			s.SetTool(ToolPan)
		}
		return true
	case "Delete", "Backspace":
		return s.DeleteSelected()
	}
	if t, ok := toolForKey(name); ok {
		s.SetTool(t)
		return true
	}
	return false
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

// SetTool переключает инструмент и отбрасывает черновики прежнего.
func (s *Session) SetTool(t Tool) {
	if !t.valid() || t == s.tool {
		return
	}
	s.resetInteraction()
	s.tool = t
}

// SetActiveItem задаёт позицию для новых штрихов.
func (s *Session) SetActiveItem(itemID string) {
	if itemID == "" {
		itemID = models.Unassigned
	}
	s.activeItem = itemID
}

func (s *Session) resetInteraction() {
	s.pan = nil
	s.line = nil
	s.area = nil
	s.cursor = nil
	s.anchor = nil
	s.move = nil
}

// ============================================================
// Read access
// ============================================================

func (s *Session) Key() models.DocumentKey { return s.key }
func (s *Session) Tool() Tool { return s.tool }
func (s *Session) Page() int { return s.page }
func (s *Session) Camera() viewport.Camera { return s.camera }
func (s *Session) PageSize() viewport.Size { return s.base }
func (s *Session) Raster() render.Raster { return s.raster }
func (s *Session) Selected() string { return s.selected }
func (s *Session) ActiveItem() string { return s.activeItem }
func (s *Session) ScaleConfig() models.ScaleConfig { return s.scale.Config() }

// ScaleLabel: отображение текущего коэффициента.
func (s *Session) ScaleLabel() string { return s.scale.Describe() }

// Strokes возвращает копию штрихов текущей страницы.
func (s *Session) Strokes() []models.Stroke {
	return models.CloneStrokes(s.doc.Strokes(s.page))
}

// Document возвращает копию активного документа.
func (s *Session) Document() *models.Document {
	return s.doc.Clone()
}

// CanUndo и CanRedo сообщают о доступности истории текущей страницы.
func (s *Session) CanUndo() bool { return s.history.CanUndo(s.historyKey()) }
func (s *Session) CanRedo() bool { return s.history.CanRedo(s.historyKey()) }

// SaveState: состояние сохранения активного документа.
func (s *Session) SaveState() (persist.Status, error) {
	if s.deps.Saver == nil || !s.isOpen {
		return persist.Idle, nil
	}
	return s.deps.Saver.State(s.key)
}

// Totals считает итоги для текущей страницы или всего документа.
func (s *Session) Totals(scope measure.Scope) measure.Report {
	return measure.Aggregate(s.doc, measure.Query{Scope: scope, Page: s.page}, s.items, s.unitsPerPx())
}

// Draft: незафиксированная геометрия инструмента в мировых координатах.
type Draft struct {
	Tool   Tool
	Points []float64
	Closed bool
}

// Draft возвращает черновик активного инструмента, если он есть.
func (s *Session) Draft() (Draft, bool) {
	switch {
	case s.line != nil:
		return Draft{Tool: ToolLine, Points: geometry.Flatten(s.line)}, true
	case len(s.area) > 0:
		pts := s.area
		if s.cursor != nil {
			pts = append(append([]geometry.Point(nil), s.area...), *s.cursor)
		}
		return Draft{Tool: ToolArea, Points: geometry.Flatten(pts)}, true
	case s.anchor != nil:
		return Draft{Tool: s.tool, Points: []float64{s.anchor.X, s.anchor.Y}}, true
	}
	return Draft{}, false
}

// Preview возвращает штрихи страницы с учётом перетаскивания, которое ещё не зафиксировано.
func (s *Session) Preview() []models.Stroke {
	out := s.Strokes()
	if s.move == nil {
		return out
	}
	for i, st := range out {
		if st.ID == s.move.id {
			out[i] = st.Moved(s.move.delta.X, s.move.delta.Y)
		}
	}
	return out
}
