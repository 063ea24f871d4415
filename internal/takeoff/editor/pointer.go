package editor

import (
	"math"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/measure"
	"takeoff/internal/takeoff/models"
)

// ============================================================
// Transition table
// ============================================================

type pointerFunc func(s *Session, world geometry.Point, screen geometry.Point, mods Modifiers)

type toolHandlers struct {
	down pointerFunc
	move pointerFunc
	up   pointerFunc
	dbl  pointerFunc
}

// handlers задаёт реакцию каждого инструмента на события указателя.
// Пустой обработчик означает, что событие инструментом не используется.
var handlers = [...]toolHandlers{
	ToolPan:       {down: (*Session).panDown, move: (*Session).panMove, up: (*Session).panUp},
	ToolLine:      {down: (*Session).lineDown, move: (*Session).lineMove, up: (*Session).lineUp},
	ToolArea:      {down: (*Session).areaDown, move: (*Session).areaMove, dbl: (*Session).areaCommit},
	ToolCount:     {down: (*Session).countDown},
	ToolMeasure:   {down: (*Session).measureDown},
	ToolCalibrate: {down: (*Session).calibrateDown},
	ToolSelect:    {down: (*Session).selectDown, move: (*Session).selectMove, up: (*Session).selectUp},
}

func (s *Session) dispatch(pick func(toolHandlers) pointerFunc, screen geometry.Point, mods Modifiers) {
	if !s.isOpen || !s.tool.valid() {
		return
	}
	fn := pick(handlers[s.tool])
	if fn == nil {
		return
	}
	fn(s, s.camera.ScreenToWorld(screen), screen, mods)
}

// PointerDown: нажатие указателя в экранных координатах.
func (s *Session) PointerDown(screen geometry.Point, mods Modifiers) {
	s.dispatch(func(h toolHandlers) pointerFunc { return h.down }, screen, mods)
}

// PointerMove: перемещение указателя.
func (s *Session) PointerMove(screen geometry.Point, mods Modifiers) {
	s.dispatch(func(h toolHandlers) pointerFunc { return h.move }, screen, mods)
}

// PointerUp: отпускание указателя.
func (s *Session) PointerUp(screen geometry.Point, mods Modifiers) {
	s.dispatch(func(h toolHandlers) pointerFunc { return h.up }, screen, mods)
}

// DoubleClick: двойной щелчок.
func (s *Session) DoubleClick(screen geometry.Point) {
	s.dispatch(func(h toolHandlers) pointerFunc { return h.dbl }, screen, Modifiers{})
}

// ============================================================
// pan
// ============================================================

func (s *Session) panDown(_, screen geometry.Point, _ Modifiers) {
	s.pan = &panDrag{start: screen, origin: s.camera}
}

func (s *Session) panMove(_, screen geometry.Point, _ Modifiers) {
	if s.pan == nil {
		return
	}
	d := screen.Sub(s.pan.start)
	s.camera = s.pan.origin.WithOffset(s.pan.origin.OffsetX+d.X, s.pan.origin.OffsetY+d.Y)
}

func (s *Session) panUp(_, _ geometry.Point, _ Modifiers) {
	s.pan = nil
}

// ============================================================
// line
// ============================================================

func (s *Session) lineDown(w, _ geometry.Point, _ Modifiers) {
	s.line = []geometry.Point{w, w}
}

func (s *Session) lineMove(w, _ geometry.Point, mods Modifiers) {
	if s.line == nil {
		return
	}
	if mods.Shift {
		w = geometry.SnapAngle(s.line[0], w, math.Pi/4)
	}
	s.line[1] = w
}

func (s *Session) lineUp(_, _ geometry.Point, _ Modifiers) {
	if s.line == nil {
		return
	}
	a, b := s.line[0], s.line[1]
	s.line = nil
	if a == b {
		return
	}

	st := models.NewLine(a, b, s.activeItem)
	if u := s.unitsPerPx(); u != nil {
		if v, ok := measure.Length(st, *u); ok {
			s.report(MeasureEvent{Kind: EventLine, Value: v, Scaled: true})
		}
	}
	s.commit(s.withStroke(st), false)
}

// ============================================================
// area
// ============================================================

func (s *Session) areaDown(w, _ geometry.Point, _ Modifiers) {
	// Повторное нажатие в ту же точку (часть двойного щелчка) вершину не добавляет.
	if n := len(s.area); n > 0 && s.area[n-1] == w {
		return
	}
	s.area = append(s.area, w)
	s.cursor = nil
}

func (s *Session) areaMove(w, _ geometry.Point, _ Modifiers) {
	if len(s.area) == 0 {
		return
	}
	s.cursor = &w
}

func (s *Session) areaCommit(_, _ geometry.Point, _ Modifiers) {
	verts := s.area
	s.area, s.cursor = nil, nil
	if len(verts) < 3 {
		return
	}

	st := models.NewArea(geometry.Flatten(verts), s.activeItem)
	if u := s.unitsPerPx(); u != nil {
		if v, ok := measure.Area(st, *u); ok {
			s.report(MeasureEvent{Kind: EventArea, Value: v, Scaled: true})
		}
	}
	s.commit(s.withStroke(st), false)
}

// ============================================================
// count
// ============================================================

func (s *Session) countDown(w, _ geometry.Point, _ Modifiers) {
	s.commit(s.withStroke(models.NewCount(w, s.activeItem)), false)
}

// ============================================================
// measure & calibrate
// ============================================================

func (s *Session) measureDown(w, _ geometry.Point, _ Modifiers) {
	if s.anchor == nil {
		s.anchor = &w
		return
	}
	d := s.anchor.Distance(w)
	s.anchor = nil

	ev := MeasureEvent{Kind: EventMeasure, Value: d}
	if u := s.unitsPerPx(); u != nil {
		ev.Value, ev.Scaled = d*(*u), true
	}
	s.report(ev)
}

func (s *Session) calibrateDown(w, _ geometry.Point, _ Modifiers) {
	if s.anchor == nil {
		s.anchor = &w
		return
	}
	a := *s.anchor
	s.anchor = nil

	if s.deps.Prompt == nil {
		return
	}
	input, ok := s.deps.Prompt(a.Distance(w), s.scale.UnitSystem())
	if !ok {
		return
	}
	if err := s.scale.Calibrate(a, w, input); err != nil {
		s.logger.Info("calibration aborted", "key", s.docID, "err", err)
		return
	}
	s.applyScale()
	if u := s.unitsPerPx(); u != nil {
		s.report(MeasureEvent{Kind: EventCalibrated, Value: *u, Scaled: true})
	}
}

// ============================================================
// select
// ============================================================

func (s *Session) selectDown(w, _ geometry.Point, _ Modifiers) {
	hit, ok := s.hitTest(w)
	if !ok {
		s.selected = ""
		s.move = nil
		return
	}
	if hit.ID != s.selected {
		s.selected = hit.ID
		return
	}
	s.move = &moveDrag{id: hit.ID, start: w}
}

func (s *Session) selectMove(w, _ geometry.Point, _ Modifiers) {
	if s.move == nil {
		return
	}
	s.move.delta = w.Sub(s.move.start)
}

func (s *Session) selectUp(_, _ geometry.Point, _ Modifiers) {
	drag := s.move
	s.move = nil
	if drag == nil || (drag.delta == geometry.Point{}) {
		return
	}

	cur := s.doc.Strokes(s.page)
	next := make([]models.Stroke, len(cur))
	for i, st := range cur {
		if st.ID == drag.id {
			st = st.Moved(drag.delta.X, drag.delta.Y)
		}
		next[i] = st
	}
	s.commit(next, false)
}

// hitTest ищет верхний штрих под точкой. Допуск задаётся в экранных пикселях (HitTolerance).
func (s *Session) hitTest(w geometry.Point) (models.Stroke, bool) {
	tol := s.camera.ScreenToWorldDistance(HitTolerance)
	strokes := s.doc.Strokes(s.page)
	for i := len(strokes) - 1; i >= 0; i-- {
		if hits(strokes[i], w, tol) {
			return strokes[i], true
		}
	}
	return models.Stroke{}, false
}

func hits(st models.Stroke, w geometry.Point, tol float64) bool {
	switch st.Kind {
	case models.KindCount:
		return w.Distance(geometry.Point{X: st.X, Y: st.Y}) <= tol
	case models.KindArea:
		return geometry.PointInPolygon(w, st.Points) || geometry.NearPolyline(w, st.Points, tol, true)
	default:
		return geometry.NearPolyline(w, st.Points, tol, false)
	}
}
