// Package history хранит стеки отмены и повтора для каждой страницы документа.
package history

import (
	"takeoff/internal/takeoff/models"
)

// DefaultLimit: глубина стека по умолчанию.
const DefaultLimit = 100

// Key идентифицирует страницу документа.
type Key struct {
	Doc  string
	Page int
}

type stacks struct {
	undo [][]models.Stroke
	redo [][]models.Stroke
}

// Manager: менеджер истории. Не потокобезопасен: используется из одной сессии редактора.
type Manager struct {
	limit int
	pages map[Key]*stacks
}

// New создаёт менеджер с ограничением глубины limit (<= 0 означает DefaultLimit).
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit, pages: make(map[Key]*stacks)}
}

func (m *Manager) get(key Key) *stacks {
	st, ok := m.pages[key]
	if !ok {
		st = &stacks{}
		m.pages[key] = st
	}
	return st
}

// Commit запоминает копию списка до изменения и очищает стек повтора.
func (m *Manager) Commit(key Key, current []models.Stroke) {
	st := m.get(key)
	st.undo = m.push(st.undo, current)
	st.redo = nil
}

// Undo возвращает предыдущий список; current уходит в стек повтора.
func (m *Manager) Undo(key Key, current []models.Stroke) ([]models.Stroke, bool) {
	st, ok := m.pages[key]
	if !ok || len(st.undo) == 0 {
		return nil, false
	}
	prev := st.undo[len(st.undo)-1]
	st.undo = st.undo[:len(st.undo)-1]
	st.redo = m.push(st.redo, current)
	return models.CloneStrokes(prev), true
}

// Redo возвращает отменённый список; current уходит в стек отмены.
func (m *Manager) Redo(key Key, current []models.Stroke) ([]models.Stroke, bool) {
	st, ok := m.pages[key]
	if !ok || len(st.redo) == 0 {
		return nil, false
	}
	next := st.redo[len(st.redo)-1]
	st.redo = st.redo[:len(st.redo)-1]
	st.undo = m.push(st.undo, current)
	return models.CloneStrokes(next), true
}

// CanUndo сообщает, есть ли что отменять.
func (m *Manager) CanUndo(key Key) bool {
	st, ok := m.pages[key]
	return ok && len(st.undo) > 0
}

// CanRedo сообщает, есть ли что повторять.
func (m *Manager) CanRedo(key Key) bool {
	st, ok := m.pages[key]
	return ok && len(st.redo) > 0
}

// Depth возвращает размеры стеков страницы.
func (m *Manager) Depth(key Key) (undo, redo int) {
	if st, ok := m.pages[key]; ok {
		return len(st.undo), len(st.redo)
	}
	return 0, 0
}

// Forget удаляет историю всех страниц документа.
func (m *Manager) Forget(doc string) {
	for k := range m.pages {
		if k.Doc == doc {
			delete(m.pages, k)
		}
	}
}

// push добавляет глубокую копию и вытесняет самые старые записи сверх лимита.
func (m *Manager) push(stack [][]models.Stroke, list []models.Stroke) [][]models.Stroke {
	snap := models.CloneStrokes(list)
	if snap == nil {
		snap = []models.Stroke{}
	}
	stack = append(stack, snap)
	if over := len(stack) - m.limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
