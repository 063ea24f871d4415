// Package editor реализует сессию редактирования разметки одного документа.
// Сессию ведёт внешний цикл событий интерфейса: он передаёт события указателя и клавиш
// и доставляет результаты render.Scheduler через ApplyRender.
package editor

import (
	"fmt"
	"strings"
)

// ============================================================
// Tools
// ============================================================

// Tool: активный инструмент. Набор закрыт.
type Tool int

const (
	ToolPan Tool = iota
	ToolLine
	ToolArea
	ToolCount
	ToolMeasure
	ToolCalibrate
	ToolSelect
)

type toolSpec struct {
	name string
	key  string
}

var toolTable = [...]toolSpec{
	ToolPan:       {name: "pan", key: "h"},
	ToolLine:      {name: "line", key: "l"},
	ToolArea:      {name: "area", key: "a"},
	ToolCount:     {name: "count", key: "c"},
	ToolMeasure:   {name: "measure", key: "m"},
	ToolCalibrate: {name: "calibrate"},
	ToolSelect:    {name: "select", key: "v"},
}

func (t Tool) valid() bool {
	return t >= ToolPan && int(t) < len(toolTable)
}

func (t Tool) String() string {
	if !t.valid() {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolTable[t].name
}

// ParseTool разбирает имя инструмента.
func ParseTool(name string) (Tool, error) {
	for i, spec := range toolTable {
		if spec.name == strings.ToLower(strings.TrimSpace(name)) {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

func toolForKey(key string) (Tool, bool) {
	for i, spec := range toolTable {
		if spec.key != "" && spec.key == key {
			return Tool(i), true
		}
	}
	return 0, false
}

// ============================================================
// Input
// ============================================================

// Modifiers: состояние клавиш-модификаторов при событии указателя.
type Modifiers struct {
	Shift bool
}

// Key: нажатие клавиши. Name совпадает с KeyboardEvent.key.
type Key struct {
	Name  string
	Ctrl  bool
	Meta  bool
	Shift bool
}

func (k Key) command() bool {
	return k.Ctrl || k.Meta
}
