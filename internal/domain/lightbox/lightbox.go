// Пакет lightbox — конечный автомат просмотра изображений.
//
// Состояния:
//   - closed — начальное и конечное состояние
//   - open(index, zoom) — открыт просмотр изображения с позицией index
//     внутри подмножества изображений сущности
//
// Навигация next/prev циклическая и сбрасывает zoom в 1.0.
// Zoom меняется шагом 0.25 в пределах [0.5, 3.0].
//
// Потокобезопасен через sync.RWMutex.
package lightbox

import (
	"fmt"
	"sync"
)

// Параметры масштабирования.
const (
	DefaultZoom = 1.0
	ZoomStep    = 0.25
	MinZoom     = 0.5
	MaxZoom     = 3.0
)

// Коды ошибок переходов.
const (
	CodeInvalidIndex = "INVALID_INDEX"
	CodeNotOpen      = "NOT_OPEN"
)

// State — снимок состояния автомата.
type State struct {
	// Open — true в состоянии open
	Open bool `json:"open"`
	// Index — позиция в подмножестве изображений (0 при closed)
	Index int `json:"index"`
	// Zoom — текущий масштаб
	Zoom float64 `json:"zoom"`
	// Total — размер подмножества изображений
	Total int `json:"total"`
}

// Lightbox — конечный автомат просмотра изображений.
type Lightbox struct {
	mu    sync.RWMutex
	total int
	open  bool
	index int
	zoom  float64
}

// New создаёт автомат в состоянии closed для подмножества из total изображений.
func New(total int) *Lightbox {
	if total < 0 {
		total = 0
	}
	return &Lightbox{total: total, zoom: DefaultZoom}
}

// State возвращает текущее состояние.
func (l *Lightbox) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return State{Open: l.open, Index: l.index, Zoom: l.zoom, Total: l.total}
}

// Reset задаёт новый размер подмножества и закрывает просмотр.
// Вызывается при обновлении списка вложений.
func (l *Lightbox) Reset(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if total < 0 {
		total = 0
	}
	l.total = total
	l.open = false
	l.index = 0
	l.zoom = DefaultZoom
}

// Open открывает просмотр на позиции index, zoom = 1.0.
func (l *Lightbox) Open(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= l.total {
		return &TransitionError{
			Code:    CodeInvalidIndex,
			Message: fmt.Sprintf("позиция %d вне диапазона [0, %d)", index, l.total),
		}
	}

	l.open = true
	l.index = index
	l.zoom = DefaultZoom
	return nil
}

// Next переходит к следующему изображению, после последнего — к первому.
func (l *Lightbox) Next() (State, error) {
	return l.step(1)
}

// Prev переходит к предыдущему изображению, перед первым — к последнему.
func (l *Lightbox) Prev() (State, error) {
	return l.step(-1)
}

// step — циклическая навигация со сбросом zoom.
func (l *Lightbox) step(delta int) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return l.stateLocked(), notOpen()
	}

	l.index = ((l.index+delta)%l.total + l.total) % l.total
	l.zoom = DefaultZoom
	return l.stateLocked(), nil
}

// ZoomIn увеличивает масштаб на шаг, не выше MaxZoom.
func (l *Lightbox) ZoomIn() (State, error) {
	return l.zoomBy(ZoomStep)
}

// ZoomOut уменьшает масштаб на шаг, не ниже MinZoom.
func (l *Lightbox) ZoomOut() (State, error) {
	return l.zoomBy(-ZoomStep)
}

func (l *Lightbox) zoomBy(delta float64) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return l.stateLocked(), notOpen()
	}

	l.zoom = clamp(l.zoom+delta, MinZoom, MaxZoom)
	return l.stateLocked(), nil
}

// Close закрывает просмотр и сбрасывает zoom. Из closed — no-op.
func (l *Lightbox) Close() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.open = false
	l.index = 0
	l.zoom = DefaultZoom
	return l.stateLocked()
}

func (l *Lightbox) stateLocked() State {
	return State{Open: l.open, Index: l.index, Zoom: l.zoom, Total: l.total}
}

// Neighbors возвращает позиции предыдущего и следующего изображения для index
// в подмножестве размера total. Для total == 1 обе позиции равны index.
func Neighbors(index, total int) (prev, next int) {
	if total <= 0 {
		return 0, 0
	}
	prev = ((index-1)%total + total) % total
	next = (index + 1) % total
	return prev, next
}

// TransitionError — ошибка перехода автомата.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_INDEX, NOT_OPEN)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func notOpen() error {
	return &TransitionError{Code: CodeNotOpen, Message: "просмотр не открыт"}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
