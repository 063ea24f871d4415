// Package persist сериализует сохранение документов разметки.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"takeoff/internal/takeoff/models"
)

// ============================================================
// Collaborators
// ============================================================

// Store: хранилище документов разметки.
type Store interface {
	Load(ctx context.Context, key models.DocumentKey) (*models.Document, error)
	Save(ctx context.Context, key models.DocumentKey, doc *models.Document) error
}

// Status: состояние сохранения документа.
type Status int

const (
	Idle Status = iota
	Saving
	Saved
	Failed
)

func (s Status) String() string {
	switch s {
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Event сообщает об изменении состояния сохранения.
type Event struct {
	Key    models.DocumentKey
	Status Status
	Err    error
}

// ============================================================
// Saver
// ============================================================

type queue struct {
	pending *models.Document
	running bool
	status  Status
	lastErr error
	idle    chan struct{}
}

// Saver держит не более одной записи на документ. Снимки, пришедшие во время записи,
// схлопываются до последнего, поэтому последним записывается последнее зафиксированное состояние.
type Saver struct {
	store    Store
	timeout  time.Duration
	logger   *slog.Logger
	onStatus func(Event)

	mu     sync.Mutex
	queues map[models.DocumentKey]*queue
}

// Option настраивает Saver.
type Option func(*Saver)

// WithTimeout ограничивает одну запись.
func WithTimeout(d time.Duration) Option {
	return func(s *Saver) { s.timeout = d }
}

// WithLogger задаёт логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Saver) { s.logger = l }
}

// WithStatus подписывает на события сохранения. Вызывается из горутины записи.
func WithStatus(fn func(Event)) Option {
	return func(s *Saver) { s.onStatus = fn }
}

// NewSaver создаёт очередь сохранения поверх store.
func NewSaver(store Store, opts ...Option) *Saver {
	s := &Saver{
		store:   store,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
		queues:  make(map[models.DocumentKey]*queue),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue ставит снимок документа в очередь. Документ копируется.
func (s *Saver) Enqueue(key models.DocumentKey, doc *models.Document) {
	snap := doc.Clone()

	s.mu.Lock()
	q, ok := s.queues[key]
	if !ok {
		q = &queue{}
		s.queues[key] = q
	}
	q.pending = snap
	if q.running {
		s.mu.Unlock()
		return
	}
	q.running = true
	q.idle = make(chan struct{})
	s.mu.Unlock()

	go s.drain(key, q)
}

func (s *Saver) drain(key models.DocumentKey, q *queue) {
	for {
		s.mu.Lock()
		doc := q.pending
		q.pending = nil
		if doc == nil {
			q.running = false
			close(q.idle)
			s.mu.Unlock()
			return
		}
		q.status = Saving
		s.mu.Unlock()

		s.emit(Event{Key: key, Status: Saving})
		err := s.write(key, doc)

		s.mu.Lock()
		if err != nil {
			q.status, q.lastErr = Failed, err
		} else {
			q.status, q.lastErr = Saved, nil
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Warn("takeoff save failed", "key", key.String(), "err", err)
			s.emit(Event{Key: key, Status: Failed, Err: err})
			continue
		}
		s.logger.Debug("takeoff saved", "key", key.String())
		s.emit(Event{Key: key, Status: Saved})
	}
}

func (s *Saver) write(key models.DocumentKey, doc *models.Document) error {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.store.Save(ctx, key, doc); err != nil {
		return fmt.Errorf("save takeoff %s: %w", key, err)
	}
	return nil
}

func (s *Saver) emit(ev Event) {
	if s.onStatus != nil {
		s.onStatus(ev)
	}
}

// State возвращает последнее состояние сохранения документа.
func (s *Saver) State(key models.DocumentKey) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[key]
	if !ok {
		return Idle, nil
	}
	if q.running {
		return Saving, nil
	}
	return q.status, q.lastErr
}

// Flush ждёт, пока очереди всех документов опустеют, или пока не истечёт ctx.
func (s *Saver) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		var wait chan struct{}
		for _, q := range s.queues {
			if q.running {
				wait = q.idle
				break
			}
		}
		s.mu.Unlock()

		if wait == nil {
			return nil
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
