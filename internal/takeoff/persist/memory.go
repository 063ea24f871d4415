package persist

import (
	"context"
	"sync"

	"takeoff/internal/takeoff/models"
)

// ============================================================
// Memory Store
// ============================================================

// MemoryStore хранит документы в памяти. Отсутствующий документ загружается пустым.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[models.DocumentKey]*models.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[models.DocumentKey]*models.Document)}
}

func (m *MemoryStore) Load(_ context.Context, key models.DocumentKey) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[key]
	if !ok {
		return models.NewDocument(), nil
	}
	return doc.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, key models.DocumentKey, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[key] = doc.Clone()
	return nil
}
