package models

import (
	"github.com/google/uuid"
)

// ============================================================
// Identifiers
// ============================================================

// Generator выдаёт уникальные строковые идентификаторы.
type Generator func() string

// UUIDv7: генератор сортируемых по времени UUID (RFC 9562).
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// IDs: генератор идентификаторов штрихов и позиций каталога.
var IDs Generator = UUIDv7()

// NewID выдаёт новый идентификатор.
func NewID() string {
	return IDs()
}
