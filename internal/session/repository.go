// internal/session/repository.go
//
// Persistence interface for sessions plus the in-memory implementation.
// A Record is self-sufficient: the full roster and GameState, with enough
// adventure metadata to re-attach static content on restore. Static
// content itself is never persisted.
//
// Implementations may be backed by memory (tests, durability-free runs)
// or SQLite (see sqlite.go).

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
)

// ErrRecordNotFound is returned by Load for unknown session ids.
var ErrRecordNotFound = errors.New("session record not found")

// Member is one roster entry: identity, chosen role, readiness.
type Member struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Role     string `json:"role,omitempty"`
	Ready    bool   `json:"ready"`
}

// Record is the durable snapshot of one session.
type Record struct {
	ID          string            `json:"id"`
	AdventureID string            `json:"adventureId"`
	HostID      string            `json:"hostId"`
	Phase       string            `json:"phase"`
	Members     []Member          `json:"members"`
	Game        *engine.GameState `json:"gameState,omitempty"`
	CreatedAt   int64             `json:"createdAt"`
}

// Repository persists session records keyed by session id.
type Repository interface {
	// Save inserts or replaces the record.
	Save(ctx context.Context, rec *Record) error

	// Load retrieves a record by session id.
	// Returns ErrRecordNotFound if absent.
	Load(ctx context.Context, id string) (*Record, error)

	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error
}

// memoryRepository is a map-based Repository for tests and ephemeral runs.
type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryRepository constructs an in-memory Repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]*Record)}
}

func (m *memoryRepository) Save(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memoryRepository) Load(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return nil, ErrRecordNotFound
}

func (m *memoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}
