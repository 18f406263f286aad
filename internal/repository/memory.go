package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rocketscienceinc/t3ttt/internal/apperror"
	"github.com/rocketscienceinc/t3ttt/internal/entity"
)

type memoryEntry struct {
	board     entity.Board
	expiresAt time.Time
}

type memorySessionRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionRepository keeps boards in process memory with the same ttl semantics as the Redis store.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return newMemorySessionRepository(ttl, time.Now)
}

func newMemorySessionRepository(ttl time.Duration, now func() time.Time) *memorySessionRepository {
	return &memorySessionRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (that *memorySessionRepository) Save(_ context.Context, id string, board entity.Board) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.evictExpired()

	that.entries[id] = memoryEntry{board: board, expiresAt: that.expiry()}

	return nil
}

func (that *memorySessionRepository) GetByID(_ context.Context, id string) (entity.Board, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.lookup(id)
	if !ok {
		return entity.Board{}, apperror.ErrSessionNotFound
	}

	return entry.board, nil
}

func (that *memorySessionRepository) Touch(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.lookup(id)
	if !ok {
		return apperror.ErrSessionNotFound
	}

	entry.expiresAt = that.expiry()
	that.entries[id] = entry

	return nil
}

func (that *memorySessionRepository) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.lookup(id); !ok {
		return apperror.ErrSessionNotFound
	}

	delete(that.entries, id)

	return nil
}

// lookup returns a live entry and drops it if it has expired, the caller holds the lock.
func (that *memorySessionRepository) lookup(id string) (memoryEntry, bool) {
	entry, ok := that.entries[id]
	if !ok {
		return memoryEntry{}, false
	}

	if that.expired(entry) {
		delete(that.entries, id)
		return memoryEntry{}, false
	}

	return entry, true
}

// expiry returns the zero time when sessions never expire.
func (that *memorySessionRepository) expiry() time.Time {
	if that.ttl <= 0 {
		return time.Time{}
	}

	return that.now().Add(that.ttl)
}

func (that *memorySessionRepository) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !that.now().Before(entry.expiresAt)
}

// evictExpired drops stale entries, the caller holds the lock.
func (that *memorySessionRepository) evictExpired() {
	for id, entry := range that.entries {
		if that.expired(entry) {
			delete(that.entries, id)
		}
	}
}
