package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccine-registration/internal/models"
	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
)

const formStateKeyPrefix = "vaccine-form:state:"

// RedisFormStateRepository keeps form states in Redis with a per-session TTL.
type RedisFormStateRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisFormStateRepository constructs a Redis backed repository.
func NewRedisFormStateRepository(client *redis.Client, logger *zap.Logger) *RedisFormStateRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFormStateRepository{client: client, logger: logger}
}

func formStateKey(sessionID string) string {
	return formStateKeyPrefix + sessionID
}

// Load retrieves the state stored for a session.
func (r *RedisFormStateRepository) Load(ctx context.Context, sessionID string) (models.FormState, error) {
	if r.client == nil {
		return models.FormState{}, appErrors.ErrCacheMiss
	}

	key := formStateKey(sessionID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.FormState{}, appErrors.ErrCacheMiss
		}
		return models.FormState{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var state models.FormState
	if err := json.Unmarshal(raw, &state); err != nil {
		// A record we cannot read is treated as absent; the session starts over.
		r.logger.Warn("discarding unreadable form state", zap.String("key", key), zap.Error(err))
		return models.FormState{}, appErrors.ErrCacheMiss
	}
	return state, nil
}

// Save stores the state, refreshing its TTL.
func (r *RedisFormStateRepository) Save(ctx context.Context, sessionID string, state models.FormState, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := formStateKey(sessionID)
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal form state for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the session's state.
func (r *RedisFormStateRepository) Delete(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return nil
	}

	key := formStateKey(sessionID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

type memoryEntry struct {
	state     models.FormState
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryFormStateRepository keeps form states in process memory.
type MemoryFormStateRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryFormStateRepository constructs an in-memory repository.
func NewMemoryFormStateRepository() *MemoryFormStateRepository {
	return &MemoryFormStateRepository{entries: make(map[string]memoryEntry), now: time.Now}
}

// Load returns the session's state unless it is missing or expired.
func (r *MemoryFormStateRepository) Load(_ context.Context, sessionID string) (models.FormState, error) {
	r.mu.RLock()
	entry, ok := r.entries[sessionID]
	r.mu.RUnlock()
	if !ok {
		return models.FormState{}, appErrors.ErrCacheMiss
	}
	if entry.expired(r.now()) {
		r.mu.Lock()
		// A Save may have landed since the read lock was released.
		if current, ok := r.entries[sessionID]; ok && current.expired(r.now()) {
			delete(r.entries, sessionID)
		}
		r.mu.Unlock()
		return models.FormState{}, appErrors.ErrCacheMiss
	}
	return cloneState(entry.state), nil
}

// Save stores a copy of state. A non-positive ttl never expires.
func (r *MemoryFormStateRepository) Save(_ context.Context, sessionID string, state models.FormState, ttl time.Duration) error {
	entry := memoryEntry{state: cloneState(state)}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sessionID] = entry
	return nil
}

// Delete removes the session's state.
func (r *MemoryFormStateRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
	return nil
}

// PurgeExpired drops expired entries and reports how many were removed.
func (r *MemoryFormStateRepository) PurgeExpired() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, entry := range r.entries {
		if entry.expired(now) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired ones included.
func (r *MemoryFormStateRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func cloneState(state models.FormState) models.FormState {
	out := state
	if state.Invalid != nil {
		out.Invalid = make([]models.InvalidTag, len(state.Invalid))
		copy(out.Invalid, state.Invalid)
	}
	return out
}
