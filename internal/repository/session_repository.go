package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no teacher is bound to a session id.
var ErrSessionNotFound = errors.New("repository: session not found")

// RedisSessionRepository binds session ids to teacher ids in Redis.
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionRepository constructs a Redis backed session store.
func NewRedisSessionRepository(client *redis.Client, prefix string) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, prefix: prefix}
}

func (r *RedisSessionRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

// Bind stores the teacher id for the session until ttl elapses.
func (r *RedisSessionRepository) Bind(ctx context.Context, sessionID string, teacherID int64, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(sessionID), teacherID, ttl).Err(); err != nil {
		return fmt.Errorf("redis bind session: %w", err)
	}
	return nil
}

// Lookup returns the teacher id bound to the session.
func (r *RedisSessionRepository) Lookup(ctx context.Context, sessionID string) (int64, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("redis lookup session: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session binding: %w", err)
	}
	return id, nil
}

// Clear removes the binding. Clearing an unknown session is not an error.
func (r *RedisSessionRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

type memorySession struct {
	teacherID int64
	expiresAt time.Time
}

// MemorySessionRepository keeps session bindings in process memory. It backs
// single instance deployments running without Redis.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionRepository constructs an empty in-memory session store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]memorySession), now: time.Now}
}

// Bind stores the teacher id for the session until ttl elapses.
func (r *MemorySessionRepository) Bind(_ context.Context, sessionID string, teacherID int64, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = memorySession{teacherID: teacherID, expiresAt: r.now().Add(ttl)}
	return nil
}

// Lookup returns the teacher id bound to the session. Expired bindings are dropped.
func (r *MemorySessionRepository) Lookup(_ context.Context, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	if !r.now().Before(session.expiresAt) {
		delete(r.sessions, sessionID)
		return 0, ErrSessionNotFound
	}
	return session.teacherID, nil
}

// Clear removes the binding.
func (r *MemorySessionRepository) Clear(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
