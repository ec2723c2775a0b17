package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NonceStore issues and verifies anti-forgery tokens tied to an admin
// session. A nonce stays valid for its TTL and may be reused within it;
// re-issuing for the same session replaces the previous nonce.
type NonceStore interface {
	Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, sessionID, nonce string) (bool, error)
}

// RedisNonceStore keeps nonces in Redis so they survive restarts and are
// shared across replicas.
type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func nonceKey(sessionID string) string {
	return "nonce:" + sessionID
}

func (s *RedisNonceStore) Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, error) {
	nonce := uuid.NewString()
	if err := s.client.Set(ctx, nonceKey(sessionID), nonce, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}
	return nonce, nil
}

func (s *RedisNonceStore) Verify(ctx context.Context, sessionID, nonce string) (bool, error) {
	stored, err := s.client.Get(ctx, nonceKey(sessionID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load nonce: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(nonce)) == 1, nil
}

// MemoryNonceStore keeps nonces in process memory for tests and
// development runs without Redis.
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[string]memoryNonce
}

type memoryNonce struct {
	value   string
	expires time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{nonces: make(map[string]memoryNonce)}
}

func (s *MemoryNonceStore) Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, error) {
	nonce := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[sessionID] = memoryNonce{value: nonce, expires: time.Now().Add(ttl)}
	return nonce, nil
}

func (s *MemoryNonceStore) Verify(ctx context.Context, sessionID, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.nonces[sessionID]
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expires) {
		delete(s.nonces, sessionID)
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(entry.value), []byte(nonce)) == 1, nil
}
