package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"matrix-api/domain"
)

// Store persists the role decision for one identity between launches.
type Store interface {
	Load(ctx context.Context, identityID string) (domain.SessionConfig, bool, error)
	Save(ctx context.Context, identityID string, cfg domain.SessionConfig) error
	Clear(ctx context.Context, identityID string) error
}

// RedisStore keeps session configs in Redis so any instance can serve a
// returning caller.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a session store using the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(identityID string) string {
	return "session:" + identityID
}

func (s *RedisStore) Load(ctx context.Context, identityID string) (domain.SessionConfig, bool, error) {
	data, err := s.client.Get(ctx, sessionKey(identityID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.SessionConfig{}, false, nil
		}
		return domain.SessionConfig{}, false, err
	}
	var cfg domain.SessionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.SessionConfig{}, false, err
	}
	return cfg, true, nil
}

func (s *RedisStore) Save(ctx context.Context, identityID string, cfg domain.SessionConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(identityID), data, 0).Err()
}

func (s *RedisStore) Clear(ctx context.Context, identityID string) error {
	return s.client.Del(ctx, sessionKey(identityID)).Err()
}

// MemoryStore is a process-local session store used when Redis is not
// configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]domain.SessionConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]domain.SessionConfig)}
}

func (s *MemoryStore) Load(_ context.Context, identityID string) (domain.SessionConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.data[identityID]
	return cfg, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, identityID string, cfg domain.SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[identityID] = cfg
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, identityID)
	return nil
}
