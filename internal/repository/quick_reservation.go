package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"wellmeet/internal/models"

	"github.com/redis/go-redis/v9"
)

// MemoryQuickReservationStore is a single-slot mailbox per user. A later
// Offer replaces a payload nobody has taken yet.
type MemoryQuickReservationStore struct {
	mu      sync.Mutex
	pending map[int64]quickEntry
	ttl     time.Duration
}

type quickEntry struct {
	payload   models.QuickReservationPayload
	expiresAt time.Time
}

func NewMemoryQuickReservationStore(ttl time.Duration) *MemoryQuickReservationStore {
	return &MemoryQuickReservationStore{
		pending: make(map[int64]quickEntry),
		ttl:     ttl,
	}
}

func (s *MemoryQuickReservationStore) Offer(ctx context.Context, userID int64, payload models.QuickReservationPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = quickEntry{payload: payload, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Take returns the pending payload and removes it in the same critical
// section; a second Take gets nil.
func (s *MemoryQuickReservationStore) Take(ctx context.Context, userID int64) (*models.QuickReservationPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[userID]
	if !ok {
		return nil, nil
	}
	delete(s.pending, userID)

	if s.ttl > 0 && time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	payload := entry.payload
	return &payload, nil
}

// RedisQuickReservationStore keeps the payload under a TTL key and takes it
// with GETDEL, so two readers can never both get it.
type RedisQuickReservationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisQuickReservationStore(client *redis.Client, ttl time.Duration) *RedisQuickReservationStore {
	return &RedisQuickReservationStore{client: client, ttl: ttl}
}

func quickReservationKey(userID int64) string {
	return fmt.Sprintf("quick_reservation:%d", userID)
}

func (s *RedisQuickReservationStore) Offer(ctx context.Context, userID int64, payload models.QuickReservationPayload) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal quick reservation: %w", err)
	}
	if err := s.client.Set(ctx, quickReservationKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store quick reservation: %w", err)
	}
	return nil
}

func (s *RedisQuickReservationStore) Take(ctx context.Context, userID int64) (*models.QuickReservationPayload, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := s.client.GetDel(ctx, quickReservationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take quick reservation: %w", err)
	}

	var payload models.QuickReservationPayload
	if err := json.Unmarshal([]byte(val), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quick reservation: %w", err)
	}
	return &payload, nil
}
