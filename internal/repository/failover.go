package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wellmeet/internal/domain"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
)

const failoverProbeInterval = time.Minute

// failoverState tracks whether a primary store is failing. While it is
// down, the primary is retried once per probe interval.
type failoverState struct {
	name   string
	logger *zerolog.Logger
	isDown atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

// usePrimary reports whether the next call should go to the primary store.
func (f *failoverState) usePrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) > failoverProbeInterval {
		f.lastCheck = time.Now()
		return true
	}
	return false
}

func (f *failoverState) observe(op string, err error) {
	if err == nil {
		if f.isDown.Swap(false) {
			f.logger.Info().Str("store", f.name).Str("op", op).Msg("Primary store recovered")
		}
		return
	}
	if !f.isDown.Swap(true) {
		f.logger.Error().Err(err).Str("store", f.name).Str("op", op).Msg("Primary store failed, falling back to memory")
	}
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

// FailoverSessionRepository switches to the fallback store while the
// primary is failing and probes the primary again after a minute.
type FailoverSessionRepository struct {
	failoverState
	primary  domain.SessionRepository
	fallback domain.SessionRepository
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		failoverState: failoverState{name: "sessions", logger: logger},
		primary:       primary,
		fallback:      fallback,
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, userID int64) (*models.ConversationSession, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, userID)
		r.observe("get", err)
		if err == nil {
			return session, nil
		}
	}
	return r.fallback.GetSession(ctx, userID)
}

// SaveSession always writes the fallback too, so a switch-over keeps the
// latest dialog state.
func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.ConversationSession) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		r.observe("save", err)
		if err == nil {
			_ = r.fallback.SaveSession(ctx, session)
			return nil
		}
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, userID int64) error {
	ferr := r.fallback.ClearSession(ctx, userID)
	if r.usePrimary() {
		err := r.primary.ClearSession(ctx, userID)
		r.observe("clear", err)
		if err == nil {
			return nil
		}
	}
	return ferr
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.observe("rate_limit", err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}

// FailoverQuickReservationStore hands payloads through Redis and keeps
// working on the in-memory store while Redis is unreachable.
type FailoverQuickReservationStore struct {
	failoverState
	primary  domain.QuickReservationBridge
	fallback domain.QuickReservationBridge
}

func NewFailoverQuickReservationStore(primary, fallback domain.QuickReservationBridge, logger *zerolog.Logger) *FailoverQuickReservationStore {
	return &FailoverQuickReservationStore{
		failoverState: failoverState{name: "quick_reservations", logger: logger},
		primary:       primary,
		fallback:      fallback,
	}
}

// Offer writes to exactly one store so a payload can be taken only once.
func (s *FailoverQuickReservationStore) Offer(ctx context.Context, userID int64, payload models.QuickReservationPayload) error {
	if s.usePrimary() {
		err := s.primary.Offer(ctx, userID, payload)
		s.observe("offer", err)
		if err == nil {
			return nil
		}
	}
	return s.fallback.Offer(ctx, userID, payload)
}

// Take drains both stores. A payload offered during an outage is still
// found after the primary recovers; the primary wins when both hold one.
func (s *FailoverQuickReservationStore) Take(ctx context.Context, userID int64) (*models.QuickReservationPayload, error) {
	var fromPrimary *models.QuickReservationPayload
	if s.usePrimary() {
		payload, err := s.primary.Take(ctx, userID)
		s.observe("take", err)
		if err == nil {
			fromPrimary = payload
		}
	}

	fromFallback, err := s.fallback.Take(ctx, userID)
	if fromPrimary != nil {
		return fromPrimary, nil
	}
	return fromFallback, err
}
