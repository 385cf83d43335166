package service

import (
	"context"
	"time"

	"wellmeet/internal/domain"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
)

// SessionService is the session store used by the dialog and the bot. It
// logs repository failures with the user they belong to.
type SessionService struct {
	repo   domain.SessionRepository
	logger *zerolog.Logger
}

func NewSessionService(repo domain.SessionRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		logger: logger,
	}
}

func (s *SessionService) GetSession(ctx context.Context, userID int64) (*models.ConversationSession, error) {
	session, err := s.repo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get dialog session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) SaveSession(ctx context.Context, session *models.ConversationSession) error {
	if err := s.repo.SaveSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", session.UserID).Str("state", session.State).Msg("failed to save dialog session")
		return err
	}
	return nil
}

func (s *SessionService) ClearSession(ctx context.Context, userID int64) error {
	if err := s.repo.ClearSession(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to clear dialog session")
		return err
	}
	return nil
}

// CheckRateLimit lets the message through when the limiter itself fails.
func (s *SessionService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	allowed, err := s.repo.CheckRateLimit(ctx, userID, limit, window)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("rate limit check failed")
		return true, err
	}
	if !allowed {
		s.logger.Debug().Int64("user_id", userID).Msg("rate limit exceeded")
	}
	return allowed, nil
}
