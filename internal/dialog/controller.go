package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wellmeet/internal/domain"
	"wellmeet/internal/events"
	"wellmeet/internal/metrics"
	"wellmeet/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInputDisabled    = errors.New("dialog: input is disabled while the assistant is thinking")
	ErrEmptyMessage     = errors.New("dialog: empty message")
	ErrUnknownOption    = errors.New("dialog: option is not offered by the current turn")
	ErrNoSession        = errors.New("dialog: no active session")
	ErrUnknownCandidate = errors.New("dialog: candidate is not part of this conversation")
)

// staleThinkingGrace is added to the delay before a thinking flag left behind
// by a lost timer (process restart) stops blocking input.
const staleThinkingGrace = time.Minute

// Listener receives every assistant turn after it has been saved.
type Listener func(ctx context.Context, session *models.ConversationSession, turn models.Turn)

// Controller owns the per-user conversation. All mutations of one user's
// session go through a per-user lock, so a delayed reply never interleaves
// with a user turn.
type Controller struct {
	store     domain.SessionStore
	strategy  Strategy
	scheduler Scheduler
	delay     time.Duration
	bridge    domain.QuickReservationBridge
	publisher domain.EventPublisher
	listener  Listener
	logger    *zerolog.Logger
	now       func() time.Time

	locks sync.Map // int64 -> *sync.Mutex
}

func NewController(store domain.SessionStore, strategy Strategy, delay time.Duration, logger *zerolog.Logger) *Controller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Controller{
		store:     store,
		strategy:  strategy,
		scheduler: TimerScheduler{},
		delay:     delay,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *Controller) WithScheduler(s Scheduler) *Controller {
	c.scheduler = s
	return c
}

func (c *Controller) WithBridge(b domain.QuickReservationBridge) *Controller {
	c.bridge = b
	return c
}

func (c *Controller) WithPublisher(p domain.EventPublisher) *Controller {
	c.publisher = p
	return c
}

func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// OnReply sets the listener for assistant turns.
func (c *Controller) OnReply(l Listener) {
	c.listener = l
}

func (c *Controller) Mode() string {
	return c.strategy.Mode()
}

func (c *Controller) lock(userID int64) func() {
	v, _ := c.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Start replaces any existing conversation with a fresh one holding only
// the greeting. A reply still pending for the old conversation is dropped.
func (c *Controller) Start(ctx context.Context, userID int64) (*models.ConversationSession, error) {
	unlock := c.lock(userID)
	now := c.now()
	session := &models.ConversationSession{
		UserID:    userID,
		Mode:      c.strategy.Mode(),
		State:     c.strategy.InitialState(),
		CreatedAt: now,
	}
	greeting := c.stamp(c.strategy.Greeting(), now)
	session.Append(greeting)

	err := c.store.SaveSession(ctx, session)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	metrics.IncTurn(string(models.SpeakerAssistant), session.State)
	c.logger.Info().Int64("user_id", userID).Str("mode", session.Mode).Msg("dialog started")
	c.notify(ctx, session, greeting)
	return session.Clone(), nil
}

// Reset is Start under the name the front-ends use for "new conversation".
func (c *Controller) Reset(ctx context.Context, userID int64) (*models.ConversationSession, error) {
	return c.Start(ctx, userID)
}

// Session returns a copy of the user's conversation.
func (c *Controller) Session(ctx context.Context, userID int64) (*models.ConversationSession, error) {
	session, err := c.store.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}
	return session.Clone(), nil
}

// Submit appends the user turn and schedules the assistant reply after the
// thinking delay. While a reply is pending further input is refused with
// ErrInputDisabled and nothing is queued.
func (c *Controller) Submit(ctx context.Context, userID int64, text string) (*models.ConversationSession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock := c.lock(userID)
	session, err := c.store.GetSession(ctx, userID)
	if err != nil {
		unlock()
		return nil, err
	}
	if session == nil {
		unlock()
		return nil, ErrNoSession
	}
	if c.isThinking(session) {
		unlock()
		return nil, ErrInputDisabled
	}

	now := c.now()
	userTurn := c.stamp(models.Turn{Speaker: models.SpeakerUser, Content: text, Kind: models.TurnPlain}, now)
	session.Append(userTurn)
	session.Thinking = true
	if err := c.store.SaveSession(ctx, session); err != nil {
		unlock()
		return nil, fmt.Errorf("save user turn: %w", err)
	}
	unlock()

	metrics.IncTurn(string(models.SpeakerUser), session.State)
	c.logger.Debug().Int64("user_id", userID).Str("state", session.State).Msg("user turn accepted")

	replyCtx := context.WithoutCancel(ctx)
	c.scheduler.AfterFunc(c.delay, func() {
		c.respond(replyCtx, userID, userTurn.ID, text)
	})
	return session.Clone(), nil
}

// SelectOption submits a quick-reply label offered by the current turn.
func (c *Controller) SelectOption(ctx context.Context, userID int64, option string) (*models.ConversationSession, error) {
	session, err := c.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.isThinking(session) {
		return nil, ErrInputDisabled
	}
	for _, o := range session.QuickReplies() {
		if o == option {
			return c.Submit(ctx, userID, option)
		}
	}
	return nil, ErrUnknownOption
}

// ReserveCandidate hands the chosen candidate and the collected party size
// to the next reservation draft.
func (c *Controller) ReserveCandidate(ctx context.Context, userID int64, candidateID string) (models.Candidate, error) {
	session, err := c.Session(ctx, userID)
	if err != nil {
		return models.Candidate{}, err
	}
	candidate, ok := session.FindCandidate(candidateID)
	if !ok {
		return models.Candidate{}, ErrUnknownCandidate
	}
	if c.bridge != nil {
		payload := models.QuickReservationPayload{
			RestaurantID:    candidate.ID,
			PartySizeBucket: session.Slots.PartySize,
		}
		if err := c.bridge.Offer(ctx, userID, payload); err != nil {
			return models.Candidate{}, fmt.Errorf("offer quick reservation: %w", err)
		}
	}
	return candidate, nil
}

func (c *Controller) respond(ctx context.Context, userID int64, userTurnID, text string) {
	unlock := c.lock(userID)
	session, err := c.store.GetSession(ctx, userID)
	if err != nil || session == nil {
		unlock()
		c.logger.Warn().Err(err).Int64("user_id", userID).Msg("pending reply dropped: session unavailable")
		return
	}
	// сессию сбросили или ответ уже дан
	if !session.Thinking || len(session.Turns) == 0 || session.Turns[len(session.Turns)-1].ID != userTurnID {
		unlock()
		return
	}

	turn := c.stamp(c.strategy.Reply(ctx, session, text), c.now())
	session.Append(turn)
	session.Thinking = false
	if err := c.store.SaveSession(ctx, session); err != nil {
		unlock()
		c.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to save assistant turn")
		return
	}
	unlock()

	metrics.IncTurn(string(models.SpeakerAssistant), session.State)
	if turn.Kind == models.TurnCandidateList {
		c.publishCompleted(session, turn)
	}
	c.notify(ctx, session.Clone(), turn)
}

func (c *Controller) publishCompleted(session *models.ConversationSession, turn models.Turn) {
	if c.publisher == nil {
		return
	}
	ids := make([]string, 0, len(turn.Candidates))
	for _, cand := range turn.Candidates {
		ids = append(ids, cand.ID)
	}
	payload := events.RecommendationEventPayload{
		UserID:       session.UserID,
		Mode:         session.Mode,
		Intent:       session.Intent,
		Outcome:      turn.Outcome,
		CandidateIDs: ids,
	}
	if err := c.publisher.PublishJSON(events.EventRecommendationCompleted, payload); err != nil {
		c.logger.Warn().Err(err).Int64("user_id", session.UserID).Msg("failed to publish recommendation event")
	}
}

func (c *Controller) notify(ctx context.Context, session *models.ConversationSession, turn models.Turn) {
	if c.listener != nil {
		c.listener(ctx, session, turn)
	}
}

func (c *Controller) isThinking(session *models.ConversationSession) bool {
	if !session.Thinking {
		return false
	}
	return c.now().Sub(session.UpdatedAt) < c.delay+staleThinkingGrace
}

func (c *Controller) stamp(turn models.Turn, at time.Time) models.Turn {
	turn.ID = uuid.NewString()
	turn.Timestamp = at
	return turn
}
