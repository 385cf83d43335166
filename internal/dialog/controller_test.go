package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wellmeet/internal/api"
	"wellmeet/internal/events"
	"wellmeet/internal/models"
	"wellmeet/internal/recommend"
	"wellmeet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	s.delays = append(s.delays, d)
}

func (s *manualScheduler) RunAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

type countingMatcher struct {
	inner   Matcher
	calls   int
	queries []models.MatchQuery
}

func (m *countingMatcher) Match(ctx context.Context, q models.MatchQuery) recommend.Result {
	m.calls++
	m.queries = append(m.queries, q)
	return m.inner.Match(ctx, q)
}

type scriptedText struct {
	responses []func() ([]models.Candidate, error)
	queries   []string
}

func (s *scriptedText) Recommend(_ context.Context, query string) ([]models.Candidate, error) {
	s.queries = append(s.queries, query)
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next()
}

type failingMatcher struct{ err error }

func (f failingMatcher) Match(context.Context, models.MatchQuery) recommend.Result {
	return recommend.Classify(nil, f.err)
}

func newFixedController(t *testing.T, m Matcher) (*Controller, *repository.MemorySessionRepository) {
	t.Helper()
	repo := repository.NewMemorySessionRepository(time.Hour)
	c := NewController(repo, FixedStrategy{Matcher: m}, 1500*time.Millisecond, nil).
		WithScheduler(ImmediateScheduler{})
	return c, repo
}

func lastTurn(t *testing.T, s *models.ConversationSession) models.Turn {
	t.Helper()
	require.NotEmpty(t, s.Turns)
	return s.Turns[len(s.Turns)-1]
}

func TestFixedDialog_ThreeRepliesReachComplete(t *testing.T) {
	ctx := context.Background()
	matcher := &countingMatcher{inner: recommend.NewMatcher(nil, nil, nil)}
	c, _ := newFixedController(t, matcher)

	session, err := c.Start(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateInitial, session.State)
	require.Len(t, session.Turns, 1)
	assert.Equal(t, msgGreetingFixed, session.Turns[0].Content)
	assert.Empty(t, session.QuickReplies())

	_, err = c.Submit(ctx, 1, "여자친구랑 기념일 데이트")
	require.NoError(t, err)
	session, err = c.Session(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateAskingPartySize, session.State)
	assert.Equal(t, recommend.PartySizeBuckets, session.QuickReplies())
	assert.Equal(t, string(recommend.IntentDate), session.Intent)

	_, err = c.SelectOption(ctx, 1, "2명")
	require.NoError(t, err)
	session, err = c.Session(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateAskingBudget, session.State)
	assert.Equal(t, recommend.BudgetBuckets, session.QuickReplies())
	assert.Equal(t, 0, matcher.calls)

	_, err = c.SelectOption(ctx, 1, "12-20만원")
	require.NoError(t, err)
	session, err = c.Session(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, models.StateComplete, session.State)
	assert.False(t, session.Thinking)
	assert.Equal(t, 1, matcher.calls)
	assert.Equal(t, models.SlotAnswers{Situation: "여자친구랑 기념일 데이트", PartySize: "2명", Budget: "12-20만원"}, session.Slots)
	require.Len(t, session.Turns, 7)

	final := lastTurn(t, session)
	assert.Equal(t, models.TurnCandidateList, final.Kind)
	assert.Equal(t, "데이트에 완벽한 3곳을 추천드려요! 🎉", final.Content)
	assert.Equal(t, string(recommend.OutcomeResults), final.Outcome)
	ids := []string{final.Candidates[0].ID, final.Candidates[1].ID, final.Candidates[2].ID}
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	for i, turn := range session.Turns {
		assert.NotEmpty(t, turn.ID)
		if i%2 == 0 {
			assert.Equal(t, models.SpeakerAssistant, turn.Speaker)
		} else {
			assert.Equal(t, models.SpeakerUser, turn.Speaker)
		}
	}
}

func TestFixedDialog_UnmappedBucketsCompleteEmpty(t *testing.T) {
	ctx := context.Background()
	c, _ := newFixedController(t, recommend.NewMatcher(nil, nil, nil))

	_, err := c.Start(ctx, 2)
	require.NoError(t, err)
	for _, text := range []string{"동창 모임", "5명 이상", "30만원 이상"} {
		_, err = c.Submit(ctx, 2, text)
		require.NoError(t, err)
	}

	session, err := c.Session(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateComplete, session.State)
	final := lastTurn(t, session)
	assert.Equal(t, models.TurnCandidateList, final.Kind)
	assert.Empty(t, final.Candidates)
	assert.Equal(t, string(recommend.OutcomeEmpty), final.Outcome)
	assert.Equal(t, msgNoMatch, final.Content)
}

func TestFixedDialog_CompleteAnswersWithAcknowledgement(t *testing.T) {
	ctx := context.Background()
	matcher := &countingMatcher{inner: recommend.NewMatcher(nil, nil, nil)}
	c, _ := newFixedController(t, matcher)

	_, err := c.Start(ctx, 3)
	require.NoError(t, err)
	for _, text := range []string{"가족 식사", "4명", "8-12만원", "하나 더 추천해줘"} {
		_, err = c.Submit(ctx, 3, text)
		require.NoError(t, err)
	}

	session, err := c.Session(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StateComplete, session.State)
	assert.Equal(t, msgAskAgain, lastTurn(t, session).Content)
	assert.Equal(t, 1, matcher.calls)
}

func TestFixedDialog_MatcherFailureKeepsBudgetQuestion(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "service error", err: &api.ServiceError{Endpoint: "/recommend", StatusCode: 500}, want: msgServiceError},
		{name: "transport error", err: &api.TransportError{Endpoint: "/recommend", Err: errors.New("dial tcp")}, want: msgTransportError},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := int64(10 + i)
			c, _ := newFixedController(t, failingMatcher{err: tt.err})
			_, err := c.Start(ctx, userID)
			require.NoError(t, err)
			for _, text := range []string{"회식", "4명", "12-20만원"} {
				_, err = c.Submit(ctx, userID, text)
				require.NoError(t, err)
			}

			session, err := c.Session(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, models.StateAskingBudget, session.State)
			final := lastTurn(t, session)
			assert.Equal(t, tt.want, final.Content)
			assert.Equal(t, recommend.BudgetBuckets, final.Options)
		})
	}
	assert.NotEqual(t, msgServiceError, msgTransportError)
	assert.NotEqual(t, msgNoMatch, msgServiceError)
}

func TestSubmit_InputDisabledWhileThinking(t *testing.T) {
	ctx := context.Background()
	sched := &manualScheduler{}
	matcher := &countingMatcher{inner: recommend.NewMatcher(nil, nil, nil)}
	c, _ := newFixedController(t, matcher)
	c.WithScheduler(sched)

	_, err := c.Start(ctx, 4)
	require.NoError(t, err)

	session, err := c.Submit(ctx, 4, "조용한 곳")
	require.NoError(t, err)
	assert.True(t, session.Thinking)
	require.Len(t, sched.delays, 1)
	assert.Equal(t, 1500*time.Millisecond, sched.delays[0])

	_, err = c.Submit(ctx, 4, "두 번째 메시지")
	assert.ErrorIs(t, err, ErrInputDisabled)

	session, err = c.Session(ctx, 4)
	require.NoError(t, err)
	require.Len(t, session.Turns, 2, "nothing queued while thinking")

	sched.RunAll()

	session, err = c.Session(ctx, 4)
	require.NoError(t, err)
	assert.False(t, session.Thinking)
	assert.Equal(t, models.StateAskingPartySize, session.State)

	_, err = c.SelectOption(ctx, 4, "3명")
	require.NoError(t, err)
	_, err = c.SelectOption(ctx, 4, "8-12만원")
	assert.ErrorIs(t, err, ErrInputDisabled)
}

func TestSubmit_StaleThinkingDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local)
	sched := &manualScheduler{}
	c, _ := newFixedController(t, recommend.NewMatcher(nil, nil, nil))
	c.WithScheduler(sched).WithClock(func() time.Time { return now })

	_, err := c.Start(ctx, 5)
	require.NoError(t, err)
	_, err = c.Submit(ctx, 5, "데이트")
	require.NoError(t, err)

	// таймер потерян, например после рестарта
	sched.pending = nil
	now = now.Add(2 * time.Minute)

	_, err = c.Submit(ctx, 5, "데이트 장소 추천")
	require.NoError(t, err)
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	c, _ := newFixedController(t, recommend.NewMatcher(nil, nil, nil))

	_, err := c.Submit(ctx, 6, "안녕하세요")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = c.Start(ctx, 6)
	require.NoError(t, err)

	_, err = c.Submit(ctx, 6, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.SelectOption(ctx, 6, "2명")
	assert.ErrorIs(t, err, ErrUnknownOption, "greeting offers no options")

	_, err = c.Submit(ctx, 6, "친구 생일")
	require.NoError(t, err)
	_, err = c.SelectOption(ctx, 6, "12-20만원")
	assert.ErrorIs(t, err, ErrUnknownOption, "budget options belong to a later turn")
}

func TestReset_DropsPendingReply(t *testing.T) {
	ctx := context.Background()
	sched := &manualScheduler{}
	c, _ := newFixedController(t, recommend.NewMatcher(nil, nil, nil))
	c.WithScheduler(sched)

	_, err := c.Start(ctx, 7)
	require.NoError(t, err)
	_, err = c.Submit(ctx, 7, "비즈니스 미팅")
	require.NoError(t, err)

	_, err = c.Reset(ctx, 7)
	require.NoError(t, err)
	sched.RunAll()

	session, err := c.Session(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.StateInitial, session.State)
	require.Len(t, session.Turns, 1)
	assert.Equal(t, msgGreetingFixed, session.Turns[0].Content)
}

func TestFreeTextDialog_Outcomes(t *testing.T) {
	ctx := context.Background()
	found := []models.Candidate{{ID: "9", Name: "해담"}, {ID: "4", Name: "소담 한정식"}}
	text := &scriptedText{responses: []func() ([]models.Candidate, error){
		func() ([]models.Candidate, error) { return nil, nil },
		func() ([]models.Candidate, error) {
			return nil, &api.ServiceError{Endpoint: "/recommend", StatusCode: 503}
		},
		func() ([]models.Candidate, error) {
			return nil, &api.TransportError{Endpoint: "/recommend", Err: errors.New("connection refused")}
		},
		func() ([]models.Candidate, error) { return found, nil },
	}}

	repo := repository.NewMemorySessionRepository(time.Hour)
	c := NewController(repo, FreeTextStrategy{Matcher: recommend.NewMatcher(nil, text, nil)}, time.Second, nil).
		WithScheduler(ImmediateScheduler{})

	session, err := c.Start(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, models.StateFreeTextQuery, session.State)
	assert.Equal(t, msgGreetingFreeText, session.Turns[0].Content)

	steps := []struct {
		query     string
		wantState string
		wantText  string
	}{
		{query: "우주에서 먹는 저녁", wantState: models.StateNoMatch, wantText: msgNoMatch},
		{query: "조용한 한식집", wantState: models.StateServiceError, wantText: msgServiceError},
		{query: "조용한 한식집", wantState: models.StateServiceError, wantText: msgTransportError},
	}
	for _, step := range steps {
		_, err = c.Submit(ctx, 8, step.query)
		require.NoError(t, err, "failed states accept the next query")
		session, err = c.Session(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, step.wantState, session.State)
		assert.Equal(t, step.wantText, lastTurn(t, session).Content)
	}

	_, err = c.Submit(ctx, 8, "  부모님과 조용한 한식집  ")
	require.NoError(t, err)
	session, err = c.Session(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, models.StateComplete, session.State)
	final := lastTurn(t, session)
	assert.Equal(t, "가족 모임에 어울리는 2곳을 추천드려요! 🎉", final.Content)
	assert.Equal(t, found, final.Candidates)
	assert.Equal(t, "부모님과 조용한 한식집", text.queries[len(text.queries)-1])

	_, err = c.Submit(ctx, 8, "고마워요")
	require.NoError(t, err)
	session, err = c.Session(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, msgAskAgain, lastTurn(t, session).Content)
	assert.Len(t, text.queries, 4)
}

func TestReserveCandidate_OffersPayload(t *testing.T) {
	ctx := context.Background()
	bridge := repository.NewMemoryQuickReservationStore(time.Minute)
	c, _ := newFixedController(t, recommend.NewMatcher(nil, nil, nil))
	c.WithBridge(bridge)

	_, err := c.Start(ctx, 9)
	require.NoError(t, err)
	for _, text := range []string{"데이트", "2명", "30만원 이상"} {
		_, err = c.Submit(ctx, 9, text)
		require.NoError(t, err)
	}

	_, err = c.ReserveCandidate(ctx, 9, "1")
	assert.ErrorIs(t, err, ErrUnknownCandidate)

	cand, err := c.ReserveCandidate(ctx, 9, "6")
	require.NoError(t, err)
	assert.Equal(t, "라 메종", cand.Name)

	payload, err := bridge.Take(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "6", payload.RestaurantID)
	assert.Equal(t, "2명", payload.PartySizeBucket)
}

func TestListenerAndPublisher(t *testing.T) {
	ctx := context.Background()
	bus := events.NewEventBus()
	var published []events.RecommendationEventPayload
	bus.Subscribe(events.EventRecommendationCompleted, func(e *events.Event) error {
		var p events.RecommendationEventPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		published = append(published, p)
		return nil
	})

	c, _ := newFixedController(t, recommend.NewMatcher(nil, nil, nil))
	c.WithPublisher(bus)
	var heard []models.Turn
	c.OnReply(func(_ context.Context, _ *models.ConversationSession, turn models.Turn) {
		heard = append(heard, turn)
	})

	_, err := c.Start(ctx, 11)
	require.NoError(t, err)
	for _, text := range []string{"회식", "4명", "8-12만원"} {
		_, err = c.Submit(ctx, 11, text)
		require.NoError(t, err)
	}

	require.Len(t, heard, 4)
	for _, turn := range heard {
		assert.Equal(t, models.SpeakerAssistant, turn.Speaker)
	}
	require.Len(t, published, 1)
	assert.Equal(t, []string{"5", "4"}, published[0].CandidateIDs)
	assert.Equal(t, string(recommend.IntentBusiness), published[0].Intent)
	assert.Equal(t, models.DialogModeFixed, published[0].Mode)
}
