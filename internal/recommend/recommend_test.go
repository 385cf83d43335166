package recommend

import (
	"context"
	"errors"
	"testing"

	"wellmeet/internal/api"
	"wellmeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeText struct {
	out   []models.Candidate
	err   error
	calls []string
}

func (f *fakeText) Recommend(ctx context.Context, query string) ([]models.Candidate, error) {
	f.calls = append(f.calls, query)
	return f.out, f.err
}

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	got := c.Lookup(models.SlotAnswers{Situation: "데이트", PartySize: "2명", Budget: "12-20만원"})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{got[0].ID, got[1].ID, got[2].ID})

	// the stocked order is kept even when it is not by rating
	got = c.Lookup(models.SlotAnswers{PartySize: "4명", Budget: "8-12만원"})
	require.Len(t, got, 2)
	assert.Equal(t, "5", got[0].ID)

	got = c.Lookup(models.SlotAnswers{PartySize: " 2명 ", Budget: "12-20만원"})
	assert.Len(t, got, 3)

	got = c.Lookup(models.SlotAnswers{PartySize: "5명 이상", Budget: "30만원 이상"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCatalogSearch(t *testing.T) {
	c := DefaultCatalog()

	got := c.Search("조용한 데이트 장소 찾아줘")
	require.NotEmpty(t, got)
	assert.Equal(t, "1", got[0].ID)

	got = c.Search("연남동")
	require.Len(t, got, 1)
	assert.Equal(t, "화로 숯불갈비", got[0].Name)

	assert.Empty(t, c.Search("zzzz"))
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"조용한 데이트 장소", IntentDate},
		{"부모님 생신 식사", IntentFamily},
		{"팀 회식 장소", IntentBusiness},
		{"고급스러운 곳", IntentLuxurious},
		{"조용한 곳", IntentQuiet},
		{"Lively bar", IntentLively},
		{"아무데나", IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.text))
		})
	}
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "데이트에 완벽한 3곳을 추천드려요! 🎉", Headline(IntentDate, 3))
	assert.Equal(t, "조건에 맞는 2곳을 추천드려요! 🎉", Headline(IntentUnknown, 2))
}

func TestClassify(t *testing.T) {
	in := []models.Candidate{{ID: "b"}, {ID: "a"}}
	res := Classify(in, nil)
	assert.Equal(t, OutcomeResults, res.Outcome)
	assert.Equal(t, in, res.Candidates)
	res.Candidates[0].ID = "changed"
	assert.Equal(t, "b", in[0].ID)

	res = Classify(nil, nil)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.False(t, res.Outcome.IsFailure())

	res = Classify(nil, &api.ServiceError{Endpoint: "recommend", StatusCode: 500})
	assert.Equal(t, OutcomeServiceError, res.Outcome)
	assert.True(t, res.Outcome.IsFailure())

	res = Classify(nil, &api.TransportError{Endpoint: "recommend", Err: errors.New("dial tcp: refused")})
	assert.Equal(t, OutcomeTransportError, res.Outcome)
}

func TestMatcher_Slots(t *testing.T) {
	text := &fakeText{}
	m := NewMatcher(nil, text, nil)

	slots := models.SlotAnswers{Situation: "데이트", PartySize: "2명", Budget: "12-20만원"}
	before := slots

	res := m.Match(context.Background(), models.MatchQuery{Slots: &slots})
	assert.Equal(t, OutcomeResults, res.Outcome)
	assert.Len(t, res.Candidates, 3)
	assert.Equal(t, before, slots)
	assert.Empty(t, text.calls)

	res = m.Match(context.Background(), models.MatchQuery{Slots: &models.SlotAnswers{PartySize: "3명", Budget: "30만원 이상"}})
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.NoError(t, res.Err)
}

func TestMatcher_Text(t *testing.T) {
	text := &fakeText{out: []models.Candidate{{ID: "3"}, {ID: "1"}}}
	m := NewMatcher(nil, text, nil)

	res := m.Match(context.Background(), models.MatchQuery{Text: "  조용한 데이트 "})
	assert.Equal(t, OutcomeResults, res.Outcome)
	assert.Equal(t, "3", res.Candidates[0].ID)
	assert.Equal(t, []string{"  조용한 데이트 "}, text.calls)

	text.out, text.err = nil, &api.TransportError{Endpoint: "recommend", Err: errors.New("timeout")}
	res = m.Match(context.Background(), models.MatchQuery{Text: "q"})
	assert.Equal(t, OutcomeTransportError, res.Outcome)

	res = m.Match(context.Background(), models.MatchQuery{})
	assert.Equal(t, OutcomeServiceError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrEmptyQuery)
}
