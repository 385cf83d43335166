package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationSession_Helpers(t *testing.T) {
	now := time.Now()
	cand := Candidate{ID: "1", Name: "라비올로"}
	session := &ConversationSession{UserID: 1}

	t.Run("Empty", func(t *testing.T) {
		_, ok := session.LastAssistantTurn()
		assert.False(t, ok)
		assert.Nil(t, session.QuickReplies())
		_, found := session.FindCandidate("1")
		assert.False(t, found)
	})

	session.Append(Turn{ID: "a", Speaker: SpeakerAssistant, Kind: TurnChoicePrompt, Options: []string{"2명", "3명"}, Timestamp: now})

	t.Run("QuickRepliesOfCurrentTurn", func(t *testing.T) {
		assert.Equal(t, []string{"2명", "3명"}, session.QuickReplies())
		assert.Equal(t, now, session.UpdatedAt)
	})

	session.Append(Turn{ID: "u", Speaker: SpeakerUser, Content: "2명", Timestamp: now})

	t.Run("QuickRepliesGoneAfterAnswer", func(t *testing.T) {
		assert.Nil(t, session.QuickReplies())
		last, ok := session.LastAssistantTurn()
		assert.True(t, ok)
		assert.Equal(t, "a", last.ID)
	})

	session.Append(Turn{ID: "r", Speaker: SpeakerAssistant, Kind: TurnCandidateList, Candidates: []Candidate{cand}, Timestamp: now})

	t.Run("FindCandidate", func(t *testing.T) {
		got, ok := session.FindCandidate("1")
		assert.True(t, ok)
		assert.Equal(t, "라비올로", got.Name)
		assert.Equal(t, "1", got.Ref().ID)
	})

	assert.Len(t, session.Turns, 3)
}


func TestBookingRecord_IsUpcoming(t *testing.T) {
	assert.True(t, BookingRecord{Status: StatusPending}.IsUpcoming())
	assert.True(t, BookingRecord{Status: StatusConfirmed}.IsUpcoming())
	assert.False(t, BookingRecord{Status: StatusCompleted}.IsUpcoming())
	assert.False(t, BookingRecord{Status: StatusCancelled}.IsUpcoming())
}

func TestQuickReservationPayload_IsEmpty(t *testing.T) {
	assert.True(t, QuickReservationPayload{RestaurantID: "1"}.IsEmpty())
	assert.False(t, QuickReservationPayload{PartySizeBucket: "2명"}.IsEmpty())
}
