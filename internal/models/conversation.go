package models

import "time"

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

type TurnKind string

const (
	TurnPlain         TurnKind = "plain"
	TurnChoicePrompt  TurnKind = "choice-prompt"
	TurnCandidateList TurnKind = "candidate-list"
)

// Turn is one message in a conversation. Turns are append-only.
type Turn struct {
	ID         string      `json:"id"`
	Speaker    Speaker     `json:"speaker"`
	Content    string      `json:"content"`
	Kind       TurnKind    `json:"kind"`
	Options    []string    `json:"options,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Outcome    string      `json:"outcome,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// SlotAnswers holds the clarifying answers collected by the fixed dialog.
type SlotAnswers struct {
	Situation string `json:"situation,omitempty"`
	PartySize string `json:"party_size,omitempty"`
	Budget    string `json:"budget,omitempty"`
}

// MatchQuery is the input of the recommendation matcher: either the
// collected slots or a verbatim free-text query.
type MatchQuery struct {
	Slots *SlotAnswers `json:"slots,omitempty"`
	Text  string       `json:"query,omitempty"`
}

// ConversationSession is the per-user dialog state.
type ConversationSession struct {
	UserID    int64       `json:"user_id"`
	Mode      string      `json:"mode"`
	State     string      `json:"state"`
	Turns     []Turn      `json:"turns"`
	Slots     SlotAnswers `json:"slots"`
	Thinking  bool        `json:"thinking"`
	Intent    string      `json:"intent,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Append adds a turn to the end of the conversation.
func (s *ConversationSession) Append(turn Turn) {
	s.Turns = append(s.Turns, turn)
	s.UpdatedAt = turn.Timestamp
}

// LastAssistantTurn returns the most recent assistant turn, if any.
func (s *ConversationSession) LastAssistantTurn() (Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Speaker == SpeakerAssistant {
			return s.Turns[i], true
		}
	}
	return Turn{}, false
}

// QuickReplies returns the options of the current assistant turn. Options of
// earlier turns are no longer selectable once the user has answered.
func (s *ConversationSession) QuickReplies() []string {
	if len(s.Turns) == 0 {
		return nil
	}
	last := s.Turns[len(s.Turns)-1]
	if last.Speaker != SpeakerAssistant {
		return nil
	}
	return last.Options
}

// FindCandidate looks a candidate up across all candidate-list turns.
func (s *ConversationSession) FindCandidate(id string) (Candidate, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		for _, c := range s.Turns[i].Candidates {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

// Clone returns a deep copy so stores never share turn slices with callers.
func (s *ConversationSession) Clone() *ConversationSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Turns = make([]Turn, len(s.Turns))
	for i, t := range s.Turns {
		t.Options = append([]string(nil), t.Options...)
		t.Candidates = append([]Candidate(nil), t.Candidates...)
		out.Turns[i] = t
	}
	return &out
}
