package dialog

import (
	"context"

	"wellmeet/internal/models"
	"wellmeet/internal/recommend"
)

// Matcher is the recommendation call used by both strategies.
type Matcher interface {
	Match(ctx context.Context, query models.MatchQuery) recommend.Result
}

// Strategy decides the next assistant turn for one dialog mode. Reply may
// change session.State and session.Slots; the controller appends the turn.
type Strategy interface {
	Mode() string
	InitialState() string
	Greeting() models.Turn
	Reply(ctx context.Context, session *models.ConversationSession, text string) models.Turn
}

func textTurn(content string) models.Turn {
	return models.Turn{Speaker: models.SpeakerAssistant, Content: content, Kind: models.TurnPlain}
}

func choiceTurn(content string, options []string) models.Turn {
	return models.Turn{
		Speaker: models.SpeakerAssistant,
		Content: content,
		Kind:    models.TurnChoicePrompt,
		Options: append([]string(nil), options...),
	}
}

func candidateTurn(headline string, res recommend.Result) models.Turn {
	return models.Turn{
		Speaker:    models.SpeakerAssistant,
		Content:    headline,
		Kind:       models.TurnCandidateList,
		Candidates: res.Candidates,
		Outcome:    string(res.Outcome),
	}
}

// FixedStrategy asks the situation, the party size and the budget, one
// step per user turn, then matches on the collected answers.
type FixedStrategy struct {
	Matcher Matcher
}

func (FixedStrategy) Mode() string {
	return models.DialogModeFixed
}

func (FixedStrategy) InitialState() string {
	return models.StateInitial
}

func (FixedStrategy) Greeting() models.Turn {
	return textTurn(msgGreetingFixed)
}

func (s FixedStrategy) Reply(ctx context.Context, session *models.ConversationSession, text string) models.Turn {
	switch session.State {
	case models.StateInitial:
		session.Slots.Situation = text
		session.Intent = string(recommend.DetectIntent(text))
		session.State = models.StateAskingPartySize
		return choiceTurn(msgAskPartySize, recommend.PartySizeBuckets)

	case models.StateAskingPartySize:
		session.Slots.PartySize = text
		session.State = models.StateAskingBudget
		return choiceTurn(msgAskBudget, recommend.BudgetBuckets)

	case models.StateAskingBudget:
		session.Slots.Budget = text
		slots := session.Slots
		res := s.Matcher.Match(ctx, models.MatchQuery{Slots: &slots})
		if res.Outcome.IsFailure() {
			// ответ на бюджет можно отправить еще раз
			turn := choiceTurn(failureText(res.Outcome), recommend.BudgetBuckets)
			turn.Outcome = string(res.Outcome)
			return turn
		}
		session.State = models.StateComplete
		headline := recommend.Headline(recommend.Intent(session.Intent), len(res.Candidates))
		if res.Outcome == recommend.OutcomeEmpty {
			headline = msgNoMatch
		}
		return candidateTurn(headline, res)

	default:
		return textTurn(msgAskAgain)
	}
}

// FreeTextStrategy sends each message verbatim to the matcher until one
// yields results.
type FreeTextStrategy struct {
	Matcher Matcher
}

func (FreeTextStrategy) Mode() string {
	return models.DialogModeFreeText
}

func (FreeTextStrategy) InitialState() string {
	return models.StateFreeTextQuery
}

func (FreeTextStrategy) Greeting() models.Turn {
	return textTurn(msgGreetingFreeText)
}

func (s FreeTextStrategy) Reply(ctx context.Context, session *models.ConversationSession, text string) models.Turn {
	if session.State == models.StateComplete {
		return textTurn(msgAskAgain)
	}

	intent := recommend.DetectIntent(text)
	session.Intent = string(intent)

	res := s.Matcher.Match(ctx, models.MatchQuery{Text: text})
	switch res.Outcome {
	case recommend.OutcomeResults:
		session.State = models.StateComplete
		return candidateTurn(recommend.Headline(intent, len(res.Candidates)), res)
	case recommend.OutcomeEmpty:
		session.State = models.StateNoMatch
	default:
		session.State = models.StateServiceError
	}
	turn := textTurn(failureText(res.Outcome))
	turn.Outcome = string(res.Outcome)
	return turn
}
