package recommend

import (
	"wellmeet/internal/api"
	"wellmeet/internal/models"
)

// Outcome distinguishes the results a caller must render differently.
type Outcome string

const (
	OutcomeResults        Outcome = "results"
	OutcomeEmpty          Outcome = "empty"
	OutcomeServiceError   Outcome = "service_error"
	OutcomeTransportError Outcome = "transport_error"
)

func (o Outcome) IsFailure() bool {
	return o == OutcomeServiceError || o == OutcomeTransportError
}

// Result is what the matcher hands back to the dialog. Candidates keep the
// order the matching function produced.
type Result struct {
	Outcome    Outcome
	Candidates []models.Candidate
	Err        error
}

// Classify maps a matching call's return values onto an Outcome.
func Classify(candidates []models.Candidate, err error) Result {
	if err != nil {
		if api.IsTransportError(err) {
			return Result{Outcome: OutcomeTransportError, Err: err}
		}
		return Result{Outcome: OutcomeServiceError, Err: err}
	}
	if len(candidates) == 0 {
		return Result{Outcome: OutcomeEmpty, Candidates: []models.Candidate{}}
	}
	return Result{Outcome: OutcomeResults, Candidates: cloneCandidates(candidates)}
}

func cloneCandidates(in []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, len(in))
	copy(out, in)
	return out
}
