package recommend

import (
	"context"
	"errors"
	"strings"

	"wellmeet/internal/domain"
	"wellmeet/internal/metrics"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
)

var ErrEmptyQuery = errors.New("recommend: empty query")

// Matcher answers both dialog variants. Slot answers are resolved against
// the local catalog, free text goes to the remote recommender.
type Matcher struct {
	catalog *Catalog
	text    domain.TextRecommender
	logger  *zerolog.Logger
}

func NewMatcher(catalog *Catalog, text domain.TextRecommender, logger *zerolog.Logger) *Matcher {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Matcher{catalog: catalog, text: text, logger: logger}
}

// Match never re-sorts: candidates come back in the order the catalog or
// the upstream service produced them.
func (m *Matcher) Match(ctx context.Context, query models.MatchQuery) Result {
	var (
		input      string
		candidates []models.Candidate
		err        error
	)

	switch {
	case query.Slots != nil:
		input = "slots"
		candidates = m.catalog.Lookup(*query.Slots)
	case strings.TrimSpace(query.Text) != "":
		input = "text"
		if m.text == nil {
			err = errors.New("recommend: free-text matching is not configured")
			break
		}
		candidates, err = m.text.Recommend(ctx, query.Text)
	default:
		input = "none"
		err = ErrEmptyQuery
	}

	res := Classify(candidates, err)
	metrics.IncMatch(input, string(res.Outcome))

	ev := m.logger.Debug()
	if res.Outcome.IsFailure() {
		ev = m.logger.Warn().Err(res.Err)
	}
	ev.Str("input", input).
		Str("outcome", string(res.Outcome)).
		Int("count", len(res.Candidates)).
		Msg("Match finished")

	return res
}
