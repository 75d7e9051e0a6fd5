package supplier

import (
	"sort"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// DefaultMaxResults caps the ranked list.
const DefaultMaxResults = 20

// Ranker scores and orders unique candidates.
type Ranker struct {
	Weights    Weights
	MaxResults int
}

// NewRanker returns a Ranker with the default weights and cap.
func NewRanker() *Ranker {
	return &Ranker{Weights: DefaultWeights(), MaxResults: DefaultMaxResults}
}

// Rank scores each candidate against locationPreference, sorts by score
// descending (ties keep input order) and truncates to MaxResults. The input
// slice is not modified.
func (r *Ranker) Rank(candidates []model.Candidate, locationPreference string) []model.Candidate {
	limit := r.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	scored := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		c.Score = r.Weights.Score(c, locationPreference)
		scored[i] = c
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Consolidate runs the normalize, dedupe and rank stages in order and
// assigns stable IDs to the ranked candidates. It also returns the number
// of unique candidates before the cap was applied.
func (r *Ranker) Consolidate(candidates []model.Candidate, req model.ProcurementRequest, countryCode string) ([]model.Candidate, int) {
	unique := Dedupe(Normalize(candidates, countryCode))
	ranked := r.Rank(unique, req.SourceLocationPreference)
	for i := range ranked {
		if ranked[i].ID == "" {
			ranked[i].ID = ranked[i].StableID()
		}
	}
	return ranked, len(unique)
}
