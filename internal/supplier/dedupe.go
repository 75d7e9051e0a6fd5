package supplier

import (
	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// Dedupe collapses candidates sharing an identity key. The first occurrence
// wins and relative order is preserved. Candidates without a company name
// are dropped. Keys are compared exactly; near-duplicate names such as
// "Acme" and "Acme Pvt Ltd" are kept apart.
func Dedupe(candidates []model.Candidate) []model.Candidate {
	seen := make(map[model.Key]struct{}, len(candidates))
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		k := c.Key()
		if k.Name == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
