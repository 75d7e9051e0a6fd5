package supplier

import (
	"strings"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/pkg/phone"
)

// Normalize returns trimmed copies of the candidates with phones rewritten
// to canonical form. Unrecoverable phones become "", which downstream reads
// as "short-text unavailable". The input slice is not modified.
func Normalize(candidates []model.Candidate, countryCode string) []model.Candidate {
	out := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		c.CompanyName = strings.TrimSpace(c.CompanyName)
		c.ContactPerson = strings.TrimSpace(c.ContactPerson)
		c.Email = strings.TrimSpace(c.Email)
		c.Location = strings.TrimSpace(c.Location)
		c.Phone = phone.Normalize(c.Phone, countryCode)
		c.DeliveryLocations = append([]string(nil), c.DeliveryLocations...)
		c.ProductCategories = append([]string(nil), c.ProductCategories...)
		if c.VerificationStatus == "" {
			c.VerificationStatus = model.VerificationUnknown
		}
		if c.YearsInBusiness != nil {
			y := *c.YearsInBusiness
			c.YearsInBusiness = &y
		}
		out[i] = c
	}
	return out
}
