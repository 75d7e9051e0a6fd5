package supplier

import (
	"strings"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// Weights are the fit-score policy constants.
type Weights struct {
	Location               float64 `yaml:"location" mapstructure:"location"`
	RatingMultiplier       float64 `yaml:"rating_multiplier" mapstructure:"rating_multiplier"`
	ResponseRateMultiplier float64 `yaml:"response_rate_multiplier" mapstructure:"response_rate_multiplier"`
	Phone                  float64 `yaml:"phone" mapstructure:"phone"`
	Email                  float64 `yaml:"email" mapstructure:"email"`
	ContactPerson          float64 `yaml:"contact_person" mapstructure:"contact_person"`
	Verified               float64 `yaml:"verified" mapstructure:"verified"`
	YearsCap               int     `yaml:"years_cap" mapstructure:"years_cap"`
}

// DefaultWeights returns the standard weighting: location 30, rating up to
// 25, response rate up to 20, phone 10, email 5, contact person 5,
// verified 15, one point per year in business up to 10.
func DefaultWeights() Weights {
	return Weights{
		Location:               30,
		RatingMultiplier:       5,
		ResponseRateMultiplier: 0.2,
		Phone:                  10,
		Email:                  5,
		ContactPerson:          5,
		Verified:               15,
		YearsCap:               10,
	}
}

// Score computes a candidate's fit against the preferred sourcing location
// with the default weights.
func Score(c model.Candidate, locationPreference string) float64 {
	return DefaultWeights().Score(c, locationPreference)
}

// Score computes a candidate's fit. It has no side effects.
func (w Weights) Score(c model.Candidate, locationPreference string) float64 {
	score := 0.0

	pref := strings.ToLower(strings.TrimSpace(locationPreference))
	if pref != "" && strings.Contains(strings.ToLower(c.Location), pref) {
		score += w.Location
	}

	score += c.Rating * w.RatingMultiplier
	score += c.ResponseRate * w.ResponseRateMultiplier

	if c.HasPhone() {
		score += w.Phone
	}
	if c.HasEmail() {
		score += w.Email
	}
	if strings.TrimSpace(c.ContactPerson) != "" {
		score += w.ContactPerson
	}

	if c.VerificationStatus == model.VerificationVerified {
		score += w.Verified
	}

	if c.YearsInBusiness != nil && *c.YearsInBusiness > 0 {
		years := *c.YearsInBusiness
		if years > w.YearsCap {
			years = w.YearsCap
		}
		score += float64(years)
	}

	return score
}
