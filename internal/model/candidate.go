package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// VerificationStatus is the marketplace verification state of a supplier.
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "Verified"
	VerificationUnverified VerificationStatus = "Unverified"
	VerificationUnknown    VerificationStatus = "Unknown"
)

// ParseVerificationStatus maps harvested free text onto a VerificationStatus.
// Anything that is not recognizably verified or unverified is Unknown.
func ParseVerificationStatus(s string) VerificationStatus {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return VerificationUnknown
	case strings.Contains(v, "unverified"), strings.Contains(v, "not verified"):
		return VerificationUnverified
	case strings.Contains(v, "verified"):
		return VerificationVerified
	default:
		return VerificationUnknown
	}
}

// candidateNamespace seeds deterministic candidate IDs.
var candidateNamespace = uuid.MustParse("6f1c2a0e-8f5b-4c1e-9a57-3d2b8e4f0c11")

// Candidate is a prospective supplier. It is mutable until ranked; after
// ranking it is only read.
type Candidate struct {
	ID                 string             `json:"id,omitempty"`
	CompanyName        string             `json:"company_name"`
	ContactPerson      string             `json:"contact_person"`
	Phone              string             `json:"mobile_number"`
	Email              string             `json:"email"`
	Location           string             `json:"location"`
	DeliveryLocations  []string           `json:"delivery_locations"`
	Rating             float64            `json:"rating"`
	ResponseRate       float64            `json:"response_rate"`
	ProductCategories  []string           `json:"product_categories"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	YearsInBusiness    *int               `json:"years_in_business,omitempty"`
	SourceURL          string             `json:"source_url"`
	Score              float64            `json:"score"`
}

// Key is the dedup identity of a candidate.
type Key struct {
	Name  string
	Phone string
}

// Key returns the identity key: lowercased trimmed company name and the
// phone as currently held (canonical once normalized).
func (c Candidate) Key() Key {
	return Key{
		Name:  strings.ToLower(strings.TrimSpace(c.CompanyName)),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// StableID derives a deterministic ID from the identity key, so the same
// supplier keeps its ID across runs.
func (c Candidate) StableID() string {
	k := c.Key()
	return uuid.NewSHA1(candidateNamespace, []byte(k.Name+"|"+k.Phone)).String()
}

// HasEmail reports whether the candidate carries an email address.
func (c Candidate) HasEmail() bool {
	return strings.TrimSpace(c.Email) != ""
}

// HasPhone reports whether the candidate carries a (canonical) phone.
func (c Candidate) HasPhone() bool {
	return strings.TrimSpace(c.Phone) != ""
}

// rawCandidate accepts the loose shapes the harvester emits.
type rawCandidate struct {
	ID                 string          `json:"id"`
	CompanyName        string          `json:"company_name"`
	ContactPerson      string          `json:"contact_person"`
	MobileNumber       string          `json:"mobile_number"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	Location           string          `json:"location"`
	DeliveryLocations  []string        `json:"delivery_locations"`
	Rating             json.RawMessage `json:"rating"`
	ResponseRate       json.RawMessage `json:"response_rate"`
	ProductCategories  []string        `json:"product_categories"`
	VerificationStatus string          `json:"verification_status"`
	YearsInBusiness    json.RawMessage `json:"years_in_business"`
	SourceURL          string          `json:"source_url"`
	Score              float64         `json:"score"`
}

// UnmarshalJSON decodes a harvested record. Numbers may arrive as strings,
// the phone as either mobile_number or phone, and years_in_business as a
// whole number, a string starting with digits ("12 years"), or empty.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw rawCandidate
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	phone := raw.MobileNumber
	if phone == "" {
		phone = raw.Phone
	}

	*c = Candidate{
		ID:                 raw.ID,
		CompanyName:        raw.CompanyName,
		ContactPerson:      raw.ContactPerson,
		Phone:              phone,
		Email:              raw.Email,
		Location:           raw.Location,
		DeliveryLocations:  raw.DeliveryLocations,
		Rating:             clamp(flexFloat(raw.Rating), 0, 5),
		ResponseRate:       clamp(flexFloat(raw.ResponseRate), 0, 100),
		ProductCategories:  raw.ProductCategories,
		VerificationStatus: ParseVerificationStatus(raw.VerificationStatus),
		YearsInBusiness:    flexYears(raw.YearsInBusiness),
		SourceURL:          raw.SourceURL,
		Score:              raw.Score,
	}
	return nil
}

func flexFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

func flexYears(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f < 0 || f != math.Trunc(f) {
			return nil
		}
		n := int(f)
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	// Leading digits only: "12", "12 years", "12+".
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
