package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

func TestNormalize_Fields(t *testing.T) {
	years := 12
	in := []model.Candidate{
		{
			CompanyName:     "  Shree Cables  ",
			ContactPerson:   " R. Mehta ",
			Email:           " sales@shree.example ",
			Location:        " Surat, Gujarat ",
			Phone:           "+91-98250 12345",
			YearsInBusiness: &years,
		},
		{CompanyName: "No Phone Traders", Phone: "n/a"},
	}

	out := Normalize(in, "91")
	require.Len(t, out, 2)

	c := out[0]
	assert.Equal(t, "Shree Cables", c.CompanyName)
	assert.Equal(t, "R. Mehta", c.ContactPerson)
	assert.Equal(t, "sales@shree.example", c.Email)
	assert.Equal(t, "Surat, Gujarat", c.Location)
	assert.Equal(t, "+919825012345", c.Phone)
	assert.Equal(t, model.VerificationUnknown, c.VerificationStatus)
	require.NotNil(t, c.YearsInBusiness)
	assert.Equal(t, 12, *c.YearsInBusiness)
	assert.NotSame(t, in[0].YearsInBusiness, c.YearsInBusiness)

	assert.Empty(t, out[1].Phone)
	assert.False(t, out[1].HasPhone())
}

func TestNormalize_KeepsVerification(t *testing.T) {
	out := Normalize([]model.Candidate{{CompanyName: "A", VerificationStatus: model.VerificationVerified}}, "")
	assert.Equal(t, model.VerificationVerified, out[0].VerificationStatus)
}
