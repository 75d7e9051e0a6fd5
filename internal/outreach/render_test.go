package outreach

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

func testRequest() model.ProcurementRequest {
	return model.ProcurementRequest{
		ProductSpec:      "sulphuric acid",
		Quantity:         "500 litres",
		DeliveryTimeline: "2 weeks",
		DeliveryLocation: "Pune",
	}
}

func TestRenderer_Email(t *testing.T) {
	r := NewRenderer()
	msg, err := r.Email(testRequest(), model.Candidate{CompanyName: "Acme Chemicals"})
	require.NoError(t, err)

	assert.Equal(t, "Urgent Procurement Request: sulphuric acid", msg.Subject)
	assert.Contains(t, msg.Text, "Dear Acme Chemicals,")
	assert.Contains(t, msg.Text, "- Quantity: 500 litres")
	assert.Contains(t, msg.Text, "- Delivery Location: Pune")
	assert.Contains(t, msg.Text, "ThinkLoop AI")
	assert.Contains(t, msg.HTML, "<strong>Required by:</strong> 2 weeks")
}

func TestRenderer_EmailMissingFields(t *testing.T) {
	r := &Renderer{SenderName: "Buyer Co"}
	msg, err := r.Email(model.ProcurementRequest{}, model.Candidate{})
	require.NoError(t, err)

	assert.Equal(t, "Urgent Procurement Request: your products", msg.Subject)
	assert.Contains(t, msg.Text, "Dear Supplier,")
	assert.Contains(t, msg.Text, "- Product: N/A")
	assert.Contains(t, msg.Text, "Buyer Co")
}

func TestRenderer_EmailEscapesHTML(t *testing.T) {
	msg, err := NewRenderer().Email(testRequest(), model.Candidate{CompanyName: "<b>Evil</b> & Sons"})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<b>Evil</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Evil&lt;/b&gt; &amp; Sons")
	assert.Contains(t, msg.Text, "<b>Evil</b> & Sons")
}

func TestRenderer_SMS(t *testing.T) {
	msg := NewRenderer().SMS(testRequest(), model.Candidate{CompanyName: "Acme Chemicals Pvt Ltd"})
	assert.Equal(t,
		"Hi Acme, we need to procure 500 litres of sulphuric acid. Please reply with quotation ASAP. Email sent with details. ThinkLoop AI Procurement",
		msg.Text)
	assert.Empty(t, msg.Subject)
}

func TestRenderer_SMSTruncated(t *testing.T) {
	req := testRequest()
	req.ProductSpec = strings.Repeat("industrial grade solvent ", 10)

	msg := NewRenderer().SMS(req, model.Candidate{CompanyName: "Acme"})
	assert.Equal(t, DefaultSMSMaxLength, utf8.RuneCountInString(msg.Text))
	assert.True(t, strings.HasSuffix(msg.Text, "..."))
	assert.True(t, strings.HasPrefix(msg.Text, "Hi Acme, we need to procure"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"over", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"multibyte", "नमस्ते दुनिया", 6, "नमस..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.limit)
		})
	}
}
