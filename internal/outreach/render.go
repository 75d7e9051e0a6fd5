package outreach

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

const (
	// DefaultSenderName signs every message.
	DefaultSenderName = "ThinkLoop AI"
	// DefaultSMSMaxLength is the single-segment SMS limit.
	DefaultSMSMaxLength = 160

	ellipsis = "..."
	notGiven = "N/A"
)

const emailText = `Dear {{.Company}},

We are interested in procuring the following:

- Product: {{.Product}}
- Quantity: {{.Quantity}}
- Required by: {{.Timeline}}
- Delivery Location: {{.Location}}

Can you provide a quotation for the above requirements? We need this urgently.

Please reply with:
1. Price per unit
2. Total cost including taxes
3. Delivery timeframe
4. Payment terms

Thank you and we look forward to your prompt response.

Best regards,
Procurement Team
{{.Sender}}
`

const emailHTML = `<html>
<body>
<p>Dear {{.Company}},</p>
<p>We are interested in procuring the following:</p>
<ul>
<li><strong>Product:</strong> {{.Product}}</li>
<li><strong>Quantity:</strong> {{.Quantity}}</li>
<li><strong>Required by:</strong> {{.Timeline}}</li>
<li><strong>Delivery Location:</strong> {{.Location}}</li>
</ul>
<p>Can you provide a quotation for the above requirements? We need this urgently.</p>
<p>Please reply with:</p>
<ol>
<li>Price per unit</li>
<li>Total cost including taxes</li>
<li>Delivery timeframe</li>
<li>Payment terms</li>
</ol>
<p>Thank you and we look forward to your prompt response.</p>
<p>Best regards,<br/>
Procurement Team<br/>
{{.Sender}}</p>
</body>
</html>
`

var (
	emailTextTmpl = template.Must(template.New("email_text").Parse(emailText))
	emailHTMLTmpl = htmltemplate.Must(htmltemplate.New("email_html").Parse(emailHTML))
)

type emailData struct {
	Company  string
	Product  string
	Quantity string
	Timeline string
	Location string
	Sender   string
}

// Renderer builds channel content from a request and a candidate.
type Renderer struct {
	SenderName   string
	SMSMaxLength int
}

// NewRenderer returns a renderer with the default signature and SMS limit.
func NewRenderer() *Renderer {
	return &Renderer{SenderName: DefaultSenderName, SMSMaxLength: DefaultSMSMaxLength}
}

func (r *Renderer) sender() string {
	if r == nil || strings.TrimSpace(r.SenderName) == "" {
		return DefaultSenderName
	}
	return r.SenderName
}

func (r *Renderer) smsLimit() int {
	if r == nil || r.SMSMaxLength <= 0 {
		return DefaultSMSMaxLength
	}
	return r.SMSMaxLength
}

// Email renders the quotation request email.
func (r *Renderer) Email(req model.ProcurementRequest, c model.Candidate) (Message, error) {
	company := c.CompanyName
	if company == "" {
		company = "Supplier"
	}
	data := emailData{
		Company:  company,
		Product:  orNA(req.ProductSpec),
		Quantity: orNA(req.Quantity),
		Timeline: orNA(req.DeliveryTimeline),
		Location: orNA(req.DeliveryLocation),
		Sender:   r.sender(),
	}

	var text, html bytes.Buffer
	if err := emailTextTmpl.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := emailHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, err
	}

	product := req.ProductSpec
	if product == "" {
		product = "your products"
	}
	return Message{
		Subject: "Urgent Procurement Request: " + product,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// SMS renders the short text, truncated to the configured limit.
func (r *Renderer) SMS(req model.ProcurementRequest, c model.Candidate) Message {
	name := "Supplier"
	if fields := strings.Fields(c.CompanyName); len(fields) > 0 {
		name = fields[0]
	}
	product := req.ProductSpec
	if product == "" {
		product = "products"
	}
	var b strings.Builder
	b.WriteString("Hi ")
	b.WriteString(name)
	b.WriteString(", we need to procure ")
	b.WriteString(req.Quantity)
	b.WriteString(" of ")
	b.WriteString(product)
	b.WriteString(". Please reply with quotation ASAP. Email sent with details. ")
	b.WriteString(r.sender())
	b.WriteString(" Procurement")
	return Message{Text: Truncate(b.String(), r.smsLimit())}
}

// Truncate cuts s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notGiven
	}
	return s
}
