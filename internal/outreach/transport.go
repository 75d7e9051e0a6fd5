package outreach

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/pkg/mailjet"
	"github.com/thinkloop-ai/procure-cli/pkg/twilio"
)

// MailjetSender delivers email through Mailjet.
type MailjetSender struct {
	client  mailjet.Client
	from    mailjet.Address
	limiter *rate.Limiter
}

// NewMailjetSender wraps client. ratePerSec <= 0 disables rate limiting.
func NewMailjetSender(client mailjet.Client, fromEmail, fromName string, ratePerSec float64) *MailjetSender {
	return &MailjetSender{
		client:  client,
		from:    mailjet.Address{Email: fromEmail, Name: fromName},
		limiter: newLimiter(ratePerSec),
	}
}

// Send implements Sender.
func (s *MailjetSender) Send(ctx context.Context, c model.Candidate, msg Message) (Delivery, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Delivery{}, eris.Wrap(err, "outreach: mailjet rate limit")
		}
	}
	resp, err := s.client.Send(ctx, mailjet.Message{
		From:     s.from,
		To:       []mailjet.Address{{Email: c.Email, Name: c.CompanyName}},
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
		CustomID: c.ID,
	})
	if err != nil {
		return Delivery{}, err
	}
	var id string
	if len(resp.Messages) > 0 && len(resp.Messages[0].To) > 0 {
		id = resp.Messages[0].To[0].MessageUUID
	}
	return Delivery{ProviderID: id}, nil
}

// TwilioSender delivers SMS through Twilio.
type TwilioSender struct {
	client  twilio.Client
	limiter *rate.Limiter
}

// NewTwilioSender wraps client. ratePerSec <= 0 disables rate limiting.
func NewTwilioSender(client twilio.Client, ratePerSec float64) *TwilioSender {
	return &TwilioSender{client: client, limiter: newLimiter(ratePerSec)}
}

// Send implements Sender. The candidate phone must already be canonical.
func (s *TwilioSender) Send(ctx context.Context, c model.Candidate, msg Message) (Delivery, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Delivery{}, eris.Wrap(err, "outreach: twilio rate limit")
		}
	}
	m, err := s.client.SendSMS(ctx, c.Phone, msg.Text)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{ProviderID: m.SID}, nil
}

func newLimiter(ratePerSec float64) *rate.Limiter {
	if ratePerSec <= 0 {
		return nil
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(ratePerSec), burst)
}
