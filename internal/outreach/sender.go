// Package outreach contacts ranked suppliers over the email and SMS channels
// with bounded concurrency and aggregates the outcomes of a campaign.
package outreach

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// Message is rendered content for one channel. SMS uses Text only.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Delivery is what a transport reports for an accepted send.
type Delivery struct {
	ProviderID string
	Rehearsal  bool
}

// Sender delivers a rendered message to one candidate over one channel.
// A nil error means the transport accepted the message; timeouts are errors.
type Sender interface {
	Send(ctx context.Context, c model.Candidate, msg Message) (Delivery, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, c model.Candidate, msg Message) (Delivery, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, c model.Candidate, msg Message) (Delivery, error) {
	return f(ctx, c, msg)
}

// RehearsalSender logs what would have been sent and always succeeds. It
// never touches the network.
type RehearsalSender struct {
	channel model.Channel
	seq     atomic.Int64
}

// NewRehearsalSender returns a rehearsal sender for ch.
func NewRehearsalSender(ch model.Channel) *RehearsalSender {
	return &RehearsalSender{channel: ch}
}

// Send implements Sender.
func (s *RehearsalSender) Send(_ context.Context, c model.Candidate, msg Message) (Delivery, error) {
	n := s.seq.Add(1)
	fields := []zap.Field{
		zap.Bool("rehearsal", true),
		zap.String("channel", string(s.channel)),
		zap.String("company", c.CompanyName),
	}
	switch s.channel {
	case model.ChannelEmail:
		fields = append(fields, zap.String("to", c.Email), zap.String("subject", msg.Subject))
	case model.ChannelSMS:
		fields = append(fields, zap.String("to", c.Phone), zap.Int("length", len([]rune(msg.Text))))
	}
	zap.L().Info("outreach: rehearsal send", fields...)
	return Delivery{ProviderID: fmt.Sprintf("rehearsal-%s-%d", s.channel, n), Rehearsal: true}, nil
}
