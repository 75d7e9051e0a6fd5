package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/thinkloop-ai/procure-cli/internal/campaign"
	"github.com/thinkloop-ai/procure-cli/internal/config"
	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/outreach"
	"github.com/thinkloop-ai/procure-cli/internal/resilience"
	"github.com/thinkloop-ai/procure-cli/internal/store"
	"github.com/thinkloop-ai/procure-cli/internal/supplier"
	"github.com/thinkloop-ai/procure-cli/pkg/mailjet"
	"github.com/thinkloop-ai/procure-cli/pkg/twilio"
)

// buildSenders picks the transport for each channel. Rehearsal email needs
// no credentials; live email needs Mailjet credentials. SMS needs Twilio
// credentials in either mode. A channel that cannot be served is left nil.
func buildSenders(c *config.Config) (email, sms outreach.Sender) {
	switch {
	case !c.Mailjet.Live:
		email = outreach.NewRehearsalSender(model.ChannelEmail)
	case c.Mailjet.Configured():
		client := mailjet.NewClient(c.Mailjet.APIKey, c.Mailjet.APISecret, mailjet.WithBaseURL(c.Mailjet.BaseURL))
		email = outreach.NewMailjetSender(client, c.Mailjet.FromEmail, c.Mailjet.FromName, c.Mailjet.RatePerSec)
	default:
		zap.L().Warn("email channel disabled: live mode without mailjet credentials")
	}

	switch {
	case !c.Twilio.Configured():
		zap.L().Warn("sms channel disabled: twilio credentials missing")
	case c.Twilio.Live:
		client := twilio.NewClient(c.Twilio.AccountSID, c.Twilio.AuthToken, c.Twilio.FromNumber, twilio.WithBaseURL(c.Twilio.BaseURL))
		sms = outreach.NewTwilioSender(client, c.Twilio.RatePerSec)
	default:
		sms = outreach.NewRehearsalSender(model.ChannelSMS)
	}

	return email, sms
}

// buildDispatcher wires senders, pacing and breakers from config. A nil
// registerer disables Prometheus metrics.
func buildDispatcher(c *config.Config, reg prometheus.Registerer) (*outreach.Dispatcher, error) {
	email, sms := buildSenders(c)

	opts := []outreach.Option{
		outreach.WithConcurrency(c.Outreach.Concurrency),
		outreach.WithPacing(c.Outreach.Pacing),
		outreach.WithCooldown(c.Outreach.Cooldown),
		outreach.WithRehearsal(!c.Mailjet.Live && !c.Twilio.Live),
		outreach.WithRenderer(&outreach.Renderer{
			SenderName:   c.Outreach.SenderName,
			SMSMaxLength: c.Outreach.SMSMaxLength,
		}),
		outreach.WithBreakers(resilience.BreakerConfig{
			FailureThreshold: c.Outreach.BreakerThreshold,
			ResetTimeout:     c.Outreach.BreakerReset,
		}),
	}
	if email != nil {
		opts = append(opts, outreach.WithEmailSender(email))
	}
	if sms != nil {
		opts = append(opts, outreach.WithSMSSender(sms))
	}
	if reg != nil {
		m, err := outreach.NewPromMetrics(reg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, outreach.WithMetrics(m))
	}

	return outreach.NewDispatcher(opts...)
}

func buildRanker(c *config.Config) *supplier.Ranker {
	return &supplier.Ranker{Weights: c.Ranking.Weights, MaxResults: c.Ranking.MaxResults}
}

// buildRunner assembles the campaign pipeline. st may be nil.
func buildRunner(c *config.Config, st store.Store, reg prometheus.Registerer) (*campaign.Runner, error) {
	d, err := buildDispatcher(c, reg)
	if err != nil {
		return nil, err
	}
	return &campaign.Runner{
		Ranker:      buildRanker(c),
		CountryCode: c.Ranking.CountryCode,
		Dispatcher:  d,
		Sink:        outreach.FileSink{Dir: c.Outreach.OutputDir},
		Store:       st,
		Retry:       resilience.DefaultRetryConfig(),
	}, nil
}
