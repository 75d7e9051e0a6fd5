package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkloop-ai/procure-cli/internal/config"
	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/outreach"
)

var (
	mailjetCreds = config.MailjetConfig{APIKey: "k", APISecret: "s", FromEmail: "buyer@example.com", FromName: "Buyer"}
	twilioCreds  = config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+15550001111"}
)

func TestBuildSenders(t *testing.T) {
	tests := []struct {
		name      string
		mailjet   config.MailjetConfig
		twilio    config.TwilioConfig
		wantEmail any
		wantSMS   any
	}{
		{
			name:      "rehearsal without credentials",
			wantEmail: &outreach.RehearsalSender{},
			wantSMS:   nil,
		},
		{
			name:      "rehearsal with credentials",
			mailjet:   mailjetCreds,
			twilio:    twilioCreds,
			wantEmail: &outreach.RehearsalSender{},
			wantSMS:   &outreach.RehearsalSender{},
		},
		{
			name:      "live with credentials",
			mailjet:   withLive(mailjetCreds),
			twilio:    withLiveSMS(twilioCreds),
			wantEmail: &outreach.MailjetSender{},
			wantSMS:   &outreach.TwilioSender{},
		},
		{
			name:      "live without credentials",
			mailjet:   config.MailjetConfig{Live: true},
			twilio:    config.TwilioConfig{Live: true},
			wantEmail: nil,
			wantSMS:   nil,
		},
		{
			name:      "live email only",
			mailjet:   withLive(mailjetCreds),
			twilio:    twilioCreds,
			wantEmail: &outreach.MailjetSender{},
			wantSMS:   &outreach.RehearsalSender{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			c.Mailjet = tt.mailjet
			c.Twilio = tt.twilio

			email, sms := buildSenders(c)
			assertSenderType(t, tt.wantEmail, email)
			assertSenderType(t, tt.wantSMS, sms)
		})
	}
}

func withLive(c config.MailjetConfig) config.MailjetConfig {
	c.Live = true
	return c
}

func withLiveSMS(c config.TwilioConfig) config.TwilioConfig {
	c.Live = true
	return c
}

func assertSenderType(t *testing.T, want any, got outreach.Sender) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.IsType(t, want, got)
}

func TestBuildDispatcher_NoChannels(t *testing.T) {
	c := testConfig(t)
	c.Mailjet = config.MailjetConfig{Live: true}

	_, err := buildDispatcher(c, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoChannels)
}

func TestBuildDispatcher_EmailOnly(t *testing.T) {
	c := testConfig(t)

	d, err := buildDispatcher(c, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.True(t, d.Enabled(model.ChannelEmail))
	assert.False(t, d.Enabled(model.ChannelSMS))
}

func TestBuildDispatcher_SharedRegistry(t *testing.T) {
	c := testConfig(t)
	reg := prometheus.NewRegistry()

	_, err := buildDispatcher(c, reg)
	require.NoError(t, err)
	_, err = buildDispatcher(c, reg)
	require.NoError(t, err)
}

func TestBuildRunner(t *testing.T) {
	c := testConfig(t)
	c.Ranking.MaxResults = 7

	r, err := buildRunner(c, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Ranker.MaxResults)
	assert.Equal(t, "91", r.CountryCode)
	assert.Equal(t, outreach.FileSink{Dir: c.Outreach.OutputDir}, r.Sink)
	assert.Nil(t, r.Store)
}
