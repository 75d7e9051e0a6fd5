package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thinkloop-ai/procure-cli/internal/config"
	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/store"
	"github.com/thinkloop-ai/procure-cli/internal/supplier"
)

// testConfig returns a rehearsal configuration with no pacing and a
// throwaway output directory, and installs it as the command config.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{
		Store: store.Config{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "procure.db")},
		Outreach: config.OutreachConfig{
			Concurrency:  5,
			OutputDir:    t.TempDir(),
			SMSMaxLength: 160,
			SenderName:   "ThinkLoop AI",
		},
		Ranking: config.RankingConfig{
			MaxResults:  supplier.DefaultMaxResults,
			CountryCode: "91",
			Weights:     supplier.DefaultWeights(),
		},
		Mailjet: config.MailjetConfig{FromName: "Procurement Team"},
	}
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func storedResult(id string, started time.Time) *model.CampaignResult {
	return &model.CampaignResult{
		ID:               id,
		Rehearsal:        true,
		Request:          model.ProcurementRequest{ProductSpec: "PVC pipes", Quantity: "500 m", DeliveryTimeline: "2 weeks", DeliveryLocation: "Indore"},
		TotalCandidates:  3,
		UniqueCandidates: 3,
		RankedCandidates: 1,
		Channels: map[model.Channel]model.ChannelStats{
			model.ChannelEmail: {Attempted: 1, Sent: 1},
			model.ChannelSMS:   {Skipped: 1},
		},
		StartedAt: started,
		EndedAt:   started.Add(4 * time.Second),
		Details: []model.OutreachAttempt{{
			CandidateID: "c-1", CompanyName: "Indore Polymers", Rank: 1,
			Channels: map[model.Channel]model.Outcome{
				model.ChannelEmail: model.Sent("rehearsal-email-1", true),
				model.ChannelSMS:   model.Skipped(model.ReasonNoPhone),
			},
			Timestamp: started.Add(time.Second),
		}},
	}
}
