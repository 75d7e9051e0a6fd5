// Package store keeps the history of outreach campaigns.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// ErrNotFound is returned when a campaign id is unknown.
var ErrNotFound = eris.New("store: campaign not found")

// CampaignFilter specifies criteria for listing campaigns.
type CampaignFilter struct {
	// Rehearsal restricts the listing to rehearsal (true) or live (false) runs.
	Rehearsal *bool `json:"rehearsal,omitempty"`
	Limit     int   `json:"limit,omitempty"`
	Offset    int   `json:"offset,omitempty"`
}

// CampaignRecord is one stored campaign. Result is populated by GetCampaign
// only.
type CampaignRecord struct {
	ID               string                `json:"id"`
	Product          string                `json:"product"`
	Rehearsal        bool                  `json:"rehearsal"`
	Aborted          bool                  `json:"aborted"`
	AbortReason      string                `json:"abort_reason,omitempty"`
	TotalCandidates  int                   `json:"total_suppliers"`
	RankedCandidates int                   `json:"ranked_suppliers"`
	EmailSent        int                   `json:"email_sent"`
	EmailFailed      int                   `json:"email_failed"`
	SMSSent          int                   `json:"sms_sent"`
	SMSFailed        int                   `json:"sms_failed"`
	SnapshotPath     string                `json:"snapshot_path"`
	StartedAt        time.Time             `json:"start_time"`
	EndedAt          time.Time             `json:"end_time"`
	Result           *model.CampaignResult `json:"result,omitempty"`
}

// AttemptRecord is one candidate row of a stored campaign.
type AttemptRecord struct {
	CampaignID  string              `json:"campaign_id"`
	Rank        int                 `json:"rank"`
	CandidateID string              `json:"candidate_id"`
	Supplier    string              `json:"supplier"`
	EmailStatus model.OutcomeStatus `json:"email_status"`
	EmailReason string              `json:"email_reason,omitempty"`
	SMSStatus   model.OutcomeStatus `json:"sms_status"`
	SMSReason   string              `json:"sms_reason,omitempty"`
	AttemptedAt time.Time           `json:"attempted_at"`
}

// Store defines the persistence interface for campaign history.
type Store interface {
	// SaveCampaign records a finished campaign and its attempts. Saving the
	// same campaign id again replaces the earlier record.
	SaveCampaign(ctx context.Context, result *model.CampaignResult, snapshotPath string) error
	GetCampaign(ctx context.Context, id string) (*CampaignRecord, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]CampaignRecord, error)
	ListAttempts(ctx context.Context, campaignID string) ([]AttemptRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the backing database.
type Config struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
}

// Open connects to the store named by cfg.Driver and runs its migration.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "procure.db"
		}
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// recordFromResult flattens the summary columns of a result.
func recordFromResult(result *model.CampaignResult, snapshotPath string) CampaignRecord {
	email, sms := result.Stats(model.ChannelEmail), result.Stats(model.ChannelSMS)
	return CampaignRecord{
		ID:               result.ID,
		Product:          result.Request.ProductSpec,
		Rehearsal:        result.Rehearsal,
		Aborted:          result.Aborted,
		AbortReason:      result.AbortReason,
		TotalCandidates:  result.TotalCandidates,
		RankedCandidates: result.RankedCandidates,
		EmailSent:        email.Sent,
		EmailFailed:      email.Failed,
		SMSSent:          sms.Sent,
		SMSFailed:        sms.Failed,
		SnapshotPath:     snapshotPath,
		StartedAt:        result.StartedAt.UTC(),
		EndedAt:          result.EndedAt.UTC(),
	}
}

var attemptColumns = []string{
	"campaign_id", "rank", "candidate_id", "supplier",
	"email_status", "email_reason", "sms_status", "sms_reason", "attempted_at",
}

// attemptRows converts result details into rows ordered as attemptColumns.
func attemptRows(result *model.CampaignResult) [][]any {
	rows := make([][]any, 0, len(result.Details))
	for _, at := range result.Details {
		email, sms := at.Outcome(model.ChannelEmail), at.Outcome(model.ChannelSMS)
		rows = append(rows, []any{
			result.ID, at.Rank, at.CandidateID, at.CompanyName,
			string(email.Status), email.Reason, string(sms.Status), sms.Reason, at.Timestamp.UTC(),
		})
	}
	return rows
}

func validateResult(result *model.CampaignResult) error {
	if result == nil || result.ID == "" {
		return eris.Wrap(model.ErrInvalidInput, "store: campaign result without id")
	}
	return nil
}
