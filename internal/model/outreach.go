package model

import "time"

// Channel is an outreach transport.
type Channel string

const (
	// ChannelEmail is the message channel.
	ChannelEmail Channel = "email"
	// ChannelSMS is the short-text channel.
	ChannelSMS Channel = "sms"
)

// Channels lists the channels in attempt order.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS}
}

// OutcomeStatus is the terminal state of one channel attempt.
type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "sent"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Skip reasons.
const (
	ReasonNoAddress    = "no_address"
	ReasonNoPhone      = "no_phone"
	ReasonUnconfigured = "unconfigured"
)

// Outcome is the result of one channel attempt for one candidate.
type Outcome struct {
	Status     OutcomeStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	ProviderID string        `json:"provider_id,omitempty"`
	Rehearsal  bool          `json:"rehearsal,omitempty"`
}

// Sent builds a successful outcome.
func Sent(providerID string, rehearsal bool) Outcome {
	return Outcome{Status: OutcomeSent, ProviderID: providerID, Rehearsal: rehearsal}
}

// Skipped builds an outcome for a channel that was never attempted.
func Skipped(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Reason: reason}
}

// Failed builds an outcome for an attempt the transport did not accept.
func Failed(reason string) Outcome {
	return Outcome{Status: OutcomeFailed, Reason: reason}
}

// Attempted reports whether the transport was actually asked to deliver.
func (o Outcome) Attempted() bool {
	return o.Status == OutcomeSent || o.Status == OutcomeFailed
}

// OutreachAttempt is one candidate's record within a campaign.
type OutreachAttempt struct {
	CandidateID string              `json:"candidate_id"`
	CompanyName string              `json:"supplier"`
	Rank        int                 `json:"rank"`
	Channels    map[Channel]Outcome `json:"channels"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Outcome returns the recorded outcome for ch.
func (a OutreachAttempt) Outcome(ch Channel) Outcome {
	return a.Channels[ch]
}

// ChannelStats are the per-channel counters of a campaign.
type ChannelStats struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// CampaignResult aggregates one dispatch run. It is written only by the
// outreach aggregator and is immutable once EndedAt is set.
type CampaignResult struct {
	ID                string                   `json:"id"`
	Rehearsal         bool                     `json:"rehearsal"`
	Request           ProcurementRequest       `json:"procurement_requirements"`
	TotalCandidates   int                      `json:"total_suppliers"`
	UniqueCandidates  int                      `json:"unique_suppliers"`
	RankedCandidates  int                      `json:"ranked_suppliers"`
	EligibleWithEmail int                      `json:"suppliers_with_email"`
	EligibleWithPhone int                      `json:"suppliers_with_phone"`
	Channels          map[Channel]ChannelStats `json:"channels"`
	StartedAt         time.Time                `json:"start_time"`
	EndedAt           time.Time                `json:"end_time"`
	Aborted           bool                     `json:"aborted,omitempty"`
	AbortReason       string                   `json:"abort_reason,omitempty"`
	Details           []OutreachAttempt        `json:"details"`
}

// Stats returns the counters for ch.
func (r *CampaignResult) Stats(ch Channel) ChannelStats {
	return r.Channels[ch]
}

// Duration is the wall time of the run.
func (r *CampaignResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Clone returns a deep copy.
func (r *CampaignResult) Clone() *CampaignResult {
	out := *r
	out.Channels = make(map[Channel]ChannelStats, len(r.Channels))
	for ch, s := range r.Channels {
		out.Channels[ch] = s
	}
	out.Details = make([]OutreachAttempt, len(r.Details))
	for i, a := range r.Details {
		cp := a
		cp.Channels = make(map[Channel]Outcome, len(a.Channels))
		for ch, o := range a.Channels {
			cp.Channels[ch] = o
		}
		out.Details[i] = cp
	}
	return &out
}
