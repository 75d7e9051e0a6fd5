package outreach

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// ErrFinished is returned when an attempt is recorded after Finish.
var ErrFinished = eris.New("outreach: campaign already finished")

// Aggregator owns the CampaignResult of one run. Record is safe for
// concurrent use; the result is frozen by Finish.
type Aggregator struct {
	mu       sync.Mutex
	result   *model.CampaignResult
	finished bool

	persistOnce sync.Once
	persistPath string
	persistErr  error
}

// NewAggregator starts a result from seed. Counters and details in seed are
// discarded.
func NewAggregator(seed model.CampaignResult) *Aggregator {
	seed.Channels = make(map[model.Channel]model.ChannelStats, 2)
	for _, ch := range model.Channels() {
		seed.Channels[ch] = model.ChannelStats{}
	}
	seed.Details = []model.OutreachAttempt{}
	seed.EndedAt = time.Time{}
	return &Aggregator{result: &seed}
}

// Record folds one candidate's attempt into the counters and appends it to
// the details.
func (a *Aggregator) Record(at model.OutreachAttempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finished {
		return ErrFinished
	}

	for ch, o := range at.Channels {
		s := a.result.Channels[ch]
		switch o.Status {
		case model.OutcomeSent:
			s.Attempted++
			s.Sent++
		case model.OutcomeFailed:
			s.Attempted++
			s.Failed++
		case model.OutcomeSkipped:
			s.Skipped++
		}
		a.result.Channels[ch] = s
	}
	a.result.Details = append(a.result.Details, at)
	return nil
}

// Abort marks the run as cut short. The first reason wins.
func (a *Aggregator) Abort(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished || a.result.Aborted {
		return
	}
	a.result.Aborted = true
	a.result.AbortReason = reason
}

// Finish stamps the end time and returns the final result. Later calls
// return the same result.
func (a *Aggregator) Finish(end time.Time) *model.CampaignResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.finished {
		a.result.EndedAt = end
		a.finished = true
	}
	return a.result.Clone()
}

// Result returns a copy of the result, final once Finish has been called.
func (a *Aggregator) Result() *model.CampaignResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result.Clone()
}

// Persist writes the final result to sink exactly once per run; repeat
// calls return the first call's outcome.
func (a *Aggregator) Persist(sink Sink) (string, error) {
	a.mu.Lock()
	finished := a.finished
	a.mu.Unlock()
	if !finished {
		return "", eris.New("outreach: persist before finish")
	}

	a.persistOnce.Do(func() {
		a.persistPath, a.persistErr = sink.Write(a.Result())
	})
	return a.persistPath, a.persistErr
}
