// Package campaign runs a procurement outreach campaign end to end:
// consolidate and rank candidates, dispatch, persist the snapshot and record
// the run in the history store.
package campaign

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/outreach"
	"github.com/thinkloop-ai/procure-cli/internal/resilience"
	"github.com/thinkloop-ai/procure-cli/internal/store"
	"github.com/thinkloop-ai/procure-cli/internal/supplier"
)

// Input is one campaign request.
type Input struct {
	// ID is generated when empty.
	ID         string
	Request    model.ProcurementRequest
	Candidates []model.Candidate
}

// Report is what a run produced.
type Report struct {
	Result       *model.CampaignResult
	Ranked       []model.Candidate
	SnapshotPath string
}

// Runner wires the pipeline stages. Store is optional.
type Runner struct {
	Ranker      *supplier.Ranker
	CountryCode string
	Dispatcher  *outreach.Dispatcher
	Sink        outreach.Sink
	Store       store.Store
	Retry       resilience.RetryConfig
}

// Run executes one campaign. Invalid input returns before anything is sent
// and yields no report. Otherwise the snapshot is always written, even when
// dispatch was aborted; the dispatch error, if any, is returned with the
// report. A failed snapshot write yields no report and an error joining the
// write failure with the dispatch error.
func (r *Runner) Run(ctx context.Context, in Input) (*Report, error) {
	req := in.Request.Trimmed()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ranker := r.Ranker
	if ranker == nil {
		ranker = supplier.NewRanker()
	}
	ranked, unique := ranker.Consolidate(in.Candidates, req, r.CountryCode)

	log := zap.L().With(zap.String("phase", "campaign"))
	log.Info("campaign: candidates consolidated",
		zap.Int("input", len(in.Candidates)),
		zap.Int("unique", unique),
		zap.Int("ranked", len(ranked)),
	)

	agg, dispatchErr := r.Dispatcher.Dispatch(ctx, outreach.Campaign{
		ID:               in.ID,
		Request:          req,
		Candidates:       ranked,
		TotalCandidates:  len(in.Candidates),
		UniqueCandidates: unique,
	})
	if agg == nil {
		return nil, dispatchErr
	}

	sink := r.Sink
	if sink == nil {
		sink = outreach.FileSink{}
	}
	path, err := agg.Persist(sink)
	if err != nil {
		res := agg.Result()
		log.Error("campaign: write snapshot failed",
			zap.String("campaign_id", res.ID),
			zap.Int("email_sent", res.Stats(model.ChannelEmail).Sent),
			zap.Int("sms_sent", res.Stats(model.ChannelSMS).Sent),
			zap.Int("recorded", len(res.Details)),
			zap.Bool("aborted", res.Aborted),
			zap.Error(err),
		)
		return nil, errors.Join(eris.Wrap(err, "campaign: write snapshot"), dispatchErr)
	}

	report := &Report{Result: agg.Result(), Ranked: ranked, SnapshotPath: path}
	log = log.With(zap.String("campaign_id", report.Result.ID))
	log.Info("campaign: snapshot written", zap.String("path", path))

	if r.Store != nil {
		// A cancelled run is still recorded.
		saveCtx := context.WithoutCancel(ctx)
		err := resilience.Do(saveCtx, r.retry(), "store: save campaign", func(ctx context.Context) error {
			return r.Store.SaveCampaign(ctx, report.Result, path)
		})
		if err != nil {
			log.Error("campaign: record history failed", zap.Error(err))
			if dispatchErr == nil {
				return report, eris.Wrap(err, "campaign: record history")
			}
		}
	}

	return report, dispatchErr
}

func (r *Runner) retry() resilience.RetryConfig {
	if r.Retry.MaxAttempts == 0 {
		return resilience.DefaultRetryConfig()
	}
	return r.Retry
}
