package outreach

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/resilience"
	"github.com/thinkloop-ai/procure-cli/pkg/phone"
)

// Dispatch defaults.
const (
	DefaultConcurrency = 5
	DefaultPacing      = time.Second
	DefaultCooldown    = 2 * time.Second
)

const reasonCircuitOpen = "circuit open"

// Campaign is the input of one dispatch run.
type Campaign struct {
	// ID is generated when empty.
	ID      string
	Request model.ProcurementRequest
	// Candidates is the ranked list, best first.
	Candidates []model.Candidate
	// TotalCandidates and UniqueCandidates describe the list before ranking.
	TotalCandidates  int
	UniqueCandidates int
}

// Dispatcher contacts candidates over email then SMS. A channel whose
// Sender is nil is disabled for the whole campaign.
type Dispatcher struct {
	email       Sender
	sms         Sender
	renderer    *Renderer
	concurrency int
	pacing      time.Duration
	cooldown    time.Duration
	rehearsal   bool
	metrics     Metrics
	breakers    map[model.Channel]*resilience.Breaker

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEmailSender enables the email channel.
func WithEmailSender(s Sender) Option {
	return func(d *Dispatcher) { d.email = s }
}

// WithSMSSender enables the SMS channel.
func WithSMSSender(s Sender) Option {
	return func(d *Dispatcher) { d.sms = s }
}

// WithConcurrency bounds how many candidates are in flight at once.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.concurrency = n }
}

// WithPacing sets the pause between a candidate's email and SMS attempts.
func WithPacing(p time.Duration) Option {
	return func(d *Dispatcher) { d.pacing = p }
}

// WithCooldown sets how long a finished candidate keeps its slot.
func WithCooldown(c time.Duration) Option {
	return func(d *Dispatcher) { d.cooldown = c }
}

// WithRenderer replaces the default message renderer.
func WithRenderer(r *Renderer) Option {
	return func(d *Dispatcher) { d.renderer = r }
}

// WithRehearsal labels campaign results as rehearsals.
func WithRehearsal(on bool) Option {
	return func(d *Dispatcher) { d.rehearsal = on }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithBreakers installs a circuit breaker per channel. A zero threshold
// leaves breakers off.
func WithBreakers(cfg resilience.BreakerConfig) Option {
	return func(d *Dispatcher) {
		if cfg.FailureThreshold <= 0 {
			d.breakers = nil
			return
		}
		d.breakers = map[model.Channel]*resilience.Breaker{
			model.ChannelEmail: resilience.NewBreaker(string(model.ChannelEmail), cfg),
			model.ChannelSMS:   resilience.NewBreaker(string(model.ChannelSMS), cfg),
		}
	}
}

// NewDispatcher builds a dispatcher. At least one channel must be enabled.
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		renderer:    NewRenderer(),
		concurrency: DefaultConcurrency,
		pacing:      DefaultPacing,
		cooldown:    DefaultCooldown,
		rehearsal:   true,
		metrics:     NopMetrics{},
		now:         time.Now,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.email == nil && d.sms == nil {
		return nil, model.ErrNoChannels
	}
	if d.concurrency < 1 {
		return nil, eris.Wrapf(model.ErrInvalidInput, "outreach: concurrency must be at least 1, got %d", d.concurrency)
	}
	if d.metrics == nil {
		d.metrics = NopMetrics{}
	}
	return d, nil
}

// Enabled reports whether ch has a sender.
func (d *Dispatcher) Enabled(ch model.Channel) bool {
	switch ch {
	case model.ChannelEmail:
		return d.email != nil
	case model.ChannelSMS:
		return d.sms != nil
	default:
		return false
	}
}

// Dispatch contacts every candidate in c and returns the finished
// aggregator. Per-candidate failures are recorded, never returned. A fatal
// transport error or a cancelled context stops new candidates from being
// admitted; in-flight candidates complete and are recorded, and the error is
// returned alongside the aggregator. Only invalid input returns a nil
// aggregator.
func (d *Dispatcher) Dispatch(ctx context.Context, c Campaign) (*Aggregator, error) {
	if err := c.Request.Validate(); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	log := zap.L().With(zap.String("campaign_id", c.ID), zap.Bool("rehearsal", d.rehearsal))

	seed := model.CampaignResult{
		ID:               c.ID,
		Rehearsal:        d.rehearsal,
		Request:          c.Request,
		TotalCandidates:  c.TotalCandidates,
		UniqueCandidates: c.UniqueCandidates,
		RankedCandidates: len(c.Candidates),
		StartedAt:        d.now(),
	}
	for _, cand := range c.Candidates {
		if cand.HasEmail() {
			seed.EligibleWithEmail++
		}
		if phone.Usable(cand.Phone) {
			seed.EligibleWithPhone++
		}
	}
	agg := NewAggregator(seed)

	log.Info("outreach: campaign started",
		zap.Int("candidates", len(c.Candidates)),
		zap.Int("concurrency", d.concurrency),
		zap.Bool("email_enabled", d.email != nil),
		zap.Bool("sms_enabled", d.sms != nil),
	)

	var (
		aborted   atomic.Bool
		abortOnce sync.Once
		fatalErr  error
		inFlight  atomic.Int64
	)
	abort := func(err error) {
		abortOnce.Do(func() {
			fatalErr = err
			aborted.Store(true)
			agg.Abort(err.Error())
			log.Error("outreach: fatal transport error, no new candidates will be admitted", zap.Error(err))
		})
	}
	stopped := func() bool {
		return aborted.Load() || ctx.Err() != nil
	}

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for i, cand := range c.Candidates {
		if stopped() {
			break
		}
		g.Go(func() error {
			if stopped() {
				return nil
			}
			d.metrics.SetInFlight(int(inFlight.Add(1)))
			defer func() { d.metrics.SetInFlight(int(inFlight.Add(-1))) }()

			at, err := d.contact(ctx, log, c.Request, i+1, cand)
			if recErr := agg.Record(at); recErr != nil {
				log.Error("outreach: record attempt", zap.String("company", cand.CompanyName), zap.Error(recErr))
			}
			if err != nil {
				abort(err)
			}

			_ = d.sleep(ctx, d.cooldown)
			return nil
		})
	}
	_ = g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil && !aborted.Load() {
		agg.Abort("cancelled: " + ctxErr.Error())
	}

	result := agg.Finish(d.now())
	d.metrics.CampaignFinished(result)

	email, sms := result.Stats(model.ChannelEmail), result.Stats(model.ChannelSMS)
	log.Info("outreach: campaign completed",
		zap.Int("email_sent", email.Sent),
		zap.Int("email_eligible", result.EligibleWithEmail),
		zap.Int("sms_sent", sms.Sent),
		zap.Int("sms_eligible", result.EligibleWithPhone),
		zap.Int("recorded", len(result.Details)),
		zap.Bool("aborted", result.Aborted),
		zap.Duration("elapsed", result.Duration()),
	)

	if fatalErr != nil {
		return agg, eris.Wrap(fatalErr, "outreach: campaign aborted")
	}
	if err := ctx.Err(); err != nil {
		return agg, eris.Wrap(err, "outreach: campaign cancelled")
	}
	return agg, nil
}

// contact runs both channels for one candidate. The returned error is
// non-nil only for a fatal transport failure.
func (d *Dispatcher) contact(ctx context.Context, log *zap.Logger, req model.ProcurementRequest, rank int, c model.Candidate) (model.OutreachAttempt, error) {
	log = log.With(zap.String("company", c.CompanyName), zap.Int("rank", rank))
	at := model.OutreachAttempt{
		CandidateID: c.ID,
		CompanyName: c.CompanyName,
		Rank:        rank,
		Channels:    make(map[model.Channel]model.Outcome, 2),
	}

	var fatal error

	var (
		emailOut model.Outcome
		elapsed  time.Duration
	)
	switch {
	case !c.HasEmail():
		emailOut = model.Skipped(model.ReasonNoAddress)
	case d.email == nil:
		emailOut = model.Skipped(model.ReasonUnconfigured)
	default:
		msg, err := d.renderer.Email(req, c)
		if err != nil {
			emailOut = model.Failed("render: " + err.Error())
			break
		}
		var sendErr error
		emailOut, elapsed, sendErr = d.attempt(ctx, log, model.ChannelEmail, d.email, c, msg)
		if sendErr != nil {
			fatal = sendErr
		}
	}
	d.metrics.ObserveAttempt(model.ChannelEmail, emailOut.Status, elapsed)
	at.Channels[model.ChannelEmail] = emailOut

	var smsOut model.Outcome
	elapsed = 0
	switch {
	case !phone.Usable(c.Phone):
		smsOut = model.Skipped(model.ReasonNoPhone)
	case d.sms == nil:
		smsOut = model.Skipped(model.ReasonUnconfigured)
	default:
		if emailOut.Attempted() {
			_ = d.sleep(ctx, d.pacing)
		}
		var sendErr error
		smsOut, elapsed, sendErr = d.attempt(ctx, log, model.ChannelSMS, d.sms, c, d.renderer.SMS(req, c))
		if sendErr != nil && fatal == nil {
			fatal = sendErr
		}
	}
	d.metrics.ObserveAttempt(model.ChannelSMS, smsOut.Status, elapsed)
	at.Channels[model.ChannelSMS] = smsOut

	at.Timestamp = d.now()
	return at, fatal
}

// attempt makes the single allowed transport call for one channel.
func (d *Dispatcher) attempt(ctx context.Context, log *zap.Logger, ch model.Channel, s Sender, c model.Candidate, msg Message) (model.Outcome, time.Duration, error) {
	b := d.breakers[ch]
	if err := b.Allow(); err != nil {
		log.Warn("outreach: channel circuit open, attempt not made", zap.String("channel", string(ch)))
		return model.Failed(reasonCircuitOpen), 0, nil
	}

	start := time.Now()
	del, err := s.Send(ctx, c, msg)
	elapsed := time.Since(start)
	b.Record(err)

	if err != nil {
		log.Warn("outreach: send failed",
			zap.String("channel", string(ch)),
			zap.String("class", resilience.Classify(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		out := model.Failed(err.Error())
		if resilience.IsFatal(err) {
			return out, elapsed, err
		}
		return out, elapsed, nil
	}

	log.Debug("outreach: sent",
		zap.String("channel", string(ch)),
		zap.String("provider_id", del.ProviderID),
		zap.Duration("elapsed", elapsed),
	)
	return model.Sent(del.ProviderID, del.Rehearsal), elapsed, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
