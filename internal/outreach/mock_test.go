package outreach

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/pkg/twilio"
)

// --- Sender Mock ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, c model.Candidate, msg Message) (Delivery, error) {
	args := m.Called(ctx, c, msg)
	return args.Get(0).(Delivery), args.Error(1)
}

// --- Twilio Mock ---

type mockTwilioClient struct {
	mock.Mock
}

func (m *mockTwilioClient) SendSMS(ctx context.Context, to, body string) (*twilio.Message, error) {
	args := m.Called(ctx, to, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*twilio.Message), args.Error(1)
}

// --- Recording metrics ---

type recordingMetrics struct {
	mu          sync.Mutex
	maxInFlight int
	attempts    map[model.Channel]map[model.OutcomeStatus]int
	finished    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{attempts: make(map[model.Channel]map[model.OutcomeStatus]int)}
}

func (m *recordingMetrics) ObserveAttempt(ch model.Channel, status model.OutcomeStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts[ch] == nil {
		m.attempts[ch] = make(map[model.OutcomeStatus]int)
	}
	m.attempts[ch][status]++
}

func (m *recordingMetrics) SetInFlight(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > m.maxInFlight {
		m.maxInFlight = n
	}
}

func (m *recordingMetrics) CampaignFinished(*model.CampaignResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished++
}

// --- Recording sleep ---

type sleepLog struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepLog) all() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}
