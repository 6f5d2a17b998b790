package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/internal/observability"
	"github.com/upb/clearpath-assistant/internal/prompt"
	"github.com/upb/clearpath-assistant/internal/rag"
	"github.com/upb/clearpath-assistant/internal/router"
	"github.com/upb/clearpath-assistant/middleware"
	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/services"
	"github.com/upb/clearpath-assistant/services/providers"
	"github.com/upb/clearpath-assistant/services/session"
)

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Passage), args.Error(1)
}

// MockCompleter is a mock implementation of providers.Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, model, p string) (string, error) {
	args := m.Called(ctx, model, p)
	return args.String(0), args.Error(1)
}

// MockRecorder is a mock implementation of RoutingRecorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(entry *models.RoutingLogEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

var invitePassages = []models.Passage{
	{Text: "Invite members from Settings > Team.", Source: "team.txt", Score: 0.82},
	{Text: "Admins can remove members at any time.", Source: "team.txt", Score: 0.55},
}

type fixture struct {
	retriever *MockRetriever
	completer *MockCompleter
	recorder  *MockRecorder
	sessions  *session.MemoryStore
	registry  *prometheus.Registry
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		retriever: new(MockRetriever),
		completer: new(MockCompleter),
		recorder:  new(MockRecorder),
		sessions:  session.NewMemoryStore(session.DefaultMaxTurns),
		registry:  prometheus.NewRegistry(),
	}
	f.service = NewService(Components{
		Router:     router.New("big-model", "small-model"),
		Retriever:  f.retriever,
		Completer:  f.completer,
		Sessions:   f.sessions,
		RoutingLog: f.recorder,
		Metrics:    observability.NewMetrics(f.registry),
		Logger:     zap.NewNop(),
	}, DefaultConfig())

	return f
}

func TestAnswer_GuardrailShortCircuits(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		rule     string
		response string
	}{
		{"code", "Can you write javascript for the export?", prompt.GuardrailCode, prompt.RefusalText},
		{"sync", "Why do my tasks not sync?", prompt.GuardrailSync, prompt.SyncRefusalText},
		{"crypto", "Can I pay with cryptocurrency?", prompt.GuardrailCrypto, prompt.RefusalText},
		{"off domain", "Does ClearPath support a space mission planner?", prompt.GuardrailOffDomain, prompt.RefusalText},
		{"before greeting", "Hi, how does sync work?", prompt.GuardrailSync, prompt.SyncRefusalText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			result, err := f.service.Answer(context.Background(), tt.query, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.response, result.Response)
			assert.Equal(t, tt.rule, result.Guardrail)
			assert.True(t, result.Flagged)
			assert.Equal(t, models.Reasons{Refusal: true}, result.Reasons)
			assert.Empty(t, result.Chunks)
			assert.Zero(t, result.LatencyMs)
			assert.True(t, result.Classification.IsValid())
			f.retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything)
			f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.service.metrics.GuardrailCounter.WithLabelValues(tt.rule)))
		})
	}
}

func TestAnswer_Greeting(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Answer(context.Background(), "Hello, I need help", nil)

	require.NoError(t, err)
	assert.Equal(t, prompt.GreetingText, result.Response)
	assert.Equal(t, models.ClassificationGreeting, result.Classification)
	assert.False(t, result.Flagged)
	assert.Empty(t, result.Chunks)
	f.retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswer_GreetingPrefixSkipsRetrieval(t *testing.T) {
	for _, query := range []string{"History of my tasks", "Highlight overdue tasks", "Hide archived projects"} {
		t.Run(query, func(t *testing.T) {
			f := newFixture(t)

			result, err := f.service.Answer(context.Background(), query, nil)

			require.NoError(t, err)
			assert.Equal(t, prompt.GreetingText, result.Response)
			assert.Equal(t, models.ClassificationGreeting, result.Classification)
			f.retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything)
			f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAnswer_Success(t *testing.T) {
	f := newFixture(t)
	ctx := middleware.WithRequestID(context.Background(), "req-1")

	f.retriever.On("Retrieve", ctx, "How do I invite a teammate?", 5).Return(invitePassages, nil)
	f.completer.On("Complete", ctx, "small-model", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Invite members from Settings > Team.") &&
			strings.Contains(p, "How do I invite a teammate?")
	})).Return("Invite  members   from Settings.", nil)
	f.recorder.On("Record", mock.MatchedBy(func(e *models.RoutingLogEntry) bool {
		return e.Query == "How do I invite a teammate?" &&
			e.ModelUsed == "small-model" &&
			e.Classification == models.ClassificationSimple &&
			e.RequestID == "req-1"
	})).Return(nil)

	result, err := f.service.Answer(ctx, "How do I invite a teammate?", nil)

	require.NoError(t, err)
	assert.Equal(t, "Invite members from Settings.", result.Response)
	assert.Equal(t, models.ClassificationSimple, result.Classification)
	assert.Equal(t, "small-model", result.ModelUsed)
	assert.False(t, result.Flagged)
	assert.Len(t, result.Chunks, 2)
	assert.GreaterOrEqual(t, result.LatencyMs, int64(0))
	f.retriever.AssertExpectations(t)
	f.completer.AssertExpectations(t)
	f.recorder.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.service.metrics.AnswerCounter.WithLabelValues("simple", "small-model", "false")))
}

func TestAnswer_ForcesComplexForConceptualTopics(t *testing.T) {
	f := newFixture(t)
	query := "what integrations are supported"

	f.retriever.On("Retrieve", mock.Anything, query, 5).Return(invitePassages, nil)
	f.completer.On("Complete", mock.Anything, "big-model", mock.Anything).Return("Invite members from Settings.", nil)
	f.recorder.On("Record", mock.Anything).Return(nil)

	result, err := f.service.Answer(context.Background(), query, nil)

	require.NoError(t, err)
	assert.Equal(t, models.ClassificationComplex, result.Classification)
	assert.Equal(t, "big-model", result.ModelUsed)
}

func TestAnswer_WeakRefusalIsNormalized(t *testing.T) {
	f := newFixture(t)

	f.retriever.On("Retrieve", mock.Anything, mock.Anything, 5).Return(invitePassages, nil)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("I'm not sure about that.", nil)
	f.recorder.On("Record", mock.Anything).Return(nil)

	result, err := f.service.Answer(context.Background(), "How do I invite a teammate?", nil)

	require.NoError(t, err)
	assert.Equal(t, prompt.RefusalText, result.Response)
	assert.True(t, result.Flagged)
	assert.True(t, result.Reasons.Refusal)
}

func TestAnswer_CompletionFailureDegrades(t *testing.T) {
	f := newFixture(t)

	f.retriever.On("Retrieve", mock.Anything, mock.Anything, 5).Return(invitePassages, nil)
	f.completer.On("Complete", mock.Anything, "small-model", mock.Anything).
		Return("", providers.FromStatus("groq", 429, errors.New("slow down")))

	result, err := f.service.Answer(context.Background(), "How do I invite a teammate?", nil)

	require.NoError(t, err)
	assert.Equal(t, prompt.ApologyText, result.Response)
	assert.True(t, result.Flagged)
	assert.True(t, result.Reasons.Connection)
	assert.Zero(t, result.LatencyMs)
	assert.Equal(t, "small-model", result.ModelUsed)
	assert.Len(t, result.Chunks, 2)
	f.recorder.AssertNotCalled(t, "Record", mock.Anything)
}

func TestAnswer_RetrievalErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"embedding failure", fmt.Errorf("%w: connection refused", rag.ErrEmbeddingFailure), services.ErrEmbeddingFailure},
		{"dimension mismatch", fmt.Errorf("scoring passage 3: %w", rag.ErrDimensionMismatch), services.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.retriever.On("Retrieve", mock.Anything, mock.Anything, 5).Return(nil, tt.err)

			result, err := f.service.Answer(context.Background(), "How do I invite a teammate?", nil)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.err)
			f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAnswer_RoutingLogFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)

	f.retriever.On("Retrieve", mock.Anything, mock.Anything, 5).Return(invitePassages, nil)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Invite members from Settings.", nil)
	f.recorder.On("Record", mock.Anything).Return(errors.New("buffer full"))

	result, err := f.service.Answer(context.Background(), "How do I invite a teammate?", nil)

	require.NoError(t, err)
	assert.Equal(t, "Invite members from Settings.", result.Response)
}

func TestAnswer_NoCorpus(t *testing.T) {
	svc := NewService(Components{Completer: new(MockCompleter)}, DefaultConfig())

	_, err := svc.Answer(context.Background(), "How do I invite a teammate?", nil)

	assert.ErrorIs(t, err, services.ErrCorpusUnavailable)
}

func TestAsk_Validation(t *testing.T) {
	f := newFixture(t)
	f.service.config.MaxQueryLength = 10

	_, err := f.service.Ask(context.Background(), "   ", "s1")
	assert.ErrorIs(t, err, services.ErrMissingQuery)
	assert.True(t, services.IsValidationError(err))

	_, err = f.service.Ask(context.Background(), "this query is far too long", "s1")
	assert.ErrorIs(t, err, services.ErrQueryTooLong)
	assert.Equal(t, 10, services.GetErrorDetails(err)["max_length"])
	assert.Empty(t, services.ErrQueryTooLong.Details)
}

func TestAsk_AppendsHistory(t *testing.T) {
	f := newFixture(t)

	f.retriever.On("Retrieve", mock.Anything, mock.Anything, 5).Return(invitePassages, nil)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
		return !strings.Contains(p, "User: How do I invite a teammate?")
	})).Return("Invite members from Settings.", nil).Once()
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "User: How do I invite a teammate?")
	})).Return("Admins can remove members.", nil).Once()
	f.recorder.On("Record", mock.MatchedBy(func(e *models.RoutingLogEntry) bool {
		return e.SessionID == "s1"
	})).Return(nil)

	_, err := f.service.Ask(context.Background(), "How do I invite a teammate?", "s1")
	require.NoError(t, err)
	second, err := f.service.Ask(context.Background(), "Can admins remove them?", "s1")
	require.NoError(t, err)

	assert.Equal(t, "Admins can remove members.", second.Response)
	history := f.sessions.History(context.Background(), "s1")
	require.Len(t, history, 2)
	assert.Equal(t, "Can admins remove them?", history[1].User)
	assert.False(t, f.sessions.Exists(context.Background(), session.DefaultSessionID))
	f.completer.AssertExpectations(t)
}

func TestAsk_DefaultSessionKeepsGuardrailTurns(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ask(context.Background(), "Can I pay in crypto?", "")

	require.NoError(t, err)
	history := f.sessions.History(context.Background(), session.DefaultSessionID)
	require.Len(t, history, 1)
	assert.Equal(t, result.Response, history[0].Bot)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	passages := []models.Passage{
		{Text: "The Creator role can publish templates.", Source: "roles.txt", Score: 0.9},
		{Text: "Pro plan costs $12 per seat.", Source: "pricing.txt", Score: 0.7},
	}
	f.retriever.On("Retrieve", mock.Anything, "what does the pro plan cost", 5).Return(passages, nil)

	chunks, err := f.service.Search(context.Background(), "what does the pro plan cost")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "pricing.txt", chunks[0].Source)
	f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}
