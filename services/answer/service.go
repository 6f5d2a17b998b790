// Package answer runs the retrieval-augmented answer pipeline.
package answer

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/upb/clearpath-assistant/internal/evaluator"
	"github.com/upb/clearpath-assistant/internal/observability"
	"github.com/upb/clearpath-assistant/internal/prompt"
	"github.com/upb/clearpath-assistant/internal/rag"
	"github.com/upb/clearpath-assistant/internal/router"
	"github.com/upb/clearpath-assistant/middleware"
	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/services"
	"github.com/upb/clearpath-assistant/services/providers"
	"github.com/upb/clearpath-assistant/services/session"
	"go.uber.org/zap"
)

// Completion statuses reported to metrics
const (
	completionOK          = "ok"
	completionError       = "error"
	completionRateLimited = "rate_limited"
)

// Queries mentioning these topics always go to the high-capacity model
var complexTopics = []string{"workflow", "permissions", "integrations"}

// Service orchestrates guardrails, classification, retrieval, completion
// and evaluation for a single query
type Service struct {
	guardrails *prompt.Guardrails
	router     *router.Router
	retriever  Retriever
	shaper     Shaper
	completer  providers.Completer
	evaluator  evaluator.Evaluator
	sessions   session.Store
	routingLog RoutingRecorder
	metrics    *observability.Metrics
	logger     *zap.Logger
	config     Config
}

// Components groups the collaborators of the pipeline. Guardrails, Shaper,
// Evaluator and Sessions fall back to defaults when nil; RoutingLog and
// Metrics are optional.
type Components struct {
	Guardrails *prompt.Guardrails
	Router     *router.Router
	Retriever  Retriever
	Shaper     Shaper
	Completer  providers.Completer
	Evaluator  evaluator.Evaluator
	Sessions   session.Store
	RoutingLog RoutingRecorder
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewService creates a new answer service
func NewService(c Components, cfg Config) *Service {
	if c.Guardrails == nil {
		c.Guardrails = prompt.NewGuardrails(nil)
	}
	if c.Router == nil {
		c.Router = router.New("", "")
	}
	if c.Shaper == nil {
		c.Shaper = rag.NewShaper(nil)
	}
	if c.Evaluator == nil {
		c.Evaluator = evaluator.NewDefault()
	}
	if c.Sessions == nil {
		c.Sessions = session.NewMemoryStore(session.DefaultMaxTurns)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}

	return &Service{
		guardrails: c.Guardrails,
		router:     c.Router,
		retriever:  c.Retriever,
		shaper:     c.Shaper,
		completer:  c.Completer,
		evaluator:  c.Evaluator,
		sessions:   c.Sessions,
		routingLog: c.RoutingLog,
		metrics:    c.Metrics,
		logger:     c.Logger,
		config:     cfg,
	}
}

// Sessions exposes the session store backing Ask
func (s *Service) Sessions() session.Store {
	return s.sessions
}

// Ask validates the query, answers it with the session's history and
// appends the exchange to that session. An empty sessionID uses the
// default session.
func (s *Service) Ask(ctx context.Context, query, sessionID string) (*models.AnswerResult, error) {
	if err := s.validateQuery(query); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = session.DefaultSessionID
	}
	ctx = middleware.WithSessionID(ctx, sessionID)

	history := s.sessions.History(ctx, sessionID)

	result, err := s.Answer(ctx, query, history)
	if err != nil {
		return nil, err
	}

	s.sessions.Append(ctx, sessionID, models.ConversationTurn{
		User: query,
		Bot:  result.Response,
	})

	return result, nil
}

// Answer runs the pipeline for one query. Once past retrieval it always
// returns a well-formed result: completion failures degrade into an
// apology rather than an error.
func (s *Service) Answer(ctx context.Context, query string, history []models.ConversationTurn) (*models.AnswerResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, services.ErrMissingQuery
	}

	state := &pipelineState{
		requestID:      middleware.GetRequestIDFromContext(ctx),
		sessionID:      middleware.GetSessionIDFromContext(ctx),
		query:          query,
		lowered:        strings.ToLower(query),
		classification: router.Classify(query),
	}
	logger := s.logger.With(observability.RequestFields(state.requestID, state.sessionID)...)

	// Step 1: guardrails
	if rule, ok := s.guardrails.Check(query); ok {
		logger.Info("guardrail short-circuit", zap.String("rule", rule.Name))
		s.metrics.RecordGuardrail(rule.Name)
		return &models.AnswerResult{
			Response:       rule.Response,
			Classification: state.classification,
			Flagged:        true,
			Reasons:        models.Reasons{Refusal: true},
			Chunks:         []models.Passage{},
			Guardrail:      rule.Name,
		}, nil
	}

	// Step 2: classification
	if state.classification == models.ClassificationGreeting {
		logger.Debug("greeting query")
		s.metrics.RecordAnswer(string(state.classification), "", false)
		return &models.AnswerResult{
			Response:       prompt.GreetingText,
			Classification: state.classification,
			Chunks:         []models.Passage{},
		}, nil
	}
	if containsAny(state.lowered, complexTopics) {
		state.classification = models.ClassificationComplex
	}

	// Step 3: model choice
	state.model = s.router.ChooseModel(state.classification)
	logger.Debug("query routed",
		zap.String("classification", string(state.classification)),
		zap.String("model", state.model))

	// Step 4: retrieval and shaping
	if err := s.retrieve(ctx, state); err != nil {
		logger.Error("retrieval failed", zap.Error(err))
		return nil, err
	}

	// Step 5: prompt
	state.prompt = prompt.Build(history, state.chunks, query)

	// Step 6: completion
	start := time.Now()
	raw, err := s.completer.Complete(ctx, state.model, state.prompt)
	elapsed := time.Since(start)
	if err != nil {
		return s.degraded(logger, state, elapsed, err), nil
	}
	s.metrics.RecordCompletion(state.model, completionOK, elapsed.Seconds())

	// Steps 7-8: normalize and clean
	response := prompt.Clean(prompt.Normalize(raw))

	// Step 9: evaluation
	eval := s.evaluator.Evaluate(response, state.chunks)

	result := &models.AnswerResult{
		Response:       response,
		Classification: state.classification,
		ModelUsed:      state.model,
		LatencyMs:      elapsed.Milliseconds(),
		Flagged:        eval.Flagged,
		Reasons:        eval.Reasons,
		Chunks:         state.chunks,
	}

	// Step 10: emit
	s.metrics.RecordAnswer(string(result.Classification), result.ModelUsed, result.Flagged)
	s.recordRouting(logger, state, result)

	logger.Info("query answered",
		zap.String("classification", string(result.Classification)),
		zap.String("model", result.ModelUsed),
		zap.Int64("latency_ms", result.LatencyMs),
		zap.Bool("flagged", result.Flagged),
		zap.Int("chunks", len(result.Chunks)))

	return result, nil
}

// Search returns the shaped passages for a query without calling a model
func (s *Service) Search(ctx context.Context, query string) ([]models.Passage, error) {
	if err := s.validateQuery(query); err != nil {
		return nil, err
	}
	state := &pipelineState{query: query, lowered: strings.ToLower(query)}
	if err := s.retrieve(ctx, state); err != nil {
		return nil, err
	}
	return state.chunks, nil
}

func (s *Service) validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return services.ErrMissingQuery
	}
	if s.config.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.config.MaxQueryLength {
		return services.ErrQueryTooLong.Wrap(nil).
			WithDetail("max_length", s.config.MaxQueryLength)
	}
	return nil
}

func (s *Service) retrieve(ctx context.Context, state *pipelineState) error {
	if s.retriever == nil {
		return services.ErrCorpusUnavailable
	}

	start := time.Now()
	chunks, err := s.retriever.Retrieve(ctx, state.query, s.config.TopK)
	s.metrics.RecordRetrieval(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, rag.ErrDimensionMismatch) {
			return services.ErrDimensionMismatch.Wrap(err)
		}
		return services.ErrEmbeddingFailure.Wrap(err)
	}

	state.chunks = s.shaper.Shape(state.query, chunks)
	if state.chunks == nil {
		state.chunks = []models.Passage{}
	}
	return nil
}

func (s *Service) degraded(logger *zap.Logger, state *pipelineState, elapsed time.Duration, err error) *models.AnswerResult {
	status := completionError
	if providers.IsRateLimited(err) {
		status = completionRateLimited
	}
	s.metrics.RecordCompletion(state.model, status, elapsed.Seconds())
	s.metrics.RecordAnswer(string(state.classification), state.model, true)

	logger.Error("completion failed",
		zap.String("model", state.model),
		zap.String("status", status),
		zap.Error(services.ErrCompletionFailure.Wrap(err)))

	return &models.AnswerResult{
		Response:       prompt.ApologyText,
		Classification: state.classification,
		ModelUsed:      state.model,
		LatencyMs:      0,
		Flagged:        true,
		Reasons:        models.Reasons{Connection: true},
		Chunks:         state.chunks,
	}
}

func (s *Service) recordRouting(logger *zap.Logger, state *pipelineState, result *models.AnswerResult) {
	if s.routingLog == nil {
		return
	}
	entry := models.NewRoutingLogEntry(state.query, result.Classification, result.ModelUsed, result.LatencyMs).
		WithRequest(state.requestID, state.sessionID).
		WithFlagged(result.Flagged)

	if err := s.routingLog.Record(entry); err != nil {
		logger.Debug("routing log entry not recorded", zap.Error(err))
	}
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
