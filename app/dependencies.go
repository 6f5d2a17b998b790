package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/config"
	"github.com/upb/clearpath-assistant/internal/evaluator"
	"github.com/upb/clearpath-assistant/internal/observability"
	"github.com/upb/clearpath-assistant/internal/prompt"
	"github.com/upb/clearpath-assistant/internal/rag"
	"github.com/upb/clearpath-assistant/internal/router"
	"github.com/upb/clearpath-assistant/repositories"
	"github.com/upb/clearpath-assistant/repositories/filestore"
	"github.com/upb/clearpath-assistant/repositories/postgres"
	"github.com/upb/clearpath-assistant/services"
	"github.com/upb/clearpath-assistant/services/answer"
	"github.com/upb/clearpath-assistant/services/embedding"
	"github.com/upb/clearpath-assistant/services/eval"
	"github.com/upb/clearpath-assistant/services/ingest"
	"github.com/upb/clearpath-assistant/services/providers"
	"github.com/upb/clearpath-assistant/services/providers/anthropic"
	"github.com/upb/clearpath-assistant/services/providers/openai"
	"github.com/upb/clearpath-assistant/services/routinglog"
	"github.com/upb/clearpath-assistant/services/session"
)

// routingLogStopTimeout bounds how long Close waits for queued routing entries
const routingLogStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	DB       *postgres.DB // nil unless a postgres backend is selected
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Passages    repositories.PassageRepository
	RoutingLogs repositories.RoutingLogRepository // nil when the routing log is disabled
	TxManager   repositories.TransactionManager

	// Model access
	Providers *providers.Registry
	Completer providers.Completer
	Embedder  *embedding.Client

	// Conversation memory
	Sessions session.Store

	// Pipeline, populated by LoadPipeline
	Corpus     *rag.Corpus
	RoutingLog *routinglog.Service
	Answer     *answer.Service
}

// NewDependencies creates and wires up the infrastructure shared by every
// command. The answer pipeline itself is built by LoadPipeline.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	if cfg.NeedsDatabase() {
		if err := deps.initDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if err := deps.initRepositories(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initEmbedder(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	deps.Sessions = session.NewMemoryStore(cfg.Session.MaxTurns)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initMetrics creates the Prometheus registry with process and Go collectors
func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initDatabase initializes the PostgreSQL connection, factory and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := factory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories selects the corpus and routing log stores by backend
func (d *Dependencies) initRepositories(cfg *config.Config) error {
	var pg *repositories.Repositories
	if d.RepoFactory != nil {
		pg = d.RepoFactory.NewRepositories()
		d.TxManager = d.RepoFactory.GetTransactionManager()
	}

	switch cfg.Corpus.Backend {
	case config.BackendPostgres:
		d.Passages = pg.Passages
	default:
		d.Passages = filestore.NewPassageStore(cfg.Corpus.Path)
	}

	switch cfg.RoutingLog.Backend {
	case config.BackendPostgres:
		d.RoutingLogs = pg.RoutingLogs
	case config.BackendNone:
		d.RoutingLogs = nil
	default:
		d.RoutingLogs = filestore.NewRoutingLogStore(cfg.RoutingLog.Path)
	}

	d.Logger.Info("repositories initialized",
		zap.String("corpus_backend", cfg.Corpus.Backend),
		zap.String("routing_log_backend", cfg.RoutingLog.Backend))
	return nil
}

// initProviders registers the completion providers. Groq is registered first
// and so serves every model that does not match the Anthropic prefix.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	groqCfg := providers.DefaultProviderConfig()
	groqCfg.APIKey = cfg.Providers.Groq.APIKey
	groqCfg.BaseURL = cfg.Providers.Groq.BaseURL
	groqCfg.Timeout = cfg.Providers.Groq.Timeout
	groqCfg.Temperature = cfg.Providers.Groq.Temperature
	groqCfg.MaxTokens = cfg.Providers.Groq.MaxTokens

	groq := openai.NewAdapter("groq", groqCfg)
	if err := registry.RegisterProvider(groq); err != nil {
		return err
	}
	if cfg.Providers.Groq.APIKey == "" {
		d.Logger.Warn("GROQ_API_KEY not set, completions will fail and degrade to the apology response")
	}

	if cfg.Providers.Anthropic.APIKey != "" {
		anthropicCfg := providers.DefaultProviderConfig()
		anthropicCfg.APIKey = cfg.Providers.Anthropic.APIKey
		anthropicCfg.BaseURL = cfg.Providers.Anthropic.BaseURL
		anthropicCfg.Timeout = cfg.Providers.Anthropic.Timeout
		anthropicCfg.Temperature = cfg.Providers.Groq.Temperature
		anthropicCfg.MaxTokens = cfg.Providers.Groq.MaxTokens

		adapter := anthropic.NewAdapter(anthropicCfg)
		if err := registry.RegisterProvider(adapter); err != nil {
			return err
		}
		if prefix := cfg.Providers.Anthropic.ModelPrefix; prefix != "" {
			if err := registry.RegisterModelPrefix(prefix, adapter.Name()); err != nil {
				return err
			}
		}
		d.Logger.Info("registered Anthropic provider",
			zap.String("model_prefix", cfg.Providers.Anthropic.ModelPrefix))
	}

	d.Providers = registry
	d.Completer = providers.NewRetryingCompleter(registry,
		cfg.Providers.Groq.MaxRetries, cfg.Providers.Groq.RetryDelay, d.Logger)

	d.Logger.Info("providers initialized", zap.Strings("providers", registry.ListProviders()))
	return nil
}

// initEmbedder creates the embeddings client
func (d *Dependencies) initEmbedder(cfg *config.Config) error {
	client, err := embedding.NewClient(embedding.Config{
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Timeout:   cfg.Embedding.Timeout,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err != nil {
		return err
	}
	d.Embedder = client
	return nil
}

// LoadPipeline loads the corpus snapshot, starts the routing log workers and
// builds the answer service
func (d *Dependencies) LoadPipeline(ctx context.Context) error {
	cfg := d.Config

	passages, err := d.Passages.LoadAll(ctx)
	if err != nil {
		if errors.Is(err, filestore.ErrCorpusMissing) {
			return services.ErrCorpusUnavailable.Wrap(
				fmt.Errorf("%w (run `clearpath ingest` first)", err))
		}
		return services.ErrCorpusUnavailable.Wrap(err)
	}

	corpus, err := rag.NewCorpus(passages)
	if err != nil {
		return services.ErrDimensionMismatch.Wrap(err)
	}
	if corpus.Len() == 0 {
		d.Logger.Warn("corpus is empty, answers will have no context")
	}
	d.Corpus = corpus

	d.Logger.Info("corpus loaded",
		zap.Int("passages", corpus.Len()),
		zap.Int("dimension", corpus.Dimension()),
		zap.Strings("sources", corpus.Sources()))

	var queryEmbedder rag.Embedder = d.Embedder
	if cfg.Embedding.CacheSize > 0 {
		cache := embedding.NewVectorCache(cfg.Embedding.CacheSize, cfg.Embedding.CacheTTL)
		queryEmbedder = embedding.NewCachedEmbedder(d.Embedder, cache, d.Metrics)
	}

	var recorder answer.RoutingRecorder
	if d.RoutingLogs != nil {
		d.RoutingLog = routinglog.NewService(d.RoutingLogs, d.Logger, d.Metrics, routinglog.Config{
			BufferSize:  cfg.RoutingLog.BufferSize,
			WorkerCount: cfg.RoutingLog.WorkerCount,
			RedactPII:   cfg.RoutingLog.RedactPII,
		})
		if err := d.RoutingLog.Start(); err != nil {
			return fmt.Errorf("failed to start routing log: %w", err)
		}
		recorder = d.RoutingLog
	}

	evalCfg := evaluator.DefaultConfig()
	evalCfg.NoContextFloor = cfg.Pipeline.NoContextFloor

	d.Answer = answer.NewService(answer.Components{
		Guardrails: prompt.NewGuardrails(nil),
		Router:     router.New(cfg.Models.Complex, cfg.Models.Fast),
		Retriever:  rag.NewRetriever(corpus, queryEmbedder, d.Logger),
		Shaper:     rag.NewShaper(nil),
		Completer:  d.Completer,
		Evaluator:  evaluator.New(evalCfg),
		Sessions:   d.Sessions,
		RoutingLog: recorder,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
	}, answer.Config{
		TopK:           cfg.Pipeline.TopK,
		MaxQueryLength: cfg.Pipeline.MaxQueryLength,
	})

	d.Logger.Info("answer pipeline ready",
		zap.String("complex_model", cfg.Models.Complex),
		zap.String("fast_model", cfg.Models.Fast))
	return nil
}

// NewIngestService builds the corpus ingestion service
func (d *Dependencies) NewIngestService() *ingest.Service {
	chunker := rag.Chunker{
		Size:    d.Config.Corpus.ChunkSize,
		Overlap: d.Config.Corpus.ChunkOverlap,
	}
	return ingest.NewService(d.Passages, d.TxManager, d.Embedder, chunker, d.Logger)
}

// NewEvalRunner builds the evaluation runner. LoadPipeline must run first.
func (d *Dependencies) NewEvalRunner(out io.Writer) *eval.Runner {
	return eval.NewRunner(d.Answer, eval.Config{
		PauseBefore: d.Config.Eval.PauseBefore,
		PauseAfter:  d.Config.Eval.PauseAfter,
		CaseTimeout: d.Config.Eval.CaseTimeout,
	}, out, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued routing entries before the store goes away
	if d.RoutingLog != nil {
		if err := d.RoutingLog.Stop(routingLogStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop routing log: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
