// Package app wires configuration into a ready pipeline shared by the HTTP
// server, the CLI and the Zeebe worker manager.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"analytics-chat/internal/common/cache"
	"analytics-chat/internal/common/camunda"
	"analytics-chat/internal/common/config"
	"analytics-chat/internal/common/database"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/observability"
	analyzequestion "analytics-chat/internal/workers/analytics-chat/analyze-question"
	analyzestatistics "analytics-chat/internal/workers/analytics-chat/analyze-statistics"
	chatorchestrator "analytics-chat/internal/workers/analytics-chat/chat-orchestrator"
	generateresponse "analytics-chat/internal/workers/analytics-chat/generate-response"
	generatesuggestions "analytics-chat/internal/workers/analytics-chat/generate-suggestions"
	normalizeentities "analytics-chat/internal/workers/analytics-chat/normalize-entities"
	resolveviews "analytics-chat/internal/workers/analytics-chat/resolve-views"
	retrieveknowledge "analytics-chat/internal/workers/analytics-chat/retrieve-knowledge"
	retrieveviewdata "analytics-chat/internal/workers/analytics-chat/retrieve-view-data"
	routequery "analytics-chat/internal/workers/analytics-chat/route-query"
	"analytics-chat/pkg/registry"
)

const connectTimeout = 30 * time.Second

type App struct {
	Config        *config.Config
	Service       *chatorchestrator.Service
	Catalog       *registry.Catalog
	Schema        *retrieveviewdata.SchemaProvider
	Ingester      *retrieveknowledge.Ingester
	Observability *observability.Observability
	// Workers maps each Zeebe task type to its job handler.
	Workers map[string]camunda.JobHandler

	logger  logger.Logger
	closers []func()
}

// New connects to every configured backend and builds the pipeline.
// Postgres is required; Redis is required only for the redis cache backend;
// Elasticsearch is optional and enables knowledge text search and ingestion.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger.ForComponent(log, "app"), Workers: map[string]camunda.JobHandler{}}

	tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		a.logger.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
		tracing = nil
	}
	a.Observability = observability.New(cfg.App.Name, tracing)
	a.onClose(a.Observability.Shutdown)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = pg.Close() })
	if err := a.waitFor(ctx, "postgres", pg.Ping); err != nil {
		a.Close()
		return nil, err
	}

	var healthChecks []chatorchestrator.HealthCheck
	healthChecks = append(healthChecks, chatorchestrator.HealthCheck{Name: "postgres", Check: pg.Ping})

	p := cfg.Pipeline
	newCache := func(prefix string, ttl time.Duration) cache.Cache {
		return cache.NewMemoryCache(cache.Options{TTL: ttl, Capacity: 10000, Prefix: prefix})
	}
	if p.CacheBackend == "redis" {
		rdb := database.NewRedis(cfg.Database.Redis)
		a.onClose(func() { _ = rdb.Close() })
		if err := a.waitFor(ctx, "redis", rdb.Ping); err != nil {
			a.Close()
			return nil, err
		}
		healthChecks = append(healthChecks, chatorchestrator.HealthCheck{Name: "redis", Check: rdb.Ping})
		newCache = func(prefix string, ttl time.Duration) cache.Cache {
			return cache.NewRedisCache(rdb.Client, cache.Options{TTL: ttl, Prefix: "analytics-chat:" + prefix}, log)
		}
	}

	a.Catalog = registry.Default()
	if p.RegistryPath != "" {
		if a.Catalog, err = registry.Load(p.RegistryPath); err != nil {
			a.Close()
			return nil, fmt.Errorf("load view registry: %w", err)
		}
	}

	backend, embedder, err := llm.NewBackend(cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	gw := llm.NewGateway(backend, llm.GatewayConfigFrom(cfg.LLM), log)

	a.Schema = retrieveviewdata.NewSchemaProvider(pg.DB, newCache("schema:", config.GetDuration(p.SchemaCacheTTL)), a.Catalog, log)

	store := retrieveviewdata.Store(retrieveviewdata.NewPostgresStore(pg.DB))
	if p.SnapshotCacheTTL > 0 {
		store = retrieveviewdata.NewCachedStore(store, newCache("snapshot:", config.GetDuration(p.SnapshotCacheTTL)))
	}
	retrieveCfg := retrieveviewdata.LoadConfig()
	retrieveCfg.Concurrency = p.RetrievalConcurrency
	retriever := retrieveviewdata.NewHandler(retrieveCfg, store, a.Catalog, log)
	a.onClose(retriever.Close)

	var (
		vectors = retrieveknowledge.NewPostgresVectorStore(pg.DB)
		text    retrieveknowledge.TextSearcher
	)
	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := es.EnsureIndex(ctx); err != nil {
			a.logger.Warn("knowledge index unavailable", map[string]interface{}{"index": es.Index, "error": err.Error()})
		}
		text = retrieveknowledge.NewElasticTextSearcher(es.Client, es.Index)
		a.Ingester = retrieveknowledge.NewIngester(retrieveknowledge.LoadConfig(), es.Client, es.Index, embedder, vectors, log)
		healthChecks = append(healthChecks, chatorchestrator.HealthCheck{Name: "elasticsearch", Check: es.Ping})
	}
	knowledgeCfg := retrieveknowledge.LoadConfig()
	knowledgeCfg.TopK = p.KnowledgeTopK
	knowledgeCfg.Threshold = p.KnowledgeThreshold
	knowledge := retrieveknowledge.NewHandler(knowledgeCfg, gw, embedder, vectors, text, log)
	a.onClose(knowledge.Close)

	resolveCfg := resolveviews.LoadConfig()
	resolveCfg.MaxViews = p.MaxViews
	resolveCfg.DefaultLimit = p.DefaultLimit

	analyzeCfg := analyzequestion.LoadConfig()
	analyzeCfg.DefaultLimit = p.DefaultLimit
	analyzeCfg.MaxRetries = cfg.LLM.MaxRetries

	var history chatorchestrator.HistoryStore
	if p.PersistHistory {
		if err := pg.Migrate(ctx, chatorchestrator.HistorySchema...); err != nil {
			a.Close()
			return nil, err
		}
		history = chatorchestrator.NewPostgresHistoryStore(pg.DB)
	}
	chatCfg := chatorchestrator.LoadConfig()
	chatCfg.MaxSessions = p.MaxSessions
	chatCfg.MaxSessionMessages = p.MaxSessionMessages
	chatCfg.SessionIdleTTL = config.GetDuration(p.SessionIdleTTL)
	chatCfg.ConversationHistory = p.HistorySize

	deps := chatorchestrator.Deps{
		Gateway:       gw,
		Catalog:       a.Catalog,
		History:       chatorchestrator.NewHistory(chatCfg.MaxSessions, chatCfg.MaxSessionMessages, chatCfg.SessionIdleTTL, history, log),
		Router:        routequery.NewHandler(routequery.LoadConfig(), gw, log),
		Knowledge:     knowledge,
		Schema:        a.Schema,
		Analyzer:      analyzequestion.NewHandler(analyzeCfg, gw, nil, log),
		Normalizer:    normalizeentities.NewHandler(normalizeentities.LoadConfig(), gw, newCache("category:", normalizeentities.LoadConfig().MappingTTL), log),
		Resolver:      resolveviews.NewHandler(resolveCfg, a.Catalog, log),
		Retriever:     retriever,
		Statistics:    analyzestatistics.NewHandler(analyzestatistics.LoadConfig(), log),
		Responder:     generateresponse.NewHandler(generateresponse.LoadConfig(), gw, nil, log),
		Suggester:     generatesuggestions.NewHandler(generatesuggestions.LoadConfig(), gw, log),
		Observability: a.Observability,
		HealthChecks:  healthChecks,
	}
	a.Service = chatorchestrator.NewService(chatCfg, deps, log)
	a.onClose(a.Service.Close)

	a.Workers = map[string]camunda.JobHandler{
		routequery.TaskType:          deps.Router,
		retrieveknowledge.TaskType:   deps.Knowledge,
		analyzequestion.TaskType:     deps.Analyzer,
		normalizeentities.TaskType:   deps.Normalizer,
		resolveviews.TaskType:        deps.Resolver,
		retrieveviewdata.TaskType:    deps.Retriever,
		analyzestatistics.TaskType:   deps.Statistics,
		generateresponse.TaskType:    deps.Responder,
		generatesuggestions.TaskType: deps.Suggester,
		chatorchestrator.TaskType:    chatorchestrator.NewHandler(a.Service, log),
	}

	a.logger.Info("pipeline ready", map[string]interface{}{
		"backend":  gw.BackendName(),
		"views":    len(a.Catalog.Views()),
		"cache":    p.CacheBackend,
		"elastic":  cfg.Database.Elasticsearch.Enabled(),
		"embedder": embedder != nil,
	})
	return a, nil
}

// waitFor retries ping with exponential backoff until it succeeds or
// connectTimeout passes.
func (a *App) waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return struct{}{}, ping(pingCtx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(connectTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn(name+" not ready, retrying", map[string]interface{}{
				"error":   err.Error(),
				"retryIn": next.String(),
			})
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", name, err)
	}
	return nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
