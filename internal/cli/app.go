package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/creastat/foodagent/catalog"
	"github.com/creastat/foodagent/config"
	"github.com/creastat/foodagent/engine"
	"github.com/creastat/foodagent/extract"
	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/inventory"
	"github.com/creastat/foodagent/session"
	"github.com/creastat/foodagent/supabase"
	"github.com/creastat/foodagent/vectorstore/qdrant"
)

// backend is an inventory that can both store and list records.
type backend interface {
	inventory.Committer
	inventory.Lister
	Close() error
}

// app holds the wired components for one command run.
type app struct {
	engine    *engine.Engine
	inventory backend
	closers   []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApp builds the engine and its collaborators from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	inv, err := openInventory(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.inventory = inv
	a.closers = append(a.closers, inv.Close)

	store, err := openSessions(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	ex, err := extract.NewGeminiExtractor(ctx, extract.GeminiConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		HTTPClient:  &http.Client{Timeout: cfg.LLMTimeout()},
		Logger:      logger.Named("extract"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var names fields.NameChecker = extract.NewNameChecker(ex)
	if cfg.Catalog.Enabled {
		embedder, vs, err := openCatalog(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, vs.Close)
		names = catalog.Chain{
			catalog.NewChecker(embedder, vs,
				catalog.WithMinScore(cfg.Catalog.MinScore),
				catalog.WithLogger(logger.Named("catalog"))),
			names,
		}
	}

	policy := engine.AttemptsEveryRound
	if cfg.Engine.AttemptPolicy == "extracted_only" {
		policy = engine.AttemptsExtractedOnly
	}

	a.engine, err = engine.New(store, ex, inv,
		engine.WithLogger(logger.Named("engine")),
		engine.WithMaxAttempts(cfg.Engine.MaxAttempts),
		engine.WithAttemptPolicy(policy),
		engine.WithNameChecker(names),
		engine.WithHistoryLimits(cfg.Engine.HistoryMessages, cfg.Engine.HistoryTokens),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func openInventory(cfg *config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.Inventory.Backend {
	case "supabase":
		return supabase.New(supabase.Config{
			URL:      cfg.Inventory.SupabaseURL,
			APIKey:   cfg.Inventory.SupabaseKey,
			Table:    cfg.Inventory.SupabaseTable,
			CacheTTL: cfg.SupabaseCacheTTL(),
			Logger:   logger.Named("supabase"),
		})
	default:
		return inventory.NewSQLiteStore(cfg.Inventory.DatabasePath,
			inventory.WithSQLiteLogger(logger.Named("inventory")))
	}
}

func openSessions(cfg *config.Config) (session.Store, error) {
	opts := []session.StoreOption{
		session.WithTTL(cfg.SessionTTL()),
		session.WithMaxSessions(cfg.Session.MaxSessions),
		session.WithKeyPrefix(cfg.Session.KeyPrefix),
	}
	if cfg.Session.Store == string(session.StoreTypeRedis) {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Session.RedisAddr,
			DB:   cfg.Session.RedisDB,
		})
		opts = append(opts, session.WithRedisClient(client))
	}
	return session.NewStore(session.StoreType(cfg.Session.Store), opts...)
}

func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.GenAIEmbedder, *qdrant.Client, error) {
	embedder, err := catalog.NewGenAIEmbedder(ctx, catalog.GenAIConfig{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.Catalog.EmbeddingModel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("catalog embedder: %w", err)
	}
	vs, err := qdrant.New(qdrant.Config{
		URL:            cfg.Catalog.QdrantURL,
		CollectionName: cfg.Catalog.Collection,
		APIKey:         cfg.Catalog.QdrantAPIKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("catalog store: %w", err)
	}
	return embedder, vs, nil
}
