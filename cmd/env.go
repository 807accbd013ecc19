package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/birralog/enrich-cli/internal/enrich"
	groundedpkg "github.com/birralog/enrich-cli/internal/grounded"
	"github.com/birralog/enrich-cli/internal/resolver"
	"github.com/birralog/enrich-cli/internal/scorer"
	"github.com/birralog/enrich-cli/internal/scrape"
	"github.com/birralog/enrich-cli/internal/sitemine"
	"github.com/birralog/enrich-cli/internal/store"
	"github.com/birralog/enrich-cli/internal/websearch"
	anthropicpkg "github.com/birralog/enrich-cli/pkg/anthropic"
	"github.com/birralog/enrich-cli/pkg/jina"
)

// pipelineEnv bundles everything a command needs to run enrichment.
type pipelineEnv struct {
	Store        store.Store
	Resolver     *resolver.Resolver
	Orchestrator *enrich.Orchestrator
}

func (e *pipelineEnv) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "enrich.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline wires the full cascade: store, grounded search, scrape chain,
// search engines, extractor, scorer, resolver, orchestrator. Every client is
// constructed once here and injected down.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	groundedSearcher := groundedpkg.NewSearcher(
		anthropicClient,
		cfg.Anthropic.Model,
		cfg.Anthropic.MinConfidence,
		cfg.Anthropic.MaxSearches,
	)

	scrapeTimeout := time.Duration(cfg.SiteMine.TimeoutSecs) * time.Second
	scrapers := []scrape.Scraper{scrape.NewLocalScraper(scrapeTimeout)}
	if cfg.Jina.Key != "" {
		jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
		scrapers = append(scrapers, scrape.NewJinaAdapter(jinaClient))
	}
	chain := scrape.NewChain(scrape.NewPathMatcher(cfg.SiteMine.ExcludePaths), scrapers...)
	extractor := sitemine.NewExtractor(chain, cfg.SiteMine.MaxPages, 3)

	searchTimeout := time.Duration(cfg.Search.TimeoutSecs) * time.Second
	engines := []websearch.Engine{
		websearch.NewDuckDuckGo(searchTimeout),
		websearch.NewBing(searchTimeout),
	}
	web := websearch.NewSearcher(cfg.Search.MaxResults, engines,
		websearch.WithDelayRange(
			time.Duration(cfg.Search.MinDelayMs)*time.Millisecond,
			time.Duration(cfg.Search.MaxDelayMs)*time.Millisecond,
		),
	)
	filter := websearch.NewFilter(cfg.Search.ExcludeDomains)

	res := resolver.New(st, groundedSearcher, web, filter, extractor,
		scorer.New(int(cfg.Resolver.AcceptScore)),
		resolver.Options{
			FuzzyThreshold:  cfg.Resolver.FuzzyThreshold,
			FuzzySampleSize: cfg.Resolver.FuzzySampleSize,
		},
	)

	return &pipelineEnv{
		Store:        st,
		Resolver:     res,
		Orchestrator: enrich.NewOrchestrator(st, res),
	}, nil
}
