package commands

import (
	"context"
	"fmt"

	"github.com/jaehyun-dev/concord/internal/cache"
	"github.com/jaehyun-dev/concord/internal/consensus"
	"github.com/jaehyun-dev/concord/internal/engine"
	"github.com/jaehyun-dev/concord/internal/evaluate"
	"github.com/jaehyun-dev/concord/internal/portfolio"
	"github.com/jaehyun-dev/concord/internal/providers"
	"github.com/jaehyun-dev/concord/internal/store"
	"github.com/jaehyun-dev/concord/internal/strategy"
	"github.com/jaehyun-dev/concord/pkg/config"
	"github.com/jaehyun-dev/concord/pkg/database"
	"github.com/jaehyun-dev/concord/pkg/httputil"
	"github.com/jaehyun-dev/concord/pkg/logger"
	"github.com/jaehyun-dev/concord/pkg/redis"
)

// buildEngine wires the full pipeline from config. db and progress may be
// nil; persistence and live progress are then skipped.
func buildEngine(cfg *config.Config, log *logger.Logger, db *database.DB, progress engine.ProgressSink) (*engine.Engine, error) {
	httpClient := httputil.New(cfg, log)

	var news *providers.NewsScraper
	if cfg.Providers.NewsBaseURL != "" {
		news = providers.NewNewsScraper(httpClient, cfg.Providers.NewsBaseURL, log)
	}
	market := providers.NewMarketClient(httpClient, cfg.Providers, news, log)

	instruments, err := providers.LoadUniverseFile(cfg.Analysis.UniverseFile)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	universe := providers.NewStaticUniverse(instruments)

	regime := providers.NewBreadthRegime(market, cfg.Analysis.BenchmarkSymbols, providers.DefaultCautionFloor, log)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	resultCache := cache.NewTiered(
		cache.NewStore(cfg.Analysis.CacheTTL),
		redis.NewCache(redisClient, "concord"),
		cfg.Analysis.CacheTTL,
	)

	evaluator := evaluate.NewEvaluator(evaluate.DefaultWeightConfig(), log)
	batchConfig := evaluate.DefaultBatchConfig()
	batchConfig.ChunkSize = cfg.Analysis.ChunkSize
	batchConfig.ChunkPause = cfg.Analysis.ChunkPause
	batchConfig.MaxConcurrency = cfg.Analysis.MaxConcurrency
	batch := evaluate.NewBatch(evaluator, market, market, resultCache, batchConfig, log)

	guardConfig := consensus.DefaultGuardrailConfig()
	guardConfig.Enabled = cfg.Analysis.GuardrailEnabled
	guard := consensus.NewGuardrail(guardConfig, log)

	var repo engine.Store
	if db != nil {
		runRepo := store.NewRepository(db.Pool)
		if err := runRepo.EnsureSchema(context.Background()); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = runRepo
	}

	return engine.NewEngine(
		universe,
		regime,
		batch,
		consensus.NewAggregator(strategy.DefaultLenses(), consensus.DefaultTierConfig(), log),
		guard,
		consensus.NewRegimeFilter(consensus.DefaultRegimeConfig(), log),
		consensus.NewReplacer(guard, cfg.Analysis.ReplacementEnabled, log),
		portfolio.NewWeighter(portfolio.DefaultWeighterConfig(), portfolio.DefaultConstraints(), log),
		repo,
		progress,
		cfg.Analysis.DataMode,
		log,
	), nil
}

// loadConfigAndLogger is the common startup of every command.
func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
