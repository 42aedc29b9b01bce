package worker

import (
	"context"
	"time"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/chain"
	"dex-lens/internal/worker/config"
	"dex-lens/internal/worker/consumer"
	"dex-lens/internal/worker/controller"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder/programs/meteora"
	"dex-lens/internal/worker/decoder/programs/orca"
	"dex-lens/internal/worker/decoder/programs/raydium"
	"dex-lens/internal/worker/decoder/programs/saros"
	"dex-lens/internal/worker/handler"
	"dex-lens/internal/worker/job"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/monitor"
	"dex-lens/internal/worker/pricing"
	"dex-lens/internal/worker/repository"
	"dex-lens/internal/worker/service"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// 对账结果的缓存窗口，热门池子在窗口内不重复打链
const pairCacheTTL = time.Minute

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	consumers []consumer.KafkaConsumer
	logStream *service.LogStream
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	repo := repository.New(cfg, logger)
	daos := dao.NewDAOManager(repo.GetDB())
	fetcher := chain.NewClient(repo.GetSolanaClient(), logger)
	prices := pricing.NewClient(cfg.PriceAPI, repo.GetRDB(), logger)
	store := cache.NewStore(repo.GetRDB(), pairCacheTTL, logger)
	mints := controller.NewMintController(daos, fetcher, logger)

	controllers := []controller.Controller{
		controller.NewSarosController(daos, mints, fetcher, prices, store, logger),
		controller.NewMeteoraController(daos, mints, fetcher, prices, store, logger),
		controller.NewOrcaController(daos, mints, fetcher, prices, store, logger),
		controller.NewRaydiumController(daos, mints, fetcher, prices, store, logger),
	}

	pipeline, err := handler.NewSwapPipeline(controllers, logger)
	if err != nil {
		panic(err)
	}

	// 每5分钟全量巡检一次存量池子
	scheduler := job.NewScheduler(logger)
	syncProducer := job.NewSyncPairProducer(cfg, repo, logger)
	scheduler.RegisterJob("sync_pair_schedule", 5*time.Minute, syncProducer.Run)

	consumers := []consumer.KafkaConsumer{
		consumer.NewTransactionConsumer(cfg, logger, repo, pipeline),
		consumer.NewSyncPairConsumer(cfg, logger, repo, controllers),
	}

	logStream := service.NewLogStream(cfg, repo, logger, map[string]solana.PublicKey{
		model.MarketSaros:   saros.ProgramID,
		model.MarketMeteora: meteora.ProgramID,
		model.MarketOrca:    orca.ProgramID,
		model.MarketRaydium: raydium.ProgramID,
	})

	return &Core{
		cfg:       cfg,
		tl:        logger,
		repo:      repo,
		scheduler: scheduler,
		consumers: consumers,
		logStream: logStream,
		metrics:   monitor.NewMetricsServer(cfg.Monitor),
	}
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting worker core...")
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 先起消费端再开订阅，避免签名没人接
	for _, cons := range c.consumers {
		go cons.Run(ctx)
	}
	c.logStream.Run(ctx)
	c.scheduler.Start(ctx)
	c.tl.Info("Worker started successfully")

	<-ctx.Done()
	c.tl.Info("Shutting down worker due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping worker core...")

	for _, cons := range c.consumers {
		if err := cons.Stop(); err != nil {
			c.tl.Warn("stop consumer failed", zap.String("consumerID", cons.ID()), zap.Error(err))
		}
	}

	if c.scheduler != nil {
		c.scheduler.Stop(ctx)
	}
	if c.logStream != nil {
		c.logStream.Stop()
	}
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	c.repo.Close()

	c.tl.Info("Worker core stopped.")
}
