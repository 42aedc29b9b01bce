package consumer

import (
	"context"
	"time"

	"dex-lens/internal/worker/config"
	"dex-lens/internal/worker/controller"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/monitor"
	"dex-lens/internal/worker/repository"
	"dex-lens/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 比巡检周期略短，保证下一轮同一页还能被认领
const syncPairDedupTTL = 4 * time.Minute

// SyncPairConsumer 消费巡检分页：按页重读池子，刷新费率、储备和流动性。
// 每页一条消息，多实例部署时靠redis认领避免重复对账
type SyncPairConsumer struct {
	*Consumer
	id          string
	rdb         *redis.Client
	pairs       dao.PairsDAO
	controllers map[string]controller.Controller
}

// NewSyncPairConsumer 创建 SyncPairConsumer 实例
func NewSyncPairConsumer(conf config.Config, logger *zap.Logger, repo repository.Repository, controllers []controller.Controller) *SyncPairConsumer {
	byMarket := make(map[string]controller.Controller, len(controllers))
	for _, c := range controllers {
		byMarket[c.Market()] = c
	}

	return &SyncPairConsumer{
		id:          "sync_pair_consumer",
		Consumer:    NewConsumer(conf.Kafka, logger, conf.Kafka.TopicSyncPair),
		rdb:         repo.GetRDB(),
		pairs:       dao.NewDAOManager(repo.GetDB()).PairsDAO,
		controllers: byMarket,
	}
}

// Run 启动巡检消费者
func (sc *SyncPairConsumer) Run(ctx context.Context) {
	sc.Consumer.Start(ctx, sc)
}

// HandleMessage 实现 MessageHandler 接口。巡检是低频任务，直接在
// 消费循环里处理，不走worker池
func (sc *SyncPairConsumer) HandleMessage(msg kafka.Message) {
	monitor.KafkaMessagesReceived.WithLabelValues("sync_pair").Inc()

	var job model.SyncPairJob
	if err := sonic.Unmarshal(msg.Value, &job); err != nil {
		sc.logger.Warn("json parse error", zap.String("consumerID", sc.id), zap.Error(err), zap.String("raw", string(msg.Value)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sc.process(ctx, job)
}

func (sc *SyncPairConsumer) ID() string {
	return sc.id
}

// Stop 停止巡检消费者
func (sc *SyncPairConsumer) Stop() error {
	return sc.Consumer.Stop()
}

func (sc *SyncPairConsumer) process(ctx context.Context, job model.SyncPairJob) {
	c, ok := sc.controllers[job.Market]
	if !ok {
		sc.logger.Warn("unknown market in sync job", zap.String("market", job.Market))
		return
	}

	dedupKey := utils.SyncPairJobKey(job.Market, job.Offset)
	acquired, err := sc.rdb.SetNX(ctx, dedupKey, 1, syncPairDedupTTL).Result()
	if err != nil {
		sc.logger.Warn("sync pair dedup unavailable", zap.String("market", job.Market), zap.Error(err))
	} else if !acquired {
		return
	}

	pairs, err := sc.pairs.GetByMarket(ctx, job.Market, job.Limit, job.Offset)
	if err != nil {
		sc.logger.Error("load pair page failed", zap.String("market", job.Market), zap.Int("offset", job.Offset), zap.Error(err))
		return
	}
	if len(pairs) == 0 {
		return
	}

	ids := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		ids = append(ids, pair.ID)
	}
	if _, err := c.ReconcilePairs(ctx, ids); err != nil {
		sc.logger.Error("reconcile pair page failed", zap.String("market", job.Market), zap.Int("offset", job.Offset), zap.Error(err))
	}
}
