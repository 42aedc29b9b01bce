package job

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/config"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/monitor"
	"dex-lens/internal/worker/repository"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 每页池子数。页内一次批量RPC拉不完会在chain层自动分批
const syncPairPageSize = 101

// SyncPairProducer 周期巡检：把每个市场的存量池子按页切好，
// 作为分页任务投进kafka，由巡检消费者逐页对账
type SyncPairProducer struct {
	cfg    config.Config
	logger *zap.Logger
	mq     repository.MQClient
	pairs  dao.PairsDAO
}

func NewSyncPairProducer(cfg config.Config, repo repository.Repository, logger *zap.Logger) *SyncPairProducer {
	return &SyncPairProducer{
		cfg:    cfg,
		logger: logger,
		mq:     repo.GetMQ(),
		pairs:  dao.NewDAOManager(repo.GetDB()).PairsDAO,
	}
}

// Run 实现 JobFunc
func (p *SyncPairProducer) Run(ctx context.Context) error {
	var messages []kafka.Message
	for _, market := range model.Markets {
		total, err := p.pairs.CountByMarket(ctx, market)
		if err != nil {
			return fmt.Errorf("count pairs for %s: %w", market, err)
		}

		pages := 0
		for offset := 0; offset < int(total); offset += syncPairPageSize {
			job := model.SyncPairJob{Market: market, Limit: syncPairPageSize, Offset: offset}
			value, err := sonic.Marshal(job)
			if err != nil {
				return fmt.Errorf("marshal sync job: %w", err)
			}
			messages = append(messages, kafka.Message{
				Topic: p.cfg.Kafka.TopicSyncPair,
				Key:   []byte(market),
				Value: value,
			})
			pages++
		}

		monitor.SyncPairPagesScheduled.WithLabelValues(market).Add(float64(pages))
		p.logger.Debug("scheduled pair sync pages",
			zap.String("market", market),
			zap.Int64("pairs", total),
			zap.Int("pages", pages))
	}

	if len(messages) == 0 {
		return nil
	}
	if err := p.mq.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("write sync jobs: %w", err)
	}
	return nil
}
