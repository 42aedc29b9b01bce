// Package service 订阅链上日志，把命中四个DEX程序的交易签名投进kafka
package service

import (
	"context"
	"sync"
	"time"

	"dex-lens/internal/worker/config"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/monitor"
	"dex-lens/internal/worker/repository"
	"dex-lens/pkg/solana_client"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// LogStream 每个程序一条websocket日志订阅，断线自动重连。
// 这里只做签名搬运，回捞和解码都在交易消费者里
type LogStream struct {
	cfg      config.Config
	logger   *zap.Logger
	mq       repository.MQClient
	programs map[string]solana.PublicKey
	wg       sync.WaitGroup
}

func NewLogStream(cfg config.Config, repo repository.Repository, logger *zap.Logger, programs map[string]solana.PublicKey) *LogStream {
	return &LogStream{
		cfg:      cfg,
		logger:   logger,
		mq:       repo.GetMQ(),
		programs: programs,
	}
}

// Run 为每个程序起一条订阅协程，ctx取消后返回
func (s *LogStream) Run(ctx context.Context) {
	for market, program := range s.programs {
		s.wg.Add(1)
		go func(market string, program solana.PublicKey) {
			defer s.wg.Done()
			s.watch(ctx, market, program)
		}(market, program)
	}
}

// Stop 等所有订阅协程退出
func (s *LogStream) Stop() {
	s.wg.Wait()
}

// watch 订阅单个程序的日志，断开后指数退避重连
func (s *LogStream) watch(ctx context.Context, market string, program solana.PublicKey) {
	delay := reconnectBaseDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := s.subscribe(ctx, market, program)
		if ctx.Err() != nil {
			return
		}
		monitor.LogStreamReconnects.Inc()
		s.logger.Warn("log subscription dropped, reconnecting",
			zap.String("market", market),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		if delay *= 2; delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// subscribe 一条连接的生命周期，正常情况下不返回
func (s *LogStream) subscribe(ctx context.Context, market string, program solana.PublicKey) error {
	client, err := solana_client.InitWS(ctx, s.cfg.Solana.WsURL)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.LogsSubscribeMentions(program, rpc.CommitmentConfirmed)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	s.logger.Info("log subscription established", zap.String("market", market), zap.String("program", program.String()))

	for {
		result, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		s.handle(ctx, market, result)
	}
}

func (s *LogStream) handle(ctx context.Context, market string, result *ws.LogResult) {
	if result == nil {
		return
	}
	monitor.LogStreamSignaturesReceived.WithLabelValues(market).Inc()

	// 失败交易不产事件，提前过滤省一次回捞
	if result.Value.Err != nil {
		return
	}

	job := model.TransactionJob{Signature: result.Value.Signature.String()}
	value, err := sonic.Marshal(job)
	if err != nil {
		s.logger.Error("marshal transaction job", zap.Error(err))
		return
	}

	message := kafka.Message{
		Topic: s.cfg.Kafka.TopicTransaction,
		Key:   []byte(job.Signature),
		Value: value,
	}
	if err := s.mq.WriteMessages(ctx, message); err != nil {
		s.logger.Warn("write transaction job failed", zap.String("signature", job.Signature), zap.Error(err))
	}
}
