package consumer

import (
	"context"
	"hash/crc32"
	"strconv"
	"time"

	"dex-lens/internal/worker/chain"
	"dex-lens/internal/worker/config"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/monitor"
	"dex-lens/internal/worker/repository"
	"dex-lens/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 同一笔签名在这个窗口内只回捞一次，解码失败会把键删掉放行重试
const transactionDedupTTL = 10 * time.Minute

// 单笔签名最多处理的次数，超过后进死信topic
const maxTransactionAttempts = 3

// producer 重投和死信用的最小写接口，*kafka.Writer 直接满足
type producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TransactionConsumer 消费交易签名：回捞完整交易并喂进解码管道
type TransactionConsumer struct {
	*Consumer
	id         string
	workerSize int
	buffers    []chan model.TransactionJob
	rdb        *redis.Client
	chain      *chain.Client
	pipeline   *decoder.Pipeline
	mq         producer
	topic      string
	dlqTopic   string
}

// NewTransactionConsumer 创建 TransactionConsumer 实例
func NewTransactionConsumer(conf config.Config, logger *zap.Logger, repo repository.Repository, pipeline *decoder.Pipeline) *TransactionConsumer {
	newConsumer := NewConsumer(conf.Kafka, logger, conf.Kafka.TopicTransaction)

	workerSize := conf.Worker.WorkerNum
	buffers := make([]chan model.TransactionJob, workerSize)
	for i := 0; i < workerSize; i++ {
		buffers[i] = make(chan model.TransactionJob, 2000)
	}

	return &TransactionConsumer{
		id:         "transaction_consumer",
		workerSize: workerSize,
		Consumer:   newConsumer,
		buffers:    buffers,
		rdb:        repo.GetRDB(),
		chain:      chain.NewClient(repo.GetSolanaClient(), logger),
		pipeline:   pipeline,
		mq:         repo.GetMQ(),
		topic:      conf.Kafka.TopicTransaction,
		dlqTopic:   conf.Kafka.TopicTransactionDLQ,
	}
}

// Run 启动交易消费者
func (tc *TransactionConsumer) Run(ctx context.Context) {
	for i := 0; i < tc.workerSize; i++ {
		idx := i
		go func() {
			workerID := strconv.Itoa(idx)
			for {
				select {
				case job, ok := <-tc.buffers[idx]:
					if !ok {
						tc.logger.Warn("buffer is closed", zap.String("consumerID", tc.id), zap.Int("idx", idx))
						return
					}
					startTime := time.Now()
					tc.process(ctx, job)

					elapsed := time.Since(startTime).Seconds()
					monitor.KafkaWorkerMessagesProcessed.WithLabelValues(workerID).Inc()
					monitor.KafkaWorkerProcessDuration.WithLabelValues(workerID).Observe(elapsed)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	tc.Consumer.Start(ctx, tc)
}

// HandleMessage 实现 MessageHandler 接口
func (tc *TransactionConsumer) HandleMessage(msg kafka.Message) {
	monitor.KafkaMessagesReceived.WithLabelValues("transaction").Inc()

	var job model.TransactionJob
	if err := sonic.Unmarshal(msg.Value, &job); err != nil {
		tc.logger.Warn("json parse error", zap.String("consumerID", tc.id), zap.Error(err), zap.String("raw", string(msg.Value)))
		return
	}
	if job.Signature == "" {
		return
	}

	tc.dispatch(job)
}

func (tc *TransactionConsumer) ID() string {
	return tc.id
}

// Stop 停止交易消费者
func (tc *TransactionConsumer) Stop() error {
	if err := tc.Consumer.Stop(); err != nil {
		return err
	}
	for i := 0; i < tc.workerSize; i++ {
		close(tc.buffers[i])
	}
	return nil
}

// process 一个签名走完 去重→回捞→解码 全流程
func (tc *TransactionConsumer) process(ctx context.Context, job model.TransactionJob) {
	dedupKey := utils.TransactionJobKey(job.Signature)
	acquired, err := tc.rdb.SetNX(ctx, dedupKey, 1, transactionDedupTTL).Result()
	if err != nil {
		// redis挂了退化成不去重，重复签名靠数据库唯一键兜底
		tc.logger.Warn("transaction dedup unavailable", zap.String("signature", job.Signature), zap.Error(err))
	} else if !acquired {
		return
	}

	tx, err := tc.chain.FetchTransaction(ctx, job.Signature)
	if err != nil {
		monitor.TransactionsFetched.WithLabelValues("error").Inc()
		tc.logger.Warn("fetch transaction failed", zap.String("signature", job.Signature), zap.Error(err))
		tc.retry(ctx, job, dedupKey)
		return
	}
	if tx == nil {
		// 链上回滚的交易，无事可做
		monitor.TransactionsFetched.WithLabelValues("failed").Inc()
		return
	}
	monitor.TransactionsFetched.WithLabelValues("ok").Inc()

	if err := tc.pipeline.Process(ctx, tx); err != nil {
		tc.logger.Error("process transaction failed", zap.String("signature", job.Signature), zap.Error(err))
		tc.retry(ctx, job, dedupKey)
	}
}

// retry 失败的任务先放开去重键，再带上次数重投；次数耗尽转死信topic
func (tc *TransactionConsumer) retry(ctx context.Context, job model.TransactionJob, dedupKey string) {
	tc.release(ctx, dedupKey)

	job.Attempts++
	topic := tc.topic
	if job.Attempts >= maxTransactionAttempts {
		if tc.dlqTopic == "" {
			tc.logger.Error("transaction job exhausted, no dlq topic configured", zap.String("signature", job.Signature))
			return
		}
		topic = tc.dlqTopic
	}

	payload, err := sonic.Marshal(job)
	if err != nil {
		tc.logger.Error("marshal retry job failed", zap.String("signature", job.Signature), zap.Error(err))
		return
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(job.Signature),
		Value: payload,
	}
	if err := tc.mq.WriteMessages(ctx, msg); err != nil {
		tc.logger.Error("requeue transaction job failed",
			zap.String("signature", job.Signature), zap.String("topic", topic), zap.Error(err))
	}
}

func (tc *TransactionConsumer) release(ctx context.Context, dedupKey string) {
	if err := tc.rdb.Del(ctx, dedupKey).Err(); err != nil {
		tc.logger.Warn("release dedup key failed", zap.String("key", dedupKey), zap.Error(err))
	}
}

// dispatch 按签名分组，同一笔交易固定走同一个worker
func (tc *TransactionConsumer) dispatch(job model.TransactionJob) {
	idx := tc.hashBy(job.Signature)

	// buffer接近满载时短暂休眠，给worker让路
	if len(tc.buffers[idx]) > cap(tc.buffers[idx])*8/10 {
		time.Sleep(100 * time.Millisecond)
	}

	select {
	case tc.buffers[idx] <- job:
		monitor.KafkaWorkerMessagesDispatched.WithLabelValues(strconv.Itoa(int(idx))).Inc()
	default:
		tc.logger.Warn("buffers is full", zap.String("consumerID", tc.id), zap.Uint32("idx", idx))
	}
}

func (tc *TransactionConsumer) hashBy(key string) uint32 {
	return crc32.ChecksumIEEE([]byte(key)) % uint32(tc.workerSize)
}
