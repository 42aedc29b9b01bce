package consumer

import (
	"context"
	"testing"
	"time"

	"dex-lens/internal/worker/chain"
	"dex-lens/internal/worker/model"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducer struct {
	messages []kafka.Message
	err      error
}

func (p *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msgs...)
	return nil
}

// RPC和redis都指向打不开的端口，回捞必然失败，覆盖重投路径
func newRetryConsumer(t *testing.T, mq producer) *TransactionConsumer {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	return &TransactionConsumer{
		Consumer: &Consumer{logger: zap.NewNop()},
		id:       "transaction_consumer",
		rdb:      rdb,
		chain:    chain.NewClient(rpc.New("http://127.0.0.1:1"), zap.NewNop()),
		mq:       mq,
		topic:    "dex_transactions",
		dlqTopic: "dex_transactions_dlq",
	}
}

func TestTransactionFetchFailureRequeuesWithAttempt(t *testing.T) {
	mq := &fakeProducer{}
	tc := newRetryConsumer(t, mq)

	sig := solana.Signature{}.String()
	tc.process(context.Background(), model.TransactionJob{Signature: sig})

	require.Len(t, mq.messages, 1)
	msg := mq.messages[0]
	assert.Equal(t, "dex_transactions", msg.Topic)
	assert.Equal(t, sig, string(msg.Key))

	var requeued model.TransactionJob
	require.NoError(t, sonic.Unmarshal(msg.Value, &requeued))
	assert.Equal(t, sig, requeued.Signature)
	assert.Equal(t, 1, requeued.Attempts)
}

func TestTransactionExhaustedAttemptsGoToDeadLetter(t *testing.T) {
	mq := &fakeProducer{}
	tc := newRetryConsumer(t, mq)

	sig := solana.Signature{}.String()
	tc.process(context.Background(), model.TransactionJob{Signature: sig, Attempts: maxTransactionAttempts - 1})

	require.Len(t, mq.messages, 1)
	msg := mq.messages[0]
	assert.Equal(t, "dex_transactions_dlq", msg.Topic)

	var dead model.TransactionJob
	require.NoError(t, sonic.Unmarshal(msg.Value, &dead))
	assert.Equal(t, maxTransactionAttempts, dead.Attempts)
}

func TestTransactionExhaustedWithoutDLQDropsJob(t *testing.T) {
	mq := &fakeProducer{}
	tc := newRetryConsumer(t, mq)
	tc.dlqTopic = ""

	sig := solana.Signature{}.String()
	tc.process(context.Background(), model.TransactionJob{Signature: sig, Attempts: maxTransactionAttempts - 1})

	assert.Empty(t, mq.messages)
}

func TestTransactionHandleMessageSkipsBadPayload(t *testing.T) {
	mq := &fakeProducer{}
	tc := newRetryConsumer(t, mq)
	tc.workerSize = 1
	tc.buffers = []chan model.TransactionJob{make(chan model.TransactionJob, 1)}

	tc.HandleMessage(kafka.Message{Value: []byte("not json")})
	tc.HandleMessage(kafka.Message{Value: []byte(`{"signature":""}`)})
	assert.Empty(t, tc.buffers[0])

	tc.HandleMessage(kafka.Message{Value: []byte(`{"signature":"abc"}`)})
	require.Len(t, tc.buffers[0], 1)
	assert.Equal(t, "abc", (<-tc.buffers[0]).Signature)
}
