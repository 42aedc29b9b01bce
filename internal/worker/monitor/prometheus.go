package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// KafkaMessagesReceived Kafka 消费相关
	KafkaMessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_received_total",
			Help: "Total number of messages received from Kafka.",
		},
		[]string{"topic"},
	)
	KafkaWorkerMessagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_consumer_worker_dispatch_count_total",
			Help: "Number of jobs assigned to each transaction worker.",
		},
		[]string{"worker_id"},
	)
	KafkaWorkerMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_worker_messages_processed_total",
			Help: "Total number of jobs processed by each consumer worker.",
		},
		[]string{"worker_id"},
	)
	KafkaWorkerProcessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_worker_process_duration_seconds",
			Help:    "Time taken to process a job by each consumer worker.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"worker_id"},
	)

	// TransactionsFetched 链上交易回捞
	TransactionsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_fetched_total",
			Help: "Total number of transactions fetched from RPC, by outcome.",
		},
		[]string{"status"},
	)
	SwapEventsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_events_decoded_total",
			Help: "Total number of swap events decoded, by market.",
		},
		[]string{"market"},
	)

	// LogStreamSignaturesReceived 日志订阅
	LogStreamSignaturesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logstream_signatures_received_total",
			Help: "Total number of signatures received from the log subscription.",
		},
		[]string{"market"},
	)
	LogStreamReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logstream_reconnects_total",
			Help: "Total number of websocket reconnects.",
		},
	)

	// SyncPairPagesScheduled 池子巡检
	SyncPairPagesScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pair_pages_scheduled_total",
			Help: "Total number of pair reconcile pages scheduled, by market.",
		},
		[]string{"market"},
	)
)

func init() {
	prometheus.MustRegister(
		// kafka指标
		KafkaMessagesReceived,
		KafkaWorkerMessagesDispatched,
		KafkaWorkerMessagesProcessed,
		KafkaWorkerProcessDuration,

		// 链上与管道指标
		TransactionsFetched,
		SwapEventsDecoded,
		LogStreamSignaturesReceived,
		LogStreamReconnects,
		SyncPairPagesScheduled,
	)
}
