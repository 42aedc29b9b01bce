package config

import (
	"fmt"

	"dex-lens/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	PriceAPI PriceAPIConfig `mapstructure:"price_api"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers             string `mapstructure:"brokers"`
	TopicTransaction    string `mapstructure:"topic_transaction"`
	TopicTransactionDLQ string `mapstructure:"topic_transaction_dlq"`
	TopicSyncPair       string `mapstructure:"topic_sync_pair"`
	GroupID             string `mapstructure:"group_id"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// SolanaConfig Solana RPC 配置
type SolanaConfig struct {
	RpcURL string `mapstructure:"rpc_url"`
	WsURL  string `mapstructure:"ws_url"`
}

// PriceAPIConfig 价格接口配置
type PriceAPIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WorkerConfig struct {
	WorkerNum int `mapstructure:"worker_num"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.worker")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	return config
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
