package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/core/logx"
	"gopkg.in/yaml.v3"

	"dex-cpi-indexer-sol/internal/mq"
	"dex-cpi-indexer-sol/internal/pkg/logger"
)

const (
	defaultGrpcTimeout     = 30 * time.Second
	defaultMaxDecodingSize = 64 * 1024 * 1024
	defaultSwapTopic       = "dex_swaps"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置，Brokers 为空时不启用 KafkaSink
type KafkaProducerConfig struct {
	Brokers       string `yaml:"brokers"`         // Kafka broker 地址，多个用英文逗号分隔
	BatchSize     int    `yaml:"batch_size"`      // 批处理大小（单位字节）
	LingerMs      int    `yaml:"linger_ms"`       // 批处理最大延迟（毫秒）
	Topic         string `yaml:"topic"`           // 兑换事件 topic
	Partitions    int    `yaml:"partitions"`      // topic 分区数
	SendTimeoutMs int    `yaml:"send_timeout_ms"` // 单条消息发送并等待 ack 的超时时间
}

func (c *KafkaProducerConfig) Enabled() bool {
	return strings.TrimSpace(c.Brokers) != ""
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:    c.Brokers,
		BatchSize:  c.BatchSize,
		LingerMs:   c.LingerMs,
		Topic:      c.Topic,
		Partitions: c.Partitions,
	}
}

func (c *KafkaProducerConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMs) * time.Millisecond
}

// ParserConfig 解码器相关配置
type ParserConfig struct {
	Programs            []string `yaml:"programs"`              // 启用的解码器名称，为空表示全部
	Workers             int      `yaml:"workers"`               // 区块内并行解码的协程数，<=0 使用 CPU 数
	FilterAggregatorCPI []string `yaml:"filter_aggregator_cpi"` // 在聚合器 CPI 下返回 Filtered 的解码器
	StatsIntervalSec    int      `yaml:"stats_interval_sec"`    // 统计日志打印间隔（秒），<=0 不打印
	LogSwaps            bool     `yaml:"log_swaps"`             // 是否逐条打印兑换日志
}

// GrpcConfig 是主配置结构体，用于驱动索引器服务
type GrpcConfig struct {
	LogConf           LogConfig           `yaml:"logger"`         // 日志配置
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"` // Kafka 生产者配置
	ParserConf        ParserConfig        `yaml:"parser"`         // 解码配置

	RedisAddr    string `yaml:"redis_addr"`   // Redis 地址，为空时使用进程内检查点
	RpcEndpoint  string `yaml:"rpc_endpoint"` // JSON-RPC 地址，用于漏块检测与回放，可为空
	ProgressConf struct {
		Namespace          string `yaml:"namespace"`            // Redis key 前缀
		RecentThresholdSec int    `yaml:"recent_threshold_sec"` // 判定为“近期 block”的时间阈值（秒）
		SlotTTLSec         int    `yaml:"slot_ttl_sec"`         // slot 状态保留时间（秒）
	} `yaml:"progress"`

	// gRPC 客户端连接相关配置
	Grpc struct {
		Endpoint   string `yaml:"endpoint"`    // gRPC 服务端地址
		XToken     string `yaml:"x_token"`     // x-token 认证
		TimeoutSec int    `yaml:"timeout_sec"` // 连接与单次请求超时（秒）
		FromSlot   uint64 `yaml:"from_slot"`   // 起始 slot，0 表示从检查点续传
		Commitment string `yaml:"commitment"`  // processed / confirmed / finalized

		// 应用级逻辑心跳（ping）配置
		StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

		// gRPC Keepalive 底层连接检测配置
		KeepalivePingIntervalSec int `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
		KeepalivePingTimeoutSec  int `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）

		// gRPC 窗口大小调优（用于大数据流推送）
		InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
		InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

		// 消息体大小限制
		MaxDecodingMessageSize int `yaml:"max_decoding_message_size"` // 单条消息最大接收字节数
		MaxCallSendMsgSize     int `yaml:"max_call_send_msg_size"`    // 单条消息最大发送字节数

		// 超时与重连策略
		ReconnectIntervalSec int `yaml:"reconnect_interval_sec"` // 重连最小间隔（秒）
		RecvTimeoutSec       int `yaml:"recv_timeout_sec"`       // 接收超时（秒）
		MaxLatencyWarnMs     int `yaml:"max_latency_warn_ms"`    // 延迟告警阈值（毫秒）
	} `yaml:"grpc"`
}

func (c *GrpcConfig) Timeout() time.Duration {
	if c.Grpc.TimeoutSec <= 0 {
		return defaultGrpcTimeout
	}
	return time.Duration(c.Grpc.TimeoutSec) * time.Second
}

// Load 读取 YAML 配置，补齐默认值，应用环境变量后校验
func Load(path string) (GrpcConfig, error) {
	var c GrpcConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ApplyEnv(&c); err != nil {
		return c, err
	}
	c.applyDefaults()
	return c, c.Validate()
}

func MustLoad(path string) GrpcConfig {
	c, err := Load(path)
	logx.Must(err)
	return c
}

// ApplyEnv 先加载 .env（不存在则忽略），再用 GRPC_URL / GRPC_AUTH_TOKEN / GRPC_TIMEOUT 覆盖配置
func ApplyEnv(c *GrpcConfig) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if v := strings.TrimSpace(os.Getenv("GRPC_URL")); v != "" {
		c.Grpc.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("GRPC_AUTH_TOKEN")); v != "" {
		c.Grpc.XToken = v
	}
	if v := strings.TrimSpace(os.Getenv("GRPC_TIMEOUT")); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid GRPC_TIMEOUT %q: %w", v, err)
		}
		c.Grpc.TimeoutSec = int(d / time.Second)
	}
	c.Grpc.Endpoint = withScheme(c.Grpc.Endpoint)
	return nil
}

// parseTimeout 接受纯秒数或 time.Duration 格式
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func withScheme(endpoint string) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}

func (c *GrpcConfig) applyDefaults() {
	if c.Grpc.TimeoutSec <= 0 {
		c.Grpc.TimeoutSec = int(defaultGrpcTimeout / time.Second)
	}
	if c.Grpc.MaxDecodingMessageSize == 0 {
		c.Grpc.MaxDecodingMessageSize = defaultMaxDecodingSize
	}
	if c.Grpc.Commitment == "" {
		c.Grpc.Commitment = "confirmed"
	}
	if c.KafkaProducerConf.Topic == "" {
		c.KafkaProducerConf.Topic = defaultSwapTopic
	}
	if c.ProgressConf.RecentThresholdSec <= 0 {
		c.ProgressConf.RecentThresholdSec = 60
	}
	if c.ParserConf.FilterAggregatorCPI == nil {
		c.ParserConf.FilterAggregatorCPI = []string{"PancakeCLMM"}
	}
}

// Validate 拒绝空 endpoint 与负数大小
func (c *GrpcConfig) Validate() error {
	if c.Grpc.Endpoint == "" {
		return errors.New("grpc.endpoint is required (or set GRPC_URL)")
	}
	switch strings.ToLower(c.Grpc.Commitment) {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("grpc.commitment %q is invalid", c.Grpc.Commitment)
	}
	sizes := map[string]int{
		"grpc.max_decoding_message_size": c.Grpc.MaxDecodingMessageSize,
		"grpc.max_call_send_msg_size":    c.Grpc.MaxCallSendMsgSize,
		"grpc.initial_window_size":       c.Grpc.InitialWindowSize,
		"grpc.initial_conn_window_size":  c.Grpc.InitialConnWindowSize,
		"kafka_producer.batch_size":      c.KafkaProducerConf.BatchSize,
		"kafka_producer.partitions":      c.KafkaProducerConf.Partitions,
		"parser.workers":                 c.ParserConf.Workers,
	}
	for name, v := range sizes {
		if v < 0 {
			return fmt.Errorf("%s must not be negative: %d", name, v)
		}
	}
	return nil
}
