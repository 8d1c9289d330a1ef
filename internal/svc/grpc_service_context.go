package svc

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"dex-cpi-indexer-sol/internal/config"
	"dex-cpi-indexer-sol/internal/logic/dispatcher"
	"dex-cpi-indexer-sol/internal/logic/eventparser"
	"dex-cpi-indexer-sol/internal/logic/progress"
	"dex-cpi-indexer-sol/internal/mq"
	"dex-cpi-indexer-sol/internal/pkg/logger"
)

// GrpcServiceContext 包含GRPC服务资源
type GrpcServiceContext struct {
	Config          config.GrpcConfig
	Registry        *eventparser.Registry
	Dispatcher      *dispatcher.Dispatcher
	Stats           *dispatcher.StatsSink
	Producer        *kafka.Producer // Kafka 未配置时为 nil
	KafkaSink       *mq.KafkaSink   // Kafka 未配置时为 nil
	Redis           *redis.Client   // 未配置 redis_addr 时为 nil
	ProgressManager *progress.ProgressManager
}

// NewGrpcServiceContext 创建一个新的 GRPC 服务上下文
func NewGrpcServiceContext(c config.GrpcConfig) (*GrpcServiceContext, error) {
	// 1. 解码器注册表
	registry, err := eventparser.Default(eventparser.Options{
		Programs:            c.ParserConf.Programs,
		FilterAggregatorCPI: c.ParserConf.FilterAggregatorCPI,
	})
	if err != nil {
		logger.Errorf("[Svc:NewGrpcServiceContext] 解码器注册失败: %v", err)
		return nil, err
	}

	ctx := &GrpcServiceContext{
		Config:   c,
		Registry: registry,
		Stats:    dispatcher.NewStatsSink(),
	}

	// 2. 初始化 Kafka 生产者
	sinks := []dispatcher.Sink{ctx.Stats}
	if c.ParserConf.LogSwaps {
		sinks = append(sinks, dispatcher.LogSink{})
	}
	if c.KafkaProducerConf.Enabled() {
		producer, err := mq.NewKafkaProducer(c.KafkaProducerConf.ToKafkaOption())
		if err != nil {
			logger.Errorf("[Svc:NewGrpcServiceContext] Kafka producer 初始化失败: %v", err)
			return nil, err
		}
		ctx.Producer = producer
		ctx.KafkaSink = mq.NewKafkaSink(producer, c.KafkaProducerConf.Topic,
			c.KafkaProducerConf.Partitions, c.KafkaProducerConf.SendTimeout())
		sinks = append(sinks, ctx.KafkaSink)
	} else {
		logger.Warnf("[Svc:NewGrpcServiceContext] 未配置 kafka_producer.brokers，兑换结果不会写入 Kafka")
	}
	ctx.Dispatcher = dispatcher.New(registry, sinks...)

	// 3. 进度存储：Redis 优先，未配置时使用进程内存储
	var store progress.Store
	if c.RedisAddr != "" {
		ctx.Redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ctx.Redis.Ping(pingCtx).Err(); err != nil {
			logger.Errorf("[Svc:NewGrpcServiceContext] Redis 连接失败: addr=%s, err=%v", c.RedisAddr, err)
			ctx.Close()
			return nil, err
		}
		ttl := time.Duration(c.ProgressConf.SlotTTLSec) * time.Second
		store = progress.NewRedisProgressStore(ctx.Redis, c.ProgressConf.Namespace, ttl)
	} else {
		logger.Warnf("[Svc:NewGrpcServiceContext] 未配置 redis_addr，检查点仅保存在内存中")
		store = progress.NewMemoryProgressStore()
	}
	ctx.ProgressManager = progress.NewProgressManager(store, c.ProgressConf.RecentThresholdSec)

	logger.Infof("[Svc:NewGrpcServiceContext] GRPC 服务上下文初始化完成: decoders=%d, kafka=%v, redis=%v",
		registry.Len(), ctx.KafkaSink != nil, ctx.Redis != nil)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *GrpcServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
