package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/dispatcher"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/pkg/utils"
)

const (
	HeaderSession = "session"
	HeaderDecoder = "decoder"

	defaultSendTimeout = 3 * time.Second
)

// KafkaSink 把每条兑换腿编码为一条 Kafka 消息。
// Handle 只缓存，Flush 统一发送；同一笔交易的消息按签名落到同一分区，保持先序顺序。
type KafkaSink struct {
	producer    Producer
	topic       string
	partitions  int
	sendTimeout time.Duration
	session     string

	mu   sync.Mutex
	jobs []*KafkaJob
}

func NewKafkaSink(producer Producer, topic string, partitions int, sendTimeout time.Duration) *KafkaSink {
	if partitions <= 0 {
		partitions = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &KafkaSink{
		producer:    producer,
		topic:       topic,
		partitions:  partitions,
		sendTimeout: sendTimeout,
		session:     uuid.NewString(),
	}
}

func (s *KafkaSink) Handle(_ context.Context, tx *core.Transaction, res *dispatcher.Result) error {
	legs := res.Swaps()
	if len(legs) == 0 {
		return nil
	}

	partition := int32(utils.PartitionHashBytes(tx.Signature[:], uint32(s.partitions)))
	jobs := make([]*KafkaJob, 0, len(legs))
	for _, leg := range legs {
		value, err := EncodeSwap(NewSwapMessage(tx, res, leg))
		if err != nil {
			return fmt.Errorf("encode swap %s.%s: %w", res.Decoder, res.Parsed.Variant(), err)
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     s.topic,
			Partition: partition,
			Key:       []byte(tx.Signature.String()),
			Value:     value,
			Headers: []kafka.Header{
				{Key: HeaderSession, Value: []byte(s.session)},
				{Key: HeaderDecoder, Value: []byte(res.Decoder)},
			},
		})
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, jobs...)
	s.mu.Unlock()
	return nil
}

// Pending 已缓存未发送的消息数
func (s *KafkaSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Flush 按缓存顺序发送全部消息，任一失败即返回错误。
// 失败的消息按原顺序放回缓存头部，由下一次 Flush 重发；已确认的不再重发。
func (s *KafkaSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.mu.Unlock()

	if len(jobs) == 0 {
		return nil
	}

	start := time.Now()
	_, failed := SendKafkaJobs(ctx, s.producer, jobs, s.sendTimeout)
	if len(failed) > 0 {
		retry := make([]*KafkaJob, 0, len(failed))
		for _, f := range failed {
			retry = append(retry, f.Job)
		}
		s.mu.Lock()
		s.jobs = append(retry, s.jobs...)
		s.mu.Unlock()

		logger.Errorf("[KafkaSink:Flush] 消息发送失败，已放回缓存: topic=%s, failed=%d/%d, first=%v",
			s.topic, len(failed), len(jobs), failed[0].Err)
		return fmt.Errorf("kafka send failed: %d/%d, first: %w", len(failed), len(jobs), failed[0].Err)
	}
	logger.Debugf("[KafkaSink:Flush] 发送完成: topic=%s, count=%d, cost=%v", s.topic, len(jobs), time.Since(start))
	return nil
}
