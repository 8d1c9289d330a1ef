package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer *kafka.Producer 满足该接口
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// KafkaJob 一条待发送的消息
type KafkaJob struct {
	Topic     string
	Partition int32
	Key       []byte
	Value     []byte
	Headers   []kafka.Header
}

// KafkaSendResult 单条消息的发送结果
type KafkaSendResult struct {
	Job *KafkaJob
	Err error
}

// ErrNotProduced 前序消息 Produce 失败后，后续消息不再提交
var ErrNotProduced = errors.New("not produced: previous message failed")

// SendKafkaJobs 按 jobs 顺序逐条 Produce，再并发等待 ack，ctx 控制整体取消。
// 同一分区内的提交顺序与 jobs 一致；某条 Produce 失败后其余消息标记为 ErrNotProduced。
// ok 与 failed 均保持 jobs 中的相对顺序。
func SendKafkaJobs(
	ctx context.Context,
	producer Producer,
	jobs []*KafkaJob,
	perMessageTimeout time.Duration,
) (ok []*KafkaJob, failed []KafkaSendResult) {
	errs := make([]error, len(jobs))
	chans := make([]chan kafka.Event, len(jobs))

	// 1. 顺序提交
	produced := 0
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs[i] = fmt.Errorf("ctx cancelled: %w", err)
			break
		}
		ch, err := produceOne(producer, job)
		if err != nil {
			errs[i] = err
			break
		}
		chans[i] = ch
		produced = i + 1
	}
	for i := produced; i < len(jobs); i++ {
		if errs[i] == nil {
			errs[i] = ErrNotProduced
		}
	}

	// 2. 并发等待 ack
	var wg sync.WaitGroup
	for i := 0; i < produced; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = waitDelivery(ctx, chans[i], perMessageTimeout)
		}(i)
	}
	wg.Wait()

	for i, job := range jobs {
		if errs[i] != nil {
			failed = append(failed, KafkaSendResult{Job: job, Err: errs[i]})
		} else {
			ok = append(ok, job)
		}
	}
	return ok, failed
}

func produceOne(producer Producer, job *KafkaJob) (chan kafka.Event, error) {
	deliveryChan := make(chan kafka.Event, 1)
	err := producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &job.Topic, Partition: job.Partition},
		Key:            job.Key,
		Value:          job.Value,
		Headers:        job.Headers,
	}, deliveryChan)
	if err != nil {
		return nil, fmt.Errorf("produce error: %w", err)
	}
	return deliveryChan, nil
}

func waitDelivery(ctx context.Context, deliveryChan chan kafka.Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case e, ok := <-deliveryChan:
		if !ok {
			return errors.New("delivery channel closed unexpectedly")
		}
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("invalid message type: %T", e)
		}
		return msg.TopicPartition.Error
	case <-timer.C:
		go safeDrain(deliveryChan)
		return fmt.Errorf("delivery timeout (>%v)", timeout)
	case <-ctx.Done():
		go safeDrain(deliveryChan)
		return fmt.Errorf("ctx cancelled: %w", ctx.Err())
	}
}

// safeDrain 确保 deliveryChan 被读走，避免 Kafka 回调阻塞
func safeDrain(ch <-chan kafka.Event) {
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
	}
}
