package dispatcher

import (
	"context"
	"sort"
	"sync"
	"time"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/pkg/logger"
)

// LogSink 把每条结果写成一行结构化日志
type LogSink struct{}

func (LogSink) Handle(_ context.Context, tx *core.Transaction, res *Result) error {
	legs := res.Swaps()
	if len(legs) == 0 {
		logger.Infof("[LogSink] %s.%s: slot=%d, tx=%s, path=%v, event=none",
			res.Decoder, res.Parsed.Variant(), tx.Slot(), tx.Signature, res.Path)
		return nil
	}
	for _, leg := range legs {
		logger.Infof("[LogSink] %s.%s: slot=%d, tx=%s, path=%v, origin=%d, source=%d, destination=%d",
			res.Decoder, res.Parsed.Variant(), tx.Slot(), tx.Signature, res.Path, leg.Origin, leg.SourceAmount, leg.DestinationAmount)
	}
	return nil
}

// DecoderStats 单个解码器的累计统计
type DecoderStats struct {
	Counts
	Legs int
}

// StatsSink 累计每个解码器的分类计数与兑换腿数量，供定期打印
type StatsSink struct {
	mu        sync.Mutex
	decoders  map[string]*DecoderStats
	txs       int
	malformed int
}

func NewStatsSink() *StatsSink {
	return &StatsSink{decoders: make(map[string]*DecoderStats)}
}

func (s *StatsSink) entry(name string) *DecoderStats {
	e := s.decoders[name]
	if e == nil {
		e = &DecoderStats{}
		s.decoders[name] = e
	}
	return e
}

func (s *StatsSink) Handle(_ context.Context, _ *core.Transaction, res *Result) error {
	s.mu.Lock()
	s.entry(res.Decoder).Legs += len(res.Swaps())
	s.mu.Unlock()
	return nil
}

// Observe 合并一笔交易的分类计数
func (s *StatsSink) Observe(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs++
	if r.Malformed {
		s.malformed++
	}
	for name, c := range r.ByDecoder {
		s.entry(name).merge(*c)
	}
}

// Snapshot 返回当前统计的副本
func (s *StatsSink) Snapshot() (txs, malformed int, decoders map[string]DecoderStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decoders = make(map[string]DecoderStats, len(s.decoders))
	for k, v := range s.decoders {
		decoders[k] = *v
	}
	return s.txs, s.malformed, decoders
}

func (s *StatsSink) Log() {
	txs, malformed, decoders := s.Snapshot()
	names := make([]string, 0, len(decoders))
	for n := range decoders {
		names = append(names, n)
	}
	sort.Strings(names)

	logger.Infof("[StatsSink] 累计交易: txs=%d, malformed=%d", txs, malformed)
	for _, n := range names {
		d := decoders[n]
		logger.Infof("[StatsSink] %s: success=%d, filtered=%d, not_mine=%d, errors=%d, legs=%d",
			n, d.Success, d.Filtered, d.NotMine, d.Errors, d.Legs)
	}
}

// Run 每隔 interval 打印一次统计，ctx 结束时退出
func (s *StatsSink) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Log()
		}
	}
}
