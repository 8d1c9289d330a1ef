package grpc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/dispatcher"
	"dex-cpi-indexer-sol/internal/logic/progress"
	"dex-cpi-indexer-sol/internal/logic/txadapter"
	"dex-cpi-indexer-sol/internal/pkg/utils"
	"dex-cpi-indexer-sol/internal/svc"
	"dex-cpi-indexer-sol/internal/types"
)

// flusher 区块结果投递完成后统一提交，如 KafkaSink
type flusher interface {
	Flush(ctx context.Context) error
}

const (
	flushRetries      = 3
	flushRetryBackoff = 500 * time.Millisecond
)

// gapReporter 收到的 slot 不连续时上报，如 SlotChecker
type gapReporter interface {
	Submit(from, to uint64)
}

type BlockProcessor struct {
	dispatcher *dispatcher.Dispatcher
	stats      *dispatcher.StatsSink
	progress   *progress.ProgressManager
	flusher    flusher
	gaps       gapReporter
	workers    int

	// unflushed 结果已进入下游缓存但尚未确认提交的 slot，按处理顺序排列；
	// 全部提交成功前检查点不越过其中任何一个
	unflushed    []uint64
	flushBackoff time.Duration

	blockChan chan *pb.SubscribeUpdateBlock // 接收 block 的 channel
	lastSlot  uint64
	ctx       context.Context
	cancel    func(err error)
	logx.Logger
}

// BlockSummary 单个区块的处理结果
type BlockSummary struct {
	Slot      uint64
	TotalTxs  int
	ValidTxs  int
	Malformed int
	Results   int
	Errors    int
	Skipped   bool
}

func NewBlockProcessor(sc *svc.GrpcServiceContext, blockChan chan *pb.SubscribeUpdateBlock, gaps *SlotChecker) *BlockProcessor {
	p := newBlockProcessor(sc.Dispatcher, sc.Stats, sc.ProgressManager, sc.Config.ParserConf.Workers, blockChan)
	if sc.KafkaSink != nil {
		p.flusher = sc.KafkaSink
	}
	if gaps != nil {
		p.gaps = gaps
	}
	return p
}

func newBlockProcessor(
	d *dispatcher.Dispatcher,
	stats *dispatcher.StatsSink,
	pm *progress.ProgressManager,
	workers int,
	blockChan chan *pb.SubscribeUpdateBlock,
) *BlockProcessor {
	if workers <= 0 {
		workers = consts.CpuCount + 2
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BlockProcessor{
		dispatcher:   d,
		stats:        stats,
		progress:     pm,
		workers:      workers,
		flushBackoff: flushRetryBackoff,
		blockChan:    blockChan,
		Logger:       logx.WithContext(ctx).WithFields(logx.Field("service", "block_processor")),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (p *BlockProcessor) Start() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case block := <-p.blockChan:
			if _, err := p.ProcessBlock(p.ctx, block); err != nil {
				p.Errorf("区块处理失败: slot=%d, err=%v", block.GetSlot(), err)
			}
			if len(p.blockChan) > 10 {
				p.Debugf("block chan len:%v", len(p.blockChan))
			}
		}
	}
}

func (p *BlockProcessor) Stop() {
	p.cancel(errors.New("service stop"))
}

// ProcessBlock 并行解码区块内全部交易，再按交易顺序投递结果；投递和提交成功后推进检查点
func (p *BlockProcessor) ProcessBlock(ctx context.Context, block *pb.SubscribeUpdateBlock) (*BlockSummary, error) {
	startTime := time.Now()
	summary := &BlockSummary{Slot: block.Slot, TotalTxs: len(block.Transactions)}
	p.checkGap(block.Slot)

	txCtx := p.buildTxContext(block)
	if p.progress != nil {
		ok, err := p.progress.ShouldProcessSlot(ctx, block.Slot, txCtx.BlockTime)
		if err != nil {
			// 状态未知时按未处理对待，宁可重复投递
			p.Errorf("查询 slot 状态失败，继续处理: slot=%d, err=%v", block.Slot, err)
			ok = true
		}
		if !ok {
			p.Infof("slot 已处理，跳过: slot=%d", block.Slot)
			summary.Skipped = true
			return summary, nil
		}
	}

	// 1. 过滤合法交易，按区块内顺序排列
	validTxs := make([]*pb.SubscribeUpdateTransactionInfo, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		if txadapter.IsValidGrpcTx(tx) {
			validTxs = append(validTxs, tx)
		}
	}
	sort.SliceStable(validTxs, func(i, j int) bool { return validTxs[i].Index < validTxs[j].Index })
	summary.ValidTxs = len(validTxs)

	// 2. 并发解码
	parseStart := time.Now()
	reports, err := utils.ParallelMapCtx(ctx, validTxs, p.workers,
		func(ctx context.Context, tx *pb.SubscribeUpdateTransactionInfo) (*dispatcher.Report, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return p.decodeTx(ctx, txCtx, tx), nil
		})
	if err != nil {
		return summary, err
	}
	parseCost := time.Since(parseStart)

	// 3. 顺序投递
	for _, report := range reports {
		p.dispatcher.Deliver(ctx, report)
		if p.stats != nil {
			p.stats.Observe(report)
		}
		if report.Malformed {
			summary.Malformed++
		}
		summary.Results += len(report.Results)
		summary.Errors += report.ErrorCount()
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	// 4. 提交下游并推进检查点
	p.unflushed = append(p.unflushed, block.Slot)
	if err := p.flushWithRetry(ctx); err != nil {
		return summary, fmt.Errorf("flush slot %d (unflushed=%d): %w", block.Slot, len(p.unflushed), err)
	}
	if err := p.markFlushed(ctx); err != nil {
		return summary, fmt.Errorf("save checkpoint %d: %w", block.Slot, err)
	}

	p.Infof("区块处理完成: slot=%d, txs=%d/%d, results=%d, errors=%d, malformed=%d, parse=%v, total=%v",
		block.Slot, summary.ValidTxs, summary.TotalTxs, summary.Results, summary.Errors, summary.Malformed,
		parseCost, time.Since(startTime))
	return summary, nil
}

// flushWithRetry 提交失败时按间隔重试，失败的消息保留在下游缓存中
func (p *BlockProcessor) flushWithRetry(ctx context.Context) error {
	if p.flusher == nil {
		return nil
	}
	var err error
	for attempt := 1; attempt <= flushRetries; attempt++ {
		if err = p.flusher.Flush(ctx); err == nil {
			return nil
		}
		p.Errorf("提交失败: attempt=%d/%d, slots=%v, err=%v", attempt, flushRetries, p.unflushed, err)
		if attempt == flushRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.flushBackoff):
		}
	}
	return err
}

// markFlushed 提交成功后按顺序标记全部待确认 slot；标记失败的 slot 留待下次
func (p *BlockProcessor) markFlushed(ctx context.Context) error {
	if p.progress == nil {
		p.unflushed = p.unflushed[:0]
		return nil
	}
	for i, slot := range p.unflushed {
		if err := p.progress.MarkSlotStatus(ctx, slot, progress.SourceGrpc, progress.SlotProcessed); err != nil {
			p.unflushed = append(p.unflushed[:0], p.unflushed[i:]...)
			return err
		}
	}
	p.unflushed = p.unflushed[:0]
	return nil
}

func (p *BlockProcessor) decodeTx(ctx context.Context, txCtx *core.TxContext, tx *pb.SubscribeUpdateTransactionInfo) *dispatcher.Report {
	rec, err := txadapter.AdaptGrpcTx(txCtx, tx)
	if err != nil {
		p.Errorf("交易转换失败: slot=%d, index=%d, err=%v", txCtx.Slot, tx.Index, err)
	}
	// rec 为 nil 时返回 Malformed 报告
	return p.dispatcher.DecodeRecord(ctx, rec)
}

// checkGap 与上一个区块不连续时提交漏块检测
func (p *BlockProcessor) checkGap(slot uint64) {
	last := p.lastSlot
	if slot > last {
		p.lastSlot = slot
	}
	if last == 0 || slot <= last+1 || p.gaps == nil {
		return
	}
	p.Infof("slot 不连续: last=%d, current=%d", last, slot)
	p.gaps.Submit(last+1, slot-1)
}

func (p *BlockProcessor) buildTxContext(block *pb.SubscribeUpdateBlock) *core.TxContext {
	// 尝试解析 blockHash，如果失败只打日志但继续执行
	blockHash, err := types.HashFromBase58(block.Blockhash)
	if err != nil {
		p.Errorf("[严重] BlockHash 无法解析，将使用零值：slot=%d, blockhash=%s, err=%v",
			block.Slot, block.Blockhash, err)
	}

	var blockTime int64
	if block.BlockTime != nil {
		blockTime = block.BlockTime.Timestamp
	}
	return &core.TxContext{
		Slot:       block.Slot,
		ParentSlot: block.ParentSlot,
		BlockTime:  blockTime,
		BlockHash:  blockHash,
	}
}
