package dispatcher

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/hashicorp/go-multierror"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/logic/txadapter"
	"dex-cpi-indexer-sol/internal/pkg/logger"
)

// Sink 结果消费者。Deliver 按交易内先序遍历顺序逐条调用 Handle。
type Sink interface {
	Handle(ctx context.Context, tx *core.Transaction, res *Result) error
}

// Dispatcher 把交易树的每个节点交给已注册的解码器，并把成功结果投递给 sinks。
// 自身不持有跨交易的可变状态，可被多个 goroutine 同时使用。
type Dispatcher struct {
	registry *eventparser.Registry
	sinks    []Sink
}

func New(registry *eventparser.Registry, sinks ...Sink) *Dispatcher {
	return &Dispatcher{registry: registry, sinks: sinks}
}

// Dispatch Decode + Deliver
func (d *Dispatcher) Dispatch(ctx context.Context, tx *core.Transaction) *Report {
	report := d.Decode(ctx, tx)
	d.Deliver(ctx, report)
	return report
}

// DispatchRecord 先构建指令树；树无法构建时返回 Malformed 报告，不调用任何解码器
func (d *Dispatcher) DispatchRecord(ctx context.Context, rec *core.TxRecord) *Report {
	report := d.DecodeRecord(ctx, rec)
	d.Deliver(ctx, report)
	return report
}

// DecodeRecord 构建指令树并解码，不投递
func (d *Dispatcher) DecodeRecord(ctx context.Context, rec *core.TxRecord) *Report {
	tx, err := txadapter.BuildInstructionTree(rec)
	if err != nil {
		report := newReport(nil)
		if rec != nil {
			report.Signature = rec.Signature
			report.Slot = rec.Slot()
		}
		report.Malformed = true
		report.Errors = multierror.Append(report.Errors, err)
		logger.Warnf("[Dispatcher:DecodeRecord] 交易树构建失败，跳过: tx=%s, err=%v", report.Signature, err)
		return report
	}
	return d.Decode(ctx, tx)
}

// Decode 先序遍历整棵树并分类每个节点的解码结果，不产生任何副作用。
// ctx 取消后停止遍历，已得到的结果是完整先序序列的前缀。
func (d *Dispatcher) Decode(ctx context.Context, tx *core.Transaction) *Report {
	report := newReport(tx)
	tx.Walk(func(path []int, node *core.InstructionNode) bool {
		if ctx.Err() != nil {
			report.Canceled = true
			return false
		}
		report.Visited++

		dec, ok := d.registry.Lookup(node.Program)
		if !ok {
			return true
		}
		parsed, err := safeParse(ctx, dec, node)
		outcome := core.Classify(err)
		report.record(dec.Name(), outcome)

		switch outcome {
		case core.OutcomeSuccess:
			report.Results = append(report.Results, Result{
				Path:    append([]int(nil), path...),
				Node:    node,
				Decoder: dec.Name(),
				Program: dec.Identity(),
				Parsed:  parsed,
			})
		case core.OutcomeFiltered, core.OutcomeNotMine:
		default:
			report.Errors = multierror.Append(report.Errors, fmt.Errorf("tx=%s path=%v: %w", tx.Signature, path, err))
		}
		return true
	})
	return report
}

// Deliver 按顺序把成功结果交给每个 sink。sink 出错只记录，不中断后续结果。
func (d *Dispatcher) Deliver(ctx context.Context, report *Report) {
	if report == nil || report.Tx == nil {
		return
	}
	for i := range report.Results {
		if ctx.Err() != nil {
			return
		}
		res := &report.Results[i]
		for _, sink := range d.sinks {
			if err := sink.Handle(ctx, report.Tx, res); err != nil {
				report.SinkErrors++
				report.Errors = multierror.Append(report.Errors, fmt.Errorf("sink %T: %w", sink, err))
				logger.Errorf("[Dispatcher:Deliver] sink 处理失败: tx=%s, decoder=%s, err=%v", report.Signature, res.Decoder, err)
			}
		}
	}
}

// safeParse 解码器 panic 时按 CorruptPayload 处理
func safeParse(ctx context.Context, dec common.Decoder, node *core.InstructionNode) (parsed common.ParsedInstruction, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Dispatcher:safeParse] 解码器 panic: decoder=%s, err=%v\nstack: %s", dec.Name(), r, debug.Stack())
			parsed = nil
			err = core.Corruptf(dec.Identity(), "", "decoder panic: %v", r)
		}
	}()
	return dec.Parse(ctx, node)
}
