package dispatcher

import (
	"github.com/hashicorp/go-multierror"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

// Counts 各类结果的计数
type Counts struct {
	Success  int
	Filtered int
	NotMine  int
	Errors   int
}

func (c *Counts) add(o core.Outcome) {
	switch o {
	case core.OutcomeSuccess:
		c.Success++
	case core.OutcomeFiltered:
		c.Filtered++
	case core.OutcomeNotMine:
		c.NotMine++
	default:
		c.Errors++
	}
}

func (c *Counts) merge(o Counts) {
	c.Success += o.Success
	c.Filtered += o.Filtered
	c.NotMine += o.NotMine
	c.Errors += o.Errors
}

// Result 一次成功解码，按先序遍历顺序排列
type Result struct {
	Path    []int
	Node    *core.InstructionNode
	Decoder string
	Program types.Pubkey
	Parsed  common.ParsedInstruction
}

// Swaps 方向归一化后的兑换腿
func (r *Result) Swaps() []common.SwapLeg {
	return r.Parsed.Swaps()
}

// Report 单笔交易的解码结果与分类统计。
// Results 只包含 Success；Filtered / NotMine 只计数；错误同时计数并累积在 Errors 中。
type Report struct {
	Tx        *core.Transaction
	Signature types.Signature
	Slot      uint64

	Results    []Result
	Counts     Counts
	ByDecoder  map[string]*Counts
	Malformed  bool
	Canceled   bool
	Visited    int
	SinkErrors int

	Errors *multierror.Error
}

func newReport(tx *core.Transaction) *Report {
	r := &Report{Tx: tx, ByDecoder: make(map[string]*Counts)}
	if tx != nil {
		r.Signature = tx.Signature
		r.Slot = tx.Slot()
	}
	return r
}

func (r *Report) record(decoder string, o core.Outcome) {
	r.Counts.add(o)
	c := r.ByDecoder[decoder]
	if c == nil {
		c = &Counts{}
		r.ByDecoder[decoder] = c
	}
	c.add(o)
}

// Outcome 交易级分类：树构建失败为 MalformedTransaction，否则为 Success
func (r *Report) Outcome() core.Outcome {
	if r.Malformed {
		return core.OutcomeMalformedTransaction
	}
	return core.OutcomeSuccess
}

// ErrorCount 解码错误数，交易树无法构建时计 1
func (r *Report) ErrorCount() int {
	if r.Malformed {
		return 1
	}
	return r.Counts.Errors
}

func (r *Report) FilteredCount() int { return r.Counts.Filtered }

// Err 累积的错误，没有错误时返回 nil
func (r *Report) Err() error {
	return r.Errors.ErrorOrNil()
}
