package common

import (
	"context"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// aggregatorFilter 对由聚合器 CPI 调用的指令返回 Filtered：兑换已由外层聚合器指令计入
type aggregatorFilter struct {
	Decoder
	aggregators map[types.Pubkey]struct{}
}

// WithAggregatorFilter 包装 d，使其在识别成功且直接调用方属于 aggregators 时返回 FilteredError
func WithAggregatorFilter(d Decoder, aggregators map[types.Pubkey]struct{}) Decoder {
	return &aggregatorFilter{Decoder: d, aggregators: aggregators}
}

func (f *aggregatorFilter) Parse(ctx context.Context, node *core.InstructionNode) (ParsedInstruction, error) {
	parsed, err := f.Decoder.Parse(ctx, node)
	if err != nil {
		return nil, err
	}
	if node.ParentProgram != nil {
		if _, ok := f.aggregators[*node.ParentProgram]; ok {
			return nil, &core.FilteredError{
				Program: node.Program,
				Reason:  "invoked by aggregator " + node.ParentProgram.String(),
			}
		}
	}
	return parsed, nil
}
