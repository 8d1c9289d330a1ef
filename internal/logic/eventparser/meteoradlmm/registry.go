package meteoradlmm

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	Swap                 uint64 = 0xf8c69e91e17587c8
	SwapExactOut         uint64 = 0xfa49652126cf4bb8
	SwapWithPriceImpact  uint64 = 0x38ade6d0ade49ccd
	Swap2                uint64 = 0x414b3f4ceb5b5b88
	SwapExactOut2        uint64 = 0x2bd7f784893cf351
	SwapWithPriceImpact2 uint64 = 0x4a62c0d6b1334b33

	SwapEventDisc uint64 = 0x516ce3becdd00ac4
)

const (
	KindSwap = iota + 1
	KindSwapExactOut
	KindSwapWithPriceImpact
	KindSwap2
	KindSwapExactOut2
	KindSwapWithPriceImpact2
)

var table = &common.Table{
	Program: consts.MeteoraDLMMProgram,
	Variants: []common.Variant{
		{Kind: KindSwap, Name: "Swap", Tag: common.Tag8(Swap), Lengths: []int{8 + 16}},
		{Kind: KindSwapExactOut, Name: "SwapExactOut", Tag: common.Tag8(SwapExactOut), Lengths: []int{8 + 16}},
		// active_id 为 Option<i32>
		{Kind: KindSwapWithPriceImpact, Name: "SwapWithPriceImpact", Tag: common.Tag8(SwapWithPriceImpact), Lengths: []int{8 + 8 + 1 + 2, 8 + 8 + 5 + 2}},
		{Kind: KindSwap2, Name: "Swap2", Tag: common.Tag8(Swap2), Lengths: common.Variable, MinLen: 8 + 16 + 4},
		{Kind: KindSwapExactOut2, Name: "SwapExactOut2", Tag: common.Tag8(SwapExactOut2), Lengths: common.Variable, MinLen: 8 + 16 + 4},
		{Kind: KindSwapWithPriceImpact2, Name: "SwapWithPriceImpact2", Tag: common.Tag8(SwapWithPriceImpact2), Lengths: common.Variable, MinLen: 8 + 8 + 1 + 2 + 4},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.MeteoraDLMMProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexMeteoraDLMM) }

func (d *Decoder) Parse(_ context.Context, node *core.InstructionNode) (common.ParsedInstruction, error) {
	if err := common.CheckOwner(d, node); err != nil {
		return nil, err
	}
	v, err := table.Match(node.Data)
	if err != nil {
		return nil, err
	}
	return parseSwap(v, node)
}
