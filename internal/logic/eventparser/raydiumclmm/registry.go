package raydiumclmm

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	Swap             uint64 = 0xf8c69e91e17587c8
	SwapV2           uint64 = 0x2b04ed0b1ac91e62
	SwapRouterBaseIn uint64 = 0x457d73daf5baf2c4

	SwapEventDisc uint64 = 0x40c6cde8260871e2
)

const (
	KindSwap = iota + 1
	KindSwapV2
	KindSwapRouterBaseIn
)

// NewTable 指令判别符表，Pancake CLMM 与本程序共用同一套指令布局
func NewTable(program types.Pubkey) *common.Table {
	return &common.Table{
		Program: program,
		Variants: []common.Variant{
			{Kind: KindSwap, Name: "Swap", Tag: common.Tag8(Swap), Lengths: []int{8 + swapArgsLen}},
			{Kind: KindSwapV2, Name: "SwapV2", Tag: common.Tag8(SwapV2), Lengths: []int{8 + swapArgsLen}},
			{Kind: KindSwapRouterBaseIn, Name: "SwapRouterBaseIn", Tag: common.Tag8(SwapRouterBaseIn), Lengths: []int{8 + routerArgsLen}},
		},
	}
}

type Decoder struct {
	program types.Pubkey
	name    string
	table   *common.Table
}

func NewDecoder() *Decoder {
	return NewDecoderFor(consts.RaydiumCLMMProgram, consts.DexName(consts.DexRaydiumCLMM))
}

// NewDecoderFor 用于部署在其他地址、布局相同的 CLMM 分叉
func NewDecoderFor(program types.Pubkey, name string) *Decoder {
	return &Decoder{program: program, name: name, table: NewTable(program)}
}

func (d *Decoder) Identity() types.Pubkey { return d.program }
func (d *Decoder) Name() string           { return d.name }

func (d *Decoder) Parse(_ context.Context, node *core.InstructionNode) (common.ParsedInstruction, error) {
	if err := common.CheckOwner(d, node); err != nil {
		return nil, err
	}
	v, err := d.table.Match(node.Data)
	if err != nil {
		return nil, err
	}

	switch v.Kind {
	case KindSwap, KindSwapV2:
		return parseSwap(d.program, v, node)
	case KindSwapRouterBaseIn:
		return parseRouterBaseIn(d.program, v, node)
	default:
		return nil, core.ErrNotMine
	}
}
