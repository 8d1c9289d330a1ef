package orcawhirlpool

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	// Swap 系列
	Swap         uint64 = 0xf8c69e91e17587c8
	SwapV2       uint64 = 0x2b04ed0b1ac91e62
	TwoHopSwap   uint64 = 0xc360ed6c44a2dbe6
	TwoHopSwapV2 uint64 = 0xba8fd11dfe02c275

	TradedEventDisc uint64 = 0xe1ca49af932ba096
)

const (
	KindSwap = iota + 1
	KindSwapV2
	KindTwoHopSwap
	KindTwoHopSwapV2
)

const (
	swapArgsLen   = 8 + 8 + 16 + 1 + 1
	twoHopArgsLen = 8 + 8 + 1 + 1 + 1 + 16 + 16
)

// v2 指令尾部为 Option<RemainingAccountsInfo>，长度不定
var table = &common.Table{
	Program: consts.OrcaWhirlpoolProgram,
	Variants: []common.Variant{
		{Kind: KindSwap, Name: "Swap", Tag: common.Tag8(Swap), Lengths: []int{8 + swapArgsLen}},
		{Kind: KindSwapV2, Name: "SwapV2", Tag: common.Tag8(SwapV2), Lengths: common.Variable, MinLen: 8 + swapArgsLen + 1},
		{Kind: KindTwoHopSwap, Name: "TwoHopSwap", Tag: common.Tag8(TwoHopSwap), Lengths: []int{8 + twoHopArgsLen}},
		{Kind: KindTwoHopSwapV2, Name: "TwoHopSwapV2", Tag: common.Tag8(TwoHopSwapV2), Lengths: common.Variable, MinLen: 8 + twoHopArgsLen + 1},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.OrcaWhirlpoolProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexOrcaWhirlpool) }

func (d *Decoder) Parse(_ context.Context, node *core.InstructionNode) (common.ParsedInstruction, error) {
	if err := common.CheckOwner(d, node); err != nil {
		return nil, err
	}
	v, err := table.Match(node.Data)
	if err != nil {
		return nil, err
	}

	switch v.Kind {
	case KindSwap, KindSwapV2:
		return parseSwap(v, node)
	case KindTwoHopSwap, KindTwoHopSwapV2:
		return parseTwoHopSwap(v, node)
	default:
		return nil, core.ErrNotMine
	}
}
