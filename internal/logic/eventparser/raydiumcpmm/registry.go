package raydiumcpmm

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	SwapBaseInput  uint64 = 0x8fbe5adac41e33de
	SwapBaseOutput uint64 = 0x37d96256a34ab4ad

	SwapEventDisc uint64 = 0x40c6cde8260871e2
)

const (
	KindSwapBaseInput = iota + 1
	KindSwapBaseOutput
)

var table = &common.Table{
	Program: consts.RaydiumCPMMProgram,
	Variants: []common.Variant{
		{Kind: KindSwapBaseInput, Name: "SwapBaseInput", Tag: common.Tag8(SwapBaseInput), Lengths: []int{8 + 16}},
		{Kind: KindSwapBaseOutput, Name: "SwapBaseOutput", Tag: common.Tag8(SwapBaseOutput), Lengths: []int{8 + 16}},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.RaydiumCPMMProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexRaydiumCPMM) }

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
