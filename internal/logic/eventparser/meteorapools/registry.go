package meteorapools

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	Swap uint64 = 0xf8c69e91e17587c8

	SwapEventDisc uint64 = 0x516ce3becdd00ac4
)

var table = &common.Table{
	Program: consts.MeteoraPoolsProgram,
	Variants: []common.Variant{
		{Kind: 1, Name: "Swap", Tag: common.Tag8(Swap), Lengths: []int{8 + 16}},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.MeteoraPoolsProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexMeteoraPools) }

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
