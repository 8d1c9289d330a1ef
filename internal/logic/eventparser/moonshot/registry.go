package moonshot

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	Buy  uint64 = 0x66063d1201daebea
	Sell uint64 = 0x33e685a4017f83ad

	TradeEventDisc uint64 = 0xbddb7fd34ee661ee
)

const tradeIxLen = 8 + 8 + 8 + 1 + 8

var table = &common.Table{
	Program: consts.MoonshotProgram,
	Variants: []common.Variant{
		{Kind: int(TradeTypeBuy), Name: "Buy", Tag: common.Tag8(Buy), Lengths: []int{tradeIxLen}},
		{Kind: int(TradeTypeSell), Name: "Sell", Tag: common.Tag8(Sell), Lengths: []int{tradeIxLen}},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.MoonshotProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexMoonshot) }

func (d *Decoder) Parse(_ context.Context, node *core.InstructionNode) (common.ParsedInstruction, error) {
	if err := common.CheckOwner(d, node); err != nil {
		return nil, err
	}
	v, err := table.Match(node.Data)
	if err != nil {
		return nil, err
	}
	return parseTrade(v, node)
}
