package pumpfun

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

const (
	KindBuy = iota + 1
	KindSell
)

// buy 新版本追加了 1 字节 track_volume
var table = &common.Table{
	Program: consts.PumpFunProgram,
	Variants: []common.Variant{
		{Kind: KindBuy, Name: "Buy", Tag: common.Tag8(Buy), Lengths: []int{8 + 16, 8 + 17}},
		{Kind: KindSell, Name: "Sell", Tag: common.Tag8(Sell), Lengths: []int{8 + 16}},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.PumpFunProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexPumpfun) }

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
