package pumpfunamm

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	Buy             uint64 = 0x66063d1201daebea
	Sell            uint64 = 0x33e685a4017f83ad
	BuyExactQuoteIn uint64 = 0xc62e1552b4d9e870

	BuyEventDisc  uint64 = 0x67f4521f2cf57777
	SellEventDisc uint64 = 0x3e2f370aa503dc2a
)

const (
	KindBuy = iota + 1
	KindSell
	KindBuyExactQuoteIn
)

// buy / buy_exact_quote_in：链上现存 24 字节版本与 IDL 中带 track_volume 的 25 字节版本同时存在
var table = &common.Table{
	Program: consts.PumpFunAMMProgram,
	Variants: []common.Variant{
		{Kind: KindBuy, Name: "Buy", Tag: common.Tag8(Buy), Lengths: []int{8 + 16, 8 + 17}},
		{Kind: KindSell, Name: "Sell", Tag: common.Tag8(Sell), Lengths: []int{8 + 16}},
		{Kind: KindBuyExactQuoteIn, Name: "BuyExactQuoteIn", Tag: common.Tag8(BuyExactQuoteIn), Lengths: []int{8 + 16, 8 + 17}},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.PumpFunAMMProgram }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexPumpfunAMM) }

func (d *Decoder) Parse(_ context.Context, node *core.InstructionNode) (common.ParsedInstruction, error) {
	if err := common.CheckOwner(d, node); err != nil {
		return nil, err
	}
	v, err := table.Match(node.Data)
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case KindBuy, KindBuyExactQuoteIn:
		return parseBuy(v, node)
	case KindSell:
		return parseSell(v, node)
	default:
		return nil, core.ErrNotMine
	}
}
