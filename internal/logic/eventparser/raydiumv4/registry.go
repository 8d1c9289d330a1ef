package raydiumv4

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

// AMM v4 不是 Anchor 程序，指令以 1 字节编号区分
// 来源, https://github.com/raydium-io/raydium-amm/blob/master/program/src/instruction.rs
const (
	SwapBaseIn    byte = 9
	SwapBaseOut   byte = 11
	SwapBaseInV2  byte = 16
	SwapBaseOutV2 byte = 17
)

const swapIxLen = 1 + 8 + 8

var table = &common.Table{
	Program: consts.RaydiumV4Program,
	Variants: []common.Variant{
		{Kind: int(SwapBaseIn), Name: "SwapBaseIn", Tag: []byte{SwapBaseIn}, Lengths: []int{swapIxLen}},
		{Kind: int(SwapBaseOut), Name: "SwapBaseOut", Tag: []byte{SwapBaseOut}, Lengths: []int{swapIxLen}},
		{Kind: int(SwapBaseInV2), Name: "SwapBaseInV2", Tag: []byte{SwapBaseInV2}, Lengths: []int{swapIxLen}},
		{Kind: int(SwapBaseOutV2), Name: "SwapBaseOutV2", Tag: []byte{SwapBaseOutV2}, Lengths: []int{swapIxLen}},
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.RaydiumV4Program }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexRaydiumV4) }

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
