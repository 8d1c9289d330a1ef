package okxv2

import (
	"context"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	Swap                uint64 = 0xf8c69e91e17587c8
	ProxySwap           uint64 = 0x132c829448382cee
	SwapTob             uint64 = 0xaa2955b184501f35
	SwapTobEnhanced     uint64 = 0xbe9ca9b0959aa16c
	SwapTobV2           uint64 = 0x4801d7f2084b36d8
	SwapTobWithReceiver uint64 = 0xdfaad8eacc06f119
	SwapToc             uint64 = 0xbbc9d433109bec3c
	SwapTocV2           uint64 = 0x7fd66bbd175a2f68

	SwapCpiEventDisc uint64 = 0x555195efa34a9e6f
)

// 所有变体都以 SwapArgs 开头：3 个 u64 + 两个 Vec 的长度前缀
const minArgsLen = 8 + 8 + 8 + 4 + 4

func variant(name string, disc uint64) common.Variant {
	return common.Variant{Name: name, Tag: common.Tag8(disc), Lengths: common.Variable, MinLen: 8 + minArgsLen}
}

var table = &common.Table{
	Program: consts.OKXDexRouterV2Program,
	Variants: []common.Variant{
		variant("Swap", Swap),
		variant("ProxySwap", ProxySwap),
		variant("SwapTob", SwapTob),
		variant("SwapTobEnhanced", SwapTobEnhanced),
		variant("SwapTobV2", SwapTobV2),
		variant("SwapTobWithReceiver", SwapTobWithReceiver),
		variant("SwapToc", SwapToc),
		variant("SwapTocV2", SwapTocV2),
	},
}

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Identity() types.Pubkey { return consts.OKXDexRouterV2Program }
func (d *Decoder) Name() string           { return consts.DexName(consts.DexOKXRouterV2) }

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
