package pancakeclmm

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/logic/eventparser/raydiumclmm"
)

// Pancake CLMM 是 Raydium CLMM 的分叉，指令、事件布局与判别符完全一致
type (
	SwapInstruction             = raydiumclmm.SwapInstruction
	SwapRouterBaseInInstruction = raydiumclmm.SwapRouterBaseInInstruction
	SwapEvent                   = raydiumclmm.SwapEvent
)

// NewDecoder filterAggregatorCPI 为 true 时，由 OKX / Jupiter 直接调用的兑换返回 Filtered
func NewDecoder(filterAggregatorCPI bool) common.Decoder {
	d := raydiumclmm.NewDecoderFor(consts.PancakeCLMMProgram, consts.DexName(consts.DexPancakeCLMM))
	if !filterAggregatorCPI {
		return d
	}
	return common.WithAggregatorFilter(d, consts.AggregatorPrograms)
}
