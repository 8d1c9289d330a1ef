package meteorapools

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

type SwapArgs struct {
	InAmount         uint64
	MinimumOutAmount uint64
}

// SwapEvent 通过 emit! 写入日志
type SwapEvent struct {
	InAmount    uint64
	OutAmount   uint64
	TradeFee    uint64
	ProtocolFee uint64
	HostFee     uint64
}

// SwapInstruction 账户布局：
//  0. `[writable]` pool
//  1. `[writable]` user_source_token
//  2. `[writable]` user_destination_token
//  3. `[writable]` a_vault
//  4. `[writable]` b_vault
type SwapInstruction struct {
	Accounts []types.Pubkey
	Args     SwapArgs
	Event    *SwapEvent
}

func (s *SwapInstruction) Variant() string { return "Swap" }

func (s *SwapInstruction) Swaps() []common.SwapLeg {
	if s.Event == nil {
		return nil
	}
	return common.Leg(s.Event.InAmount, s.Event.OutAmount)
}

func parseSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var args SwapArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return nil, core.Corrupt(consts.MeteoraPoolsProgram, v.Name, err)
	}
	out := &SwapInstruction{Accounts: common.CopyAccounts(node), Args: args}
	if ev, ok := common.FindLogEvent(node, SwapEventDisc); ok {
		var e SwapEvent
		if err := common.DecodeFixed(ev.Payload, &e); err != nil {
			logger.Warnf("[MeteoraPools:parseSwap] Swap 事件解码失败，按无事件处理: %v", err)
		} else {
			out.Event = &e
		}
	}
	return out, nil
}
