package moonshot

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

type TradeType uint8

const (
	TradeTypeBuy TradeType = iota
	TradeTypeSell
)

// TradeParams buy / sell 共用
type TradeParams struct {
	TokenAmount      uint64
	CollateralAmount uint64
	FixedSide        uint8
	SlippageBps      uint64
}

// TradeEvent Amount 为 token 数量，CollateralAmount 为 SOL 数量
type TradeEvent struct {
	Amount           uint64
	CollateralAmount uint64
	DexFee           uint64
	HelioFee         uint64
	Allocation       uint64
	Curve            types.Pubkey
	CostToken        types.Pubkey
	Sender           types.Pubkey
	Type             TradeType
	Label            string
}

// TradeInstruction 账户布局：
//  0. `[signer]`   sender
//  1. `[writable]` sender_token_account
//  2. `[writable]` curve_account
//  3. `[writable]` curve_token_account
//  4. `[writable]` dex_fee
//  5. `[writable]` helio_fee
//  6. `[]`         mint
type TradeInstruction struct {
	Name     string
	Side     TradeType
	Accounts []types.Pubkey
	Params   TradeParams
	Event    *TradeEvent
}

func (t *TradeInstruction) Variant() string { return t.Name }

// Swaps 买入时 collateral 流入，卖出时 token 流入
func (t *TradeInstruction) Swaps() []common.SwapLeg {
	if t.Event == nil {
		return nil
	}
	src, dst := common.Directed(t.Event.Type == TradeTypeBuy, t.Event.CollateralAmount, t.Event.Amount)
	return common.Leg(src, dst)
}

func parseTrade(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var params TradeParams
	if err := common.DecodeFixed(v.Payload(node.Data), &params); err != nil {
		return nil, core.Corrupt(consts.MoonshotProgram, v.Name, err)
	}
	out := &TradeInstruction{Name: v.Name, Side: TradeType(v.Kind), Accounts: common.CopyAccounts(node), Params: params}
	if ev, ok := common.FindLogEvent(node, TradeEventDisc); ok {
		var e TradeEvent
		if err := common.DecodeFixed(ev.Payload, &e); err != nil {
			logger.Warnf("[Moonshot:parseTrade] TradeEvent 解码失败，按无事件处理: %v", err)
		} else {
			out.Event = &e
		}
	}
	return out, nil
}
