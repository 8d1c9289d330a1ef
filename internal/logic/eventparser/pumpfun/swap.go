package pumpfun

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	tradeEventV1Len = 32 + 8 + 8 + 1 + 32 + 8 + 8 + 8
	tradeEventV2Len = tradeEventV1Len + 8 + 8 + 32 + 8 + 8 + 32 + 8 + 8
)

// TradeArgs buy 为 (amount, max_sol_cost)，sell 为 (amount, min_sol_output)，amount 均为 token 数量
type TradeArgs struct {
	Amount   uint64
	SolLimit uint64
}

type TradeEventV1 struct {
	Mint                 types.Pubkey
	SolAmount            uint64
	TokenAmount          uint64
	IsBuy                bool
	User                 types.Pubkey
	Timestamp            int64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
}

// TradeEvent V2 追加储备与手续费字段；更新版本的尾部字段不解析
type TradeEvent struct {
	TradeEventV1
	RealSolReserves       uint64
	RealTokenReserves     uint64
	FeeRecipient          types.Pubkey
	FeeBasisPoints        uint64
	Fee                   uint64
	Creator               types.Pubkey
	CreatorFeeBasisPoints uint64
	CreatorFee            uint64
	Version               int `borsh_skip:"true"`
}

func DecodeTradeEvent(payload []byte) (*TradeEvent, bool) {
	var e TradeEvent
	switch {
	case len(payload) >= tradeEventV2Len:
		if err := common.DecodeFixed(payload, &e); err != nil {
			return nil, false
		}
		e.Version = 2
	case len(payload) >= tradeEventV1Len:
		if err := common.DecodeFixed(payload, &e.TradeEventV1); err != nil {
			return nil, false
		}
		e.Version = 1
	default:
		return nil, false
	}
	return &e, true
}

// TradeInstruction buy / sell
//
// 账户布局：
//  0. `[]`         global
//  1. `[writable]` fee_recipient
//  2. `[]`         mint
//  3. `[writable]` bonding_curve
//  4. `[writable]` associated_bonding_curve
//  5. `[writable]` associated_user
//  6. `[signer]`   user
type TradeInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     TradeArgs
	Event    *TradeEvent
}

func (t *TradeInstruction) Variant() string { return t.Name }

// Swaps 买入时 SOL 流入，卖出时 token 流入
func (t *TradeInstruction) Swaps() []common.SwapLeg {
	if t.Event == nil {
		return nil
	}
	src, dst := common.Directed(t.Event.IsBuy, t.Event.SolAmount, t.Event.TokenAmount)
	return common.Leg(src, dst)
}

func parseTrade(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var args TradeArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return nil, core.Corrupt(consts.PumpFunProgram, v.Name, err)
	}
	out := &TradeInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	if m, ok := common.FindSelfCPIEvent(node, TradeEventDisc); ok {
		if out.Event, ok = DecodeTradeEvent(m.Payload); !ok {
			logger.Warnf("[Pumpfun:parseTrade] TradeEvent 解码失败，按无事件处理: len=%d", len(m.Payload))
		}
	}
	return out, nil
}
