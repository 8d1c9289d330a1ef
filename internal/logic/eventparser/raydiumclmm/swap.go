package raydiumclmm

import (
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	swapArgsLen   = 8 + 8 + 16 + 1
	routerArgsLen = 8 + 8
)

type SwapArgs struct {
	Amount               uint64
	OtherAmountThreshold uint64
	SqrtPriceLimitX64    types.Uint128
	IsBaseInput          bool
}

type SwapRouterBaseInArgs struct {
	AmountIn         uint64
	AmountOutMinimum uint64
}

// SwapEvent 由 emit! 写入程序日志
type SwapEvent struct {
	PoolState     types.Pubkey
	Sender        types.Pubkey
	TokenAccount0 types.Pubkey
	TokenAccount1 types.Pubkey
	Amount0       uint64
	TransferFee0  uint64
	Amount1       uint64
	TransferFee1  uint64
	ZeroForOne    bool
	SqrtPriceX64  types.Uint128
	Liquidity     types.Uint128
	Tick          int32
}

// Leg zero_for_one 为 true 时 token0 流入池子
func (e *SwapEvent) Leg(origin int) common.SwapLeg {
	src, dst := common.Directed(e.ZeroForOne, e.Amount0, e.Amount1)
	return common.SwapLeg{SourceAmount: src, DestinationAmount: dst, Origin: origin}
}

// SwapInstruction swap / swap_v2
//
// 账户布局：
//  0. `[signer]`   payer
//  1. `[]`         amm_config
//  2. `[writable]` pool_state
//  3. `[writable]` input_token_account
//  4. `[writable]` output_token_account
//  5. `[writable]` input_vault
//  6. `[writable]` output_vault
type SwapInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     SwapArgs
	Event    *SwapEvent
}

func (s *SwapInstruction) Variant() string { return s.Name }

func (s *SwapInstruction) Swaps() []common.SwapLeg {
	if s.Event == nil {
		return nil
	}
	return []common.SwapLeg{s.Event.Leg(0)}
}

// Pool 池子账户，账户不足时为零值
func (s *SwapInstruction) Pool() types.Pubkey {
	if len(s.Accounts) < 3 {
		return types.Pubkey{}
	}
	return s.Accounts[2]
}

// EventAt 带发出序号的事件
type EventAt struct {
	Event  SwapEvent
	Origin int
}

// SwapRouterBaseInInstruction 多跳路由，每一跳输出一条 SwapEvent
type SwapRouterBaseInInstruction struct {
	Accounts []types.Pubkey
	Args     SwapRouterBaseInArgs
	Events   []EventAt
}

func (s *SwapRouterBaseInInstruction) Variant() string { return "SwapRouterBaseIn" }

func (s *SwapRouterBaseInInstruction) Swaps() []common.SwapLeg {
	legs := make([]common.SwapLeg, 0, len(s.Events))
	for i := range s.Events {
		legs = append(legs, s.Events[i].Event.Leg(s.Events[i].Origin))
	}
	return legs
}

// DecodeSwapEvent 解码失败的事件视为缺失
func DecodeSwapEvent(payload []byte) (*SwapEvent, bool) {
	var e SwapEvent
	if err := common.DecodeFixed(payload, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func parseSwap(program types.Pubkey, v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var args SwapArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return nil, core.Corrupt(program, v.Name, err)
	}
	out := &SwapInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	if ev, ok := common.FindLogEvent(node, SwapEventDisc); ok {
		if out.Event, ok = DecodeSwapEvent(ev.Payload); !ok {
			logger.Warnf("[RaydiumCLMM:parseSwap] SwapEvent 解码失败，按无事件处理: program=%s, len=%d", program, len(ev.Payload))
		}
	}
	return out, nil
}

func parseRouterBaseIn(program types.Pubkey, v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var args SwapRouterBaseInArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return nil, core.Corrupt(program, v.Name, err)
	}
	out := &SwapRouterBaseInInstruction{Accounts: common.CopyAccounts(node), Args: args}
	for _, ev := range common.FindLogEvents(node, SwapEventDisc) {
		e, ok := DecodeSwapEvent(ev.Payload)
		if !ok {
			logger.Warnf("[RaydiumCLMM:parseRouterBaseIn] SwapEvent 解码失败，跳过: program=%s, origin=%d", program, ev.Origin)
			continue
		}
		out.Events = append(out.Events, EventAt{Event: *e, Origin: ev.Origin})
	}
	return out, nil
}
