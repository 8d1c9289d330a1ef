package pumpfunamm

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

// SwapArgs 各指令的两个 u64 参数：
//   - buy:                (base_amount_out, max_quote_amount_in)
//   - buy_exact_quote_in: (spendable_quote_in, min_base_amount_out)
//   - sell:               (base_amount_in, min_quote_amount_out)
//
// 25 字节版本的 track_volume 不参与解析
type SwapArgs struct {
	Amount0 uint64
	Amount1 uint64
}

// BuyEvent 只解析各版本共有的前缀字段
type BuyEvent struct {
	Timestamp              int64
	BaseAmountOut          uint64
	MaxQuoteAmountIn       uint64
	UserBaseTokenReserves  uint64
	UserQuoteTokenReserves uint64
	PoolBaseTokenReserves  uint64
	PoolQuoteTokenReserves uint64
	QuoteAmountIn          uint64
	LpFeeBasisPoints       uint64
	LpFee                  uint64
	ProtocolFeeBasisPoints uint64
	ProtocolFee            uint64
	QuoteAmountInWithLpFee uint64
	UserQuoteAmountIn      uint64
	Pool                   types.Pubkey
	User                   types.Pubkey
}

type SellEvent struct {
	Timestamp                  int64
	BaseAmountIn               uint64
	MinQuoteAmountOut          uint64
	UserBaseTokenReserves      uint64
	UserQuoteTokenReserves     uint64
	PoolBaseTokenReserves      uint64
	PoolQuoteTokenReserves     uint64
	QuoteAmountOut             uint64
	LpFeeBasisPoints           uint64
	LpFee                      uint64
	ProtocolFeeBasisPoints     uint64
	ProtocolFee                uint64
	QuoteAmountOutWithoutLpFee uint64
	UserQuoteAmountOut         uint64
	Pool                       types.Pubkey
	User                       types.Pubkey
}

// BuyInstruction buy / buy_exact_quote_in
//
// 账户布局：
//  0. `[writable]` pool
//  1. `[signer]`   user
//  2. `[]`         global_config
//  3. `[]`         base_mint
//  4. `[]`         quote_mint
//  5. `[writable]` user_base_token_account
//  6. `[writable]` user_quote_token_account
//  7. `[writable]` pool_base_token_account
//  8. `[writable]` pool_quote_token_account
type BuyInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     SwapArgs
	Event    *BuyEvent
}

func (b *BuyInstruction) Variant() string { return b.Name }

// Swaps 买入：quote 流入，base 流出
func (b *BuyInstruction) Swaps() []common.SwapLeg {
	if b.Event == nil {
		return nil
	}
	return common.Leg(b.Event.QuoteAmountIn, b.Event.BaseAmountOut)
}

type SellInstruction struct {
	Accounts []types.Pubkey
	Args     SwapArgs
	Event    *SellEvent
}

func (s *SellInstruction) Variant() string { return "Sell" }

// Swaps 卖出：base 流入，quote 流出
func (s *SellInstruction) Swaps() []common.SwapLeg {
	if s.Event == nil {
		return nil
	}
	return common.Leg(s.Event.BaseAmountIn, s.Event.QuoteAmountOut)
}

func decodeArgs(v *common.Variant, node *core.InstructionNode) (SwapArgs, error) {
	var args SwapArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return args, core.Corrupt(consts.PumpFunAMMProgram, v.Name, err)
	}
	return args, nil
}

func parseBuy(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	args, err := decodeArgs(v, node)
	if err != nil {
		return nil, err
	}
	out := &BuyInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	if m, ok := common.FindSelfCPIEvent(node, BuyEventDisc); ok {
		var e BuyEvent
		if err := common.DecodeFixed(m.Payload, &e); err != nil {
			logger.Warnf("[PumpfunAMM:parseBuy] BuyEvent 解码失败，按无事件处理: %v", err)
		} else {
			out.Event = &e
		}
	}
	return out, nil
}

func parseSell(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	args, err := decodeArgs(v, node)
	if err != nil {
		return nil, err
	}
	out := &SellInstruction{Accounts: common.CopyAccounts(node), Args: args}
	if m, ok := common.FindSelfCPIEvent(node, SellEventDisc); ok {
		var e SellEvent
		if err := common.DecodeFixed(m.Payload, &e); err != nil {
			logger.Warnf("[PumpfunAMM:parseSell] SellEvent 解码失败，按无事件处理: %v", err)
		} else {
			out.Event = &e
		}
	}
	return out, nil
}
