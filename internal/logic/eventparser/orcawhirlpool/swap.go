package orcawhirlpool

import (
	"fmt"

	bin "github.com/gagliardetto/binary"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

// RemainingAccountsSlice v2 指令描述 transfer hook 等附加账户的分段
type RemainingAccountsSlice struct {
	AccountsType uint8
	Length       uint8
}

type SwapArgs struct {
	Amount                 uint64
	OtherAmountThreshold   uint64
	SqrtPriceLimit         types.Uint128
	AmountSpecifiedIsInput bool
	AToB                   bool
	RemainingAccounts      []RemainingAccountsSlice `borsh_skip:"true"`
}

type TwoHopSwapArgs struct {
	Amount                 uint64
	OtherAmountThreshold   uint64
	AmountSpecifiedIsInput bool
	AToBOne                bool
	AToBTwo                bool
	SqrtPriceLimitOne      types.Uint128
	SqrtPriceLimitTwo      types.Uint128
	RemainingAccounts      []RemainingAccountsSlice `borsh_skip:"true"`
}

// TradedEvent 每经过一个池子发出一次
type TradedEvent struct {
	Whirlpool         types.Pubkey
	AToB              bool
	PreSqrtPrice      types.Uint128
	PostSqrtPrice     types.Uint128
	InputAmount       uint64
	OutputAmount      uint64
	InputTransferFee  uint64
	OutputTransferFee uint64
	LpFee             uint64
	ProtocolFee       uint64
}

type TradedAt struct {
	Event  TradedEvent
	Origin int
}

// SwapInstruction Swap 账户布局：
//
// 0 - Token Program
// 1 - Token Authority
// 2 - Whirlpool
// 3 - Token Owner Account A
// 4 - Token Vault A
// 5 - Token Owner Account B
// 6 - Token Vault B
//
// SwapV2 的 Whirlpool 位于账户 4。
type SwapInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     SwapArgs
	Event    *TradedEvent
	origin   int
}

func (s *SwapInstruction) Variant() string { return s.Name }

func (s *SwapInstruction) Swaps() []common.SwapLeg {
	if s.Event == nil {
		return nil
	}
	return []common.SwapLeg{{SourceAmount: s.Event.InputAmount, DestinationAmount: s.Event.OutputAmount, Origin: s.origin}}
}

// TwoHopSwapInstruction Events 按池子经过顺序排列
type TwoHopSwapInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     TwoHopSwapArgs
	Events   []TradedAt
}

func (s *TwoHopSwapInstruction) Variant() string { return s.Name }

func (s *TwoHopSwapInstruction) Swaps() []common.SwapLeg {
	legs := make([]common.SwapLeg, 0, len(s.Events))
	for _, e := range s.Events {
		legs = append(legs, common.SwapLeg{SourceAmount: e.Event.InputAmount, DestinationAmount: e.Event.OutputAmount, Origin: e.Origin})
	}
	return legs
}

// decodeRemainingAccounts 读取 Option<RemainingAccountsInfo>
func decodeRemainingAccounts(dec *bin.Decoder) ([]RemainingAccountsSlice, error) {
	some, err := dec.ReadOption()
	if err != nil || !some {
		return nil, err
	}
	n, err := dec.ReadLength()
	if err != nil {
		return nil, err
	}
	if n*2 > dec.Remaining() {
		return nil, fmt.Errorf("remaining accounts slices: length %d exceeds payload", n)
	}
	out := make([]RemainingAccountsSlice, n)
	for i := range out {
		if out[i].AccountsType, err = dec.ReadUint8(); err != nil {
			return nil, err
		}
		if out[i].Length, err = dec.ReadUint8(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeTraded(payload []byte) (*TradedEvent, bool) {
	var e TradedEvent
	if err := common.DecodeFixed(payload, &e); err != nil {
		logger.Warnf("[OrcaWhirlpool:decodeTraded] Traded 事件解码失败，按无事件处理: %v", err)
		return nil, false
	}
	return &e, true
}

func parseSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	payload := v.Payload(node.Data)
	var args SwapArgs
	if err := common.DecodeFixed(payload, &args); err != nil {
		return nil, core.Corrupt(consts.OrcaWhirlpoolProgram, v.Name, err)
	}
	if v.Kind == KindSwapV2 {
		dec := common.NewDecoder(payload[swapArgsLen:])
		slices, err := decodeRemainingAccounts(dec)
		if err != nil {
			return nil, core.Corrupt(consts.OrcaWhirlpoolProgram, v.Name, err)
		}
		args.RemainingAccounts = slices
	}

	out := &SwapInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	if ev, ok := common.FindLogEvent(node, TradedEventDisc); ok {
		if e, ok := decodeTraded(ev.Payload); ok {
			out.Event = e
			out.origin = ev.Origin
		}
	}
	return out, nil
}

func parseTwoHopSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	payload := v.Payload(node.Data)
	var args TwoHopSwapArgs
	if err := common.DecodeFixed(payload, &args); err != nil {
		return nil, core.Corrupt(consts.OrcaWhirlpoolProgram, v.Name, err)
	}
	if v.Kind == KindTwoHopSwapV2 {
		slices, err := decodeRemainingAccounts(common.NewDecoder(payload[twoHopArgsLen:]))
		if err != nil {
			return nil, core.Corrupt(consts.OrcaWhirlpoolProgram, v.Name, err)
		}
		args.RemainingAccounts = slices
	}

	out := &TwoHopSwapInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	for _, ev := range common.FindLogEvents(node, TradedEventDisc) {
		if e, ok := decodeTraded(ev.Payload); ok {
			out.Events = append(out.Events, TradedAt{Event: *e, Origin: ev.Origin})
		}
	}
	return out, nil
}
