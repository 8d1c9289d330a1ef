package meteoradlmm

import (
	"fmt"

	bin "github.com/gagliardetto/binary"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

// RemainingAccountsSlice swap2 系列描述 remaining accounts 的分段（transfer hook 等）
type RemainingAccountsSlice struct {
	AccountsType uint8
	Length       uint8
}

// SwapArgs 六种 swap 指令的参数并集：
//   - swap / swap2:                     Amount0=amount_in, Amount1=min_amount_out
//   - swap_exact_out / swap_exact_out2: Amount0=max_in_amount, Amount1=out_amount
//   - swap_with_price_impact(2):        Amount0=amount_in, ActiveID, MaxPriceImpactBps
type SwapArgs struct {
	Amount0           uint64
	Amount1           uint64
	ActiveID          *int32
	MaxPriceImpactBps uint16
	RemainingAccounts []RemainingAccountsSlice
}

type SwapEvent struct {
	LbPair      types.Pubkey
	From        types.Pubkey
	StartBinID  int32
	EndBinID    int32
	AmountIn    uint64
	AmountOut   uint64
	SwapForY    bool
	Fee         uint64
	ProtocolFee uint64
	FeeBps      types.Uint128
	HostFee     uint64
}

// SwapInstruction 账户 0 为 lb_pair
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
	return common.Leg(s.Event.AmountIn, s.Event.AmountOut)
}

func decodeArgs(kind int, payload []byte) (SwapArgs, error) {
	var args SwapArgs
	dec := common.NewDecoder(payload)

	var err error
	if args.Amount0, err = dec.ReadUint64(bin.LE); err != nil {
		return args, err
	}
	switch kind {
	case KindSwapWithPriceImpact, KindSwapWithPriceImpact2:
		some, err := dec.ReadOption()
		if err != nil {
			return args, err
		}
		if some {
			id, err := dec.ReadInt32(bin.LE)
			if err != nil {
				return args, err
			}
			args.ActiveID = &id
		}
		if args.MaxPriceImpactBps, err = dec.ReadUint16(bin.LE); err != nil {
			return args, err
		}
	default:
		if args.Amount1, err = dec.ReadUint64(bin.LE); err != nil {
			return args, err
		}
	}

	switch kind {
	case KindSwap2, KindSwapExactOut2, KindSwapWithPriceImpact2:
		n, err := dec.ReadLength()
		if err != nil {
			return args, err
		}
		if n*2 > dec.Remaining() {
			return args, fmt.Errorf("remaining accounts slices: length %d exceeds payload", n)
		}
		args.RemainingAccounts = make([]RemainingAccountsSlice, n)
		for i := range args.RemainingAccounts {
			s := &args.RemainingAccounts[i]
			if s.AccountsType, err = dec.ReadUint8(); err != nil {
				return args, err
			}
			if s.Length, err = dec.ReadUint8(); err != nil {
				return args, err
			}
		}
	}
	return args, nil
}

func parseSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	args, err := decodeArgs(v.Kind, v.Payload(node.Data))
	if err != nil {
		return nil, core.Corrupt(consts.MeteoraDLMMProgram, v.Name, err)
	}
	out := &SwapInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	if m, ok := common.FindSelfCPIEvent(node, SwapEventDisc); ok {
		var e SwapEvent
		if err := common.DecodeFixed(m.Payload, &e); err != nil {
			logger.Warnf("[MeteoraDLMM:parseSwap] Swap 事件解码失败，按无事件处理: %v", err)
		} else {
			out.Event = &e
		}
	}
	return out, nil
}
