package jupiter

import (
	bin "github.com/gagliardetto/binary"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

// RouteArgs 六种 route 指令的公共部分：
//   - route / shared_accounts_route:                 Amount=in_amount, QuotedAmount=quoted_out_amount
//   - exact_out_route / shared_accounts_exact_out:   Amount=out_amount, QuotedAmount=quoted_in_amount
//   - *_with_token_ledger:                           Amount 为 0，QuotedAmount=quoted_out_amount
type RouteArgs struct {
	ID             *uint8
	RouteSteps     uint32
	Amount         uint64
	QuotedAmount   uint64
	SlippageBps    uint16
	PlatformFeeBps uint8
	RoutePlan      []byte // 未解码的 route_plan 原始字节
}

// SwapEvent 每经过一个 AMM 发出一次
type SwapEvent struct {
	Amm          types.Pubkey
	InputMint    types.Pubkey
	InputAmount  uint64
	OutputMint   types.Pubkey
	OutputAmount uint64
}

type EventAt struct {
	Event  SwapEvent
	Origin int
}

type RouteInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     RouteArgs
	Events   []EventAt
}

func (r *RouteInstruction) Variant() string { return r.Name }

func (r *RouteInstruction) Swaps() []common.SwapLeg {
	legs := make([]common.SwapLeg, 0, len(r.Events))
	for _, e := range r.Events {
		legs = append(legs, common.SwapLeg{SourceAmount: e.Event.InputAmount, DestinationAmount: e.Event.OutputAmount, Origin: e.Origin})
	}
	return legs
}

func decodeArgs(l routeLayout, payload []byte) (RouteArgs, error) {
	var args RouteArgs
	head := common.NewDecoder(payload)
	if l.shared {
		id, err := head.ReadUint8()
		if err != nil {
			return args, err
		}
		args.ID = &id
	}
	steps, err := head.ReadUint32(bin.LE)
	if err != nil {
		return args, err
	}
	args.RouteSteps = steps

	split := len(payload) - l.tailLen()
	args.RoutePlan = append([]byte(nil), payload[l.headLen():split]...)

	tail := common.NewDecoder(payload[split:])
	if !l.tokenLedger {
		if args.Amount, err = tail.ReadUint64(bin.LE); err != nil {
			return args, err
		}
	}
	if args.QuotedAmount, err = tail.ReadUint64(bin.LE); err != nil {
		return args, err
	}
	if args.SlippageBps, err = tail.ReadUint16(bin.LE); err != nil {
		return args, err
	}
	if args.PlatformFeeBps, err = tail.ReadUint8(); err != nil {
		return args, err
	}
	return args, nil
}

func parseRoute(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	args, err := decodeArgs(layouts[v.Kind], v.Payload(node.Data))
	if err != nil {
		return nil, core.Corrupt(consts.JupiterV6Program, v.Name, err)
	}
	if args.RouteSteps == 0 {
		return nil, core.Corruptf(consts.JupiterV6Program, v.Name, "empty route plan")
	}

	out := &RouteInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	for _, m := range common.FindSelfCPIEvents(node, SwapEventDisc) {
		var e SwapEvent
		if err := common.DecodeFixed(m.Payload, &e); err != nil {
			logger.Warnf("[Jupiter:parseRoute] SwapEvent 解码失败，跳过: origin=%d, err=%v", m.Origin, err)
			continue
		}
		out.Events = append(out.Events, EventAt{Event: e, Origin: m.Origin})
	}
	return out, nil
}
