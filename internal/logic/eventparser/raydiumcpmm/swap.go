package raydiumcpmm

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	swapEventV1Len = 32 + 8*6 + 1
	swapEventV2Len = swapEventV1Len + 32 + 32 + 8 + 8 + 1
)

// SwapArgs swap_base_input 为 (amount_in, minimum_amount_out)，swap_base_output 为 (max_amount_in, amount_out)
type SwapArgs struct {
	Amount0 uint64
	Amount1 uint64
}

type SwapEventV1 struct {
	PoolID            types.Pubkey
	InputVaultBefore  uint64
	OutputVaultBefore uint64
	InputAmount       uint64
	OutputAmount      uint64
	InputTransferFee  uint64
	OutputTransferFee uint64
	BaseInput         bool
}

// SwapEvent V2 在 V1 之后追加 mint 与手续费字段，V1 事件解码后这些字段为零值
type SwapEvent struct {
	SwapEventV1
	InputMint         types.Pubkey
	OutputMint        types.Pubkey
	TradeFee          uint64
	CreatorFee        uint64
	CreatorFeeOnInput bool
	Version           int `borsh_skip:"true"`
}

// DecodeSwapEvent 按载荷长度选择版本，长度不足 V1 视为缺失
func DecodeSwapEvent(payload []byte) (*SwapEvent, bool) {
	var e SwapEvent
	switch {
	case len(payload) >= swapEventV2Len:
		if err := common.DecodeFixed(payload, &e); err != nil {
			return nil, false
		}
		e.Version = 2
	case len(payload) >= swapEventV1Len:
		if err := common.DecodeFixed(payload, &e.SwapEventV1); err != nil {
			return nil, false
		}
		e.Version = 1
	default:
		return nil, false
	}
	return &e, true
}

// SwapInstruction swap_base_input / swap_base_output
//
// 账户布局：
//  0. `[signer]`   payer
//  1. `[]`         authority
//  2. `[]`         amm_config
//  3. `[writable]` pool_state
//  4. `[writable]` input_token_account
//  5. `[writable]` output_token_account
//  6. `[writable]` input_vault
//  7. `[writable]` output_vault
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
	return common.Leg(s.Event.InputAmount, s.Event.OutputAmount)
}

func parseSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var args SwapArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return nil, core.Corrupt(consts.RaydiumCPMMProgram, v.Name, err)
	}
	out := &SwapInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	if ev, ok := common.FindLogEvent(node, SwapEventDisc); ok {
		if out.Event, ok = DecodeSwapEvent(ev.Payload); !ok {
			logger.Warnf("[RaydiumCPMM:parseSwap] SwapEvent 解码失败，按无事件处理: len=%d", len(ev.Payload))
		}
	}
	return out, nil
}
