package raydiumv4

import (
	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

// ray_log 首字节为日志类型
const (
	LogTypeSwapBaseIn  uint8 = 3
	LogTypeSwapBaseOut uint8 = 4
)

// SwapArgs base_in 为 (amount_in, minimum_amount_out)，base_out 为 (max_amount_in, amount_out)
type SwapArgs struct {
	Amount0 uint64
	Amount1 uint64
}

type SwapBaseInLog struct {
	LogType    uint8
	AmountIn   uint64
	MinimumOut uint64
	Direction  uint64
	UserSource uint64
	PoolCoin   uint64
	PoolPc     uint64
	OutAmount  uint64
}

type SwapBaseOutLog struct {
	LogType    uint8
	MaxIn      uint64
	AmountOut  uint64
	Direction  uint64
	UserSource uint64
	PoolCoin   uint64
	PoolPc     uint64
	DeductIn   uint64
}

// SwapLog 归一化后的 ray_log
type SwapLog struct {
	LogType   uint8
	Direction uint64
	AmountIn  uint64
	AmountOut uint64
	PoolCoin  uint64
	PoolPc    uint64
}

// DecodeRayLog 只识别兑换日志，其余类型返回 false
func DecodeRayLog(data []byte) (*SwapLog, bool) {
	if len(data) == 0 {
		return nil, false
	}
	switch data[0] {
	case LogTypeSwapBaseIn:
		var l SwapBaseInLog
		if err := common.DecodeFixed(data, &l); err != nil {
			return nil, false
		}
		return &SwapLog{LogType: l.LogType, Direction: l.Direction, AmountIn: l.AmountIn, AmountOut: l.OutAmount, PoolCoin: l.PoolCoin, PoolPc: l.PoolPc}, true
	case LogTypeSwapBaseOut:
		var l SwapBaseOutLog
		if err := common.DecodeFixed(data, &l); err != nil {
			return nil, false
		}
		return &SwapLog{LogType: l.LogType, Direction: l.Direction, AmountIn: l.DeductIn, AmountOut: l.AmountOut, PoolCoin: l.PoolCoin, PoolPc: l.PoolPc}, true
	}
	return nil, false
}

// SwapInstruction swap_base_in / swap_base_out 及其 V2 版本，账户 1 为 AMM 池
type SwapInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     SwapArgs
	Log      *SwapLog
}

func (s *SwapInstruction) Variant() string { return s.Name }

func (s *SwapInstruction) Swaps() []common.SwapLeg {
	if s.Log == nil {
		return nil
	}
	return common.Leg(s.Log.AmountIn, s.Log.AmountOut)
}

func (s *SwapInstruction) Amm() types.Pubkey {
	if len(s.Accounts) < 2 {
		return types.Pubkey{}
	}
	return s.Accounts[1]
}

func parseSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	var args SwapArgs
	if err := common.DecodeFixed(v.Payload(node.Data), &args); err != nil {
		return nil, core.Corrupt(consts.RaydiumV4Program, v.Name, err)
	}
	out := &SwapInstruction{Name: v.Name, Accounts: common.CopyAccounts(node), Args: args}
	for _, data := range common.RayLogs(node) {
		if l, ok := DecodeRayLog(data); ok {
			out.Log = l
			break
		}
	}
	return out, nil
}
