package core

import (
	"dex-cpi-indexer-sol/internal/types"
)

// TxContext 表示交易所属区块的上下文信息
type TxContext struct {
	Slot       uint64     // 当前 Slot
	ParentSlot uint64     // 父 Slot（用于分叉检测）
	BlockTime  int64      // 区块时间戳（Unix 秒），未知为 0
	BlockHash  types.Hash // 区块哈希，解析失败时为零值
}

// CompiledInstruction 表示编译后的指令：程序与账户都以 AccountKeys 下标引用
type CompiledInstruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           []byte
}

// InnerInstruction 表示一条 CPI 产生的 inner 指令。
// StackHeight 为调用栈高度（主指令为 1，其直接 CPI 为 2），数据源未提供时为 0。
type InnerInstruction struct {
	CompiledInstruction
	StackHeight uint32
}

// InnerGroup 表示某条主指令产生的全部 inner 指令，按执行顺序排列
type InnerGroup struct {
	Index        int // 所属主指令下标
	Instructions []InnerInstruction
}

// TxRecord 是上游数据源（gRPC / RPC）转换后的扁平交易记录，也是指令树构建的唯一输入。
type TxRecord struct {
	Ctx       *TxContext
	TxIndex   uint32
	Signature types.Signature

	// AccountKeys = message.accountKeys + ALT writable + ALT readonly
	AccountKeys  []types.Pubkey
	Instructions []CompiledInstruction
	InnerGroups  []InnerGroup
	LogMessages  []string
}

func (r *TxRecord) Slot() uint64 {
	if r.Ctx == nil {
		return 0
	}
	return r.Ctx.Slot
}
