package common

import (
	"context"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// ParsedInstruction 单个协议指令的解析结果。
// 具体类型由各协议包定义，携带指令静态字段与可选的关联事件。
type ParsedInstruction interface {
	// Variant 指令名称，如 "SwapBaseIn"
	Variant() string
	// Swaps 方向已归一化的兑换腿，没有关联事件时为空
	Swaps() []SwapLeg
}

// Decoder 每个程序一个实现。
// Parse 对不属于自己的节点返回 core.ErrNotMine，判别符匹配但结构解码失败返回 CorruptPayload，
// 有意抑制返回 FilteredError。实现必须是节点及其子树的纯函数，可并发调用。
type Decoder interface {
	Identity() types.Pubkey
	Name() string
	Parse(ctx context.Context, node *core.InstructionNode) (ParsedInstruction, error)
}

// CheckOwner 程序不一致时返回 ErrNotMine
func CheckOwner(d Decoder, node *core.InstructionNode) error {
	if node == nil || node.Program != d.Identity() {
		return core.ErrNotMine
	}
	return nil
}

// CopyAccounts 解析结果持有账户切片的独立副本
func CopyAccounts(node *core.InstructionNode) []types.Pubkey {
	return append([]types.Pubkey(nil), node.Accounts...)
}
