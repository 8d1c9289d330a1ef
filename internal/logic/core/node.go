package core

import (
	"dex-cpi-indexer-sol/internal/types"
)

// InstructionNode 表示一次链上调用（主指令或 CPI）。
// 子节点由父节点独占持有，Inner 顺序即链上调用顺序，构建完成后只读。
type InstructionNode struct {
	Program  types.Pubkey
	Data     []byte
	Accounts []types.Pubkey

	// ParentProgram 调用方程序，主指令为 nil。仅作标记，不是结构指针。
	ParentProgram *types.Pubkey

	IxIndex     int // 在兄弟节点中的位置
	StackHeight int // 主指令为 1

	// Logs 本节点作为最内层执行帧期间输出的日志（不含 invoke/success 边界行）
	Logs []string

	Inner []*InstructionNode
}

func (n *InstructionNode) IsTopLevel() bool {
	return n.ParentProgram == nil
}

// InvokedBy 判断直接调用方是否为 program
func (n *InstructionNode) InvokedBy(program types.Pubkey) bool {
	return n.ParentProgram != nil && *n.ParentProgram == program
}

// Child 按路径逐层定位子节点，路径越界返回 nil
func (n *InstructionNode) Child(path ...int) *InstructionNode {
	cur := n
	for _, idx := range path {
		if idx < 0 || idx >= len(cur.Inner) {
			return nil
		}
		cur = cur.Inner[idx]
	}
	return cur
}

// Transaction 是一笔交易重建后的指令树
type Transaction struct {
	Ctx       *TxContext
	TxIndex   uint32
	Signature types.Signature
	Roots     []*InstructionNode
}

func (tx *Transaction) Slot() uint64 {
	if tx.Ctx == nil {
		return 0
	}
	return tx.Ctx.Slot
}

// Locate 按 [主指令下标, inner 下标...] 定位节点
func (tx *Transaction) Locate(path ...int) *InstructionNode {
	if len(path) == 0 || path[0] < 0 || path[0] >= len(tx.Roots) {
		return nil
	}
	return tx.Roots[path[0]].Child(path[1:]...)
}

// Walk 先序遍历整棵树（根、再依次完整遍历每个子树）。
// fn 返回 false 时立即停止，Walk 返回 false。path 在回调之间复用，需要保留时请拷贝。
func (tx *Transaction) Walk(fn func(path []int, node *InstructionNode) bool) bool {
	path := make([]int, 0, 8)
	for i, root := range tx.Roots {
		if !walk(append(path, i), root, fn) {
			return false
		}
	}
	return true
}

func walk(path []int, node *InstructionNode, fn func([]int, *InstructionNode) bool) bool {
	if !fn(path, node) {
		return false
	}
	for i, child := range node.Inner {
		if !walk(append(path, i), child, fn) {
			return false
		}
	}
	return true
}

// Flatten 返回先序遍历序列
func (tx *Transaction) Flatten() []*InstructionNode {
	var out []*InstructionNode
	tx.Walk(func(_ []int, node *InstructionNode) bool {
		out = append(out, node)
		return true
	})
	return out
}
