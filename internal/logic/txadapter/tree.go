package txadapter

import (
	"fmt"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// BuildInstructionTree 将扁平交易记录重建为 CPI 调用树。
//
// 每个 inner 分组从其主指令开始一次新的栈搜索；栈中第 i 个元素对应调用栈高度 i+1。
// 高度为 h 的 inner 指令挂到高度 h-1 的当前节点下，高度回落时出栈。
// 高度跳跃超过一层时挂到当前最深节点。缺失高度时先尝试由日志恢复，否则视为主指令的直接子调用。
//
// 任何下标越界都会返回 MalformedTransaction，不返回部分构建的树。
func BuildInstructionTree(rec *core.TxRecord) (*core.Transaction, error) {
	if rec == nil {
		return nil, core.Malformedf("nil transaction record")
	}

	roots := make([]*core.InstructionNode, len(rec.Instructions))
	for i := range rec.Instructions {
		node, err := newNode(rec.AccountKeys, &rec.Instructions[i])
		if err != nil {
			return nil, core.Malformedf("instruction %d: %v", i, err)
		}
		node.IxIndex = i
		node.StackHeight = 1
		roots[i] = node
	}

	heights := resolveStackHeights(rec)

	stack := make([]*core.InstructionNode, 0, 8)
	for g := range rec.InnerGroups {
		group := &rec.InnerGroups[g]
		if group.Index < 0 || group.Index >= len(roots) {
			return nil, core.Malformedf("inner group %d references instruction %d, have %d", g, group.Index, len(roots))
		}

		stack = append(stack[:0], roots[group.Index])
		for j := range group.Instructions {
			inner := &group.Instructions[j]
			node, err := newNode(rec.AccountKeys, &inner.CompiledInstruction)
			if err != nil {
				return nil, core.Malformedf("inner instruction %d.%d: %v", group.Index, j, err)
			}

			h := heights[g][j]
			if h < 2 {
				h = 2
			}
			for len(stack) > h-1 {
				stack = stack[:len(stack)-1]
			}

			parent := stack[len(stack)-1]
			parentProgram := parent.Program
			node.ParentProgram = &parentProgram
			node.IxIndex = len(parent.Inner)
			node.StackHeight = len(stack) + 1
			parent.Inner = append(parent.Inner, node)
			stack = append(stack, node)
		}
	}

	tx := &core.Transaction{
		Ctx:       rec.Ctx,
		TxIndex:   rec.TxIndex,
		Signature: rec.Signature,
		Roots:     roots,
	}
	AttributeLogs(tx, rec.LogMessages)
	return tx, nil
}

func newNode(keys []types.Pubkey, ix *core.CompiledInstruction) (*core.InstructionNode, error) {
	if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(keys) {
		return nil, errIndex("program", ix.ProgramIDIndex, len(keys))
	}
	accounts := make([]types.Pubkey, len(ix.Accounts))
	for k, idx := range ix.Accounts {
		if idx < 0 || idx >= len(keys) {
			return nil, errIndex("account", idx, len(keys))
		}
		accounts[k] = keys[idx]
	}
	return &core.InstructionNode{
		Program:  keys[ix.ProgramIDIndex],
		Data:     ix.Data,
		Accounts: accounts,
	}, nil
}

// resolveStackHeights 返回每条 inner 指令的调用栈高度，0 表示未知
func resolveStackHeights(rec *core.TxRecord) [][]int {
	heights := make([][]int, len(rec.InnerGroups))
	missing := false
	for g, group := range rec.InnerGroups {
		heights[g] = make([]int, len(group.Instructions))
		for j, inner := range group.Instructions {
			heights[g][j] = int(inner.StackHeight)
			if inner.StackHeight == 0 {
				missing = true
			}
		}
	}
	if !missing {
		return heights
	}

	recovered := recoverHeightsFromLogs(rec)
	if recovered == nil {
		return heights
	}
	for g := range heights {
		for j := range heights[g] {
			if heights[g][j] == 0 {
				heights[g][j] = recovered[g][j]
			}
		}
	}
	return heights
}

func errIndex(kind string, idx, size int) error {
	return fmt.Errorf("%s index %d out of range [0,%d)", kind, idx, size)
}
