package common

import (
	"bytes"

	"dex-cpi-indexer-sol/internal/logic/core"
)

// EventWrapper Anchor emit_cpi! 自调用事件指令的固定前缀，其后紧跟 8 字节事件判别符
const EventWrapper uint64 = 0xe445a52e51cb9a1d

var EventWrapperTag = Tag8(EventWrapper)

// EventMatch 一次命中的自调用事件
type EventMatch struct {
	Disc    uint64
	Payload []byte // 去掉包装前缀与事件判别符之后的字段
	Origin  int    // 事件节点在 parent 子树中的先序位置（从 0 开始），即内部指令扁平列表中的偏移
	Node    *core.InstructionNode
}

// selfCPIEvent 判断 node 是否为 parent 程序发出的、判别符在 discs 中的事件
func selfCPIEvent(parent, node *core.InstructionNode, discs []uint64) (EventMatch, bool) {
	if node.Program != parent.Program || !bytes.HasPrefix(node.Data, EventWrapperTag) {
		return EventMatch{}, false
	}
	disc, ok := Disc8(node.Data[len(EventWrapperTag):])
	if !ok {
		return EventMatch{}, false
	}
	for _, d := range discs {
		if d == disc {
			return EventMatch{
				Disc:    disc,
				Payload: node.Data[len(EventWrapperTag)+8:],
				Node:    node,
			}, true
		}
	}
	return EventMatch{}, false
}

// FindSelfCPIEvent 在 parent 的后代中按先序查找第一个自调用事件，与嵌套深度无关。
// 判别符不匹配的自调用节点直接跳过；同一程序的嵌套调用连同其子树一并跳过，其事件归嵌套调用自己。
func FindSelfCPIEvent(parent *core.InstructionNode, discs ...uint64) (EventMatch, bool) {
	var found EventMatch
	var ok bool
	walkOwnDescendants(parent, func(n *core.InstructionNode, pos int) bool {
		if found, ok = selfCPIEvent(parent, n, discs); ok {
			found.Origin = pos
		}
		return !ok
	})
	return found, ok
}

// FindSelfCPIEvents 返回 parent 自身发出的全部自调用事件，顺序即发出顺序
func FindSelfCPIEvents(parent *core.InstructionNode, discs ...uint64) []EventMatch {
	var out []EventMatch
	walkOwnDescendants(parent, func(n *core.InstructionNode, pos int) bool {
		if m, ok := selfCPIEvent(parent, n, discs); ok {
			m.Origin = pos
			out = append(out, m)
		}
		return true
	})
	return out
}

// FindChildSelfCPIEvent 只检查直接子节点
func FindChildSelfCPIEvent(parent *core.InstructionNode, discs ...uint64) (EventMatch, bool) {
	pos := 0
	for _, child := range parent.Inner {
		if m, ok := selfCPIEvent(parent, child, discs); ok {
			m.Origin = pos
			return m, true
		}
		pos += subtreeSize(child)
	}
	return EventMatch{}, false
}

// walkOwnDescendants 先序遍历 parent 的后代，pos 为节点在 parent 子树中的先序位置。
// 与 parent 同程序、且不是事件包装的节点是嵌套调用，不回调也不进入，但仍占用位置。
func walkOwnDescendants(parent *core.InstructionNode, fn func(n *core.InstructionNode, pos int) bool) {
	pos := 0
	var walk func(node *core.InstructionNode) bool
	walk = func(node *core.InstructionNode) bool {
		for _, child := range node.Inner {
			if child.Program == parent.Program && !bytes.HasPrefix(child.Data, EventWrapperTag) {
				pos += subtreeSize(child)
				continue
			}
			if !fn(child, pos) {
				return false
			}
			pos++
			if !walk(child) {
				return false
			}
		}
		return true
	}
	walk(parent)
}

func subtreeSize(node *core.InstructionNode) int {
	n := 1
	for _, child := range node.Inner {
		n += subtreeSize(child)
	}
	return n
}
