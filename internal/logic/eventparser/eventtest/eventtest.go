// Package eventtest 构造解析器测试用的指令节点与事件载荷
package eventtest

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/near/borsh-go"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

var eventWrapper = []byte{0xe4, 0x45, 0xa5, 0x2e, 0x51, 0xcb, 0x9a, 0x1d}

// Borsh 序列化失败直接 panic，仅用于测试
func Borsh(v any) []byte {
	b, err := borsh.Serialize(v)
	if err != nil {
		panic(err)
	}
	return b
}

func Tag(disc uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, disc)
	return b
}

// Ix 判别符 + borsh 参数
func Ix(disc uint64, args any) []byte {
	return append(Tag(disc), Borsh(args)...)
}

// Node 构造节点并把 children 挂上，补齐 ParentProgram / IxIndex / StackHeight
func Node(program types.Pubkey, data []byte, children ...*core.InstructionNode) *core.InstructionNode {
	n := &core.InstructionNode{
		Program:     program,
		Data:        data,
		Accounts:    make([]types.Pubkey, 16),
		StackHeight: 1,
	}
	for _, c := range children {
		Attach(n, c)
	}
	return n
}

// Attach 把 child 追加为 parent 的最后一个子节点
func Attach(parent, child *core.InstructionNode) {
	p := parent.Program
	child.ParentProgram = &p
	child.IxIndex = len(parent.Inner)
	relevel(child, parent.StackHeight+1)
	parent.Inner = append(parent.Inner, child)
}

func relevel(n *core.InstructionNode, h int) {
	n.StackHeight = h
	for _, c := range n.Inner {
		relevel(c, h+1)
	}
}

// SelfCPIEvent 构造 emit_cpi! 事件节点
func SelfCPIEvent(program types.Pubkey, disc uint64, fields any) *core.InstructionNode {
	data := append(append([]byte(nil), eventWrapper...), Tag(disc)...)
	data = append(data, Borsh(fields)...)
	return Node(program, data)
}

// Other 一个与被测程序无关的节点
func Other(children ...*core.InstructionNode) *core.InstructionNode {
	return Node(types.Pubkey{0xee}, []byte{3, 1, 0, 0, 0, 0, 0, 0, 0}, children...)
}

// ProgramDataLog emit! 事件日志行
func ProgramDataLog(disc uint64, fields any) string {
	return "Program data: " + base64.StdEncoding.EncodeToString(append(Tag(disc), Borsh(fields)...))
}

// RayLog Raydium AMM v4 ray_log 日志行
func RayLog(fields any) string {
	return "Program log: ray_log: " + base64.StdEncoding.EncodeToString(Borsh(fields))
}

// Tx 把若干根节点包装为交易
func Tx(roots ...*core.InstructionNode) *core.Transaction {
	for i, r := range roots {
		r.IxIndex = i
	}
	return &core.Transaction{Roots: roots}
}
