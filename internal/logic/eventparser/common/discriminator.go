package common

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// Variable 表示变长载荷，此时用 MinLen 做下限校验
var Variable []int

// Variant 判别符表中的一项。Lengths 为允许的完整载荷长度（含判别符），
// 多个长度对应同一指令的多个链上版本。
type Variant struct {
	Kind    int
	Name    string
	Tag     []byte
	Lengths []int
	MinLen  int
}

func (v *Variant) accepts(n int) bool {
	if v.Lengths == nil {
		return n >= v.MinLen
	}
	for _, l := range v.Lengths {
		if l == n {
			return true
		}
	}
	return false
}

// Payload 去掉判别符后的参数部分
func (v *Variant) Payload(data []byte) []byte {
	return data[len(v.Tag):]
}

// Table 协议固定的判别符表，进程内只读
type Table struct {
	Program  types.Pubkey
	Variants []Variant
}

// Match 返回第一个前缀匹配的 Variant。
// 无匹配返回 core.ErrNotMine；前缀匹配但长度不在版本表内返回 CorruptPayload。
func (t *Table) Match(data []byte) (*Variant, error) {
	for i := range t.Variants {
		v := &t.Variants[i]
		if !bytes.HasPrefix(data, v.Tag) {
			continue
		}
		if !v.accepts(len(data)) {
			return v, core.Corruptf(t.Program, v.Name, "unexpected payload length %d", len(data))
		}
		return v, nil
	}
	return nil, core.ErrNotMine
}

// Tag8 把大端 uint64 常量还原为 8 字节判别符
func Tag8(d uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, d)
	return b
}

// Disc8 读取前 8 字节判别符（大端），不足 8 字节返回 false
func Disc8(data []byte) (uint64, bool) {
	if len(data) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(data[:8]), true
}

// AnchorDiscriminator sha256("<namespace>:<name>")[:8]，namespace 为 global（指令）或 event（事件）
func AnchorDiscriminator(namespace, name string) uint64 {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	return binary.BigEndian.Uint64(sum[:8])
}
