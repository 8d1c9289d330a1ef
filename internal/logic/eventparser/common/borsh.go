package common

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/near/borsh-go"
)

// DecodeFixed 按 borsh 定长布局解码，data 不足时报错，多余字节忽略（新版本在尾部追加字段）
func DecodeFixed(data []byte, v any) error {
	if err := borsh.Deserialize(v, data); err != nil {
		return fmt.Errorf("borsh decode %T: %w", v, err)
	}
	return nil
}

// NewDecoder 用于含 Vec / 枚举等变长字段的载荷
func NewDecoder(data []byte) *bin.Decoder {
	return bin.NewBorshDecoder(data)
}

// ReadU64s 依次读取若干小端 u64
func ReadU64s(dec *bin.Decoder, out ...*uint64) error {
	for _, p := range out {
		v, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
