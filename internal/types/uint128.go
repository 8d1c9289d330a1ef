package types

import (
	"math/big"
)

// Uint128 按 borsh 小端布局存储的 u128（先低 64 位，后高 64 位）。
// 用于 sqrt_price、liquidity 等字段，金额字段一律为 u64。
type Uint128 struct {
	Lo uint64
	Hi uint64
}

func (u Uint128) BigInt() *big.Int {
	hi := new(big.Int).SetUint64(u.Hi)
	hi.Lsh(hi, 64)
	return hi.Or(hi, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	return u.BigInt().String()
}
