package common

// SwapLeg 一次兑换：SourceAmount 为交易者付出的数量，DestinationAmount 为收到的数量，均为最小单位
type SwapLeg struct {
	SourceAmount      uint64
	DestinationAmount uint64
	Origin            int
}

// Directed 按方向标志把 (amount0, amount1) 解析为 source/destination
func Directed(forward bool, amount0, amount1 uint64) (source, destination uint64) {
	if forward {
		return amount0, amount1
	}
	return amount1, amount0
}

func Leg(source, destination uint64) []SwapLeg {
	return []SwapLeg{{SourceAmount: source, DestinationAmount: destination}}
}
