package okxv2

import (
	"fmt"
	"strconv"
	"strings"

	bin "github.com/gagliardetto/binary"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/pkg/logger"
	"dex-cpi-indexer-sol/internal/types"
)

// Route 一段拆单路径，Dexes 为 OKX 内部的 DEX 枚举编号
type Route struct {
	Dexes   []uint8
	Weights []uint8
}

type SwapArgs struct {
	AmountIn        uint64
	ExpectAmountOut uint64
	MinReturn       uint64
	Amounts         []uint64
	Routes          [][]Route
}

// SwapCpiEvent 由 router 自调用发出
type SwapCpiEvent struct {
	Sender                 types.Pubkey
	SourceMint             types.Pubkey
	DestinationMint        types.Pubkey
	SourceTokenChange      uint64
	DestinationTokenChange uint64
	OrderID                uint64
}

// SwapInstruction Trailing 为 SwapArgs 之后的变体专有参数（order_id、佣金等），原样保留。
// Event 来自自调用事件，缺失时回退到程序日志中的 token_change 行，此时 FromLog 为 true。
type SwapInstruction struct {
	Name     string
	Accounts []types.Pubkey
	Args     SwapArgs
	Trailing []byte
	Event    *SwapCpiEvent
	FromLog  bool
	origin   int
}

func (s *SwapInstruction) Variant() string { return s.Name }

func (s *SwapInstruction) Swaps() []common.SwapLeg {
	if s.Event == nil {
		return nil
	}
	return []common.SwapLeg{{SourceAmount: s.Event.SourceTokenChange, DestinationAmount: s.Event.DestinationTokenChange, Origin: s.origin}}
}

func readLength(dec *bin.Decoder, elemSize int) (int, error) {
	n, err := dec.ReadLength()
	if err != nil {
		return 0, err
	}
	if n*elemSize > dec.Remaining() {
		return 0, fmt.Errorf("vec length %d exceeds payload", n)
	}
	return n, nil
}

func readBytes(dec *bin.Decoder) ([]uint8, error) {
	n, err := readLength(dec, 1)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, n)
	for i := range out {
		if out[i], err = dec.ReadUint8(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeArgs 返回 SwapArgs 及其后剩余的字节
func decodeArgs(payload []byte) (SwapArgs, []byte, error) {
	var args SwapArgs
	dec := common.NewDecoder(payload)
	if err := common.ReadU64s(dec, &args.AmountIn, &args.ExpectAmountOut, &args.MinReturn); err != nil {
		return args, nil, err
	}

	n, err := readLength(dec, 8)
	if err != nil {
		return args, nil, err
	}
	args.Amounts = make([]uint64, n)
	for i := range args.Amounts {
		if args.Amounts[i], err = dec.ReadUint64(bin.LE); err != nil {
			return args, nil, err
		}
	}

	// 每段至少含两个 Vec 长度前缀
	if n, err = readLength(dec, 4); err != nil {
		return args, nil, err
	}
	args.Routes = make([][]Route, n)
	for i := range args.Routes {
		m, err := readLength(dec, 8)
		if err != nil {
			return args, nil, err
		}
		routes := make([]Route, m)
		for j := range routes {
			if routes[j].Dexes, err = readBytes(dec); err != nil {
				return args, nil, err
			}
			if routes[j].Weights, err = readBytes(dec); err != nil {
				return args, nil, err
			}
		}
		args.Routes[i] = routes
	}
	return args, payload[len(payload)-dec.Remaining():], nil
}

const (
	sourceChangeKey      = "source_token_change: "
	destinationChangeKey = "destination_token_change: "
)

// parseTokenChangeLog 解析 "source_token_change: X, destination_token_change: Y"
func parseTokenChangeLog(line string) (src, dst uint64, ok bool) {
	rest, found := strings.CutPrefix(line, sourceChangeKey)
	if !found {
		return 0, 0, false
	}
	srcStr, dstPart, found := strings.Cut(rest, ",")
	if !found {
		return 0, 0, false
	}
	dstStr, found := strings.CutPrefix(strings.TrimSpace(dstPart), destinationChangeKey)
	if !found {
		return 0, 0, false
	}
	src, err := strconv.ParseUint(strings.TrimSpace(srcStr), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	dst, err = strconv.ParseUint(strings.TrimSpace(dstStr), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return src, dst, true
}

// tokenChangeFromLogs 取节点自身日志中最后一条 token_change 行
func tokenChangeFromLogs(node *core.InstructionNode) (*SwapCpiEvent, bool) {
	logs := common.ProgramLogs(node)
	for i := len(logs) - 1; i >= 0; i-- {
		if src, dst, ok := parseTokenChangeLog(logs[i]); ok {
			return &SwapCpiEvent{SourceTokenChange: src, DestinationTokenChange: dst}, true
		}
	}
	return nil, false
}

func parseSwap(v *common.Variant, node *core.InstructionNode) (common.ParsedInstruction, error) {
	args, trailing, err := decodeArgs(v.Payload(node.Data))
	if err != nil {
		return nil, core.Corrupt(consts.OKXDexRouterV2Program, v.Name, err)
	}
	out := &SwapInstruction{
		Name:     v.Name,
		Accounts: common.CopyAccounts(node),
		Args:     args,
		Trailing: append([]byte(nil), trailing...),
	}

	if m, ok := common.FindSelfCPIEvent(node, SwapCpiEventDisc); ok {
		var e SwapCpiEvent
		if err := common.DecodeFixed(m.Payload, &e); err != nil {
			logger.Warnf("[OKX:parseSwap] SwapCpiEvent 解码失败，尝试日志回退: origin=%d, err=%v", m.Origin, err)
		} else {
			out.Event = &e
			out.origin = m.Origin
			return out, nil
		}
	}
	if e, ok := tokenChangeFromLogs(node); ok {
		out.Event = e
		out.FromLog = true
	}
	return out, nil
}
