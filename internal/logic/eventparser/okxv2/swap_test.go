package okxv2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/logic/eventparser/eventtest"
	"dex-cpi-indexer-sol/internal/types"
)

var program = consts.OKXDexRouterV2Program

func swapData(disc uint64, args SwapArgs, trailing ...byte) []byte {
	return append(eventtest.Ix(disc, args), trailing...)
}

func simpleArgs(amountIn uint64) SwapArgs {
	return SwapArgs{
		AmountIn:        amountIn,
		ExpectAmountOut: 1,
		MinReturn:       1,
		Amounts:         []uint64{amountIn},
		Routes:          [][]Route{{{Dexes: []uint8{3}, Weights: []uint8{100}}}},
	}
}

func cpiEvent(src, dst uint64) *core.InstructionNode {
	return eventtest.SelfCPIEvent(program, SwapCpiEventDisc, SwapCpiEvent{SourceTokenChange: src, DestinationTokenChange: dst})
}

func parse(t *testing.T, node *core.InstructionNode) *SwapInstruction {
	t.Helper()
	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	return parsed.(*SwapInstruction)
}

func TestParseSwapLogFallback(t *testing.T) {
	node := eventtest.Node(program, swapData(Swap, simpleArgs(2000500000), 1, 0, 0, 0, 0, 0, 0, 0), eventtest.Other())
	node.Logs = []string{
		"Program log: Instruction: Swap",
		"Program log: before_source_balance: 2000500000, before_destination_balance: 0",
		"Program log: source_token_change: 2000500000, destination_token_change: 295045121",
	}

	ix := parse(t, node)
	assert.Equal(t, "Swap", ix.Variant())
	assert.True(t, ix.FromLog)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, ix.Trailing)
	assert.Equal(t, []uint64{2000500000}, ix.Args.Amounts)
	assert.Equal(t, []uint8{3}, ix.Args.Routes[0][0].Dexes)
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 2000500000, DestinationAmount: 295045121}}, ix.Swaps())
}

// 顶层第 6 条指令，第 2 个子节点为事件；金额取自事件而不是指令参数
func TestParseSwapTobWithReceiverChildEvent(t *testing.T) {
	roots := make([]*core.InstructionNode, 0, 7)
	for i := 0; i < 6; i++ {
		roots = append(roots, eventtest.Other())
	}
	okx := eventtest.Node(program, swapData(SwapTobWithReceiver, simpleArgs(1)),
		eventtest.Other(),
		eventtest.Other(),
		cpiEvent(4675790000, 115187775),
	)
	tx := eventtest.Tx(append(roots, okx)...)

	node := tx.Locate(6)
	require.NotNil(t, node)
	require.NotNil(t, tx.Locate(6, 2))
	ix := parse(t, node)
	assert.False(t, ix.FromLog)
	assert.Equal(t, uint64(1), ix.Args.AmountIn)
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 4675790000, DestinationAmount: 115187775, Origin: 2}}, ix.Swaps())
}

func TestParseSwapTobWithReceiverUnderAggregator(t *testing.T) {
	okx := eventtest.Node(program, swapData(SwapTobWithReceiver, simpleArgs(4675790000)),
		eventtest.Other(eventtest.Other()),
		eventtest.Other(),
		cpiEvent(4675790000, 115187775),
	)
	root := eventtest.Node(types.Pubkey{0x44}, []byte{1}, eventtest.Other(), eventtest.Other(), okx)
	tx := eventtest.Tx(eventtest.Other(), eventtest.Other(), eventtest.Other(), root)

	node := tx.Locate(3, 2)
	require.NotNil(t, node)
	ix := parse(t, node)
	assert.False(t, ix.FromLog)
	// 事件前有一个带子节点的兄弟，先序位置为 3
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 4675790000, DestinationAmount: 115187775, Origin: 3}}, ix.Swaps())
}

func TestParseVariants(t *testing.T) {
	cases := []struct {
		name string
		disc uint64
		src  uint64
		dst  uint64
	}{
		{"ProxySwap", ProxySwap, 5, 6},
		{"SwapTob", SwapTob, 10000000, 14918710783},
		{"SwapTobEnhanced", SwapTobEnhanced, 1000000, 5699503},
		{"SwapTobV2", SwapTobV2, 7, 8},
		{"SwapToc", SwapToc, 1191877137296814, 7968827164},
		{"SwapTocV2", SwapTocV2, 1986400000, 224645346850},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node := eventtest.Node(program, swapData(tc.disc, simpleArgs(tc.src), 0, 0, 9), eventtest.Other(cpiEvent(tc.src, tc.dst)))
			ix := parse(t, node)
			assert.Equal(t, tc.name, ix.Variant())
			assert.Equal(t, []byte{0, 0, 9}, ix.Trailing)
			require.Len(t, ix.Swaps(), 1)
			assert.Equal(t, tc.src, ix.Swaps()[0].SourceAmount)
			assert.Equal(t, tc.dst, ix.Swaps()[0].DestinationAmount)
		})
	}
}

func TestParseSwapCpiEventPreferredOverLog(t *testing.T) {
	node := eventtest.Node(program, swapData(Swap, simpleArgs(1)), cpiEvent(1, 2))
	node.Logs = []string{"Program log: source_token_change: 100, destination_token_change: 200"}
	ix := parse(t, node)
	assert.False(t, ix.FromLog)
	assert.Equal(t, uint64(2), ix.Event.DestinationTokenChange)
}

func TestParseSwapNoEvent(t *testing.T) {
	ix := parse(t, eventtest.Node(program, swapData(Swap, simpleArgs(1))))
	assert.Nil(t, ix.Event)
	assert.Empty(t, ix.Swaps())
}

func TestParseCorruptArgs(t *testing.T) {
	data := eventtest.Ix(Swap, struct {
		A, B, C uint64
		N       uint32
	}{1, 2, 3, 1000})
	data = append(data, 0, 0, 0, 0)
	_, err := NewDecoder().Parse(context.Background(), eventtest.Node(program, data))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)

	_, err = NewDecoder().Parse(context.Background(), eventtest.Node(program, eventtest.Tag(SwapTob)))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)
}

func TestParseTokenChangeLog(t *testing.T) {
	src, dst, ok := parseTokenChangeLog("source_token_change: 12, destination_token_change: 34")
	require.True(t, ok)
	assert.Equal(t, uint64(12), src)
	assert.Equal(t, uint64(34), dst)

	for _, line := range []string{
		"source_token_change: 12",
		"source_token_change: x, destination_token_change: 34",
		"destination_token_change: 34",
		"source_token_change: 1, other: 2",
	} {
		_, _, ok := parseTokenChangeLog(line)
		assert.False(t, ok, line)
	}
}
