package meteorapools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/logic/eventparser/eventtest"
)

func TestParseSwap(t *testing.T) {
	node := eventtest.Node(consts.MeteoraPoolsProgram, eventtest.Ix(Swap, SwapArgs{InAmount: 455036072, MinimumOutAmount: 124000000000}))
	node.Logs = []string{
		"Program log: Instruction: Swap",
		eventtest.ProgramDataLog(SwapEventDisc, SwapEvent{InAmount: 455036072, OutAmount: 124965910713, TradeFee: 1137590}),
	}

	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	ix := parsed.(*SwapInstruction)
	assert.Equal(t, uint64(124000000000), ix.Args.MinimumOutAmount)
	require.NotNil(t, ix.Event)
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 455036072, DestinationAmount: 124965910713}}, ix.Swaps())
}

func TestParseSwapEventInChildIsNotUsed(t *testing.T) {
	child := eventtest.Node(consts.MeteoraPoolsProgram, nil)
	child.Logs = []string{eventtest.ProgramDataLog(SwapEventDisc, SwapEvent{InAmount: 1, OutAmount: 2})}
	node := eventtest.Node(consts.MeteoraPoolsProgram, eventtest.Ix(Swap, SwapArgs{}), child)

	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	assert.Nil(t, parsed.(*SwapInstruction).Event)
}

func TestParseRejects(t *testing.T) {
	_, err := NewDecoder().Parse(context.Background(), eventtest.Node(consts.MeteoraPoolsProgram, eventtest.Tag(Swap)))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)
}
