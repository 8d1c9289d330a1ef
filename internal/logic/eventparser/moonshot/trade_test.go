package moonshot

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

func tradeNode(disc uint64, event TradeEvent) *core.InstructionNode {
	node := eventtest.Node(consts.MoonshotProgram, eventtest.Ix(disc, TradeParams{
		TokenAmount:      event.Amount,
		CollateralAmount: event.CollateralAmount,
		FixedSide:        1,
		SlippageBps:      100,
	}))
	node.Logs = []string{"Program log: Instruction: Trade", eventtest.ProgramDataLog(TradeEventDisc, event)}
	return node
}

func TestParseBuy(t *testing.T) {
	node := tradeNode(Buy, TradeEvent{
		Amount:           6551568276092,
		CollateralAmount: 1965030,
		DexFee:           19650,
		Type:             TradeTypeBuy,
		Label:            "DEX Screener",
	})
	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	ix := parsed.(*TradeInstruction)
	assert.Equal(t, TradeTypeBuy, ix.Side)
	assert.Equal(t, uint8(1), ix.Params.FixedSide)
	require.NotNil(t, ix.Event)
	assert.Equal(t, "DEX Screener", ix.Event.Label)
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 1965030, DestinationAmount: 6551568276092}}, ix.Swaps())
}

func TestParseSell(t *testing.T) {
	node := tradeNode(Sell, TradeEvent{Amount: 5000, CollateralAmount: 30, Type: TradeTypeSell})
	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, "Sell", parsed.Variant())
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 5000, DestinationAmount: 30}}, parsed.Swaps())
}

func TestParseRejects(t *testing.T) {
	_, err := NewDecoder().Parse(context.Background(), eventtest.Node(consts.MoonshotProgram, eventtest.Ix(Buy, struct{ A, B uint64 }{1, 2})))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)
}
