package pumpfunamm

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

// 新版本事件在前缀之后追加的字段
type buyEventWithCreator struct {
	BuyEvent
	CoinCreator [32]byte
	Extra       uint64
}

func TestDiscriminators(t *testing.T) {
	assert.Equal(t, BuyExactQuoteIn, common.AnchorDiscriminator("global", "buy_exact_quote_in"))
	assert.Equal(t, BuyEventDisc, common.AnchorDiscriminator("event", "BuyEvent"))
	assert.Equal(t, SellEventDisc, common.AnchorDiscriminator("event", "SellEvent"))
}

func TestParseBuy(t *testing.T) {
	node := eventtest.Node(consts.PumpFunAMMProgram, eventtest.Ix(Buy, SwapArgs{Amount0: 7426425826, Amount1: 8800000000000}),
		eventtest.Other(),
		eventtest.SelfCPIEvent(consts.PumpFunAMMProgram, BuyEventDisc, buyEventWithCreator{
			BuyEvent: BuyEvent{
				Timestamp:        1745000000,
				BaseAmountOut:    7426425826,
				MaxQuoteAmountIn: 8800000000000,
				QuoteAmountIn:    8783039791744,
			},
		}),
	)

	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	ix := parsed.(*BuyInstruction)
	assert.Equal(t, "Buy", ix.Variant())
	require.NotNil(t, ix.Event)
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 8783039791744, DestinationAmount: 7426425826}}, ix.Swaps())
}

func TestParseSell(t *testing.T) {
	node := eventtest.Node(consts.PumpFunAMMProgram, eventtest.Ix(Sell, SwapArgs{Amount0: 7621520530, Amount1: 1}),
		eventtest.SelfCPIEvent(consts.PumpFunAMMProgram, SellEventDisc, SellEvent{
			BaseAmountIn:   7621520530,
			QuoteAmountOut: 9016142101046,
		}),
	)

	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, "Sell", parsed.Variant())
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 7621520530, DestinationAmount: 9016142101046}}, parsed.Swaps())
}

func TestParseBuyExactQuoteInBothVersions(t *testing.T) {
	event := BuyEvent{QuoteAmountIn: 247500000, BaseAmountOut: 165156835142}
	onChain := eventtest.Ix(BuyExactQuoteIn, SwapArgs{Amount0: 247500000, Amount1: 160000000000})
	withTrackVolume := append(append([]byte(nil), onChain...), 0)

	for name, data := range map[string][]byte{"24 bytes": onChain, "25 bytes": withTrackVolume} {
		t.Run(name, func(t *testing.T) {
			// 事件嵌套在更深的调用中
			node := eventtest.Node(consts.PumpFunAMMProgram, data,
				eventtest.Other(eventtest.Other(eventtest.SelfCPIEvent(consts.PumpFunAMMProgram, BuyEventDisc, event))),
			)
			parsed, err := NewDecoder().Parse(context.Background(), node)
			require.NoError(t, err)
			assert.Equal(t, "BuyExactQuoteIn", parsed.Variant())
			assert.Equal(t, []common.SwapLeg{{SourceAmount: 247500000, DestinationAmount: 165156835142}}, parsed.Swaps())
		})
	}
}

func TestParseBuyIgnoresSellEvent(t *testing.T) {
	node := eventtest.Node(consts.PumpFunAMMProgram, eventtest.Ix(Buy, SwapArgs{}),
		eventtest.SelfCPIEvent(consts.PumpFunAMMProgram, SellEventDisc, SellEvent{BaseAmountIn: 1}),
	)
	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	assert.Nil(t, parsed.(*BuyInstruction).Event)
}

func TestParseRejects(t *testing.T) {
	_, err := NewDecoder().Parse(context.Background(), eventtest.Node(consts.PumpFunAMMProgram, append(eventtest.Ix(Sell, SwapArgs{}), 0)))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)

	_, err = NewDecoder().Parse(context.Background(), eventtest.Node(consts.PumpFunProgram, eventtest.Ix(Sell, SwapArgs{})))
	assert.ErrorIs(t, err, core.ErrNotMine)
}
