package meteoradlmm

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/logic/eventparser/eventtest"
)

var swapEvent = SwapEvent{
	StartBinID: -4410,
	EndBinID:   -4408,
	AmountIn:   116033029,
	AmountOut:  521092597,
	SwapForY:   true,
	Fee:        116033,
}

func TestDiscriminators(t *testing.T) {
	assert.Equal(t, SwapExactOut, common.AnchorDiscriminator("global", "swap_exact_out"))
	assert.Equal(t, SwapWithPriceImpact, common.AnchorDiscriminator("global", "swap_with_price_impact"))
	assert.Equal(t, Swap2, common.AnchorDiscriminator("global", "swap2"))
	assert.Equal(t, SwapExactOut2, common.AnchorDiscriminator("global", "swap_exact_out2"))
	assert.Equal(t, SwapWithPriceImpact2, common.AnchorDiscriminator("global", "swap_with_price_impact2"))
	assert.Equal(t, SwapEventDisc, common.AnchorDiscriminator("event", "Swap"))
}

func TestParseSwap(t *testing.T) {
	node := eventtest.Node(consts.MeteoraDLMMProgram, eventtest.Ix(Swap, struct{ AmountIn, MinOut uint64 }{116033029, 500000000}),
		eventtest.SelfCPIEvent(consts.MeteoraDLMMProgram, SwapEventDisc, swapEvent),
	)
	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	ix := parsed.(*SwapInstruction)
	assert.Equal(t, uint64(500000000), ix.Args.Amount1)
	require.NotNil(t, ix.Event)
	assert.Equal(t, int32(-4410), ix.Event.StartBinID)
	assert.Equal(t, []common.SwapLeg{{SourceAmount: 116033029, DestinationAmount: 521092597}}, ix.Swaps())
}

func TestParseSwap2(t *testing.T) {
	args := struct {
		AmountIn uint64
		MinOut   uint64
		Slices   []RemainingAccountsSlice
	}{116033029, 500000000, []RemainingAccountsSlice{{AccountsType: 0, Length: 1}, {AccountsType: 1, Length: 2}}}

	node := eventtest.Node(consts.MeteoraDLMMProgram, eventtest.Ix(Swap2, args),
		eventtest.Other(),
		eventtest.SelfCPIEvent(consts.MeteoraDLMMProgram, SwapEventDisc, swapEvent),
	)
	parsed, err := NewDecoder().Parse(context.Background(), node)
	require.NoError(t, err)
	ix := parsed.(*SwapInstruction)
	assert.Equal(t, "Swap2", ix.Variant())
	assert.Equal(t, args.Slices, ix.Args.RemainingAccounts)
	assert.Len(t, ix.Swaps(), 1)
}

func TestParseSwapWithPriceImpact(t *testing.T) {
	withID := eventtest.Tag(SwapWithPriceImpact)
	withID = binary.LittleEndian.AppendUint64(withID, 1000)
	withID = append(withID, 1)
	withID = binary.LittleEndian.AppendUint32(withID, uint32(0xffffffff)) // -1
	withID = binary.LittleEndian.AppendUint16(withID, 50)

	parsed, err := NewDecoder().Parse(context.Background(), eventtest.Node(consts.MeteoraDLMMProgram, withID))
	require.NoError(t, err)
	args := parsed.(*SwapInstruction).Args
	require.NotNil(t, args.ActiveID)
	assert.Equal(t, int32(-1), *args.ActiveID)
	assert.Equal(t, uint16(50), args.MaxPriceImpactBps)

	noID := eventtest.Tag(SwapWithPriceImpact)
	noID = binary.LittleEndian.AppendUint64(noID, 1000)
	noID = append(noID, 0)
	noID = binary.LittleEndian.AppendUint16(noID, 50)

	parsed, err = NewDecoder().Parse(context.Background(), eventtest.Node(consts.MeteoraDLMMProgram, noID))
	require.NoError(t, err)
	assert.Nil(t, parsed.(*SwapInstruction).Args.ActiveID)
}

func TestParseSwap2BadSliceLength(t *testing.T) {
	data := eventtest.Tag(Swap2)
	data = binary.LittleEndian.AppendUint64(data, 1)
	data = binary.LittleEndian.AppendUint64(data, 1)
	data = binary.LittleEndian.AppendUint32(data, 1000)

	_, err := NewDecoder().Parse(context.Background(), eventtest.Node(consts.MeteoraDLMMProgram, data))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)
}
