package common

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/eventparser/eventtest"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	discSwap      uint64 = 0xf8c69e91e17587c8
	discSwapV2    uint64 = 0x2b04ed0b1ac91e62
	discSwapEvent uint64 = 0x40c6cde8260871e2
)

var program = types.Pubkey{7}

func testTable() *Table {
	return &Table{
		Program: program,
		Variants: []Variant{
			{Kind: 1, Name: "Swap", Tag: Tag8(discSwap), Lengths: []int{8 + 41}},
			{Kind: 2, Name: "SwapV2", Tag: Tag8(discSwapV2), Lengths: []int{8 + 41, 8 + 42}},
			{Kind: 3, Name: "Legacy", Tag: []byte{9}, Lengths: []int{17}},
			{Kind: 4, Name: "Route", Tag: []byte{0xe5, 0x17, 0xcb, 0x97, 0x7a, 0xe3, 0xad, 0x2a}, Lengths: Variable, MinLen: 8 + 19},
		},
	}
}

func TestAnchorDiscriminator(t *testing.T) {
	assert.Equal(t, discSwap, AnchorDiscriminator("global", "swap"))
	assert.Equal(t, discSwapV2, AnchorDiscriminator("global", "swap_v2"))
	assert.Equal(t, discSwapEvent, AnchorDiscriminator("event", "SwapEvent"))
	assert.Equal(t, uint64(0xe517cb977ae3ad2a), AnchorDiscriminator("global", "route"))
}

func TestTableMatch(t *testing.T) {
	table := testTable()

	v, err := table.Match(append(Tag8(discSwap), make([]byte, 41)...))
	require.NoError(t, err)
	assert.Equal(t, "Swap", v.Name)
	assert.Len(t, v.Payload(append(Tag8(discSwap), make([]byte, 41)...)), 41)

	v, err = table.Match(append(Tag8(discSwapV2), make([]byte, 42)...))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Kind)

	v, err = table.Match(append([]byte{9}, make([]byte, 16)...))
	require.NoError(t, err)
	assert.Equal(t, "Legacy", v.Name)

	v, err = table.Match(append(Tag8(0xe517cb977ae3ad2a), make([]byte, 200)...))
	require.NoError(t, err)
	assert.Equal(t, "Route", v.Name)
}

func TestTableMatchWrongLengthIsCorrupt(t *testing.T) {
	table := testTable()

	v, err := table.Match(append(Tag8(discSwap), make([]byte, 40)...))
	require.NotNil(t, v)
	assert.Equal(t, core.OutcomeCorruptPayload, core.Classify(err))

	_, err = table.Match(append(Tag8(0xe517cb977ae3ad2a), make([]byte, 3)...))
	assert.ErrorIs(t, err, core.ErrCorruptPayload)
}

func TestTableNoMatchNeverDecodes(t *testing.T) {
	table := testTable()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		data := make([]byte, rng.Intn(64))
		rng.Read(data)
		if len(data) > 0 && data[0] == 9 {
			data[0] = 10
		}
		if len(data) >= 8 {
			data[0] = 0x01
		}
		v, err := table.Match(data)
		assert.Nil(t, v)
		assert.ErrorIs(t, err, core.ErrNotMine)
	}

	v, err := table.Match(nil)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, core.ErrNotMine)
}

type testEvent struct {
	Amount0    uint64
	Amount1    uint64
	ZeroForOne bool
}

func TestFindSelfCPIEventDepthIndependent(t *testing.T) {
	want := testEvent{Amount0: 650000000, Amount1: 928319794967, ZeroForOne: true}

	shallow := eventtest.Node(program, Tag8(discSwap),
		eventtest.Other(),
		eventtest.SelfCPIEvent(program, discSwapEvent, want),
	)
	deep := eventtest.Node(program, Tag8(discSwap),
		eventtest.Other(eventtest.Other(eventtest.SelfCPIEvent(program, discSwapEvent, want))),
	)

	for name, parent := range map[string]*core.InstructionNode{"one level": shallow, "three levels": deep} {
		t.Run(name, func(t *testing.T) {
			m, ok := FindSelfCPIEvent(parent, discSwapEvent)
			require.True(t, ok)
			var got testEvent
			require.NoError(t, DecodeFixed(m.Payload, &got))
			assert.Equal(t, want, got)
		})
	}

	_, ok := FindChildSelfCPIEvent(deep, discSwapEvent)
	assert.False(t, ok)
}

func TestFindSelfCPIEventsSkipsNestedSameProgram(t *testing.T) {
	nested := eventtest.Node(program, Tag8(discSwap),
		eventtest.SelfCPIEvent(program, discSwapEvent, testEvent{Amount0: 9}),
	)
	parent := eventtest.Node(program, Tag8(discSwap),
		eventtest.Other(nested),
		eventtest.SelfCPIEvent(program, discSwapEvent, testEvent{Amount0: 1}),
	)

	matches := FindSelfCPIEvents(parent, discSwapEvent)
	require.Len(t, matches, 1)
	var e testEvent
	require.NoError(t, DecodeFixed(matches[0].Payload, &e))
	assert.Equal(t, uint64(1), e.Amount0)
	// other(0) nested(1) nested.event(2) event(3)
	assert.Equal(t, 3, matches[0].Origin)

	m, ok := FindSelfCPIEvent(parent, discSwapEvent)
	require.True(t, ok)
	assert.Same(t, parent.Inner[1], m.Node)

	own := FindSelfCPIEvents(nested, discSwapEvent)
	require.Len(t, own, 1)
	assert.Equal(t, 0, own[0].Origin)
}

func TestFindSelfCPIEventSkipsUnknownSelfCalls(t *testing.T) {
	parent := eventtest.Node(program, Tag8(discSwap),
		eventtest.SelfCPIEvent(program, 0x1111111111111111, testEvent{Amount0: 1}),
		eventtest.Node(program, eventtest.Tag(discSwapEvent)),
		eventtest.SelfCPIEvent(types.Pubkey{8}, discSwapEvent, testEvent{Amount0: 2}),
		eventtest.SelfCPIEvent(program, discSwapEvent, testEvent{Amount0: 3}),
	)
	m, ok := FindSelfCPIEvent(parent, discSwapEvent)
	require.True(t, ok)
	assert.Equal(t, 3, m.Origin)

	empty := eventtest.Node(program, Tag8(discSwap), eventtest.Other())
	_, ok = FindSelfCPIEvent(empty, discSwapEvent)
	assert.False(t, ok)
}

func TestFindSelfCPIEventsKeepsEmissionOrder(t *testing.T) {
	parent := eventtest.Node(program, Tag8(discSwap),
		eventtest.SelfCPIEvent(program, discSwapEvent, testEvent{Amount0: 1}),
		eventtest.Other(eventtest.SelfCPIEvent(program, discSwapEvent, testEvent{Amount0: 2})),
		eventtest.SelfCPIEvent(program, discSwapEvent, testEvent{Amount0: 3}),
	)
	matches := FindSelfCPIEvents(parent, discSwapEvent)
	require.Len(t, matches, 3)

	var amounts []uint64
	for _, m := range matches {
		var e testEvent
		require.NoError(t, DecodeFixed(m.Payload, &e))
		amounts = append(amounts, e.Amount0)
	}
	assert.Equal(t, []uint64{1, 2, 3}, amounts)
	assert.Equal(t, []int{0, 2, 3}, []int{matches[0].Origin, matches[1].Origin, matches[2].Origin})
}

func TestLogEvents(t *testing.T) {
	node := eventtest.Node(program, Tag8(discSwap))
	node.Logs = []string{
		"Program log: Instruction: Swap",
		eventtest.ProgramDataLog(0x2222222222222222, testEvent{Amount0: 9}),
		eventtest.ProgramDataLog(discSwapEvent, testEvent{Amount0: 1, Amount1: 2}),
		"Program data: !!!not-base64",
		eventtest.ProgramDataLog(discSwapEvent, testEvent{Amount0: 3, Amount1: 4}),
		eventtest.RayLog(struct{ LogType uint8 }{3}),
	}

	events := FindLogEvents(node, discSwapEvent)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Origin)

	first, ok := FindLogEvent(node, discSwapEvent)
	require.True(t, ok)
	var e testEvent
	require.NoError(t, DecodeFixed(first.Payload, &e))
	assert.Equal(t, uint64(2), e.Amount1)

	ray := RayLogs(node)
	require.Len(t, ray, 1)
	assert.Equal(t, []byte{3}, ray[0])

	assert.Contains(t, ProgramLogs(node), "Instruction: Swap")
}

func TestDirected(t *testing.T) {
	src, dst := Directed(true, 10, 20)
	assert.Equal(t, [2]uint64{10, 20}, [2]uint64{src, dst})
	src, dst = Directed(false, 10, 20)
	assert.Equal(t, [2]uint64{20, 10}, [2]uint64{src, dst})
}

func TestDecodeFixedShortData(t *testing.T) {
	var e testEvent
	assert.Error(t, DecodeFixed([]byte{1, 2, 3}, &e))
}
