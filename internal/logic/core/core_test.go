package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-cpi-indexer-sol/internal/types"
)

func TestClassify(t *testing.T) {
	prog := types.Pubkey{1}
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"not mine", ErrNotMine, OutcomeNotMine},
		{"filtered", &FilteredError{Program: prog, Reason: "aggregator"}, OutcomeFiltered},
		{"corrupt", Corruptf(prog, "Swap", "len=%d", 3), OutcomeCorruptPayload},
		{"wrapped corrupt", fmt.Errorf("parse: %w", Corrupt(prog, "Swap", errors.New("eof"))), OutcomeCorruptPayload},
		{"malformed", Malformedf("inner group index %d out of range", 9), OutcomeMalformedTransaction},
		{"unknown", errors.New("boom"), OutcomeCorruptPayload},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.err))
		})
	}
}

func TestOutcomeIsError(t *testing.T) {
	assert.False(t, OutcomeSuccess.IsError())
	assert.False(t, OutcomeFiltered.IsError())
	assert.False(t, OutcomeNotMine.IsError())
	assert.True(t, OutcomeCorruptPayload.IsError())
	assert.True(t, OutcomeMalformedTransaction.IsError())
	assert.Equal(t, "filtered", OutcomeFiltered.String())
}

func TestCorruptUnwrap(t *testing.T) {
	inner := errors.New("short buffer")
	err := Corrupt(types.Pubkey{2}, "Buy", inner)
	assert.ErrorIs(t, err, inner)
	assert.ErrorIs(t, err, ErrCorruptPayload)
	assert.NotErrorIs(t, err, ErrFiltered)
}

func TestWalkPreOrder(t *testing.T) {
	leaf := func(b byte) *InstructionNode { return &InstructionNode{Data: []byte{b}} }
	tx := &Transaction{Roots: []*InstructionNode{
		{Data: []byte{0}, Inner: []*InstructionNode{
			{Data: []byte{1}, Inner: []*InstructionNode{leaf(2)}},
			leaf(3),
		}},
		leaf(4),
	}}

	var seen []byte
	var paths [][]int
	tx.Walk(func(path []int, node *InstructionNode) bool {
		seen = append(seen, node.Data[0])
		paths = append(paths, append([]int(nil), path...))
		return true
	})
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, seen)
	assert.Equal(t, [][]int{{0}, {0, 0}, {0, 0, 0}, {0, 1}, {1}}, paths)

	require.NotNil(t, tx.Locate(0, 0, 0))
	assert.Equal(t, byte(2), tx.Locate(0, 0, 0).Data[0])
	assert.Nil(t, tx.Locate(0, 5))
	assert.Nil(t, tx.Locate(7))
	assert.Len(t, tx.Flatten(), 5)
}

func TestWalkStopsEarly(t *testing.T) {
	tx := &Transaction{Roots: []*InstructionNode{{}, {}, {}}}
	n := 0
	done := tx.Walk(func([]int, *InstructionNode) bool {
		n++
		return n < 2
	})
	assert.False(t, done)
	assert.Equal(t, 2, n)
}
