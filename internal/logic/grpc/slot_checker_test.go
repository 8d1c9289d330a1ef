package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	blocks map[uint64]bool
	fail   bool
	calls  int
}

func (l *fakeLister) GetBlocks(_ context.Context, from, to uint64) ([]uint64, error) {
	l.calls++
	if l.fail {
		return nil, errors.New("rpc unavailable")
	}
	var out []uint64
	for s := from; s <= to; s++ {
		if l.blocks[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestMergeRanges(t *testing.T) {
	now := time.Now()
	merged := mergeRanges([]SlotRange{
		{From: 50, To: 60, SubmitAt: now},
		{From: 10, To: 20, SubmitAt: now},
		{From: 30, To: 40, SubmitAt: now},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, uint64(10), merged[0].From)
	assert.Equal(t, uint64(60), merged[0].To)

	split := mergeRanges([]SlotRange{{From: 1, To: 25000}})
	require.Len(t, split, 3)
	assert.Equal(t, SlotRange{From: 1, To: 10000}, split[0])
	assert.Equal(t, SlotRange{From: 20001, To: 25000}, split[2])

	assert.Nil(t, mergeRanges(nil))
}

func TestFillEmptySlots(t *testing.T) {
	empty := map[uint64]struct{}{}
	fillEmptySlots(100, 110, []uint64{103, 101, 107}, empty)
	for _, s := range []uint64{100, 102, 104, 105, 106, 108, 109, 110} {
		assert.Contains(t, empty, s)
	}
	assert.Len(t, empty, 8)

	none := map[uint64]struct{}{}
	fillEmptySlots(1, 3, nil, none)
	assert.Len(t, none, 3)
}

func TestSlotInFailedRanges(t *testing.T) {
	failed := []SlotRange{{From: 10, To: 20}, {From: 40, To: 50}}
	assert.True(t, slotInFailedRanges(10, failed))
	assert.True(t, slotInFailedRanges(45, failed))
	assert.False(t, slotInFailedRanges(30, failed))
	assert.False(t, slotInFailedRanges(5, failed))
}

func TestSplitReady(t *testing.T) {
	now := time.Now()
	ranges := []SlotRange{
		{From: 1, To: 1, SubmitAt: now.Add(-time.Minute)},
		{From: 2, To: 2, SubmitAt: now},
	}
	ready, pending := splitReady(ranges, now, 30*time.Second)
	require.Len(t, ready, 1)
	require.Len(t, pending, 1)
	assert.Equal(t, uint64(1), ready[0].From)
	assert.Equal(t, uint64(2), pending[0].From)
}

func TestCheckSlotRanges(t *testing.T) {
	lister := &fakeLister{blocks: map[uint64]bool{12: true}}
	checker := newSlotChecker(lister)
	defer checker.Stop()

	var missing []uint64
	checker.onMissing = func(slot uint64) { missing = append(missing, slot) }

	n := checker.checkSlotRanges([]SlotRange{{From: 11, To: 13}})
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint64{12}, missing)
}

func TestCheckSlotRangesRPCFailure(t *testing.T) {
	lister := &fakeLister{fail: true}
	checker := newSlotChecker(lister)
	defer checker.Stop()

	n := checker.checkSlotRanges([]SlotRange{{From: 11, To: 13}})
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, lister.calls)
}

func TestSubmitRejectsInvalidRange(t *testing.T) {
	checker := newSlotChecker(&fakeLister{})
	defer checker.Stop()
	checker.Submit(5, 4)
	checker.Submit(4, 5)
	assert.Len(t, checker.rangeCh, 1)
}
