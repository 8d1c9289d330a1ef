package txadapter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// 账户表：下标 i 对应 Pubkey{i+1}
func testKeys(n int) []types.Pubkey {
	keys := make([]types.Pubkey, n)
	for i := range keys {
		keys[i][0] = byte(i + 1)
	}
	return keys
}

func ix(program int, data byte) core.CompiledInstruction {
	return core.CompiledInstruction{ProgramIDIndex: program, Accounts: []int{0}, Data: []byte{data}}
}

func inner(program int, data byte, height uint32) core.InnerInstruction {
	return core.InnerInstruction{CompiledInstruction: ix(program, data), StackHeight: height}
}

func invoke(keys []types.Pubkey, program, depth int) string {
	return fmt.Sprintf("Program %s invoke [%d]", keys[program], depth)
}

func success(keys []types.Pubkey, program int) string {
	return fmt.Sprintf("Program %s success", keys[program])
}

func dataOf(nodes []*core.InstructionNode) []byte {
	out := make([]byte, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data[0]
	}
	return out
}

func nestedRecord() *core.TxRecord {
	return &core.TxRecord{
		AccountKeys:  testKeys(6),
		Instructions: []core.CompiledInstruction{ix(1, 0), ix(2, 10), ix(3, 20)},
		InnerGroups: []core.InnerGroup{
			{Index: 0, Instructions: []core.InnerInstruction{
				inner(4, 1, 2),
				inner(5, 2, 3),
				inner(1, 3, 3),
				inner(5, 4, 4),
				inner(4, 5, 2),
			}},
			{Index: 2, Instructions: []core.InnerInstruction{
				inner(4, 21, 2),
			}},
		},
	}
}

func TestBuildInstructionTreePreservesOrder(t *testing.T) {
	tx, err := BuildInstructionTree(nestedRecord())
	require.NoError(t, err)
	require.Len(t, tx.Roots, 3)

	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 10, 20, 21}, dataOf(tx.Flatten()))

	root := tx.Roots[0]
	require.Len(t, root.Inner, 2)
	assert.Len(t, root.Inner[0].Inner, 2)
	assert.Len(t, root.Inner[0].Inner[1].Inner, 1)
	assert.Empty(t, tx.Roots[1].Inner)
	assert.Len(t, tx.Roots[2].Inner, 1)

	deep := tx.Locate(0, 0, 1, 0)
	require.NotNil(t, deep)
	assert.Equal(t, byte(4), deep.Data[0])
	assert.Equal(t, 4, deep.StackHeight)
	assert.Equal(t, 0, deep.IxIndex)
	require.NotNil(t, deep.ParentProgram)
	assert.Equal(t, types.Pubkey{2}, *deep.ParentProgram)

	second := tx.Locate(0, 1)
	assert.Equal(t, 1, second.IxIndex)
	assert.True(t, second.InvokedBy(types.Pubkey{2}))
	assert.True(t, root.IsTopLevel())
}

func TestBuildInstructionTreeMalformedGroupIndex(t *testing.T) {
	rec := nestedRecord()
	rec.InnerGroups = append(rec.InnerGroups, core.InnerGroup{Index: 7, Instructions: []core.InnerInstruction{inner(4, 9, 2)}})

	tx, err := BuildInstructionTree(rec)
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, core.ErrMalformedTransaction)
	assert.Equal(t, core.OutcomeMalformedTransaction, core.Classify(err))
}

func TestBuildInstructionTreeMalformedAccountIndex(t *testing.T) {
	rec := nestedRecord()
	rec.InnerGroups[0].Instructions[2].Accounts = []int{0, 42}

	tx, err := BuildInstructionTree(rec)
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, core.ErrMalformedTransaction)

	rec = nestedRecord()
	rec.Instructions[1].ProgramIDIndex = 6
	_, err = BuildInstructionTree(rec)
	assert.ErrorIs(t, err, core.ErrMalformedTransaction)
}

func TestBuildInstructionTreeDeepNesting(t *testing.T) {
	const depth = 64
	rec := &core.TxRecord{
		AccountKeys:  testKeys(2),
		Instructions: []core.CompiledInstruction{ix(1, 0)},
	}
	group := core.InnerGroup{Index: 0}
	for h := 2; h <= depth; h++ {
		group.Instructions = append(group.Instructions, inner(1, byte(h), uint32(h)))
	}
	rec.InnerGroups = []core.InnerGroup{group}

	tx, err := BuildInstructionTree(rec)
	require.NoError(t, err)

	node := tx.Roots[0]
	for h := 2; h <= depth; h++ {
		require.Len(t, node.Inner, 1)
		node = node.Inner[0]
		assert.Equal(t, h, node.StackHeight)
	}
	assert.Empty(t, node.Inner)
}

func TestBuildInstructionTreeHeightJump(t *testing.T) {
	rec := &core.TxRecord{
		AccountKeys:  testKeys(3),
		Instructions: []core.CompiledInstruction{ix(1, 0)},
		InnerGroups: []core.InnerGroup{{Index: 0, Instructions: []core.InnerInstruction{
			inner(2, 1, 2),
			inner(2, 2, 5),
			inner(2, 3, 2),
		}}},
	}
	tx, err := BuildInstructionTree(rec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, dataOf(tx.Flatten()))
	assert.Equal(t, 3, tx.Locate(0, 0, 0).StackHeight)
	assert.Equal(t, byte(3), tx.Locate(0, 1).Data[0])
}

func TestBuildInstructionTreeRecoversHeightsFromLogs(t *testing.T) {
	rec := nestedRecord()
	for g := range rec.InnerGroups {
		for j := range rec.InnerGroups[g].Instructions {
			rec.InnerGroups[g].Instructions[j].StackHeight = 0
		}
	}
	k := rec.AccountKeys
	rec.LogMessages = []string{
		invoke(k, 1, 1),
		invoke(k, 4, 2),
		invoke(k, 5, 3),
		success(k, 5),
		invoke(k, 1, 3),
		invoke(k, 5, 4),
		success(k, 5),
		success(k, 1),
		success(k, 4),
		invoke(k, 4, 2),
		success(k, 4),
		success(k, 1),
		invoke(k, 2, 1),
		success(k, 2),
		invoke(k, 3, 1),
		invoke(k, 4, 2),
		success(k, 4),
		success(k, 3),
	}

	tx, err := BuildInstructionTree(rec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 10, 20, 21}, dataOf(tx.Flatten()))
	assert.Len(t, tx.Roots[0].Inner, 2)
	assert.Equal(t, byte(4), tx.Locate(0, 0, 1, 0).Data[0])
}

func TestBuildInstructionTreeWithoutHeightsOrLogs(t *testing.T) {
	rec := nestedRecord()
	for j := range rec.InnerGroups[0].Instructions {
		rec.InnerGroups[0].Instructions[j].StackHeight = 0
	}
	rec.InnerGroups = rec.InnerGroups[:1]

	tx, err := BuildInstructionTree(rec)
	require.NoError(t, err)
	assert.Len(t, tx.Roots[0].Inner, 5)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 10, 20}, dataOf(tx.Flatten()))
}

func TestAttributeLogs(t *testing.T) {
	k := testKeys(4)
	rec := &core.TxRecord{
		AccountKeys:  k,
		Instructions: []core.CompiledInstruction{ix(1, 0), ix(3, 10)},
		InnerGroups: []core.InnerGroup{{Index: 0, Instructions: []core.InnerInstruction{
			inner(2, 1, 2),
			inner(1, 2, 2),
		}}},
		LogMessages: []string{
			invoke(k, 1, 1),
			"Program log: Instruction: Swap",
			invoke(k, 2, 2),
			"Program log: Instruction: Transfer",
			fmt.Sprintf("Program %s consumed 4645 of 180000 compute units", k[2]),
			success(k, 2),
			"Program log: after transfer",
			invoke(k, 1, 2),
			"Program data: AAEC",
			success(k, 1),
			success(k, 1),
			invoke(k, 3, 1),
			"Program log: memo",
			success(k, 3),
		},
	}
	tx, err := BuildInstructionTree(rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"Program log: Instruction: Swap", "Program log: after transfer"}, tx.Roots[0].Logs)
	assert.Equal(t, []string{"Program log: Instruction: Transfer"}, tx.Locate(0, 0).Logs)
	assert.Equal(t, []string{"Program data: AAEC"}, tx.Locate(0, 1).Logs)
	assert.Equal(t, []string{"Program log: memo"}, tx.Roots[1].Logs)
}

func TestAttributeLogsStopsOnMismatchAndTruncation(t *testing.T) {
	k := testKeys(4)
	build := func(logs []string) *core.Transaction {
		tx, err := BuildInstructionTree(&core.TxRecord{
			AccountKeys:  k,
			Instructions: []core.CompiledInstruction{ix(1, 0), ix(2, 1)},
			LogMessages:  logs,
		})
		require.NoError(t, err)
		return tx
	}

	tx := build([]string{
		invoke(k, 1, 1), "Program log: a", success(k, 1),
		invoke(k, 3, 1), "Program log: b", success(k, 3),
	})
	assert.Equal(t, []string{"Program log: a"}, tx.Roots[0].Logs)
	assert.Nil(t, tx.Roots[1].Logs)

	tx = build([]string{
		invoke(k, 1, 1), "Program log: a", "Log truncated",
	})
	assert.Equal(t, []string{"Program log: a"}, tx.Roots[0].Logs)
	assert.Nil(t, tx.Roots[1].Logs)
}

func TestParseLogLine(t *testing.T) {
	k := testKeys(1)
	l := parseLogLine(invoke(k, 0, 3))
	assert.Equal(t, logInvoke, l.kind)
	assert.Equal(t, 3, l.depth)
	assert.Equal(t, k[0].String(), l.program)

	assert.Equal(t, logExit, parseLogLine(fmt.Sprintf("Program %s failed: custom program error: 0x1", k[0])).kind)
	assert.Equal(t, logPlain, parseLogLine("Program log: Instruction: Buy").kind)
	assert.Equal(t, logPlain, parseLogLine("Program data: AAAA").kind)
	assert.Equal(t, logPlain, parseLogLine("ray_log: AwAAAA==").kind)
}
