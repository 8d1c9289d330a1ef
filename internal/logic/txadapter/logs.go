package txadapter

import (
	"strconv"
	"strings"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	logPrefixProgram = "Program "
	logTruncated     = "Log truncated"
)

type logKind int

const (
	logPlain logKind = iota
	logInvoke
	logExit     // success / failed
	logConsumed // "consumed X of Y compute units"
)

type logLine struct {
	kind    logKind
	program string
	depth   int
}

// parseLogLine 识别运行时输出的调用边界行：
//
//	Program <id> invoke [<n>]
//	Program <id> success
//	Program <id> failed: <reason>
//	Program <id> consumed <x> of <y> compute units
func parseLogLine(line string) logLine {
	rest, ok := strings.CutPrefix(line, logPrefixProgram)
	if !ok {
		return logLine{kind: logPlain}
	}
	program, tail, ok := strings.Cut(rest, " ")
	if !ok || program == "log:" || program == "data:" || program == "return:" {
		return logLine{kind: logPlain}
	}
	switch {
	case strings.HasPrefix(tail, "invoke ["):
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(tail, "invoke ["), "]"))
		if err != nil {
			return logLine{kind: logPlain}
		}
		return logLine{kind: logInvoke, program: program, depth: n}
	case tail == "success" || strings.HasPrefix(tail, "failed"):
		return logLine{kind: logExit, program: program}
	case strings.HasPrefix(tail, "consumed "):
		return logLine{kind: logConsumed, program: program}
	}
	return logLine{kind: logPlain}
}

// recoverHeightsFromLogs 用 invoke [n] 行恢复 inner 指令的调用栈高度。
// 仅当 invoke 行数量与程序序列都和指令先序一致时才采用，否则返回 nil。
func recoverHeightsFromLogs(rec *core.TxRecord) [][]int {
	var invokes []logLine
	for _, line := range rec.LogMessages {
		if line == logTruncated {
			return nil
		}
		if l := parseLogLine(line); l.kind == logInvoke {
			invokes = append(invokes, l)
		}
	}

	byRoot := make(map[int][]int, len(rec.InnerGroups))
	total := len(rec.Instructions)
	for g, group := range rec.InnerGroups {
		if group.Index < 0 || group.Index >= len(rec.Instructions) {
			return nil
		}
		byRoot[group.Index] = append(byRoot[group.Index], g)
		total += len(group.Instructions)
	}
	if len(invokes) != total {
		return nil
	}

	match := func(ix *core.CompiledInstruction, l logLine) bool {
		if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(rec.AccountKeys) {
			return false
		}
		return programMatches(rec.AccountKeys[ix.ProgramIDIndex], l.program)
	}

	heights := make([][]int, len(rec.InnerGroups))
	pos := 0
	for i := range rec.Instructions {
		if invokes[pos].depth != 1 || !match(&rec.Instructions[i], invokes[pos]) {
			return nil
		}
		pos++
		for _, g := range byRoot[i] {
			group := &rec.InnerGroups[g]
			heights[g] = make([]int, len(group.Instructions))
			for j := range group.Instructions {
				l := invokes[pos]
				if l.depth < 2 || !match(&group.Instructions[j].CompiledInstruction, l) {
					return nil
				}
				heights[g][j] = l.depth
				pos++
			}
		}
	}
	return heights
}

// AttributeLogs 按 invoke / success / failed 边界把日志分配到先序节点上。
// 每个节点只拿到自己作为最内层执行帧期间的日志，边界行和 consumed 行不计入。
// 遇到程序不一致或 "Log truncated" 时停止，其余节点 Logs 保持为空。
func AttributeLogs(tx *core.Transaction, logs []string) {
	if len(logs) == 0 {
		return
	}
	nodes := tx.Flatten()
	next := 0
	frames := make([]*core.InstructionNode, 0, 8)

	for _, line := range logs {
		if line == logTruncated {
			return
		}
		l := parseLogLine(line)
		switch l.kind {
		case logInvoke:
			if next >= len(nodes) || !programMatches(nodes[next].Program, l.program) {
				return
			}
			frames = append(frames, nodes[next])
			next++
		case logExit:
			if len(frames) == 0 || !programMatches(frames[len(frames)-1].Program, l.program) {
				return
			}
			frames = frames[:len(frames)-1]
		case logConsumed:
		default:
			if len(frames) > 0 {
				top := frames[len(frames)-1]
				top.Logs = append(top.Logs, line)
			}
		}
	}
}

func programMatches(program types.Pubkey, id string) bool {
	pk, err := types.TryPubkeyFromBase58(id)
	return err == nil && pk == program
}
