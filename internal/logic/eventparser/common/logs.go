package common

import (
	"encoding/base64"
	"strings"

	"dex-cpi-indexer-sol/internal/logic/core"
)

const (
	programDataPrefix = "Program data: "
	programLogPrefix  = "Program log: "
	rayLogPrefix      = "ray_log: "
)

// ProgramData 解出节点日志中的 emit! 事件（"Program data: <base64>"），按输出顺序返回
func ProgramData(node *core.InstructionNode) [][]byte {
	var out [][]byte
	for _, line := range node.Logs {
		rest, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		// 一行可能包含多段 base64，事件只取第一段
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			rest = rest[:i]
		}
		if b, err := base64.StdEncoding.DecodeString(rest); err == nil {
			out = append(out, b)
		}
	}
	return out
}

// LogEvent 一条 emit! 日志事件
type LogEvent struct {
	Disc    uint64
	Payload []byte
	Origin  int // 在节点日志事件中的序号
}

// FindLogEvents 返回节点日志中判别符在 discs 内的全部事件
func FindLogEvents(node *core.InstructionNode, discs ...uint64) []LogEvent {
	var out []LogEvent
	for i, data := range ProgramData(node) {
		disc, ok := Disc8(data)
		if !ok {
			continue
		}
		for _, d := range discs {
			if d == disc {
				out = append(out, LogEvent{Disc: disc, Payload: data[8:], Origin: i})
				break
			}
		}
	}
	return out
}

// FindLogEvent 返回第一个匹配的日志事件
func FindLogEvent(node *core.InstructionNode, discs ...uint64) (LogEvent, bool) {
	events := FindLogEvents(node, discs...)
	if len(events) == 0 {
		return LogEvent{}, false
	}
	return events[0], true
}

// RayLogs 解出 Raydium AMM v4 的 "Program log: ray_log: <base64>" 日志
func RayLogs(node *core.InstructionNode) [][]byte {
	var out [][]byte
	for _, line := range node.Logs {
		rest, ok := strings.CutPrefix(line, programLogPrefix)
		if !ok {
			continue
		}
		rest, ok = strings.CutPrefix(rest, rayLogPrefix)
		if !ok {
			continue
		}
		if b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest)); err == nil {
			out = append(out, b)
		}
	}
	return out
}

// ProgramLogs 返回去掉 "Program log: " 前缀的普通日志
func ProgramLogs(node *core.InstructionNode) []string {
	var out []string
	for _, line := range node.Logs {
		if rest, ok := strings.CutPrefix(line, programLogPrefix); ok {
			out = append(out, rest)
		}
	}
	return out
}
