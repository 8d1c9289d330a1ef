package core

import (
	"errors"
	"fmt"

	"dex-cpi-indexer-sol/internal/types"
)

// Outcome 单个节点（或整笔交易）的分发结果，五者互斥
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFiltered
	OutcomeNotMine
	OutcomeCorruptPayload
	OutcomeMalformedTransaction
)

var outcomeNames = [...]string{
	OutcomeSuccess:              "success",
	OutcomeFiltered:             "filtered",
	OutcomeNotMine:              "not_mine",
	OutcomeCorruptPayload:       "corrupt_payload",
	OutcomeMalformedTransaction: "malformed_transaction",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// IsError 仅 CorruptPayload / MalformedTransaction 计入错误
func (o Outcome) IsError() bool {
	return o == OutcomeCorruptPayload || o == OutcomeMalformedTransaction
}

var (
	ErrNotMine              = errors.New("not mine")
	ErrFiltered             = errors.New("filtered")
	ErrCorruptPayload       = errors.New("corrupt payload")
	ErrMalformedTransaction = errors.New("malformed transaction")
)

// CorruptPayloadError 判别符已匹配但结构解码失败
type CorruptPayloadError struct {
	Program types.Pubkey
	Variant string
	Reason  string
	Err     error
}

func (e *CorruptPayloadError) Error() string {
	msg := fmt.Sprintf("corrupt payload: program=%s, variant=%s, reason=%s", e.Program, e.Variant, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptPayloadError) Is(target error) bool { return target == ErrCorruptPayload }
func (e *CorruptPayloadError) Unwrap() error        { return e.Err }

// Corrupt 构造 CorruptPayloadError
func Corrupt(program types.Pubkey, variant string, err error) error {
	return &CorruptPayloadError{Program: program, Variant: variant, Reason: "decode failed", Err: err}
}

// Corruptf 构造不带底层错误的 CorruptPayloadError
func Corruptf(program types.Pubkey, variant string, format string, args ...any) error {
	return &CorruptPayloadError{Program: program, Variant: variant, Reason: fmt.Sprintf(format, args...)}
}

// FilteredError 有意抑制（已由外层聚合器计入）
type FilteredError struct {
	Program types.Pubkey
	Reason  string
}

func (e *FilteredError) Error() string {
	return fmt.Sprintf("filtered: program=%s, reason=%s", e.Program, e.Reason)
}

func (e *FilteredError) Is(target error) bool { return target == ErrFiltered }

// MalformedTransactionError 指令树无法构建，整笔交易被拒绝
type MalformedTransactionError struct {
	Reason string
}

func (e *MalformedTransactionError) Error() string {
	return "malformed transaction: " + e.Reason
}

func (e *MalformedTransactionError) Is(target error) bool { return target == ErrMalformedTransaction }

func Malformedf(format string, args ...any) error {
	return &MalformedTransactionError{Reason: fmt.Sprintf(format, args...)}
}

// Classify 把任意错误映射为唯一的 Outcome，未识别的错误按 CorruptPayload 处理
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrMalformedTransaction):
		return OutcomeMalformedTransaction
	case errors.Is(err, ErrCorruptPayload):
		return OutcomeCorruptPayload
	case errors.Is(err, ErrFiltered):
		return OutcomeFiltered
	case errors.Is(err, ErrNotMine):
		return OutcomeNotMine
	default:
		return OutcomeCorruptPayload
	}
}
