package mq

import (
	"encoding/binary"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/logic/dispatcher"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/types"
)

const (
	EventTypeSwap uint32 = 1
)

// EncodeEvent 4 字节小端类型前缀 + protobuf 消息体
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	buf := make([]byte, 4, 4+proto.Size(msg))
	binary.LittleEndian.PutUint32(buf, eventType)
	return proto.MarshalOptions{}.MarshalAppend(buf, msg)
}

// DecodeEvent 与 EncodeEvent 对应，供下游消费与测试使用
func DecodeEvent(data []byte, msg proto.Message) (uint32, error) {
	if len(data) < 4 {
		return 0, errors.New("event payload too short")
	}
	if err := proto.Unmarshal(data[4:], msg); err != nil {
		return 0, fmt.Errorf("unmarshal event: %w", err)
	}
	return binary.LittleEndian.Uint32(data[:4]), nil
}

// SwapMessage 单条兑换腿的消息体
type SwapMessage struct {
	Slot        uint64
	TxIndex     uint32
	BlockTime   int64
	Signature   types.Signature
	Path        []int
	Decoder     string
	Program     types.Pubkey
	Variant     string
	Origin      int
	Source      uint64
	Destination uint64
}

func NewSwapMessage(tx *core.Transaction, res *dispatcher.Result, leg common.SwapLeg) *SwapMessage {
	m := &SwapMessage{
		Slot:        tx.Slot(),
		TxIndex:     tx.TxIndex,
		Signature:   tx.Signature,
		Path:        res.Path,
		Decoder:     res.Decoder,
		Program:     res.Program,
		Variant:     res.Parsed.Variant(),
		Origin:      leg.Origin,
		Source:      leg.SourceAmount,
		Destination: leg.DestinationAmount,
	}
	if tx.Ctx != nil {
		m.BlockTime = tx.Ctx.BlockTime
	}
	return m
}

// ToStruct u64 金额以十进制字符串写入，避免 float64 精度丢失
func (m *SwapMessage) ToStruct() *structpb.Struct {
	path := make([]*structpb.Value, len(m.Path))
	for i, p := range m.Path {
		path[i] = structpb.NewNumberValue(float64(p))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"slot":        structpb.NewStringValue(fmt.Sprint(m.Slot)),
		"tx_index":    structpb.NewNumberValue(float64(m.TxIndex)),
		"block_time":  structpb.NewNumberValue(float64(m.BlockTime)),
		"signature":   structpb.NewStringValue(m.Signature.String()),
		"path":        structpb.NewListValue(&structpb.ListValue{Values: path}),
		"decoder":     structpb.NewStringValue(m.Decoder),
		"program":     structpb.NewStringValue(m.Program.String()),
		"variant":     structpb.NewStringValue(m.Variant),
		"origin":      structpb.NewNumberValue(float64(m.Origin)),
		"source":      structpb.NewStringValue(fmt.Sprint(m.Source)),
		"destination": structpb.NewStringValue(fmt.Sprint(m.Destination)),
	}}
}

func EncodeSwap(m *SwapMessage) ([]byte, error) {
	return EncodeEvent(EventTypeSwap, m.ToStruct())
}
