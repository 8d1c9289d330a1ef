package progress

import "context"

// SlotStatus 表示 slot 的处理状态
type SlotStatus int

const (
	SlotUnknown   SlotStatus = 0 // 不存在记录
	SlotProcessed SlotStatus = 1 // ✅ 已处理成功
	SlotInvalid   SlotStatus = 2 // ❌ 明确结构错误、跳过
	SlotPending   SlotStatus = 3 // 🕒 正在处理，暂未完成
)

func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotInvalid:
		return "invalid"
	case SlotPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Source 表示事件来源模块（grpc、rpc）
const (
	SourceUnknown int16 = 0
	SourceGrpc    int16 = 1
	SourceRpc     int16 = 2
)

func SourceName(src int16) string {
	switch src {
	case SourceGrpc:
		return "grpc"
	case SourceRpc:
		return "rpc"
	default:
		return "unknown"
	}
}

// Store slot 状态与消费检查点的持久化
type Store interface {
	GetSlotStatus(ctx context.Context, slot uint64) (SlotStatus, error)
	MarkSlotStatus(ctx context.Context, slot uint64, status SlotStatus) error
	// LoadCheckpoint 返回已确认处理的最大 slot，没有记录时 ok=false
	LoadCheckpoint(ctx context.Context) (slot uint64, ok bool, err error)
	// SaveCheckpoint 只前进不后退，返回保存后的检查点
	SaveCheckpoint(ctx context.Context, slot uint64) (uint64, error)
}
