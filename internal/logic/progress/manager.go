package progress

import (
	"context"
	"time"

	"dex-cpi-indexer-sol/internal/pkg/logger"
)

// ProgressManager 封装 slot 判重与检查点推进
type ProgressManager struct {
	store           Store
	recentThreshold time.Duration // 新 block 的判断阈值
	now             func() time.Time
}

func NewProgressManager(store Store, recentThresholdSec int) *ProgressManager {
	return &ProgressManager{
		store:           store,
		recentThreshold: time.Duration(recentThresholdSec) * time.Second,
		now:             time.Now,
	}
}

// ShouldProcessSlot 用于判断是否需要处理该 slot：
// - 如果 block 是“最近的”，直接处理
// - 否则查询状态，已处理或已标记无效的跳过
func (pm *ProgressManager) ShouldProcessSlot(ctx context.Context, slot uint64, blockTime int64) (bool, error) {
	if blockTime > 0 && pm.now().Sub(time.Unix(blockTime, 0)) <= pm.recentThreshold {
		return true, nil
	}

	status, err := pm.store.GetSlotStatus(ctx, slot)
	if err != nil {
		return false, err
	}
	return status != SlotProcessed && status != SlotInvalid, nil
}

// MarkSlotStatus 记录 slot 处理结果；已处理的 slot 同时推进检查点
func (pm *ProgressManager) MarkSlotStatus(ctx context.Context, slot uint64, source int16, status SlotStatus) error {
	switch status {
	case SlotProcessed, SlotInvalid:
	default:
		return nil // SlotUnknown / SlotPending 不参与记录
	}
	if err := pm.store.MarkSlotStatus(ctx, slot, status); err != nil {
		return err
	}
	if status != SlotProcessed {
		logger.Warnf("[Progress:MarkSlotStatus] slot 标记为无效: slot=%d, source=%s", slot, SourceName(source))
		return nil
	}

	cp, err := pm.store.SaveCheckpoint(ctx, slot)
	if err != nil {
		return err
	}
	if cp > slot {
		logger.Debugf("[Progress:MarkSlotStatus] 检查点未前进: slot=%d, checkpoint=%d", slot, cp)
	}
	return nil
}

// ResumeSlot 订阅的起始 slot：检查点的下一个；没有检查点时返回 fallback
func (pm *ProgressManager) ResumeSlot(ctx context.Context, fallback uint64) (uint64, error) {
	cp, ok, err := pm.store.LoadCheckpoint(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	return max(cp+1, fallback), nil
}
