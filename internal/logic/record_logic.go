package logic

import (
	"context"
	"fmt"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// RecordLogic 投资/退款/事件流水查询
type RecordLogic struct {
	store crowdsale.Store
}

// NewRecordLogic 创建流水查询业务逻辑
func NewRecordLogic(store crowdsale.Store) *RecordLogic {
	return &RecordLogic{store: store}
}

// GetContributions 分页获取投资流水, 最新的在前
func (l *RecordLogic) GetContributions(ctx context.Context, id string, page, pageSize int) ([]crowdsale.ContributeRecord, int64, error) {
	records, total, err := l.store.Contributions(ctx, id, crowdsale.Page{Number: page, Size: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("获取投资记录失败: %w", err)
	}
	return records, total, nil
}

// GetRefunds 分页获取退款流水
func (l *RecordLogic) GetRefunds(ctx context.Context, id string, page, pageSize int) ([]crowdsale.RefundRecord, int64, error) {
	records, total, err := l.store.Refunds(ctx, id, crowdsale.Page{Number: page, Size: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, total, nil
}

// GetEvents 分页获取状态变更日志
func (l *RecordLogic) GetEvents(ctx context.Context, id string, page, pageSize int) ([]crowdsale.Event, int64, error) {
	events, total, err := l.store.Events(ctx, id, crowdsale.Page{Number: page, Size: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("获取事件记录失败: %w", err)
	}
	return events, total, nil
}
