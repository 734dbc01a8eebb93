package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// ReconcileReport 单个众筹的对账结果
type ReconcileReport struct {
	CampaignID      string
	State           crowdsale.State
	Raised          decimal.Decimal
	Deposited       decimal.Decimal
	Escrowed        decimal.Decimal
	NativeDeposited decimal.Decimal
	Overdue         bool // 已过截止时间但发起人尚未结束
}

// Balanced 账实是否一致
//
// active: 存款合计等于 raised, 原生存款合计等于 escrowed.
// refunding: 原生存款合计等于 escrowed.
// closed: 存款在领取奖励时清零, 不做比对.
func (r *ReconcileReport) Balanced() bool {
	switch r.State {
	case crowdsale.StateActive:
		return r.Deposited.Equal(r.Raised) && r.NativeDeposited.Equal(r.Escrowed)
	case crowdsale.StateRefunding:
		return r.NativeDeposited.Equal(r.Escrowed)
	default:
		return true
	}
}

// ReconcileLogic 存款账本与众筹汇总的对账
type ReconcileLogic struct {
	store  crowdsale.Store
	ledger *crowdsale.Ledger
}

// NewReconcileLogic 创建对账业务逻辑
func NewReconcileLogic(store crowdsale.Store) *ReconcileLogic {
	return &ReconcileLogic{store: store, ledger: crowdsale.NewLedger(store)}
}

// CampaignIDs 返回指定状态的全部众筹 ID, state 为空表示全部
func (l *ReconcileLogic) CampaignIDs(ctx context.Context, state crowdsale.State) ([]string, error) {
	campaigns, _, err := l.store.Campaigns(ctx, crowdsale.CampaignFilter{State: state})
	if err != nil {
		return nil, fmt.Errorf("获取众筹列表失败: %w", err)
	}
	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// Reconcile 对单个众筹对账, 只读
//
// 汇总存款前后各读一次众筹, 两次不一致说明期间有并发写入, 重新读取.
func (l *ReconcileLogic) Reconcile(ctx context.Context, id string, now time.Time) (*ReconcileReport, error) {
	const maxAttempts = 3

	var (
		before, after     *crowdsale.Campaign
		deposited, native decimal.Decimal
		err               error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if before, err = l.store.Campaign(ctx, id); err != nil {
			return nil, err
		}
		if deposited, native, err = l.ledger.Total(ctx, id); err != nil {
			return nil, fmt.Errorf("汇总存款失败: %w", err)
		}
		if after, err = l.store.Campaign(ctx, id); err != nil {
			return nil, err
		}
		if sameTotals(before, after) {
			break
		}
	}
	return &ReconcileReport{
		CampaignID:      after.ID,
		State:           after.State,
		Raised:          after.Raised,
		Deposited:       deposited,
		Escrowed:        after.Escrowed,
		NativeDeposited: native,
		Overdue:         after.State == crowdsale.StateActive && !now.Before(after.ClosingTime),
	}, nil
}

func sameTotals(a, b *crowdsale.Campaign) bool {
	return a.State == b.State && a.Raised.Equal(b.Raised) && a.Escrowed.Equal(b.Escrowed)
}
