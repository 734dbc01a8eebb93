package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// CampaignLogic 众筹查询业务逻辑
type CampaignLogic struct {
	store crowdsale.Store
}

// NewCampaignLogic 创建众筹查询业务逻辑
func NewCampaignLogic(store crowdsale.Store) *CampaignLogic {
	return &CampaignLogic{store: store}
}

// CampaignStats 众筹统计信息
type CampaignStats struct {
	CampaignID           string                      `json:"campaign_id"`
	State                crowdsale.State             `json:"state"`
	Raised               decimal.Decimal             `json:"raised"`
	Goal                 decimal.Decimal             `json:"goal"`
	Cap                  decimal.Decimal             `json:"cap"`
	CompletionPercentage decimal.Decimal             `json:"completion_percentage"`
	ContributorCount     int64                       `json:"contributor_count"`
	ContributionCount    int64                       `json:"contribution_count"`
	RefundCount          int64                       `json:"refund_count"`
	RemainingSeconds     int64                       `json:"remaining_seconds"`
	Settlement           *crowdsale.SettlementRecord `json:"settlement,omitempty"`
}

// GetCampaigns 获取众筹列表
func (l *CampaignLogic) GetCampaigns(ctx context.Context, owner *common.Address, state crowdsale.State, page, pageSize int) ([]*crowdsale.Campaign, int64, error) {
	campaigns, total, err := l.store.Campaigns(ctx, crowdsale.CampaignFilter{
		Owner: owner,
		State: state,
		Page:  crowdsale.Page{Number: page, Size: pageSize},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("获取众筹列表失败: %w", err)
	}
	return campaigns, total, nil
}

// GetCampaignStats 获取众筹统计信息
func (l *CampaignLogic) GetCampaignStats(ctx context.Context, id string, now time.Time) (*CampaignStats, error) {
	c, err := l.store.Campaign(ctx, id)
	if err != nil {
		return nil, err
	}

	contributions, total, err := l.store.Contributions(ctx, id, crowdsale.Page{})
	if err != nil {
		return nil, fmt.Errorf("获取投资记录失败: %w", err)
	}
	investors := make(map[common.Address]struct{}, len(contributions))
	for _, r := range contributions {
		investors[r.Investor] = struct{}{}
	}

	_, refunds, err := l.store.Refunds(ctx, id, crowdsale.Page{Size: 1})
	if err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}

	settlement, err := l.store.Settlement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("获取结算记录失败: %w", err)
	}

	stats := &CampaignStats{
		CampaignID:        c.ID,
		State:             c.State,
		Raised:            c.Raised,
		Goal:              c.Goal,
		Cap:               c.Cap,
		ContributorCount:  int64(len(investors)),
		ContributionCount: total,
		RefundCount:       refunds,
		Settlement:        settlement,
	}

	// 结束后按结算前的募集额计算完成度
	gross := c.Raised
	if settlement != nil {
		gross = settlement.TotalAmount
	}
	if c.Goal.IsPositive() {
		stats.CompletionPercentage = gross.Div(c.Goal).Mul(decimal.NewFromInt(100)).Round(2)
	}

	if c.State == crowdsale.StateActive && now.Before(c.ClosingTime) {
		stats.RemainingSeconds = int64(c.ClosingTime.Sub(now) / time.Second)
	}
	return stats, nil
}
