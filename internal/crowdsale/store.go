package crowdsale

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store 众筹持久化
//
// 同一众筹上的 Update 必须串行执行. fn 返回错误时事务内的全部修改都被丢弃,
// 成功返回后 Tx.Campaign() 上的修改随事务一起提交.
type Store interface {
	Insert(ctx context.Context, c *Campaign) error
	Update(ctx context.Context, campaignID string, fn func(tx Tx) error) error

	Campaign(ctx context.Context, campaignID string) (*Campaign, error)
	Campaigns(ctx context.Context, filter CampaignFilter) ([]*Campaign, int64, error)
	Deposit(ctx context.Context, campaignID string, investor common.Address) (ContributionRecord, error)
	Deposits(ctx context.Context, campaignID string) ([]ContributionRecord, error)
	Contributions(ctx context.Context, campaignID string, page Page) ([]ContributeRecord, int64, error)
	Refunds(ctx context.Context, campaignID string, page Page) ([]RefundRecord, int64, error)
	Settlement(ctx context.Context, campaignID string) (*SettlementRecord, error)
	Events(ctx context.Context, campaignID string, page Page) ([]Event, int64, error)
}

// Tx 单个众筹上的事务视图
type Tx interface {
	Campaign() *Campaign
	Deposit(investor common.Address) (ContributionRecord, error)
	PutDeposit(r ContributionRecord) error
	AddContribution(r ContributeRecord) error
	AddRefund(r RefundRecord) error
	AddSettlement(r SettlementRecord) error
	AddEvent(e Event) error
}

// CampaignFilter 列表查询条件
type CampaignFilter struct {
	Owner *common.Address
	State State
	Page  Page
}

// Page 分页参数, Size 为 0 表示不分页
type Page struct {
	Number int
	Size   int
}

// Offset 偏移量
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}
