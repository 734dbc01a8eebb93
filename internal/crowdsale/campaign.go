package crowdsale

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// State 众筹状态
type State string

const (
	StateActive    State = "active"    // 进行中
	StateRefunding State = "refunding" // 失败, 等待投资者退款
	StateClosed    State = "closed"    // 成功结束
)

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateRefunding || s == StateClosed
}

// EligibilityParams 审批时给出的基础准入参数
type EligibilityParams struct {
	BaseKYCLevel                 uint8
	CountryBlacklist             *big.Int // 国籍位图, 第 n 位代表国家编号 n
	LegalPersonSkipsCountryCheck bool
}

func (p EligibilityParams) clone() EligibilityParams {
	out := p
	if p.CountryBlacklist != nil {
		out.CountryBlacklist = new(big.Int).Set(p.CountryBlacklist)
	}
	return out
}

// Campaign 一次众筹
//
// Raised 与 ContributionRecord.Deposited 使用同一计量单位: 原生模式下为原生资产,
// 货币模式下为折算后的记账单位. Escrowed 始终是托管中的原生资产数量.
type Campaign struct {
	ID         string
	RewardUnit common.Address

	Owner             common.Address
	RefundDestination common.Address

	Cap               decimal.Decimal
	Goal              decimal.Decimal
	ExchangeRate      decimal.Decimal
	MinInvestment     decimal.Decimal
	ClosingTime       time.Time
	AllowEarlyClosure bool
	CommissionRate    uint8
	Currency          string
	Eligibility       EligibilityParams

	Raised   decimal.Decimal
	Escrowed decimal.Decimal
	State    State

	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinalizedAt *time.Time
}

// NativeMode 是否为原生资产固定汇率模式
func (c *Campaign) NativeMode() bool {
	return c.Currency == ""
}

// Clone 深拷贝, 存储层用它隔离已提交数据与事务中的暂存数据
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.Eligibility = c.Eligibility.clone()
	if c.FinalizedAt != nil {
		t := *c.FinalizedAt
		out.FinalizedAt = &t
	}
	return &out
}

// CreateParams 创建众筹的参数
type CreateParams struct {
	Owner             common.Address
	RefundDestination common.Address
	Cap               decimal.Decimal
	Goal              decimal.Decimal
	ExchangeRate      decimal.Decimal
	MinInvestment     decimal.Decimal
	ClosingTime       time.Time
	AllowEarlyClosure bool
	CommissionRate    uint8
	RewardUnit        common.Address
	Currency          string
}

// ContributionRecord 某投资者在某众筹上的存款
type ContributionRecord struct {
	CampaignID      string
	Investor        common.Address
	Deposited       decimal.Decimal // 与 Campaign.Raised 同单位
	NativeDeposited decimal.Decimal // 实际托管的原生资产, 退款按此金额返还
	UpdatedAt       time.Time
}

// Empty 存款是否已清零
func (r ContributionRecord) Empty() bool {
	return r.Deposited.IsZero() && r.NativeDeposited.IsZero()
}

// ContributeRecord 单笔已接受的投资流水
type ContributeRecord struct {
	CampaignID string
	Investor   common.Address
	Native     decimal.Decimal
	Converted  decimal.Decimal
	CreatedAt  time.Time
}

// RefundRecord 单笔退款流水
type RefundRecord struct {
	CampaignID string
	Investor   common.Address
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// SettlementType 结算类型
type SettlementType string

const (
	SettlementSuccess SettlementType = "success"
	SettlementFailed  SettlementType = "failed"
)

// SettlementRecord 结束(finalize/pause)时的结算记录
type SettlementRecord struct {
	CampaignID     string
	Type           SettlementType
	TotalAmount    decimal.Decimal // 结算前的 raised
	PlatformFee    decimal.Decimal // 佣金(原生资产)
	CreatorAmount  decimal.Decimal // 留给发起人提取的净额
	RewardReturned decimal.Decimal // 退回 refund_destination 的奖励单位
	Reason         string
	CreatedAt      time.Time
}

// EventType 事件类型
type EventType string

const (
	EventCampaignCreated    EventType = "CampaignCreated"
	EventContributionMade   EventType = "ContributionMade"
	EventCampaignFinalized  EventType = "CampaignFinalized"
	EventCampaignPaused     EventType = "CampaignPaused"
	EventRewardClaimed      EventType = "RewardClaimed"
	EventRefundClaimed      EventType = "RefundClaimed"
	EventRaisedFundsClaimed EventType = "RaisedFundsClaimed"
)

// Event 状态变更日志
type Event struct {
	CampaignID string
	Type       EventType
	Actor      common.Address
	Amount     decimal.Decimal
	State      State
	CreatedAt  time.Time
}
