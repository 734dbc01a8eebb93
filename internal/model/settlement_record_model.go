package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecordModel 结算记录, 每个众筹最多一条
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId     string          `json:"campaign_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:numeric(78,0);not null"`     // 结算前募集额
	PlatformFee    decimal.Decimal `json:"platform_fee" gorm:"type:numeric(78,0);default:0"`    // 平台佣金
	CreatorAmount  decimal.Decimal `json:"creator_amount" gorm:"type:numeric(78,0);not null"`   // 发起人可提取金额
	RewardReturned decimal.Decimal `json:"reward_returned" gorm:"type:numeric(78,0);default:0"` // 退回的奖励单位
	SettlementType SettlementType  `json:"settlement_type" gorm:"type:varchar(16);not null"`
	Reason         string          `json:"reason" gorm:"type:text"`
}

// SettlementType 结算类型
type SettlementType string

const (
	SettlementTypeSuccess SettlementType = "success" // 成功结算
	SettlementTypeFailed  SettlementType = "failed"  // 失败结算
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
