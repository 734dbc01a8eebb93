package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositModel 投资者在某众筹上的存款余额
type DepositModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId      string          `json:"campaign_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_deposit_campaign_investor"`
	Address         string          `json:"address" gorm:"type:varchar(42);not null;uniqueIndex:idx_deposit_campaign_investor"`
	Deposited       decimal.Decimal `json:"deposited" gorm:"type:numeric(78,0);default:0"`
	NativeDeposited decimal.Decimal `json:"native_deposited" gorm:"type:numeric(78,0);default:0"`
}

// TableName 自定义表名
func (DepositModel) TableName() string {
	return "deposit"
}
