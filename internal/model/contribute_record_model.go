package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributeRecordModel 投资流水
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId string          `json:"campaign_id" gorm:"type:varchar(36);index;not null"`
	Address    string          `json:"address" gorm:"type:varchar(42);index;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(78,0);not null"`    // 原生资产
	Converted  decimal.Decimal `json:"converted" gorm:"type:numeric(78,0);not null"` // 记账单位
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}
