package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventModel 众筹状态变更日志, 只追加
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId string          `json:"campaign_id" gorm:"type:varchar(36);index;not null"`
	EventType  string          `json:"event_type" gorm:"type:varchar(32);not null"`
	Actor      string          `json:"actor" gorm:"type:varchar(42)"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(78,0);default:0"`
	Status     CampaignStatus  `json:"status" gorm:"type:varchar(16)"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
