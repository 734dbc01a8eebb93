package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignModel 众筹模型
type CampaignModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RewardUnit        string `json:"reward_unit" gorm:"type:varchar(42);uniqueIndex;not null"`
	OwnerAddress      string `json:"owner_address" gorm:"type:varchar(42);index;not null"`
	RefundDestination string `json:"refund_destination" gorm:"type:varchar(42);not null"`

	// 众筹参数
	Cap               decimal.Decimal `json:"cap" gorm:"type:numeric(78,0);not null"`
	Goal              decimal.Decimal `json:"goal" gorm:"type:numeric(78,0);not null"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate" gorm:"type:numeric(78,0);not null"`
	MinInvestment     decimal.Decimal `json:"min_investment" gorm:"type:numeric(78,0);not null"`
	ClosingTime       time.Time       `json:"closing_time" gorm:"not null"`
	AllowEarlyClosure bool            `json:"allow_early_closure" gorm:"default:false"`
	CommissionRate    uint8           `json:"commission_rate" gorm:"default:0"`
	Currency          string          `json:"currency" gorm:"type:varchar(16)"`

	// 准入参数
	BaseKYCLevel                 uint8  `json:"base_kyc_level" gorm:"column:base_kyc_level;default:0"`
	CountryBlacklist             string `json:"country_blacklist" gorm:"type:text"` // 十进制位图
	LegalPersonSkipsCountryCheck bool   `json:"legal_person_skips_country_check" gorm:"default:false"`

	// 资金
	Raised   decimal.Decimal `json:"raised" gorm:"type:numeric(78,0);default:0"`
	Escrowed decimal.Decimal `json:"escrowed" gorm:"type:numeric(78,0);default:0"`

	Status      CampaignStatus `json:"status" gorm:"type:varchar(16);index;default:'active'"`
	FinalizedAt *time.Time     `json:"finalized_at"`
}

// CampaignStatus 众筹状态
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"    // 进行中
	CampaignStatusRefunding CampaignStatus = "refunding" // 退款中
	CampaignStatusClosed    CampaignStatus = "closed"    // 已成功结束
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
