package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

// 请求模型

// CreateCampaignRequest 创建众筹请求, 发起人为签名者
type CreateCampaignRequest struct {
	RefundDestination string          `json:"refundDestination" binding:"required"`
	RewardUnit        string          `json:"rewardUnit" binding:"required"`
	Cap               decimal.Decimal `json:"cap"`
	Goal              decimal.Decimal `json:"goal"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"`
	MinInvestment     decimal.Decimal `json:"minInvestment"`
	ClosingTime       time.Time       `json:"closingTime" binding:"required"`
	AllowEarlyClosure bool            `json:"allowEarlyClosure"`
	CommissionRate    uint8           `json:"commissionRate"`
	Currency          string          `json:"currency"`
}

// ContributeRequest 投资请求
type ContributeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ClaimRaisedRequest 提取募集额请求
type ClaimRaisedRequest struct {
	Beneficiary string `json:"beneficiary" binding:"required"`
}

// CommissionWalletRequest 修改佣金钱包请求
type CommissionWalletRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

// ApproveRequest 批准奖励单位请求, countryBlacklist 为十六进制位图
type ApproveRequest struct {
	BaseKYCLevel                 uint8  `json:"baseKycLevel"`
	CountryBlacklist             string `json:"countryBlacklist"`
	LegalPersonSkipsCountryCheck bool   `json:"legalPersonSkipsCountryCheck"`
}

// KYCRequest 登记投资者 KYC 请求
type KYCRequest struct {
	ExpiresAt     time.Time `json:"expiresAt" binding:"required"`
	Level         uint8     `json:"level"`
	Nationalities string    `json:"nationalities"`
}

// FundRequest 托管账户入金请求
type FundRequest struct {
	Holder string          `json:"holder" binding:"required"`
	Unit   string          `json:"unit"`
	Amount decimal.Decimal `json:"amount"`
}

// 响应模型

// CampaignResponse 众筹响应模型
type CampaignResponse struct {
	ID                string          `json:"id"`
	RewardUnit        string          `json:"rewardUnit"`
	Owner             string          `json:"owner"`
	RefundDestination string          `json:"refundDestination"`
	Cap               decimal.Decimal `json:"cap"`
	Goal              decimal.Decimal `json:"goal"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"`
	MinInvestment     decimal.Decimal `json:"minInvestment"`
	ClosingTime       time.Time       `json:"closingTime"`
	AllowEarlyClosure bool            `json:"allowEarlyClosure"`
	CommissionRate    uint8           `json:"commissionRate"`
	Currency          string          `json:"currency,omitempty"`
	BaseKYCLevel      uint8           `json:"baseKycLevel"`
	Raised            decimal.Decimal `json:"raised"`
	Escrowed          decimal.Decimal `json:"escrowed"`
	State             string          `json:"state"`
	CreatedAt         time.Time       `json:"createdAt"`
	FinalizedAt       *time.Time      `json:"finalizedAt,omitempty"`
}

// GetCampaignsResponse 众筹列表响应
type GetCampaignsResponse struct {
	Campaigns  []CampaignResponse `json:"campaigns"`
	Pagination Pagination         `json:"pagination"`
}

// DepositResponse 存款响应模型
type DepositResponse struct {
	CampaignID      string          `json:"campaignId"`
	Investor        string          `json:"investor"`
	Deposited       decimal.Decimal `json:"deposited"`
	NativeDeposited decimal.Decimal `json:"nativeDeposited"`
}

// ClaimResponse 领取结果
type ClaimResponse struct {
	CampaignID string          `json:"campaignId"`
	Recipient  string          `json:"recipient"`
	Amount     decimal.Decimal `json:"amount"`
}

// ContributeRecordResponse 投资流水响应模型
type ContributeRecordResponse struct {
	Investor  string          `json:"investor"`
	Amount    decimal.Decimal `json:"amount"`
	Converted decimal.Decimal `json:"converted"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GetContributionsResponse 投资流水响应
type GetContributionsResponse struct {
	Records    []ContributeRecordResponse `json:"records"`
	Pagination Pagination                 `json:"pagination"`
}

// RefundRecordResponse 退款流水响应模型
type RefundRecordResponse struct {
	Investor  string          `json:"investor"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GetRefundsResponse 退款流水响应
type GetRefundsResponse struct {
	Refunds    []RefundRecordResponse `json:"refunds"`
	Pagination Pagination             `json:"pagination"`
}

// EventResponse 事件响应模型
type EventResponse struct {
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Amount    decimal.Decimal `json:"amount"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GetEventsResponse 事件列表响应
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// 转换函数

// ToCampaignResponse 将领域模型转换为响应模型
func ToCampaignResponse(c *crowdsale.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:                c.ID,
		RewardUnit:        c.RewardUnit.Hex(),
		Owner:             c.Owner.Hex(),
		RefundDestination: c.RefundDestination.Hex(),
		Cap:               c.Cap,
		Goal:              c.Goal,
		ExchangeRate:      c.ExchangeRate,
		MinInvestment:     c.MinInvestment,
		ClosingTime:       c.ClosingTime,
		AllowEarlyClosure: c.AllowEarlyClosure,
		CommissionRate:    c.CommissionRate,
		Currency:          c.Currency,
		BaseKYCLevel:      c.Eligibility.BaseKYCLevel,
		Raised:            c.Raised,
		Escrowed:          c.Escrowed,
		State:             string(c.State),
		CreatedAt:         c.CreatedAt,
		FinalizedAt:       c.FinalizedAt,
	}
}

// ToCampaignResponseList 将领域模型列表转换为响应模型列表
func ToCampaignResponseList(campaigns []*crowdsale.Campaign) []CampaignResponse {
	result := make([]CampaignResponse, len(campaigns))
	for i, c := range campaigns {
		result[i] = ToCampaignResponse(c)
	}
	return result
}

// ToDepositResponse 将存款记录转换为响应模型
func ToDepositResponse(r crowdsale.ContributionRecord) DepositResponse {
	return DepositResponse{
		CampaignID:      r.CampaignID,
		Investor:        r.Investor.Hex(),
		Deposited:       r.Deposited,
		NativeDeposited: r.NativeDeposited,
	}
}

// ToContributeRecordResponseList 将投资流水转换为响应模型列表
func ToContributeRecordResponseList(records []crowdsale.ContributeRecord) []ContributeRecordResponse {
	result := make([]ContributeRecordResponse, len(records))
	for i, r := range records {
		result[i] = ContributeRecordResponse{
			Investor:  r.Investor.Hex(),
			Amount:    r.Native,
			Converted: r.Converted,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}

// ToRefundRecordResponseList 将退款流水转换为响应模型列表
func ToRefundRecordResponseList(records []crowdsale.RefundRecord) []RefundRecordResponse {
	result := make([]RefundRecordResponse, len(records))
	for i, r := range records {
		result[i] = RefundRecordResponse{
			Investor:  r.Investor.Hex(),
			Amount:    r.Amount,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}

// ToEventResponseList 将事件转换为响应模型列表
func ToEventResponseList(events []crowdsale.Event) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, e := range events {
		result[i] = EventResponse{
			Type:      string(e.Type),
			Actor:     e.Actor.Hex(),
			Amount:    e.Amount,
			State:     string(e.State),
			CreatedAt: e.CreatedAt,
		}
	}
	return result
}
