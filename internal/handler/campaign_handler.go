package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/logic"
)

type CampaignHandler struct {
	engine        *crowdsale.Engine
	campaignLogic *logic.CampaignLogic
	recordLogic   *logic.RecordLogic
	nowFn         func() time.Time
}

func NewCampaignHandler(engine *crowdsale.Engine, store crowdsale.Store, nowFn func() time.Time) *CampaignHandler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &CampaignHandler{
		engine:        engine,
		campaignLogic: logic.NewCampaignLogic(store),
		recordLogic:   logic.NewRecordLogic(store),
		nowFn:         nowFn,
	}
}

// CreateCampaign 创建众筹, 签名者为发起人
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	refund, err := parseAddress("refundDestination", req.RefundDestination)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := parseAddress("rewardUnit", req.RewardUnit)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := h.engine.Create(c.Request.Context(), crowdsale.CreateParams{
		Owner:             callerFrom(c),
		RefundDestination: refund,
		Cap:               req.Cap,
		Goal:              req.Goal,
		ExchangeRate:      req.ExchangeRate,
		MinInvestment:     req.MinInvestment,
		ClosingTime:       req.ClosingTime,
		AllowEarlyClosure: req.AllowEarlyClosure,
		CommissionRate:    req.CommissionRate,
		RewardUnit:        unit,
		Currency:          req.Currency,
	})
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "众筹创建成功", ToCampaignResponse(campaign))
}

// GetCampaigns 获取众筹列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, pageSize := pageParams(c)

	var owner *common.Address
	if raw := c.Query("owner"); raw != "" {
		addr, err := parseAddress("owner", raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		owner = &addr
	}

	campaigns, total, err := h.campaignLogic.GetCampaigns(c.Request.Context(), owner, crowdsale.State(c.Query("state")), page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取众筹列表成功", GetCampaignsResponse{
		Campaigns:  ToCampaignResponseList(campaigns),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetCampaign 获取众筹详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.engine.Campaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取众筹详情成功", ToCampaignResponse(campaign))
}

// GetCampaignStats 获取众筹统计信息
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	stats, err := h.campaignLogic.GetCampaignStats(c.Request.Context(), c.Param("id"), h.nowFn())
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取众筹统计成功", stats)
}

// GetDeposit 查询投资者存款
func (h *CampaignHandler) GetDeposit(c *gin.Context) {
	investor, err := parseAddress("investor", c.Param("investor"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.engine.Deposit(c.Request.Context(), c.Param("id"), investor)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取存款成功", ToDepositResponse(rec))
}

// GetContributions 获取投资流水
func (h *CampaignHandler) GetContributions(c *gin.Context) {
	page, pageSize := pageParams(c)
	records, total, err := h.recordLogic.GetContributions(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取投资记录成功", GetContributionsResponse{
		Records:    ToContributeRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetRefunds 获取退款流水
func (h *CampaignHandler) GetRefunds(c *gin.Context) {
	page, pageSize := pageParams(c)
	records, total, err := h.recordLogic.GetRefunds(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetRefundsResponse{
		Refunds:    ToRefundRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetEvents 获取状态变更日志
func (h *CampaignHandler) GetEvents(c *gin.Context) {
	page, pageSize := pageParams(c)
	events, total, err := h.recordLogic.GetEvents(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件记录成功", GetEventsResponse{
		Events:     ToEventResponseList(events),
		Pagination: newPagination(page, pageSize, total),
	})
}

// Contribute 投资, 签名者为投资者
func (h *CampaignHandler) Contribute(c *gin.Context) {
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.engine.Contribute(c.Request.Context(), c.Param("id"), callerFrom(c), req.Amount, h.nowFn())
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "投资成功", ToDepositResponse(rec))
}

// Finalize 发起人结束众筹
func (h *CampaignHandler) Finalize(c *gin.Context) {
	campaign, err := h.engine.Finalize(c.Request.Context(), c.Param("id"), callerFrom(c), h.nowFn())
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "众筹已结束", ToCampaignResponse(campaign))
}

// Pause 管理员强制终止众筹
func (h *CampaignHandler) Pause(c *gin.Context) {
	campaign, err := h.engine.Pause(c.Request.Context(), c.Param("id"), callerFrom(c))
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "众筹已暂停", ToCampaignResponse(campaign))
}

// ClaimReward 投资者领取奖励单位
func (h *CampaignHandler) ClaimReward(c *gin.Context) {
	investor := callerFrom(c)
	amount, err := h.engine.ClaimReward(c.Request.Context(), c.Param("id"), investor)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "领取奖励成功", ClaimResponse{
		CampaignID: c.Param("id"),
		Recipient:  investor.Hex(),
		Amount:     amount,
	})
}

// ClaimRefund 投资者领取退款
func (h *CampaignHandler) ClaimRefund(c *gin.Context) {
	investor := callerFrom(c)
	amount, err := h.engine.ClaimRefund(c.Request.Context(), c.Param("id"), investor)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", ClaimResponse{
		CampaignID: c.Param("id"),
		Recipient:  investor.Hex(),
		Amount:     amount,
	})
}

// ClaimRaisedFunds 发起人提取净募集额
func (h *CampaignHandler) ClaimRaisedFunds(c *gin.Context) {
	var req ClaimRaisedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	beneficiary, err := parseAddress("beneficiary", req.Beneficiary)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := h.engine.ClaimRaisedFunds(c.Request.Context(), c.Param("id"), beneficiary, callerFrom(c))
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "提取募集额成功", ClaimResponse{
		CampaignID: c.Param("id"),
		Recipient:  beneficiary.Hex(),
		Amount:     amount,
	})
}

// SetCommissionWallet 管理员修改佣金钱包
func (h *CampaignHandler) SetCommissionWallet(c *gin.Context) {
	var req CommissionWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := parseAddress("wallet", req.Wallet)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.SetCommissionWallet(callerFrom(c), wallet); err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "佣金钱包已更新", gin.H{"wallet": wallet.Hex()})
}

func parseAddress(field, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("无效的地址 %s: %q", field, raw)
	}
	return common.HexToAddress(raw), nil
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
