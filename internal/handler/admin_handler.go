package handler

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/blues/crowdsale/internal/compliance"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/custody"
)

// AdminHandler 管理员接口: 奖励单位审批, KYC 登记, 托管入金
type AdminHandler struct {
	engine    *crowdsale.Engine
	approvals *compliance.ApprovalRegistry
	kyc       *compliance.KYCRegistry
	wallet    *custody.Wallet
	rewards   *custody.RewardLedger
}

func NewAdminHandler(engine *crowdsale.Engine, approvals *compliance.ApprovalRegistry, kyc *compliance.KYCRegistry,
	wallet *custody.Wallet, rewards *custody.RewardLedger) *AdminHandler {
	return &AdminHandler{
		engine:    engine,
		approvals: approvals,
		kyc:       kyc,
		wallet:    wallet,
		rewards:   rewards,
	}
}

// RequireAdmin 只允许管理员, 需挂在 SignedCaller 之后
func (h *AdminHandler) RequireAdmin(c *gin.Context) {
	if callerFrom(c) != h.engine.Admin() {
		ErrorResponse(c, http.StatusForbidden, crowdsale.ErrForbidden.Error())
		c.Abort()
		return
	}
	c.Next()
}

// ApproveRewardUnit 批准奖励单位
func (h *AdminHandler) ApproveRewardUnit(c *gin.Context) {
	unit, err := parseAddress("unit", c.Param("unit"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	blacklist, err := parseBitmask(req.CountryBlacklist)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的 countryBlacklist: "+err.Error())
		return
	}
	err = h.approvals.Approve(unit, crowdsale.EligibilityParams{
		BaseKYCLevel:                 req.BaseKYCLevel,
		CountryBlacklist:             blacklist,
		LegalPersonSkipsCountryCheck: req.LegalPersonSkipsCountryCheck,
	})
	if err != nil {
		FailureResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "奖励单位已批准", gin.H{"unit": unit.Hex()})
}

// RevokeRewardUnit 撤销奖励单位
func (h *AdminHandler) RevokeRewardUnit(c *gin.Context) {
	unit, err := parseAddress("unit", c.Param("unit"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	h.approvals.Revoke(unit)
	SuccessResponse(c, http.StatusOK, "奖励单位已撤销", gin.H{"unit": unit.Hex()})
}

// SetKYC 登记投资者 KYC
func (h *AdminHandler) SetKYC(c *gin.Context) {
	investor, err := parseAddress("investor", c.Param("investor"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req KYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	nationalities, err := parseBitmask(req.Nationalities)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的 nationalities: "+err.Error())
		return
	}
	err = h.kyc.Set(investor, compliance.Record{
		ExpiresAt:     req.ExpiresAt,
		Level:         req.Level,
		Nationalities: nationalities,
	})
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "KYC 已登记", gin.H{"investor": investor.Hex()})
}

// RemoveKYC 删除投资者 KYC
func (h *AdminHandler) RemoveKYC(c *gin.Context) {
	investor, err := parseAddress("investor", c.Param("investor"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	h.kyc.Remove(investor)
	SuccessResponse(c, http.StatusOK, "KYC 已删除", gin.H{"investor": investor.Hex()})
}

// CreditNative 给账户充值原生资产
func (h *AdminHandler) CreditNative(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	holder, err := parseAddress("holder", req.Holder)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !crowdsale.ValidAmount(req.Amount) || !req.Amount.IsPositive() {
		ErrorResponse(c, http.StatusBadRequest, "无效的金额")
		return
	}
	h.wallet.Credit(holder, req.Amount)
	SuccessResponse(c, http.StatusOK, "充值成功", gin.H{"holder": holder.Hex(), "balance": h.wallet.BalanceOf(holder)})
}

// MintReward 铸造奖励单位
func (h *AdminHandler) MintReward(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	holder, err := parseAddress("holder", req.Holder)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := parseAddress("unit", req.Unit)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.rewards.Mint(c.Request.Context(), unit, holder, req.Amount); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	balance, _ := h.rewards.BalanceOf(c.Request.Context(), unit, holder)
	SuccessResponse(c, http.StatusOK, "铸造成功", gin.H{"holder": holder.Hex(), "unit": unit.Hex(), "balance": balance})
}

func parseBitmask(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	return hexutil.DecodeBig(raw)
}
