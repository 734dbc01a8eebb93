package compliance

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// ApprovalRegistry 奖励单位审批表, 实现 crowdsale.ApprovalRegistry
type ApprovalRegistry struct {
	mu        sync.RWMutex
	approvals map[common.Address]crowdsale.EligibilityParams
}

// NewApprovalRegistry 创建审批表
func NewApprovalRegistry() *ApprovalRegistry {
	return &ApprovalRegistry{approvals: make(map[common.Address]crowdsale.EligibilityParams)}
}

// Approve 批准奖励单位并记录基础准入参数
func (a *ApprovalRegistry) Approve(unit common.Address, params crowdsale.EligibilityParams) error {
	if unit == (common.Address{}) {
		return crowdsale.ErrInvalidParameter
	}
	if params.CountryBlacklist != nil {
		params.CountryBlacklist = new(big.Int).Set(params.CountryBlacklist)
	}
	a.mu.Lock()
	a.approvals[unit] = params
	a.mu.Unlock()
	return nil
}

// Revoke 撤销批准, 已创建的众筹不受影响
func (a *ApprovalRegistry) Revoke(unit common.Address) {
	a.mu.Lock()
	delete(a.approvals, unit)
	a.mu.Unlock()
}

// Approval 查询奖励单位是否已批准
func (a *ApprovalRegistry) Approval(ctx context.Context, unit common.Address) (crowdsale.EligibilityParams, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	params, ok := a.approvals[unit]
	if ok && params.CountryBlacklist != nil {
		params.CountryBlacklist = new(big.Int).Set(params.CountryBlacklist)
	}
	return params, ok, nil
}
