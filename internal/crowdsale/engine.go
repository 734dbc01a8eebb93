package crowdsale

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/logger"
)

// Config 引擎配置
type Config struct {
	Admin            common.Address // 平台管理员, 可暂停众筹和修改佣金钱包
	CommissionWallet common.Address
	Escrow           common.Address // 托管账户, 持有资金与预存的奖励单位
}

// Dependencies 引擎依赖的外部协作者
type Dependencies struct {
	Store       Store
	Approval    ApprovalRegistry
	Eligibility EligibilityOracle
	Rates       ExchangeRateOracle
	Rewards     RewardLedger
	Payments    Payments
}

// Engine 众筹状态机
type Engine struct {
	store       Store
	registry    *Registry
	ledger      *Ledger
	eligibility EligibilityOracle
	rates       ExchangeRateOracle
	rewards     RewardLedger
	payments    Payments

	admin  common.Address
	escrow common.Address

	mu               sync.RWMutex
	commissionWallet common.Address

	nowFn func() time.Time
}

// NewEngine 创建引擎
func NewEngine(deps Dependencies, cfg Config) (*Engine, error) {
	if deps.Store == nil || deps.Approval == nil || deps.Eligibility == nil || deps.Rewards == nil || deps.Payments == nil {
		return nil, errors.New("crowdsale: missing dependency")
	}
	if cfg.Admin == (common.Address{}) {
		return nil, fmt.Errorf("%w: admin is required", ErrInvalidParameter)
	}
	if cfg.Escrow == (common.Address{}) {
		return nil, fmt.Errorf("%w: escrow is required", ErrInvalidParameter)
	}
	return &Engine{
		store:            deps.Store,
		registry:         NewRegistry(deps.Store, deps.Approval),
		ledger:           NewLedger(deps.Store),
		eligibility:      deps.Eligibility,
		rates:            deps.Rates,
		rewards:          deps.Rewards,
		payments:         deps.Payments,
		admin:            cfg.Admin,
		escrow:           cfg.Escrow,
		commissionWallet: cfg.CommissionWallet,
		nowFn:            time.Now,
	}, nil
}

// Registry 返回注册表
func (e *Engine) Registry() *Registry { return e.registry }

// Ledger 返回存款账本
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Admin 返回平台管理员
func (e *Engine) Admin() common.Address { return e.admin }

// Escrow 返回托管账户
func (e *Engine) Escrow() common.Address { return e.escrow }

// CommissionWallet 返回当前佣金钱包
func (e *Engine) CommissionWallet() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.commissionWallet
}

// SetCommissionWallet 修改佣金钱包, 仅管理员可调用
func (e *Engine) SetCommissionWallet(caller, wallet common.Address) error {
	if caller != e.admin {
		return ErrForbidden
	}
	if wallet == (common.Address{}) {
		return fmt.Errorf("%w: commission wallet is required", ErrInvalidParameter)
	}
	e.mu.Lock()
	e.commissionWallet = wallet
	e.mu.Unlock()
	logger.Info("Commission wallet set to %s", wallet.Hex())
	return nil
}

// Create 创建众筹
func (e *Engine) Create(ctx context.Context, p CreateParams) (*Campaign, error) {
	if p.Currency != "" {
		if e.rates == nil {
			return nil, fmt.Errorf("%w: currency %q is not supported", ErrInvalidParameter, p.Currency)
		}
		if _, err := e.rates.Convert(ctx, decimal.Zero, p.Currency); err != nil {
			return nil, fmt.Errorf("%w: currency %q: %w", ErrInvalidParameter, p.Currency, err)
		}
	}
	c, err := e.registry.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	err = e.store.Update(ctx, c.ID, func(tx Tx) error {
		return tx.AddEvent(Event{
			CampaignID: c.ID,
			Type:       EventCampaignCreated,
			Actor:      c.Owner,
			Amount:     c.Cap,
			State:      c.State,
			CreatedAt:  c.CreatedAt,
		})
	})
	if err != nil {
		logger.Error("Failed to journal creation of campaign %s: %v", c.ID, err)
	}
	logger.Info("Campaign %s created: owner=%s reward_unit=%s cap=%s goal=%s", c.ID, c.Owner.Hex(), c.RewardUnit.Hex(), c.Cap, c.Goal)
	return c, nil
}

// Campaign 查询众筹
func (e *Engine) Campaign(ctx context.Context, id string) (*Campaign, error) {
	return e.store.Campaign(ctx, id)
}

// Deposit 查询投资者存款
func (e *Engine) Deposit(ctx context.Context, id string, investor common.Address) (ContributionRecord, error) {
	if _, err := e.store.Campaign(ctx, id); err != nil {
		return ContributionRecord{}, err
	}
	return e.ledger.Deposit(ctx, id, investor)
}

// Contribute 投资, now 为调用时刻
func (e *Engine) Contribute(ctx context.Context, id string, investor common.Address, native decimal.Decimal, now time.Time) (ContributionRecord, error) {
	var rec ContributionRecord
	err := e.transact(ctx, id, func(tx Tx, plan *settlementPlan) error {
		c := tx.Campaign()
		if investor == (common.Address{}) {
			return fmt.Errorf("%w: investor is required", ErrInvalidParameter)
		}
		if err := checkAmount("amount", native); err != nil {
			return err
		}
		if c.State != StateActive {
			return ErrNotActive
		}
		if !now.Before(c.ClosingTime) {
			return ErrCrowdsaleClosed
		}
		if native.LessThan(c.MinInvestment) {
			return ErrBelowMinimum
		}
		ok, err := e.eligibility.Eligible(ctx, investor, native, c.Eligibility, now)
		if err != nil {
			return fmt.Errorf("check eligibility: %w", err)
		}
		if !ok {
			return ErrNotEligible
		}

		converted, err := e.convert(ctx, c, native)
		if err != nil {
			return err
		}
		raised, err := checkedAdd(c.Raised, converted)
		if err != nil {
			return err
		}
		if raised.GreaterThan(c.Cap) {
			return ErrCapExceeded
		}
		escrowed, err := checkedAdd(c.Escrowed, native)
		if err != nil {
			return err
		}

		rec, err = e.ledger.Record(tx, investor, converted, native, now)
		if err != nil {
			return err
		}
		c.Raised = raised
		c.Escrowed = escrowed
		c.UpdatedAt = now

		plan.collect(investor, native)
		if err := plan.execute(ctx); err != nil {
			return err
		}

		if err := tx.AddContribution(ContributeRecord{
			CampaignID: c.ID,
			Investor:   investor,
			Native:     native,
			Converted:  converted,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		return e.journal(tx, EventContributionMade, investor, converted, now)
	})
	if err != nil {
		return ContributionRecord{}, err
	}
	logger.Info("Campaign %s received %s from %s (deposited=%s)", id, native, investor.Hex(), rec.Deposited)
	return rec, nil
}

// Finalize 由发起人结束众筹, 根据目标达成情况进入 closed 或 refunding
func (e *Engine) Finalize(ctx context.Context, id string, caller common.Address, now time.Time) (*Campaign, error) {
	wallet := e.CommissionWallet()

	var result *Campaign
	err := e.transact(ctx, id, func(tx Tx, plan *settlementPlan) error {
		c := tx.Campaign()
		if caller != c.Owner {
			return ErrForbidden
		}
		if c.State != StateActive {
			return ErrNotActive
		}
		if !c.AllowEarlyClosure && now.Before(c.ClosingTime) {
			return ErrTooEarly
		}

		balance, err := e.rewards.BalanceOf(ctx, c.RewardUnit, e.escrow)
		if err != nil {
			return fmt.Errorf("query reward balance: %w", err)
		}
		required, err := checkedMul(c.Raised, c.ExchangeRate)
		if err != nil {
			return err
		}

		if c.Raised.GreaterThanOrEqual(c.Goal) && balance.GreaterThanOrEqual(required) {
			if err := e.settleSuccess(tx, plan, c, wallet, balance.Sub(required), now); err != nil {
				return err
			}
		} else {
			reason := "goal not reached"
			if c.Raised.GreaterThanOrEqual(c.Goal) {
				reason = "insufficient reward units in escrow"
			}
			if err := e.settleFailure(tx, plan, c, balance, reason, now); err != nil {
				return err
			}
		}
		if err := plan.execute(ctx); err != nil {
			return err
		}
		if err := e.journal(tx, EventCampaignFinalized, caller, c.Raised, now); err != nil {
			return err
		}
		result = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Campaign %s finalized: state=%s raised=%s", id, result.State, result.Raised)
	return result, nil
}

// Pause 管理员强制终止众筹, 直接进入 refunding
func (e *Engine) Pause(ctx context.Context, id string, caller common.Address) (*Campaign, error) {
	now := e.nowFn()

	var result *Campaign
	err := e.transact(ctx, id, func(tx Tx, plan *settlementPlan) error {
		c := tx.Campaign()
		if caller != e.admin {
			return ErrForbidden
		}
		if c.State != StateActive {
			return ErrNotActive
		}
		balance, err := e.rewards.BalanceOf(ctx, c.RewardUnit, e.escrow)
		if err != nil {
			return fmt.Errorf("query reward balance: %w", err)
		}
		if err := e.settleFailure(tx, plan, c, balance, "paused by admin", now); err != nil {
			return err
		}
		if err := plan.execute(ctx); err != nil {
			return err
		}
		if err := e.journal(tx, EventCampaignPaused, caller, decimal.Zero, now); err != nil {
			return err
		}
		result = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Warn("Campaign %s paused by admin %s", id, caller.Hex())
	return result, nil
}

// ClaimReward 成功后投资者领取奖励单位, 返回领取数量
func (e *Engine) ClaimReward(ctx context.Context, id string, investor common.Address) (decimal.Decimal, error) {
	now := e.nowFn()

	var entitlement decimal.Decimal
	err := e.transact(ctx, id, func(tx Tx, plan *settlementPlan) error {
		c := tx.Campaign()
		if c.State != StateClosed {
			return ErrNotClosed
		}
		rec, err := e.ledger.Clear(tx, investor, now)
		if err != nil {
			return err
		}
		if entitlement, err = checkedMul(rec.Deposited, c.ExchangeRate); err != nil {
			return err
		}
		plan.releaseReward(c.RewardUnit, investor, entitlement)
		if err := plan.execute(ctx); err != nil {
			return err
		}
		return e.journal(tx, EventRewardClaimed, investor, entitlement, now)
	})
	if err != nil {
		return decimal.Zero, err
	}
	logger.Info("Campaign %s: %s claimed %s reward units", id, investor.Hex(), entitlement)
	return entitlement, nil
}

// ClaimRefund 失败后投资者取回原生资产, 返回退款金额
func (e *Engine) ClaimRefund(ctx context.Context, id string, investor common.Address) (decimal.Decimal, error) {
	now := e.nowFn()

	var refund decimal.Decimal
	err := e.transact(ctx, id, func(tx Tx, plan *settlementPlan) error {
		c := tx.Campaign()
		if c.State != StateRefunding {
			return ErrNotRefunding
		}
		rec, err := e.ledger.Clear(tx, investor, now)
		if err != nil {
			return err
		}
		refund = rec.NativeDeposited
		if refund.GreaterThan(c.Escrowed) {
			return fmt.Errorf("%w: refund %s exceeds escrowed %s", ErrArithmeticOverflow, refund, c.Escrowed)
		}
		c.Escrowed = c.Escrowed.Sub(refund)
		c.UpdatedAt = now

		plan.pay(investor, refund)
		if err := plan.execute(ctx); err != nil {
			return err
		}
		if err := tx.AddRefund(RefundRecord{
			CampaignID: c.ID,
			Investor:   investor,
			Amount:     refund,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		return e.journal(tx, EventRefundClaimed, investor, refund, now)
	})
	if err != nil {
		return decimal.Zero, err
	}
	logger.Info("Campaign %s: refunded %s to %s", id, refund, investor.Hex())
	return refund, nil
}

// ClaimRaisedFunds 发起人提取成功后的净募集额, 返回提取的原生资产数量
func (e *Engine) ClaimRaisedFunds(ctx context.Context, id string, beneficiary, caller common.Address) (decimal.Decimal, error) {
	now := e.nowFn()

	var amount decimal.Decimal
	err := e.transact(ctx, id, func(tx Tx, plan *settlementPlan) error {
		c := tx.Campaign()
		if beneficiary == (common.Address{}) {
			return fmt.Errorf("%w: beneficiary is required", ErrInvalidParameter)
		}
		if caller != c.Owner {
			return ErrForbidden
		}
		if c.State != StateClosed {
			return ErrNotClosed
		}
		if !c.Raised.IsPositive() {
			return ErrNothingToClaim
		}
		amount = c.Escrowed
		c.Raised = decimal.Zero
		c.Escrowed = decimal.Zero
		c.UpdatedAt = now

		plan.pay(beneficiary, amount)
		if err := plan.execute(ctx); err != nil {
			return err
		}
		return e.journal(tx, EventRaisedFundsClaimed, beneficiary, amount, now)
	})
	if err != nil {
		return decimal.Zero, err
	}
	logger.Info("Campaign %s: owner swept %s to %s", id, amount, beneficiary.Hex())
	return amount, nil
}

func (e *Engine) settleSuccess(tx Tx, plan *settlementPlan, c *Campaign, wallet common.Address, surplus decimal.Decimal, now time.Time) error {
	if c.CommissionRate > 0 && wallet == (common.Address{}) {
		return fmt.Errorf("%w: commission wallet is not set", ErrInvalidParameter)
	}
	gross := c.Raised
	commission := percentOf(c.Raised, c.CommissionRate)
	nativeCommission := percentOf(c.Escrowed, c.CommissionRate)

	plan.pay(wallet, nativeCommission)
	plan.releaseReward(c.RewardUnit, c.RefundDestination, surplus)

	c.Raised = c.Raised.Sub(commission)
	c.Escrowed = c.Escrowed.Sub(nativeCommission)
	c.State = StateClosed
	c.FinalizedAt = &now
	c.UpdatedAt = now

	return tx.AddSettlement(SettlementRecord{
		CampaignID:     c.ID,
		Type:           SettlementSuccess,
		TotalAmount:    gross,
		PlatformFee:    commission,
		CreatorAmount:  c.Raised,
		RewardReturned: surplus,
		CreatedAt:      now,
	})
}

func (e *Engine) settleFailure(tx Tx, plan *settlementPlan, c *Campaign, rewardBalance decimal.Decimal, reason string, now time.Time) error {
	gross := c.Raised

	plan.releaseReward(c.RewardUnit, c.RefundDestination, rewardBalance)

	c.Raised = decimal.Zero
	c.State = StateRefunding
	c.FinalizedAt = &now
	c.UpdatedAt = now

	return tx.AddSettlement(SettlementRecord{
		CampaignID:     c.ID,
		Type:           SettlementFailed,
		TotalAmount:    gross,
		PlatformFee:    decimal.Zero,
		CreatorAmount:  decimal.Zero,
		RewardReturned: rewardBalance,
		Reason:         reason,
		CreatedAt:      now,
	})
}

// transact 在众筹事务中执行 fn; 资金已移动但事务未提交时撤销资金移动
func (e *Engine) transact(ctx context.Context, id string, fn func(tx Tx, plan *settlementPlan) error) error {
	plan := &settlementPlan{payments: e.payments, rewards: e.rewards, escrow: e.escrow}
	err := e.store.Update(ctx, id, func(tx Tx) error {
		return fn(tx, plan)
	})
	if err != nil && plan.executed {
		logger.Error("Campaign %s bookkeeping failed after settlement, reverting transfers: %v", id, err)
		plan.reverse(ctx)
	}
	return err
}

func (e *Engine) convert(ctx context.Context, c *Campaign, native decimal.Decimal) (decimal.Decimal, error) {
	if c.NativeMode() {
		return native, nil
	}
	if e.rates == nil {
		return decimal.Zero, fmt.Errorf("%w: currency %q is not supported", ErrInvalidParameter, c.Currency)
	}
	converted, err := e.rates.Convert(ctx, native, c.Currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: convert %s to %s: %w", ErrInvalidParameter, native, c.Currency, err)
	}
	if err := checkAmount("converted amount", converted); err != nil {
		return decimal.Zero, err
	}
	// 折算后截断为 0 的投资不计入任何权益
	if converted.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s converts to zero %s", ErrBelowMinimum, native, c.Currency)
	}
	return converted, nil
}

func (e *Engine) journal(tx Tx, typ EventType, actor common.Address, amount decimal.Decimal, now time.Time) error {
	c := tx.Campaign()
	return tx.AddEvent(Event{
		CampaignID: c.ID,
		Type:       typ,
		Actor:      actor,
		Amount:     amount,
		State:      c.State,
		CreatedAt:  now,
	})
}
