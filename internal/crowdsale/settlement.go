package crowdsale

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/logger"
)

type step struct {
	name   string
	apply  func(ctx context.Context) error
	revert func(ctx context.Context) error
}

// settlementPlan 一组资金移动, 要么全部完成, 要么全部撤销
type settlementPlan struct {
	payments Payments
	rewards  RewardLedger
	escrow   common.Address

	steps    []step
	applied  int
	executed bool
}

func (p *settlementPlan) collect(from common.Address, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	p.steps = append(p.steps, step{
		name:   fmt.Sprintf("collect %s from %s", amount, from.Hex()),
		apply:  func(ctx context.Context) error { return p.payments.Collect(ctx, from, amount) },
		revert: func(ctx context.Context) error { return p.payments.Pay(ctx, from, amount) },
	})
}

func (p *settlementPlan) pay(to common.Address, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	p.steps = append(p.steps, step{
		name:   fmt.Sprintf("pay %s to %s", amount, to.Hex()),
		apply:  func(ctx context.Context) error { return p.payments.Pay(ctx, to, amount) },
		revert: func(ctx context.Context) error { return p.payments.Collect(ctx, to, amount) },
	})
}

func (p *settlementPlan) releaseReward(unit, to common.Address, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	p.steps = append(p.steps, step{
		name:   fmt.Sprintf("transfer %s of %s to %s", amount, unit.Hex(), to.Hex()),
		apply:  func(ctx context.Context) error { return p.rewards.Transfer(ctx, unit, p.escrow, to, amount) },
		revert: func(ctx context.Context) error { return p.rewards.Transfer(ctx, unit, to, p.escrow, amount) },
	})
}

// execute 按顺序执行; 任一步失败时逆序撤销已完成的步骤
func (p *settlementPlan) execute(ctx context.Context) error {
	for _, s := range p.steps {
		if err := s.apply(ctx); err != nil {
			p.reverse(ctx)
			return fmt.Errorf("%w: %s: %w", ErrTransferFailed, s.name, err)
		}
		p.applied++
	}
	p.executed = true
	return nil
}

func (p *settlementPlan) reverse(ctx context.Context) {
	for i := p.applied - 1; i >= 0; i-- {
		s := p.steps[i]
		if err := s.revert(ctx); err != nil {
			// 撤销失败需要人工介入
			logger.Error("Failed to revert settlement step %q: %v", s.name, err)
		}
	}
	p.applied = 0
	p.executed = false
}
