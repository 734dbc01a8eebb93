package crowdsale

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Ledger 投资者存款账本, 所有写操作都在众筹事务内完成
type Ledger struct {
	store Store
}

// NewLedger 创建存款账本
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Record 累加投资者存款, 只会累加不会覆盖
func (l *Ledger) Record(tx Tx, investor common.Address, amount, native decimal.Decimal, at time.Time) (ContributionRecord, error) {
	rec, err := tx.Deposit(investor)
	if err != nil {
		return ContributionRecord{}, err
	}
	if rec.Deposited, err = checkedAdd(rec.Deposited, amount); err != nil {
		return ContributionRecord{}, err
	}
	if rec.NativeDeposited, err = checkedAdd(rec.NativeDeposited, native); err != nil {
		return ContributionRecord{}, err
	}
	rec.CampaignID = tx.Campaign().ID
	rec.Investor = investor
	rec.UpdatedAt = at
	if err := tx.PutDeposit(rec); err != nil {
		return ContributionRecord{}, err
	}
	return rec, nil
}

// Clear 读取并清零存款, 返回清零前的记录; 已为零时返回 ErrNothingToClaim
func (l *Ledger) Clear(tx Tx, investor common.Address, at time.Time) (ContributionRecord, error) {
	rec, err := tx.Deposit(investor)
	if err != nil {
		return ContributionRecord{}, err
	}
	if rec.Empty() {
		return ContributionRecord{}, ErrNothingToClaim
	}
	cleared := ContributionRecord{
		CampaignID:      tx.Campaign().ID,
		Investor:        investor,
		Deposited:       decimal.Zero,
		NativeDeposited: decimal.Zero,
		UpdatedAt:       at,
	}
	if err := tx.PutDeposit(cleared); err != nil {
		return ContributionRecord{}, err
	}
	return rec, nil
}

// Deposit 查询单个投资者的存款
func (l *Ledger) Deposit(ctx context.Context, campaignID string, investor common.Address) (ContributionRecord, error) {
	return l.store.Deposit(ctx, campaignID, investor)
}

// Total 汇总众筹的全部存款, 返回 (记账单位合计, 原生资产合计)
func (l *Ledger) Total(ctx context.Context, campaignID string) (decimal.Decimal, decimal.Decimal, error) {
	deposits, err := l.store.Deposits(ctx, campaignID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	deposited, native := decimal.Zero, decimal.Zero
	for _, d := range deposits {
		deposited = deposited.Add(d.Deposited)
		native = native.Add(d.NativeDeposited)
	}
	return deposited, native, nil
}
