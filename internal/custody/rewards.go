package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

type holding struct {
	unit   common.Address
	holder common.Address
}

// RewardLedger 进程内奖励单位账本, 实现 crowdsale.RewardLedger
type RewardLedger struct {
	mu        sync.Mutex
	balances  map[holding]decimal.Decimal
	supply    map[common.Address]decimal.Decimal
	rejecting map[common.Address]bool
}

// NewRewardLedger 创建奖励单位账本
func NewRewardLedger() *RewardLedger {
	return &RewardLedger{
		balances:  make(map[holding]decimal.Decimal),
		supply:    make(map[common.Address]decimal.Decimal),
		rejecting: make(map[common.Address]bool),
	}
}

// Mint 增发奖励单位给 to
func (l *RewardLedger) Mint(ctx context.Context, unit, to common.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("negative mint amount %s", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := holding{unit, to}
	l.balances[key] = l.balance(key).Add(amount)
	l.supply[unit] = l.totalSupply(unit).Add(amount)
	return nil
}

// Reject 设置持有人是否拒收
func (l *RewardLedger) Reject(holder common.Address, reject bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if reject {
		l.rejecting[holder] = true
	} else {
		delete(l.rejecting, holder)
	}
}

func (l *RewardLedger) BalanceOf(ctx context.Context, unit, holder common.Address) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(holding{unit, holder}), nil
}

// TotalSupply 查询总量
func (l *RewardLedger) TotalSupply(unit common.Address) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply(unit)
}

func (l *RewardLedger) Transfer(ctx context.Context, unit, from, to common.Address, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rejecting[to] {
		return fmt.Errorf("%w: %s rejects reward units", crowdsale.ErrTransferFailed, to.Hex())
	}
	src := holding{unit, from}
	balance := l.balance(src)
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientFunds, from.Hex(), balance, unit.Hex(), amount)
	}
	dst := holding{unit, to}
	l.balances[src] = balance.Sub(amount)
	l.balances[dst] = l.balance(dst).Add(amount)
	return nil
}

func (l *RewardLedger) balance(key holding) decimal.Decimal {
	if b, ok := l.balances[key]; ok {
		return b
	}
	return decimal.Zero
}

func (l *RewardLedger) totalSupply(unit common.Address) decimal.Decimal {
	if s, ok := l.supply[unit]; ok {
		return s
	}
	return decimal.Zero
}
