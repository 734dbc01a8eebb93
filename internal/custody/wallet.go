package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Wallet 进程内原生资产账户, 实现 crowdsale.Payments
type Wallet struct {
	mu        sync.Mutex
	escrow    common.Address
	balances  map[common.Address]decimal.Decimal
	rejecting map[common.Address]bool
}

// NewWallet 创建以 escrow 为托管账户的钱包
func NewWallet(escrow common.Address) *Wallet {
	return &Wallet{
		escrow:    escrow,
		balances:  make(map[common.Address]decimal.Decimal),
		rejecting: make(map[common.Address]bool),
	}
}

// Credit 给账户充值
func (w *Wallet) Credit(to common.Address, amount decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[to] = w.balance(to).Add(amount)
}

// Reject 设置账户是否拒收
func (w *Wallet) Reject(addr common.Address, reject bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if reject {
		w.rejecting[addr] = true
	} else {
		delete(w.rejecting, addr)
	}
}

// BalanceOf 查询余额
func (w *Wallet) BalanceOf(addr common.Address) decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance(addr)
}

// Collect 从 from 收款到托管账户
func (w *Wallet) Collect(ctx context.Context, from common.Address, amount decimal.Decimal) error {
	return w.move(ctx, from, w.escrow, amount)
}

// Pay 从托管账户付款给 to
func (w *Wallet) Pay(ctx context.Context, to common.Address, amount decimal.Decimal) error {
	return w.move(ctx, w.escrow, to, amount)
}

func (w *Wallet) move(ctx context.Context, from, to common.Address, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rejecting[to] {
		return fmt.Errorf("%w: %s rejects funds", crowdsale.ErrTransferFailed, to.Hex())
	}
	balance := w.balance(from)
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from.Hex(), balance, amount)
	}
	w.balances[from] = balance.Sub(amount)
	w.balances[to] = w.balance(to).Add(amount)
	return nil
}

func (w *Wallet) balance(addr common.Address) decimal.Decimal {
	if b, ok := w.balances[addr]; ok {
		return b
	}
	return decimal.Zero
}
