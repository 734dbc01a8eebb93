package custody

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/crowdsale"
)

var (
	escrow = common.HexToAddress("0xee")
	alice  = common.HexToAddress("0xa1")
	unit   = common.HexToAddress("0x7e")
)

func TestWalletCollectAndPay(t *testing.T) {
	ctx := context.Background()
	w := NewWallet(escrow)
	w.Credit(alice, decimal.NewFromInt(10))

	require.NoError(t, w.Collect(ctx, alice, decimal.NewFromInt(4)))
	assert.Equal(t, "6", w.BalanceOf(alice).String())
	assert.Equal(t, "4", w.BalanceOf(escrow).String())

	err := w.Collect(ctx, alice, decimal.NewFromInt(7))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, w.Pay(ctx, alice, decimal.NewFromInt(4)))
	assert.Equal(t, "10", w.BalanceOf(alice).String())
	assert.True(t, w.BalanceOf(escrow).IsZero())
}

func TestWalletRejectingDestination(t *testing.T) {
	ctx := context.Background()
	w := NewWallet(escrow)
	w.Credit(escrow, decimal.NewFromInt(5))
	w.Reject(alice, true)

	err := w.Pay(ctx, alice, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, crowdsale.ErrTransferFailed)
	assert.Equal(t, "5", w.BalanceOf(escrow).String())

	w.Reject(alice, false)
	require.NoError(t, w.Pay(ctx, alice, decimal.NewFromInt(5)))
}

func TestRewardLedgerConservation(t *testing.T) {
	ctx := context.Background()
	l := NewRewardLedger()
	require.NoError(t, l.Mint(ctx, unit, escrow, decimal.NewFromInt(100)))

	require.NoError(t, l.Transfer(ctx, unit, escrow, alice, decimal.NewFromInt(30)))
	a, err := l.BalanceOf(ctx, unit, alice)
	require.NoError(t, err)
	e, err := l.BalanceOf(ctx, unit, escrow)
	require.NoError(t, err)
	assert.Equal(t, "30", a.String())
	assert.Equal(t, "70", e.String())
	assert.True(t, a.Add(e).Equal(l.TotalSupply(unit)))

	err = l.Transfer(ctx, unit, alice, escrow, decimal.NewFromInt(31))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	other := common.HexToAddress("0x7f")
	b, err := l.BalanceOf(ctx, other, escrow)
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	l.Reject(alice, true)
	err = l.Transfer(ctx, unit, escrow, alice, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, crowdsale.ErrTransferFailed)
}
