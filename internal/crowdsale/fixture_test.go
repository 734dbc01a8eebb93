package crowdsale_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/compliance"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/custody"
	"github.com/blues/crowdsale/internal/rates"
	"github.com/blues/crowdsale/internal/repository"
)

var (
	admin      = common.HexToAddress("0xad")
	owner      = common.HexToAddress("0x01")
	refundDest = common.HexToAddress("0x02")
	commission = common.HexToAddress("0x03")
	escrow     = common.HexToAddress("0xee")
	unit       = common.HexToAddress("0x7e")
	investorX  = common.HexToAddress("0x10")
	investorY  = common.HexToAddress("0x11")

	t0      = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	closing = t0.Add(time.Hour)
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	ctx       context.Context
	engine    *crowdsale.Engine
	store     crowdsale.Store
	approvals *compliance.ApprovalRegistry
	kyc       *compliance.KYCRegistry
	wallet    *custody.Wallet
	rewards   *custody.RewardLedger
	rates     *rates.Table
}

type fixtureOption func(*crowdsale.Dependencies)

func withStore(wrap func(crowdsale.Store) crowdsale.Store) fixtureOption {
	return func(deps *crowdsale.Dependencies) { deps.Store = wrap(deps.Store) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	table, err := rates.NewTable(map[string]decimal.Decimal{"USD": d(3)})
	require.NoError(t, err)

	f := &fixture{
		ctx:       context.Background(),
		approvals: compliance.NewApprovalRegistry(),
		kyc:       compliance.NewKYCRegistry(),
		wallet:    custody.NewWallet(escrow),
		rewards:   custody.NewRewardLedger(),
		rates:     table,
	}
	deps := crowdsale.Dependencies{
		Store:       repository.NewMemoryStore(),
		Approval:    f.approvals,
		Eligibility: f.kyc,
		Rates:       f.rates,
		Rewards:     f.rewards,
		Payments:    f.wallet,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.store = deps.Store

	f.engine, err = crowdsale.NewEngine(deps, crowdsale.Config{
		Admin:            admin,
		CommissionWallet: commission,
		Escrow:           escrow,
	})
	require.NoError(t, err)

	require.NoError(t, f.approvals.Approve(unit, crowdsale.EligibilityParams{}))
	for _, inv := range []common.Address{investorX, investorY} {
		f.wallet.Credit(inv, d(1000))
	}
	return f
}

func defaultParams() crowdsale.CreateParams {
	return crowdsale.CreateParams{
		Owner:             owner,
		RefundDestination: refundDest,
		Cap:               d(100),
		Goal:              d(20),
		ExchangeRate:      d(5),
		MinInvestment:     d(2),
		ClosingTime:       closing,
		CommissionRate:    10,
		RewardUnit:        unit,
	}
}

func (f *fixture) create(t *testing.T, mutate ...func(*crowdsale.CreateParams)) *crowdsale.Campaign {
	t.Helper()
	p := defaultParams()
	for _, m := range mutate {
		m(&p)
	}
	c, err := f.engine.Create(f.ctx, p)
	require.NoError(t, err)
	return c
}

func (f *fixture) fundEscrow(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.rewards.Mint(f.ctx, unit, escrow, d(amount)))
}

func (f *fixture) contribute(t *testing.T, id string, investor common.Address, amount int64) {
	t.Helper()
	_, err := f.engine.Contribute(f.ctx, id, investor, d(amount), t0)
	require.NoError(t, err)
}

func (f *fixture) campaign(t *testing.T, id string) *crowdsale.Campaign {
	t.Helper()
	c, err := f.engine.Campaign(f.ctx, id)
	require.NoError(t, err)
	return c
}

func (f *fixture) rewardBalance(t *testing.T, holder common.Address) decimal.Decimal {
	t.Helper()
	b, err := f.rewards.BalanceOf(f.ctx, unit, holder)
	require.NoError(t, err)
	return b
}

// assertEqualAmount 比较金额的数值而非表示形式
func assertEqualAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %d, got %s", want, got)
}
