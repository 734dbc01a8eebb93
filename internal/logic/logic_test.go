package logic

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/compliance"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/custody"
	"github.com/blues/crowdsale/internal/repository"
)

var (
	admin  = common.HexToAddress("0xad")
	owner  = common.HexToAddress("0x01")
	escrow = common.HexToAddress("0xee")
	unit   = common.HexToAddress("0x7e")
	alice  = common.HexToAddress("0xa1")
	bob    = common.HexToAddress("0xb0")
	t0     = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

type env struct {
	ctx    context.Context
	store  *repository.MemoryStore
	engine *crowdsale.Engine
	id     string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	approvals := compliance.NewApprovalRegistry()
	require.NoError(t, approvals.Approve(unit, crowdsale.EligibilityParams{}))
	wallet := custody.NewWallet(escrow)
	wallet.Credit(alice, decimal.NewFromInt(100))
	wallet.Credit(bob, decimal.NewFromInt(100))

	engine, err := crowdsale.NewEngine(crowdsale.Dependencies{
		Store:       store,
		Approval:    approvals,
		Eligibility: compliance.NewKYCRegistry(),
		Rewards:     custody.NewRewardLedger(),
		Payments:    wallet,
	}, crowdsale.Config{Admin: admin, CommissionWallet: common.HexToAddress("0x03"), Escrow: escrow})
	require.NoError(t, err)

	c, err := engine.Create(ctx, crowdsale.CreateParams{
		Owner:             owner,
		RefundDestination: common.HexToAddress("0x02"),
		Cap:               decimal.NewFromInt(100),
		Goal:              decimal.NewFromInt(40),
		ExchangeRate:      decimal.NewFromInt(5),
		MinInvestment:     decimal.NewFromInt(2),
		ClosingTime:       t0.Add(time.Hour),
		CommissionRate:    10,
		RewardUnit:        unit,
	})
	require.NoError(t, err)
	return &env{ctx: ctx, store: store, engine: engine, id: c.ID}
}

func (e *env) contribute(t *testing.T, investor common.Address, amount int64) {
	t.Helper()
	_, err := e.engine.Contribute(e.ctx, e.id, investor, decimal.NewFromInt(amount), t0)
	require.NoError(t, err)
}

func TestGetCampaignStats(t *testing.T) {
	e := newEnv(t)
	e.contribute(t, alice, 5)
	e.contribute(t, alice, 5)
	e.contribute(t, bob, 10)

	stats, err := NewCampaignLogic(e.store).GetCampaignStats(e.ctx, e.id, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.ContributorCount)
	assert.EqualValues(t, 3, stats.ContributionCount)
	assert.Equal(t, "50", stats.CompletionPercentage.String())
	assert.EqualValues(t, 1800, stats.RemainingSeconds)
	assert.Nil(t, stats.Settlement)

	_, err = e.engine.Finalize(e.ctx, e.id, owner, t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = e.engine.ClaimRefund(e.ctx, e.id, bob)
	require.NoError(t, err)

	stats, err = NewCampaignLogic(e.store).GetCampaignStats(e.ctx, e.id, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, crowdsale.StateRefunding, stats.State)
	assert.EqualValues(t, 1, stats.RefundCount)
	assert.Zero(t, stats.RemainingSeconds)
	require.NotNil(t, stats.Settlement)
	assert.Equal(t, "50", stats.CompletionPercentage.String())

	_, err = NewCampaignLogic(e.store).GetCampaignStats(e.ctx, "missing", t0)
	assert.ErrorIs(t, err, crowdsale.ErrUnknownCampaign)
}

func TestGetCampaignsFiltersByOwner(t *testing.T) {
	e := newEnv(t)
	l := NewCampaignLogic(e.store)

	list, total, err := l.GetCampaigns(e.ctx, &owner, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	list, total, err = l.GetCampaigns(e.ctx, &alice, "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestRecordLogicPagination(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 5; i++ {
		e.contribute(t, alice, 2)
	}
	l := NewRecordLogic(e.store)

	records, total, err := l.GetContributions(e.ctx, e.id, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, records, 2)

	events, total, err := l.GetEvents(e.ctx, e.id, 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, events, 3)

	refunds, total, err := l.GetRefunds(e.ctx, e.id, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, refunds)
}

func TestReconcile(t *testing.T) {
	e := newEnv(t)
	e.contribute(t, alice, 10)
	e.contribute(t, bob, 7)
	l := NewReconcileLogic(e.store)

	report, err := l.Reconcile(e.ctx, e.id, t0)
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.False(t, report.Overdue)
	assert.Equal(t, "17", report.Deposited.String())

	report, err = l.Reconcile(e.ctx, e.id, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, report.Overdue)

	ids, err := l.CampaignIDs(e.ctx, crowdsale.StateActive)
	require.NoError(t, err)
	assert.Equal(t, []string{e.id}, ids)

	// 人为制造账实不符
	require.NoError(t, e.store.Update(e.ctx, e.id, func(tx crowdsale.Tx) error {
		tx.Campaign().Raised = decimal.NewFromInt(18)
		return nil
	}))
	report, err = l.Reconcile(e.ctx, e.id, t0)
	require.NoError(t, err)
	assert.False(t, report.Balanced())
}

func TestReconcileRefunding(t *testing.T) {
	e := newEnv(t)
	e.contribute(t, alice, 10)
	_, err := e.engine.Pause(e.ctx, e.id, admin)
	require.NoError(t, err)
	_, err = e.engine.ClaimRefund(e.ctx, e.id, alice)
	require.NoError(t, err)

	report, err := NewReconcileLogic(e.store).Reconcile(e.ctx, e.id, t0)
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.True(t, report.Escrowed.IsZero())
}
