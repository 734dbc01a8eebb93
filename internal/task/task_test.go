package task

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/compliance"
	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/custody"
	"github.com/blues/crowdsale/internal/repository"
)

var (
	admin    = common.HexToAddress("0xad")
	owner    = common.HexToAddress("0x01")
	escrow   = common.HexToAddress("0xee")
	investor = common.HexToAddress("0x10")
	t0       = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func unitFor(n int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x700 + n)))
}

type env struct {
	ctx    context.Context
	store  *repository.MemoryStore
	engine *crowdsale.Engine
	cfg    *config.Config
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repository.NewMemoryStore()
	approvals := compliance.NewApprovalRegistry()
	wallet := custody.NewWallet(escrow)
	wallet.Credit(investor, decimal.NewFromInt(1000))

	engine, err := crowdsale.NewEngine(crowdsale.Dependencies{
		Store:       store,
		Approval:    approvals,
		Eligibility: compliance.NewKYCRegistry(),
		Rewards:     custody.NewRewardLedger(),
		Payments:    wallet,
	}, crowdsale.Config{Admin: admin, CommissionWallet: common.HexToAddress("0x03"), Escrow: escrow})
	require.NoError(t, err)

	// 每个众筹使用独立的奖励单位
	for i := 1; i <= 8; i++ {
		require.NoError(t, approvals.Approve(unitFor(i), crowdsale.EligibilityParams{}))
	}
	return &env{
		ctx:    context.Background(),
		store:  store,
		engine: engine,
		cfg:    &config.Config{Task: config.TaskConfig{Interval: 60, Workers: 3}},
	}
}

func (e *env) create(t *testing.T, n int, closing time.Time) string {
	t.Helper()
	c, err := e.engine.Create(e.ctx, crowdsale.CreateParams{
		Owner:             owner,
		RefundDestination: common.HexToAddress("0x02"),
		Cap:               decimal.NewFromInt(100),
		Goal:              decimal.NewFromInt(20),
		ExchangeRate:      decimal.NewFromInt(1),
		MinInvestment:     decimal.NewFromInt(1),
		ClosingTime:       closing,
		RewardUnit:        unitFor(n),
	})
	require.NoError(t, err)
	return c.ID
}

func TestReconcileJobRun(t *testing.T) {
	e := newEnv(t)
	var ids []string
	for i := 1; i <= 6; i++ {
		id := e.create(t, i, t0.Add(time.Hour))
		_, err := e.engine.Contribute(e.ctx, id, investor, decimal.NewFromInt(int64(i*3)), t0)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := e.engine.Pause(e.ctx, ids[0], admin)
	require.NoError(t, err)

	job := NewReconcileJob(e.store, e.cfg)
	job.nowFn = func() time.Time { return t0 }

	result, err := job.Run(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Checked)
	assert.Empty(t, result.Imbalanced)
	assert.Zero(t, result.Failed)

	// 篡改汇总后应被发现
	require.NoError(t, e.store.Update(e.ctx, ids[3], func(tx crowdsale.Tx) error {
		tx.Campaign().Raised = tx.Campaign().Raised.Add(decimal.NewFromInt(1))
		return nil
	}))
	result, err = job.Run(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[3]}, result.Imbalanced)

	job.Execute()
}

func TestReconcileJobNoCampaigns(t *testing.T) {
	e := newEnv(t)
	result, err := NewReconcileJob(e.store, e.cfg).Run(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Checked)
}

func TestClosingWatcherJob(t *testing.T) {
	e := newEnv(t)
	early := e.create(t, 1, t0.Add(time.Hour))
	e.create(t, 2, t0.Add(3*time.Hour))
	paused := e.create(t, 3, t0.Add(time.Hour))
	_, err := e.engine.Pause(e.ctx, paused, admin)
	require.NoError(t, err)

	job := NewClosingWatcherJob(e.store, e.cfg)
	job.nowFn = func() time.Time { return t0.Add(2 * time.Hour) }

	overdue, err := job.Overdue(e.ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, early, overdue[0].ID)

	job.Execute()
}

func TestManagerRegistersJobs(t *testing.T) {
	e := newEnv(t)
	m, err := NewManager(e.store, e.cfg)
	require.NoError(t, err)
	m.RegisterJobs()
	assert.ElementsMatch(t, []string{"campaign_reconciler", "campaign_closing_watcher"}, m.Jobs())
	m.Stop()
}
