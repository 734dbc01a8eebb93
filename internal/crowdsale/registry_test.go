package crowdsale_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/crowdsale"
)

func TestCreateRejectsInvalidParameters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*crowdsale.CreateParams)
	}{
		{"null owner", func(p *crowdsale.CreateParams) { p.Owner = common.Address{} }},
		{"null refund destination", func(p *crowdsale.CreateParams) { p.RefundDestination = common.Address{} }},
		{"null reward unit", func(p *crowdsale.CreateParams) { p.RewardUnit = common.Address{} }},
		{"goal above cap", func(p *crowdsale.CreateParams) { p.Goal = d(101) }},
		{"zero goal", func(p *crowdsale.CreateParams) { p.Goal = decimal.Zero }},
		{"zero cap", func(p *crowdsale.CreateParams) { p.Cap = decimal.Zero }},
		{"zero min investment", func(p *crowdsale.CreateParams) { p.MinInvestment = decimal.Zero }},
		{"zero exchange rate", func(p *crowdsale.CreateParams) { p.ExchangeRate = decimal.Zero }},
		{"fractional cap", func(p *crowdsale.CreateParams) { p.Cap = decimal.RequireFromString("100.5") }},
		{"negative min investment", func(p *crowdsale.CreateParams) { p.MinInvestment = d(-1) }},
		{"commission above 100", func(p *crowdsale.CreateParams) { p.CommissionRate = 101 }},
		{"missing closing time", func(p *crowdsale.CreateParams) { p.ClosingTime = time.Time{} }},
		{"unapproved reward unit", func(p *crowdsale.CreateParams) { p.RewardUnit = common.HexToAddress("0xbad") }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			p := defaultParams()
			c.mutate(&p)

			_, err := f.engine.Create(f.ctx, p)
			assert.ErrorIs(t, err, crowdsale.ErrInvalidParameter)

			list, total, err := f.engine.Registry().List(f.ctx, crowdsale.CampaignFilter{})
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Zero(t, total)
		})
	}
}

func TestCreateCapTimesRateOverflow(t *testing.T) {
	f := newFixture(t)
	p := defaultParams()
	p.Cap = crowdsale.MaxAmount
	p.Goal = d(1)
	p.ExchangeRate = d(2)

	_, err := f.engine.Create(f.ctx, p)
	assert.ErrorIs(t, err, crowdsale.ErrInvalidParameter)
	assert.ErrorIs(t, err, crowdsale.ErrArithmeticOverflow)
}

func TestCreateInitialState(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, crowdsale.StateActive, c.State)
	assert.True(t, c.Raised.IsZero())
	assert.True(t, c.Escrowed.IsZero())
	assert.Equal(t, owner, c.Owner)

	stored := f.campaign(t, c.ID)
	assert.Equal(t, c.ID, stored.ID)
	assert.Equal(t, unit, stored.RewardUnit)

	// 建档不移动任何资金
	assert.True(t, f.wallet.BalanceOf(escrow).IsZero())

	events, total, err := f.store.Events(f.ctx, c.ID, crowdsale.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, crowdsale.EventCampaignCreated, events[0].Type)
}

func TestCreateDuplicateRewardUnit(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	_, err := f.engine.Create(f.ctx, defaultParams())
	assert.ErrorIs(t, err, crowdsale.ErrAlreadyExists)
}

func TestCreateCapturesApprovalParams(t *testing.T) {
	f := newFixture(t)
	other := common.HexToAddress("0x7f")
	require.NoError(t, f.approvals.Approve(other, crowdsale.EligibilityParams{BaseKYCLevel: 3}))

	c := f.create(t, func(p *crowdsale.CreateParams) { p.RewardUnit = other })
	assert.EqualValues(t, 3, c.Eligibility.BaseKYCLevel)

	// 撤销审批不影响已创建的众筹
	f.approvals.Revoke(other)
	assert.EqualValues(t, 3, f.campaign(t, c.ID).Eligibility.BaseKYCLevel)
}

func TestGetUnknownCampaign(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Registry().Get(f.ctx, "missing")
	assert.ErrorIs(t, err, crowdsale.ErrUnknownCampaign)

	_, err = f.engine.Deposit(f.ctx, "missing", investorX)
	assert.ErrorIs(t, err, crowdsale.ErrUnknownCampaign)
}
